// Package api serves the review coordinator over HTTP: due items, review
// submission and statistics for the authenticated owner. It translates
// requests into service calls and service errors into status codes with
// messages that are safe to show clients.
package api
