// Package locks provides per-key mutual exclusion for review updates.
//
// LocalLocker serializes callers within one process. RedisLocker extends the
// same guarantee across server instances sharing a Redis deployment.
package locks
