// Package mocks provides function-field test doubles for the service
// interfaces consumed by the HTTP layer.
//
// Each mock calls its Fn field when set and otherwise returns its default
// values, so a test only configures the behavior it exercises:
//
//	reviews := &mocks.MockReviewService{
//	    GetDueItemsFn: func(ctx context.Context, ownerID uuid.UUID) ([]*domain.DueItem, error) {
//	        return nil, card_review.NewGetDueItemsError("failed to list due items", errBoom)
//	    },
//	}
package mocks
