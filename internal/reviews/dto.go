package reviews

import (
	"time"

	"github.com/google/uuid"
)

// CreateInput carries a customer's rating of a completed repair.
type CreateInput struct {
	RequestID   uuid.UUID
	Rating      int
	Comment     *string
	ActorUserID uuid.UUID
}

// Summary is one review as shown on a workshop's public profile.
type Summary struct {
	ID        uuid.UUID `json:"id"`
	RequestID uuid.UUID `json:"request_id"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewList is a cursor page of reviews.
type ReviewList struct {
	Reviews    []Summary `json:"reviews"`
	NextCursor string    `json:"next_cursor,omitempty"`
}
