package waitlist

import (
	"github.com/keylet/waitlist-api/internal/models"
	"github.com/keylet/waitlist-api/pkg/constants"
)

type JoinWaitlistRequest struct {
	Email string `json:"email" binding:"required,max=255"`
}

// UpsertResult reports the outcome of a waitlist submission. AlreadyExisted
// distinguishes an idempotent re-submission from a first signup; both are
// accepted.
type UpsertResult struct {
	Accepted       bool   `json:"accepted"`
	AlreadyExisted bool   `json:"already_existed"`
	Message        string `json:"-"`
}

type WaitlistEntryResponse struct {
	ID        uint              `json:"id"`
	Email     string            `json:"email"`
	Status    string            `json:"status"`
	Metadata  map[string]string `json:"metadata"`
	Timestamp string            `json:"timestamp"`
}

func ToWaitlistEntryResponse(entry *models.WaitlistEntry) WaitlistEntryResponse {
	if entry == nil {
		return WaitlistEntryResponse{}
	}

	metadata := map[string]string(entry.Metadata)
	if metadata == nil {
		metadata = map[string]string{}
	}

	return WaitlistEntryResponse{
		ID:        entry.ID,
		Email:     entry.Email,
		Status:    models.NormalizeStatus(entry.Status),
		Metadata:  metadata,
		Timestamp: entry.Timestamp.Format(constants.RFC3339DateTimeFormat),
	}
}
