package waitlist

import (
	"bytes"
	"context"
	"encoding/csv"
	"regexp"
	"strconv"

	"github.com/keylet/waitlist-api/internal/log"
	"github.com/keylet/waitlist-api/internal/models"
	"github.com/keylet/waitlist-api/pkg/constants"
	apperrors "github.com/keylet/waitlist-api/pkg/errors"
)

// User-facing messages for the signup flow.
const (
	MsgInvalidEmail   = "Please enter a valid email address."
	MsgAlreadyOnList  = "You're already on our waitlist!"
	MsgJoinedWaitlist = "Thank you for joining our waitlist!"
	MsgStoreFailure   = "Something went wrong. Please try again later."
	MsgListFailure    = "Failed to retrieve waitlist data"
)

// Deliberately lenient two-part shape check: local part and domain with no
// whitespace, domain containing at least one dot. Not a security boundary.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type WaitlistService interface {
	// Upsert validates the address and inserts it if absent. Submitting an
	// email that is already on the list is a success, never an error and
	// never a second row.
	Upsert(ctx context.Context, email string) (*UpsertResult, error)

	// GetAllEntries retrieves all waitlist entries, newest first.
	GetAllEntries(ctx context.Context) ([]WaitlistEntryResponse, error)

	// ExportCSV renders all entries as a CSV document in list order.
	ExportCSV(ctx context.Context) ([]byte, error)
}

type waitlistService struct {
	logger     *log.Logger
	repository WaitlistRepository
}

func NewWaitlistService(logger *log.Logger, repository WaitlistRepository) WaitlistService {
	return &waitlistService{logger: logger, repository: repository}
}

func (s *waitlistService) Upsert(ctx context.Context, email string) (*UpsertResult, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	if !emailPattern.MatchString(email) {
		logger.Info("Rejected malformed waitlist email")
		return nil, apperrors.NewValidationError(MsgInvalidEmail, nil)
	}

	existing, err := s.repository.FindEntryByEmail(ctx, email)
	if err != nil {
		logger.Error("Failed to look up waitlist entry", "error", err)
		return nil, err
	}

	if existing != nil {
		return &UpsertResult{
			Accepted:       true,
			AlreadyExisted: true,
			Message:        MsgAlreadyOnList,
		}, nil
	}

	entry := &models.WaitlistEntry{
		Email:  email,
		Status: models.StatusPending,
		Metadata: models.JSONMap{
			constants.MetadataSourceKey: constants.MetadataSourceWebsite,
		},
	}

	created, err := s.repository.CreateEntry(ctx, entry)
	if err != nil {
		logger.Error("Failed to create waitlist entry", "error", err)
		return nil, err
	}

	if !created {
		// Lost the insert race: someone else added the email between the
		// existence check and the insert. Same outcome as "found".
		return &UpsertResult{
			Accepted:       true,
			AlreadyExisted: true,
			Message:        MsgAlreadyOnList,
		}, nil
	}

	logger.Info("Waitlist entry created", "id", entry.ID)

	return &UpsertResult{
		Accepted:       true,
		AlreadyExisted: false,
		Message:        MsgJoinedWaitlist,
	}, nil
}

func (s *waitlistService) GetAllEntries(ctx context.Context) ([]WaitlistEntryResponse, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	entries, err := s.repository.GetAllEntries(ctx)
	if err != nil {
		logger.Error("Failed to get all waitlist entries", "error", err)
		return nil, err
	}

	responses := make([]WaitlistEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, ToWaitlistEntryResponse(entry))
	}

	return responses, nil
}

func (s *waitlistService) ExportCSV(ctx context.Context) ([]byte, error) {
	entries, err := s.GetAllEntries(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{{"id", "email", "status", "source", "timestamp"}}
	for _, entry := range entries {
		records = append(records, []string{
			strconv.FormatUint(uint64(entry.ID), 10),
			entry.Email,
			entry.Status,
			entry.Metadata[constants.MetadataSourceKey],
			entry.Timestamp,
		})
	}

	if err := w.WriteAll(records); err != nil {
		return nil, apperrors.NewInternalServerError("unable to render waitlist CSV", err)
	}

	return buf.Bytes(), nil
}
