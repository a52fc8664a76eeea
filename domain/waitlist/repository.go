package waitlist

import (
	"context"
	"errors"

	"github.com/keylet/waitlist-api/internal/models"
	apperrors "github.com/keylet/waitlist-api/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WaitlistRepository interface {
	// FindEntryByEmail returns the entry with an exact email match, or
	// (nil, nil) when no such entry exists.
	FindEntryByEmail(ctx context.Context, email string) (*models.WaitlistEntry, error)

	// CreateEntry inserts the entry if no row with the same email exists.
	// Returns false without error when another row already holds the email,
	// so a lost insert race is reported as "already present" rather than a
	// conflict failure.
	CreateEntry(ctx context.Context, entry *models.WaitlistEntry) (bool, error)

	// GetAllEntries returns every entry, newest first.
	GetAllEntries(ctx context.Context) ([]*models.WaitlistEntry, error)
}

type waitlistRepository struct {
	db *gorm.DB
}

func NewWaitlistRepository(db *gorm.DB) WaitlistRepository {
	return &waitlistRepository{db: db}
}

func (wr *waitlistRepository) FindEntryByEmail(ctx context.Context, email string) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry

	err := wr.db.WithContext(ctx).Where("email = ?", email).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStoreError("unable to look up waitlist entry", err)
	}

	return &entry, nil
}

func (wr *waitlistRepository) CreateEntry(ctx context.Context, entry *models.WaitlistEntry) (bool, error) {
	// ON CONFLICT DO NOTHING against the unique email index makes the
	// insert-if-absent atomic: two concurrent submissions of a brand-new
	// email can both pass the existence check, but only one row is created.
	result := wr.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).
		Create(entry)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) || apperrors.IsDuplicateKeyError(result.Error) {
			return false, nil
		}
		return false, apperrors.NewStoreError("unable to create waitlist entry", result.Error)
	}

	return result.RowsAffected > 0, nil
}

func (wr *waitlistRepository) GetAllEntries(ctx context.Context) ([]*models.WaitlistEntry, error) {
	var entries []*models.WaitlistEntry

	err := wr.db.WithContext(ctx).
		Order("timestamp DESC").
		Order("id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, apperrors.NewStoreError("unable to fetch waitlist entries", err)
	}

	return entries, nil
}
