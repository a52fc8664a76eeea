package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Waitlist entry statuses. Entries are always created as pending; moving them
// to confirmed or rejected happens outside this service.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusRejected  = "rejected"
	StatusUnknown   = "unknown"
)

// NormalizeStatus maps unrecognized status values to StatusUnknown so that
// rows touched by external tooling never break API consumers.
func NormalizeStatus(s string) string {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected:
		return s
	default:
		return StatusUnknown
	}
}

// JSONMap is an open-ended key/value mapping persisted as a JSON column.
type JSONMap map[string]string

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for JSONMap", value)
	}

	if len(raw) == 0 {
		*m = JSONMap{}
		return nil
	}

	return json.Unmarshal(raw, m)
}

// WaitlistEntry is the sole persisted entity: one row per prospective user,
// keyed by email. Rows are create-once, read-many; no update or delete path
// is exposed by the API.
type WaitlistEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"not null;uniqueIndex" json:"email"`
	Timestamp time.Time `gorm:"not null;autoCreateTime" json:"timestamp"`
	Status    string    `gorm:"not null;default:pending" json:"status"`
	Metadata  JSONMap   `gorm:"type:json" json:"metadata"`
}

func (WaitlistEntry) TableName() string {
	return "waitlist_entries"
}

// ModelRegistry lists every model auto-migrated in development.
var ModelRegistry = []interface{}{
	&WaitlistEntry{},
}
