// Package models defines GORM models and SQLite database setup for the
// dispatch engine: user records, manual permission grants, and the
// invocation audit log.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSON is a custom type that stores JSON data as a string in SQLite.
type JSON json.RawMessage

func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "null", nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = JSON("null")
		return nil
	}
	switch v := value.(type) {
	case string:
		*j = JSON(v)
	case []byte:
		*j = JSON(v)
	default:
		return fmt.Errorf("unsupported type for JSON: %T", value)
	}
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return []byte(j), nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	*j = JSON(data)
	return nil
}

// User is an authenticated actor known to the engine. Authority is the
// numeric level the built-in authority.* provider compares against.
type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Platform  string    `gorm:"not null;size:50;index" json:"platform"`
	Name      string    `gorm:"size:255" json:"name"`
	Authority int       `gorm:"not null;default:1" json:"authority"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Grants    []Grant   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"grants,omitempty"`
}

// Grant is a capability name granted directly to a user. The dispatcher
// merges grants into the held set before the resolver's closure test.
type Grant struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	UserID     string    `gorm:"not null;size:36;index" json:"user_id"`
	Permission string    `gorm:"not null;size:255" json:"permission"`
	CreatedAt  time.Time `json:"created_at"`
}

// Invocation records one dispatched command for auditing and the activity
// panel.
type Invocation struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Command    string    `gorm:"not null;size:255;index:idx_invocation_command_created" json:"command"`
	UserID     string    `gorm:"size:36;index" json:"user_id"`
	Args       JSON      `gorm:"type:text" json:"args"`
	Options    JSON      `gorm:"type:text" json:"options"`
	Status     string    `gorm:"not null;size:50" json:"status"`
	Output     string    `gorm:"type:text" json:"output"`
	Error      string    `gorm:"type:text" json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `gorm:"index:idx_invocation_command_created" json:"created_at"`
}

// Valid invocation statuses.
const (
	InvocationStatusOK    = "ok"
	InvocationStatusError = "error"
)
