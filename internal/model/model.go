// Package model defines the core domain types for the team registration system.
package model

import (
	"strings"
	"time"
)

// MaxTeamSize bounds a single registration's participant count and the
// combined count of every registration held by one owner.
const MaxTeamSize = 18

// ActivityType identifies the transition recorded by an ActivityLogEntry.
type ActivityType string

const (
	ActivityRegister ActivityType = "register"
	ActivityUpdate   ActivityType = "update"
	ActivityCancel   ActivityType = "cancel"
)

// Registration is a named team entry with a participant count.
type Registration struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Count        int       `json:"count"`
	OwnerID      string    `json:"owner_id"`
	OwnerLabel   string    `json:"owner_label"`
	RegisteredAt time.Time `json:"registered_at"`
}

// NewRegistration carries the caller-supplied fields of a registration
// before the store assigns an id and timestamp.
type NewRegistration struct {
	Name       string
	Count      int
	OwnerID    string
	OwnerLabel string
}

// ActivityLogEntry records one committed registration transition.
// Name is a snapshot taken at the time of the event and survives the
// deletion of the referenced registration.
type ActivityLogEntry struct {
	ID             int64        `json:"id"`
	Type           ActivityType `json:"type"`
	OldCount       *int         `json:"old_count"`
	NewCount       *int         `json:"new_count"`
	RegistrationID *int64       `json:"registration_id"`
	Name           string       `json:"name"`
	Timestamp      time.Time    `json:"timestamp"`
}

// NewActivity carries the fields of an activity entry before the log
// assigns an id and timestamp.
type NewActivity struct {
	Type           ActivityType
	OldCount       *int
	NewCount       *int
	RegistrationID *int64
	Name           string
}

// EventConfig is the process-wide event configuration.
type EventConfig struct {
	MaxCapacity int    `json:"max_capacity"`
	EventName   string `json:"event_name"`
	ServerID    string `json:"server_id"`
	ServerLabel string `json:"server_label"`
}

// EventConfigPatch is a partial update of EventConfig. Nil fields are left
// unchanged.
type EventConfigPatch struct {
	MaxCapacity *int    `json:"max_capacity,omitempty"`
	EventName   *string `json:"event_name,omitempty"`
	ServerID    *string `json:"server_id,omitempty"`
	ServerLabel *string `json:"server_label,omitempty"`
}

// Stats is the read-only capacity summary derived from current state.
type Stats struct {
	TotalRegistrations int `json:"total_registrations"`
	CurrentCount       int `json:"current_count"`
	AvailableSpots     int `json:"available_spots"`
	MaxCapacity        int `json:"max_capacity"`
}

// CreateRegistrationRequest is the payload for creating a registration.
// The owner comes from the authenticated identity, not the body.
type CreateRegistrationRequest struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// UpdateRegistrationRequest is the payload for changing a registration's count.
type UpdateRegistrationRequest struct {
	Count int `json:"count"`
}

// ChatMessageRequest is a chat message relayed from the chat gateway.
type ChatMessageRequest struct {
	AuthorID    string `json:"author_id"`
	AuthorLabel string `json:"author_label"`
	Content     string `json:"content"`
}

// ChatMessageResponse carries the bot reply for a relayed chat message.
type ChatMessageResponse struct {
	Reply string `json:"reply"`
}

// ChatReadyRequest is sent by the chat gateway once it has joined a server.
type ChatReadyRequest struct {
	ServerID    string `json:"server_id"`
	ServerLabel string `json:"server_label"`
}

// SecurityTokenResponse carries a freshly issued write token.
type SecurityTokenResponse struct {
	Token string `json:"token"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NameKey folds a registration name into the form used for uniqueness
// comparisons.
func NameKey(name string) string {
	return strings.ToLower(name)
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 { return &v }
