package models

import "time"

type Session struct {
	ID           string                 `json:"id" db:"id"`
	UserID       string                 `json:"userId" db:"user_id"`
	Token        string                 `json:"token" db:"token"`
	DeviceInfo   string                 `json:"deviceInfo,omitempty" db:"device_info"`
	CreatedAt    time.Time              `json:"createdAt" db:"created_at"`
	ExpiresAt    time.Time              `json:"expiresAt" db:"expires_at"`
	LastActivity time.Time              `json:"lastActivity" db:"last_activity"`
	IsActive     bool                   `json:"isActive" db:"is_active"`
	Metadata     map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
}

// IsExpired reports whether the session is past its expiry at now. A zero
// ExpiresAt never expires.
func (s *Session) IsExpired(now time.Time) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return now.After(s.ExpiresAt)
}

// Usable reports whether the session identifies an authenticated caller.
func (s *Session) Usable(now time.Time) bool {
	return s.IsActive && s.UserID != "" && !s.IsExpired(now)
}
