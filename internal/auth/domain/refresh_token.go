package domain

import "time"

// RefreshToken is the server-side record backing a signed refresh token. The
// token string itself is the unique key; a refresh token is usable for
// renewal only while a matching unexpired record still exists.
type RefreshToken struct {
	ID         string
	Token      string
	UserID     string
	ExpiresAt  time.Time
	DeviceInfo string
	IPAddress  string
	CreatedAt  time.Time
}
