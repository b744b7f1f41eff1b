package security

import "time"

// NewTestTokenProvider returns a TokenProvider with a fixed test secret and
// default TTLs. Test helper shared across packages.
func NewTestTokenProvider() *TokenProvider {
	return NewTokenProvider([]byte("test-secret-key"), 30*time.Minute, 168*time.Hour)
}

// NewExpiredTokenProvider returns a TokenProvider whose access tokens expire
// at the instant they are issued. Refresh tokens keep the default TTL.
func NewExpiredTokenProvider() *TokenProvider {
	return NewTokenProvider([]byte("test-secret-key"), 0, 168*time.Hour)
}
