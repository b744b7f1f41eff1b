package domain

import "time"

// Attempt records one login attempt, successful or not. Used for auditing
// and lockout heuristics; never stores the submitted password.
type Attempt struct {
	ID        string
	Username  string
	Succeeded bool
	IPAddress string
	Detail    string
	CreatedAt time.Time
}
