package domain

import "time"

// Agent models a support agent working a department queue.
type Agent struct {
	ID         string
	Name       string
	Email      string
	Department Department
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
