package domain

import "time"

// Status enumerates lifecycle states for queue tokens.
type Status string

const (
	StatusPending Status = "pending"
	StatusCalled  Status = "called"
	StatusServed  Status = "served"
	StatusNoShow  Status = "noshow"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusServed || s == StatusNoShow
}

// Valid reports whether the status is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCalled, StatusServed, StatusNoShow:
		return true
	}
	return false
}

// Token is a single customer's place in the queue. The id is assigned once at
// creation and never changes; the number is an ordinal unique within a
// service day.
type Token struct {
	ID          string
	Number      int
	FullName    string
	Mobile      string
	Purpose     string
	Extra       Extra
	Status      Status
	CounterName *string
	TokenDate   time.Time
	CreatedAt   time.Time
	CalledAt    *time.Time
	ServedAt    *time.Time
}
