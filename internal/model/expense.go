package model

import "time"

// DateLayout is the storage and display layout for expense dates.
const DateLayout = "2006-01-02"

// MonthLayout is the layout for budget months.
const MonthLayout = "2006-01"

// Expense is a single recorded expense.
type Expense struct {
	Date        time.Time
	CreatedAt   time.Time
	Confidence  *float64
	Description string
	Category    Category
	Source      DecisionSource
	ID          int64
	UserID      int64
	Amount      Money
}

// Month returns the YYYY-MM month the expense falls in.
func (e *Expense) Month() string {
	return e.Date.Format(MonthLayout)
}

// User is a registered account.
type User struct {
	CreatedAt    time.Time
	Username     string
	PasswordHash []byte
	ID           int64
}

// Session ties a login token to a user.
type Session struct {
	CreatedAt time.Time
	ExpiresAt time.Time
	Token     string
	UserID    int64
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
