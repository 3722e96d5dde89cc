package models

import "time"

// Code is a time-boxed numeric credential issued for one class session.
// Several codes may exist for the same session_date; a submission matches
// any row whose (session_date, code) pair is still valid.
type Code struct {
	ID          string    `db:"id" json:"id"`
	SessionDate string    `db:"session_date" json:"session_date"`
	Code        string    `db:"code" json:"code"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	ValidUntil  time.Time `db:"valid_until" json:"valid_until"`
}

// Active reports whether the code is still usable at the given instant.
func (c Code) Active(now time.Time) bool {
	return c.ValidUntil.After(now)
}

// CodeFilter scopes code listing queries.
type CodeFilter struct {
	Page     int
	PageSize int
}

// ActiveSession is the deduplicated student-facing view of sessions that
// currently have at least one valid code.
type ActiveSession struct {
	SessionDate string    `db:"session_date" json:"session_date"`
	ValidUntil  time.Time `db:"valid_until" json:"valid_until"`
}
