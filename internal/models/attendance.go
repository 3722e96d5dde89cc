package models

import "time"

// IPStatus is the coarse trust category assigned to a submission's client IP.
type IPStatus string

const (
	IPStatusDev        IPStatus = "DEV"
	IPStatusNormal     IPStatus = "NORMAL"
	IPStatusWarning    IPStatus = "WARNING"
	IPStatusSuspicious IPStatus = "SUSPICIOUS"
)

// Valid returns true when the status is a supported value.
func (s IPStatus) Valid() bool {
	switch s {
	case IPStatusDev, IPStatusNormal, IPStatusWarning, IPStatusSuspicious:
		return true
	default:
		return false
	}
}

// AttendanceRecord is one student's submission against an active code.
// Records are immutable once written; the storage layer enforces at most
// one row per (student_name, session_date, code).
type AttendanceRecord struct {
	ID              string    `db:"id" json:"id"`
	StudentName     string    `db:"student_name" json:"student_name"`
	SessionDate     string    `db:"session_date" json:"session_date"`
	Code            string    `db:"code" json:"code"`
	IP              string    `db:"ip" json:"ip"`
	IPStatus        IPStatus  `db:"ip_status" json:"ip_status"`
	IPStatusMessage string    `db:"ip_status_message" json:"ip_status_message"`
	SubmittedAt     time.Time `db:"submitted_at" json:"submitted_at"`
}

// AttendanceFilter scopes record listing queries for one code.
type AttendanceFilter struct {
	SessionDate     string
	Code            string
	ExcludeStatuses []IPStatus
	Page            int
	PageSize        int
}
