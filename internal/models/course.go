package models

import "time"

// Course describes an activity whose enrollment requires a fixed number of
// booked sessions per student.
type Course struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	TotalSessions  int       `db:"total_sessions" json:"total_sessions"`
	SessionMinutes int       `db:"session_minutes" json:"session_minutes"`
	DefaultQuota   int       `db:"default_quota" json:"default_quota"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
