package db

import (
	"database/sql"
	"time"
)

// PlanStatus is one plan-application bookkeeping row stored in the target
// database.
type PlanStatus struct {
	PlanID    string
	PlanName  string
	RunID     string
	Status    string
	Checksum  string
	AppliedAt time.Time
	Error     sql.NullString
}
