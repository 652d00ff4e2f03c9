// Package apply runs a generated SQL plan against one target database,
// keeping status rows in the target so operators can see what ran.
package apply

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"schema_diff_planner/internal/db"
	"schema_diff_planner/internal/storage"
)

// DefaultStatusTable is where plan status rows live unless overridden.
const DefaultStatusTable = "schema_plan_status"

// Runner applies plans through a provider adapter.
type Runner struct {
	StatusTable string
}

func (r Runner) statusTable() string {
	if r.StatusTable == "" {
		return DefaultStatusTable
	}
	return r.StatusTable
}

// Apply executes the forward SQL of a plan. On failure the rollback SQL
// runs when autoRollback is set; every transition lands in the status
// table first.
func (r Runner) Apply(ctx context.Context, adapter db.Adapter, record storage.PlanRecord, content storage.PlanContent, autoRollback bool) error {
	forwardSQL, rollbackSQL := content.ForwardSQL, content.RollbackSQL
	table := r.statusTable()
	if err := adapter.EnsurePlanTable(ctx, table); err != nil {
		return fmt.Errorf("ensure status table: %w", err)
	}

	entry := db.PlanStatus{
		PlanID:    record.ID,
		PlanName:  record.Name,
		RunID:     uuid.NewString(),
		Status:    "applying",
		Checksum:  record.Checksum,
		AppliedAt: time.Now().UTC(),
	}
	if err := adapter.InsertPlanStatus(ctx, table, entry); err != nil {
		return fmt.Errorf("record plan status: %w", err)
	}

	if err := adapter.ExecScript(ctx, forwardSQL); err != nil {
		entry.Status = "failed"
		entry.Error = sql.NullString{Valid: true, String: err.Error()}
		entry.AppliedAt = time.Now().UTC()
		_ = adapter.UpdatePlanStatus(ctx, table, entry)

		if autoRollback && rollbackSQL != "" {
			rollbackErr := adapter.ExecScript(ctx, rollbackSQL)
			if rollbackErr != nil {
				entry.Status = "rollback_failed"
				entry.Error = sql.NullString{Valid: true, String: rollbackErr.Error()}
			} else {
				entry.Status = "rolled_back"
				entry.Error = sql.NullString{}
			}
			entry.AppliedAt = time.Now().UTC()
			_ = adapter.UpdatePlanStatus(ctx, table, entry)
		}
		return err
	}

	entry.Status = "applied"
	entry.AppliedAt = time.Now().UTC()
	entry.Error = sql.NullString{}
	return adapter.UpdatePlanStatus(ctx, table, entry)
}

// Rollback executes only the rollback SQL of a plan.
func (r Runner) Rollback(ctx context.Context, adapter db.Adapter, record storage.PlanRecord, content storage.PlanContent) error {
	rollbackSQL := content.RollbackSQL
	if rollbackSQL == "" {
		return fmt.Errorf("plan %s has no rollback script", record.Name)
	}
	table := r.statusTable()
	if err := adapter.EnsurePlanTable(ctx, table); err != nil {
		return fmt.Errorf("ensure status table: %w", err)
	}

	entry := db.PlanStatus{
		PlanID:    record.ID,
		PlanName:  record.Name,
		RunID:     uuid.NewString(),
		Status:    "rolling_back",
		Checksum:  record.Checksum,
		AppliedAt: time.Now().UTC(),
	}
	if err := adapter.InsertPlanStatus(ctx, table, entry); err != nil {
		return fmt.Errorf("record plan status: %w", err)
	}

	if err := adapter.ExecScript(ctx, rollbackSQL); err != nil {
		entry.Status = "rollback_failed"
		entry.Error = sql.NullString{Valid: true, String: err.Error()}
		entry.AppliedAt = time.Now().UTC()
		_ = adapter.UpdatePlanStatus(ctx, table, entry)
		return err
	}

	entry.Status = "rolled_back"
	entry.AppliedAt = time.Now().UTC()
	return adapter.UpdatePlanStatus(ctx, table, entry)
}
