// Package plan assembles the artifacts a stored migration plan carries:
// the rendered operation scripts for both directions and their SQL
// translation for the target dialect.
package plan

import (
	"strings"

	"schema_diff_planner/internal/diff"
	"schema_diff_planner/internal/render"
	"schema_diff_planner/internal/schema"
	"schema_diff_planner/internal/sqlgen"
	"schema_diff_planner/internal/storage"
)

// BuildContent diffs desired against current in both directions and
// renders every artifact. The rollback direction runs with reversed
// table ordering so dependent tables unwind first.
func BuildContent(desired, current schema.Snapshot, dialect sqlgen.Dialect) (storage.PlanContent, error) {
	forwardOps, err := diff.DiffSchema(desired, current, false)
	if err != nil {
		return storage.PlanContent{}, err
	}
	rollbackOps, err := diff.DiffSchema(current, desired, true)
	if err != nil {
		return storage.PlanContent{}, err
	}

	var content storage.PlanContent
	if content.Forward, err = render.Script(forwardOps); err != nil {
		return storage.PlanContent{}, err
	}
	if content.Rollback, err = render.Script(rollbackOps); err != nil {
		return storage.PlanContent{}, err
	}

	forwardStmts, err := sqlgen.Statements(dialect, forwardOps)
	if err != nil {
		return storage.PlanContent{}, err
	}
	rollbackStmts, err := sqlgen.Statements(dialect, rollbackOps)
	if err != nil {
		return storage.PlanContent{}, err
	}
	content.ForwardSQL = joinStatements(forwardStmts)
	content.RollbackSQL = joinStatements(rollbackStmts)
	return content, nil
}

func joinStatements(stmts []string) string {
	if len(stmts) == 0 {
		return ""
	}
	var b strings.Builder
	for _, s := range stmts {
		b.WriteString(s)
		b.WriteString(";\n")
	}
	return b.String()
}
