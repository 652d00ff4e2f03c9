package plan

import (
	"strings"
	"testing"

	"schema_diff_planner/internal/schema"
	"schema_diff_planner/internal/sqlgen"
)

func TestBuildContent(t *testing.T) {
	desired := schema.Snapshot{Tables: []schema.Table{
		{Name: "customers", Columns: []schema.Column{
			{Name: "id", Type: "auto", PrimaryKey: true},
			{Name: "email", Type: "char", MaxLength: 255, Unique: true},
		}},
	}}

	content, err := BuildContent(desired, schema.Snapshot{}, sqlgen.Postgres)
	if err != nil {
		t.Fatalf("BuildContent: %v", err)
	}

	if !strings.Contains(content.Forward, "migrator.create_table(") {
		t.Errorf("forward script:\n%s", content.Forward)
	}
	if !strings.Contains(content.Rollback, "migrator.remove_table('customers')") {
		t.Errorf("rollback script:\n%s", content.Rollback)
	}
	if !strings.Contains(content.ForwardSQL, `CREATE TABLE "customers"`) || !strings.HasSuffix(content.ForwardSQL, ";\n") {
		t.Errorf("forward sql:\n%s", content.ForwardSQL)
	}
	if !strings.Contains(content.RollbackSQL, `DROP TABLE "customers"`) {
		t.Errorf("rollback sql:\n%s", content.RollbackSQL)
	}
}

func TestBuildContentNoChanges(t *testing.T) {
	snap := schema.Snapshot{Tables: []schema.Table{
		{Name: "customers", Columns: []schema.Column{{Name: "id", Type: "auto", PrimaryKey: true}}},
	}}

	content, err := BuildContent(snap, snap, sqlgen.Postgres)
	if err != nil {
		t.Fatalf("BuildContent: %v", err)
	}
	if content.ForwardSQL != "" || content.RollbackSQL != "" {
		t.Errorf("identical snapshots produced SQL: %+v", content)
	}
}

func TestBuildContentPropagatesDiffErrors(t *testing.T) {
	bad := schema.Snapshot{Tables: []schema.Table{
		{Name: "docs", Columns: []schema.Column{{Name: "loc", Type: "geometry"}}},
	}}

	if _, err := BuildContent(bad, schema.Snapshot{}, sqlgen.Postgres); err == nil {
		t.Fatal("expected error for unknown column type")
	}
}
