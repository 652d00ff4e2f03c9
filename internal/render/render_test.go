package render

import (
	"strings"
	"testing"

	"schema_diff_planner/internal/diff"
	"schema_diff_planner/internal/schema"
)

func describe(t *testing.T, table string, col schema.Column) diff.ColumnDescriptor {
	t.Helper()
	d, err := diff.Describe(table, col)
	if err != nil {
		t.Fatalf("Describe(%s): %v", col.Name, err)
	}
	return d
}

func TestColumnFragments(t *testing.T) {
	tests := []struct {
		name string
		col  schema.Column
		want string
	}{
		{
			name: "char with length and null",
			col:  schema.Column{Name: "email", Type: "char", MaxLength: 255, Null: true},
			want: "email=sch.Char(max_length=255, null=true)",
		},
		{
			name: "unique suppresses index",
			col:  schema.Column{Name: "email", Type: "char", MaxLength: 255, Index: true, Unique: true},
			want: "email=sch.Char(max_length=255, unique=true)",
		},
		{
			name: "decimal",
			col:  schema.Column{Name: "total", Type: "decimal", MaxDigits: 10, DecimalPlaces: 2, AutoRound: true},
			want: "total=sch.Decimal(max_digits=10, decimal_places=2, auto_round=true)",
		},
		{
			name: "string default",
			col:  schema.Column{Name: "status", Type: "char", MaxLength: 20, Default: "new"},
			want: `status=sch.Char(max_length=20, default="new")`,
		},
		{
			name: "integer default normalized",
			col:  schema.Column{Name: "count", Type: "int", Default: float64(0)},
			want: "count=sch.Int(default=0)",
		},
		{
			name: "factory default omitted",
			col:  schema.Column{Name: "created", Type: "datetime", FactoryDefault: "now"},
			want: "created=sch.DateTime()",
		},
		{
			name: "extension module",
			col:  schema.Column{Name: "payload", Type: "binary_json", Null: true},
			want: "payload=ext.BinaryJSON(null=true)",
		},
		{
			name: "derived type renders as ancestor",
			col:  schema.Column{Name: "addr", Type: "ip"},
			want: "addr=sch.BigInt()",
		},
		{
			name: "datetime custom formats",
			col:  schema.Column{Name: "ts", Type: "datetime", Formats: []string{"%Y-%m-%d"}},
			want: "ts=sch.DateTime(formats=['%Y-%m-%d'])",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Column(describe(t, "users", tt.col), false)
			if err != nil {
				t.Fatalf("Column: %v", err)
			}
			if got != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestColumnForeignKeyFragment(t *testing.T) {
	d := describe(t, "orders", schema.Column{
		Name: "customer_id", Type: "foreign_key",
		ForeignKey: &schema.ForeignKey{Table: "customers", Column: "id", OnDelete: "CASCADE"},
	})
	got, err := Column(d, false)
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	want := "customer_id=sch.ForeignKey(rel='customers', to_field='id', on_delete='CASCADE')"
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}

	self := describe(t, "categories", schema.Column{
		Name: "parent_id", Type: "foreign_key", Null: true,
		ForeignKey: &schema.ForeignKey{Table: "categories", Column: "id"},
	})
	got, err = Column(self, false)
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	want = "parent_id=sch.ForeignKey(rel='self', to_field='id', null=true)"
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestOperationSimpleCalls(t *testing.T) {
	tests := []struct {
		name string
		op   diff.Operation
		want string
	}{
		{
			name: "remove table",
			op:   diff.Operation{Kind: diff.KindRemoveTable, Table: "orders"},
			want: "migrator.remove_table('orders')",
		},
		{
			name: "remove columns",
			op:   diff.Operation{Kind: diff.KindRemoveColumns, Table: "users", Names: []string{"legacy", "scratch"}},
			want: "migrator.remove_columns('users', 'legacy', 'scratch')",
		},
		{
			name: "add not null",
			op:   diff.Operation{Kind: diff.KindSetNullable, Table: "users", Column: "email", Null: false},
			want: "migrator.add_not_null('users', 'email')",
		},
		{
			name: "drop not null",
			op:   diff.Operation{Kind: diff.KindSetNullable, Table: "users", Column: "bio", Null: true},
			want: "migrator.drop_not_null('users', 'bio')",
		},
		{
			name: "add unique index",
			op:   diff.Operation{Kind: diff.KindAddIndex, Table: "users", Names: []string{"email"}, Unique: true},
			want: "migrator.add_index('users', 'email', unique=true)",
		},
		{
			name: "add compound index",
			op:   diff.Operation{Kind: diff.KindAddIndex, Table: "events", Names: []string{"kind", "ts"}},
			want: "migrator.add_index('events', 'kind', 'ts', unique=false)",
		},
		{
			name: "drop index",
			op:   diff.Operation{Kind: diff.KindDropIndex, Table: "users", Names: []string{"email"}},
			want: "migrator.drop_index('users', 'email')",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Operation(tt.op)
			if err != nil {
				t.Fatalf("Operation: %v", err)
			}
			if got != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestOperationAddColumns(t *testing.T) {
	op := diff.Operation{
		Kind:  diff.KindAddColumns,
		Table: "users",
		Columns: []diff.ColumnDescriptor{
			describe(t, "users", schema.Column{Name: "nickname", Type: "char", MaxLength: 40, Null: true}),
			describe(t, "users", schema.Column{Name: "age", Type: "int", Default: float64(0)}),
		},
	}
	got, err := Operation(op)
	if err != nil {
		t.Fatalf("Operation: %v", err)
	}
	want := "migrator.add_columns(\n" +
		"    'users',\n" +
		"    nickname=sch.Char(max_length=40, null=true),\n" +
		"    age=sch.Int(default=0))"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestOperationCreateTable(t *testing.T) {
	table := schema.Table{
		Name: "orders",
		Columns: []schema.Column{
			{Name: "id", Type: "auto", PrimaryKey: true},
			{Name: "customer_id", Type: "foreign_key", ForeignKey: &schema.ForeignKey{Table: "customers", Column: "id"}},
			{Name: "total", Type: "decimal", MaxDigits: 10, DecimalPlaces: 2},
		},
		Indexes: []schema.CompoundIndex{{Columns: []string{"customer_id", "total"}, Unique: true}},
	}
	descriptors := make([]diff.ColumnDescriptor, 0, len(table.Columns))
	for _, col := range table.Columns {
		descriptors = append(descriptors, describe(t, table.Name, col))
	}
	op := diff.Operation{Kind: diff.KindCreateTable, Table: table.Name, TableDef: &table, Descriptors: descriptors}

	got, err := Operation(op)
	if err != nil {
		t.Fatalf("Operation: %v", err)
	}

	if strings.Contains(got, "\n    id = ") {
		t.Error("implicit identity primary key must be elided")
	}
	for _, want := range []string{
		"migrator.create_table(",
		"'orders'",
		"customer_id = sch.ForeignKey(rel='customers', to_field='id')",
		"total = sch.Decimal(max_digits=10, decimal_places=2, auto_round=false)",
		"meta(table_name = 'orders', indexes = [(('customer_id', 'total'), unique=true)])",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestOperationCreateTableExplicitPrimaryKey(t *testing.T) {
	table := schema.Table{
		Name: "memberships",
		Columns: []schema.Column{
			{Name: "user_id", Type: "foreign_key", ForeignKey: &schema.ForeignKey{Table: "users", Column: "id"}},
			{Name: "team_id", Type: "foreign_key", ForeignKey: &schema.ForeignKey{Table: "teams", Column: "id"}},
		},
		PrimaryKey: []string{"user_id", "team_id"},
	}
	descriptors := make([]diff.ColumnDescriptor, 0, len(table.Columns))
	for _, col := range table.Columns {
		descriptors = append(descriptors, describe(t, table.Name, col))
	}
	op := diff.Operation{Kind: diff.KindCreateTable, Table: table.Name, TableDef: &table, Descriptors: descriptors}

	got, err := Operation(op)
	if err != nil {
		t.Fatalf("Operation: %v", err)
	}
	if !strings.Contains(got, "primary_key = ('user_id', 'team_id')") {
		t.Errorf("composite primary key missing:\n%s", got)
	}
}

func TestScript(t *testing.T) {
	ops := []diff.Operation{
		{Kind: diff.KindRemoveTable, Table: "audit_log"},
		{Kind: diff.KindDropIndex, Table: "users", Names: []string{"email"}},
	}
	got, err := Script(ops)
	if err != nil {
		t.Fatalf("Script: %v", err)
	}
	want := "# generated migration plan\n\n" +
		"migrator.remove_table('audit_log')\n" +
		"migrator.drop_index('users', 'email')\n"
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestOperationUnknownKind(t *testing.T) {
	if _, err := Operation(diff.Operation{Kind: "explode"}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
