package diff

import "schema_diff_planner/internal/schema"

// Kind identifies one migration operation variant.
type Kind string

const (
	KindCreateTable   Kind = "create_table"
	KindRemoveTable   Kind = "remove_table"
	KindAddColumns    Kind = "add_columns"
	KindRemoveColumns Kind = "remove_columns"
	KindChangeColumns Kind = "change_columns"
	KindSetNullable   Kind = "set_nullable"
	KindAddIndex      Kind = "add_index"
	KindDropIndex     Kind = "drop_index"
)

// Operation is one migration step. Kind selects the variant; the payload
// fields carry only what rendering needs.
type Operation struct {
	Kind  Kind
	Table string

	// CreateTable carries the full table plus resolved descriptors.
	TableDef    *schema.Table
	Descriptors []ColumnDescriptor

	// AddColumns / ChangeColumns payload.
	Columns []ColumnDescriptor

	// RemoveColumns payload, or the column list of an index operation.
	Names []string

	// AddIndex payload.
	Unique bool

	// SetNullable payload: the column and its new nullability. Null true
	// renders as drop_not_null, false as add_not_null.
	Column string
	Null   bool
}
