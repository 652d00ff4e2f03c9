package db

import (
	"strings"

	"schema_diff_planner/internal/schema"
)

// tableBuilder accumulates reflected pieces of one table before the
// snapshot is assembled. Both providers feed it.
type tableBuilder struct {
	name       string
	columns    []schema.Column
	position   map[string]int
	primaryKey []string
	indexes    []schema.CompoundIndex
}

func newTableBuilder(name string) *tableBuilder {
	return &tableBuilder{name: name, position: map[string]int{}}
}

func (b *tableBuilder) add(col schema.Column) {
	b.position[col.Name] = len(b.columns)
	b.columns = append(b.columns, col)
}

func (b *tableBuilder) setForeignKey(column string, fk schema.ForeignKey) {
	i, ok := b.position[column]
	if !ok {
		return
	}
	b.columns[i].ForeignKey = &fk
	b.columns[i].Type = "foreign_key"
}

func (b *tableBuilder) addIndex(columns []string, unique bool) {
	if len(columns) == 1 {
		i, ok := b.position[columns[0]]
		if !ok {
			return
		}
		if unique {
			b.columns[i].Unique = true
		} else {
			b.columns[i].Index = true
		}
		return
	}
	b.indexes = append(b.indexes, schema.CompoundIndex{Columns: columns, Unique: unique})
}

func (b *tableBuilder) finish() schema.Table {
	t := schema.Table{Name: b.name, Columns: b.columns, Indexes: b.indexes}

	switch len(b.primaryKey) {
	case 0:
	case 1:
		if i, ok := b.position[b.primaryKey[0]]; ok {
			b.columns[i].PrimaryKey = true
			// A sequence-backed integer primary key is the identity column.
			if isIdentity(b.columns[i]) {
				b.columns[i].Type = "auto"
				b.columns[i].FactoryDefault = ""
			}
		}
	default:
		t.PrimaryKey = append([]string{}, b.primaryKey...)
	}
	t.Columns = b.columns
	return t
}

func isIdentity(col schema.Column) bool {
	switch col.Type {
	case "int", "bigint", "smallint":
	default:
		return false
	}
	return strings.Contains(strings.ToLower(col.FactoryDefault), "nextval") ||
		strings.Contains(strings.ToLower(col.FactoryDefault), "auto_increment")
}
