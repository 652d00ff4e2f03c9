// Package sqlgen translates diff operations into executable DDL for a
// concrete database provider. Statement order follows operation order;
// the generator never reorders.
package sqlgen

import (
	"fmt"
	"strings"

	"schema_diff_planner/internal/diff"
	"schema_diff_planner/internal/schema"
)

// Dialect selects the target provider.
type Dialect string

const (
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

// Statements renders one DDL statement list for the given operations.
func Statements(d Dialect, ops []diff.Operation) ([]string, error) {
	var out []string
	for _, op := range ops {
		stmts, err := operation(d, op)
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
	}
	return out, nil
}

func operation(d Dialect, op diff.Operation) ([]string, error) {
	switch op.Kind {
	case diff.KindCreateTable:
		return createTable(d, op)
	case diff.KindRemoveTable:
		return []string{fmt.Sprintf("DROP TABLE %s", quote(d, op.Table))}, nil
	case diff.KindAddColumns:
		var out []string
		for _, col := range op.Columns {
			def, err := columnDef(d, col)
			if err != nil {
				return nil, err
			}
			out = append(out, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", quote(d, op.Table), def))
		}
		return out, nil
	case diff.KindRemoveColumns:
		var out []string
		for _, name := range op.Names {
			out = append(out, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", quote(d, op.Table), quote(d, name)))
		}
		return out, nil
	case diff.KindChangeColumns:
		return changeColumns(d, op)
	case diff.KindSetNullable:
		return setNullable(d, op)
	case diff.KindAddIndex:
		unique := ""
		if op.Unique {
			unique = "UNIQUE "
		}
		cols := make([]string, 0, len(op.Names))
		for _, n := range op.Names {
			cols = append(cols, quote(d, n))
		}
		return []string{fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)",
			unique, quote(d, indexName(op.Table, op.Names)), quote(d, op.Table), strings.Join(cols, ", "))}, nil
	case diff.KindDropIndex:
		name := indexName(op.Table, op.Names)
		if d == MySQL {
			return []string{fmt.Sprintf("DROP INDEX %s ON %s", quote(d, name), quote(d, op.Table))}, nil
		}
		return []string{fmt.Sprintf("DROP INDEX %s", quote(d, name))}, nil
	default:
		return nil, fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}

func createTable(d Dialect, op diff.Operation) ([]string, error) {
	t := op.TableDef
	var defs []string
	for _, col := range op.Descriptors {
		def, err := columnDef(d, col)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	if len(t.PrimaryKey) > 1 {
		cols := make([]string, 0, len(t.PrimaryKey))
		for _, c := range t.PrimaryKey {
			cols = append(cols, quote(d, c))
		}
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(cols, ", ")))
	}

	out := []string{fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", quote(d, t.Name), strings.Join(defs, ",\n  "))}
	for _, idx := range t.Indexes {
		cols := make([]string, 0, len(idx.Columns))
		for _, c := range idx.Columns {
			cols = append(cols, quote(d, c))
		}
		unique := ""
		if idx.Unique {
			unique = "UNIQUE "
		}
		out = append(out, fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)",
			unique, quote(d, indexName(t.Name, idx.Columns)), quote(d, t.Name), strings.Join(cols, ", ")))
	}
	return out, nil
}

func changeColumns(d Dialect, op diff.Operation) ([]string, error) {
	var out []string
	for _, col := range op.Columns {
		if d == MySQL {
			def, err := columnDef(d, col)
			if err != nil {
				return nil, err
			}
			out = append(out, fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s", quote(d, op.Table), def))
			continue
		}
		typ, err := sqlType(d, col)
		if err != nil {
			return nil, err
		}
		out = append(out, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s",
			quote(d, op.Table), quote(d, col.Column.Name), typ))
	}
	return out, nil
}

func setNullable(d Dialect, op diff.Operation) ([]string, error) {
	if d == MySQL {
		// MySQL has no standalone SET/DROP NOT NULL; the caller keeps the
		// full column definition in the change operation instead.
		nullability := "NOT NULL"
		if op.Null {
			nullability = "NULL"
		}
		return []string{fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s %s",
			quote(d, op.Table), quote(d, op.Column), nullability)}, nil
	}
	action := "SET NOT NULL"
	if op.Null {
		action = "DROP NOT NULL"
	}
	return []string{fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s",
		quote(d, op.Table), quote(d, op.Column), action)}, nil
}

func columnDef(d Dialect, col diff.ColumnDescriptor) (string, error) {
	typ, err := sqlType(d, col)
	if err != nil {
		return "", err
	}
	parts := []string{quote(d, col.Column.Name), typ}
	if !col.Column.Null && col.Type != schema.TypeAuto {
		parts = append(parts, "NOT NULL")
	}
	if col.Column.Unique {
		parts = append(parts, "UNIQUE")
	}
	if col.Column.PrimaryKey {
		parts = append(parts, "PRIMARY KEY")
	}
	if col.Column.FactoryDefault == "" && col.Column.Default != nil {
		parts = append(parts, "DEFAULT "+defaultLiteral(col.Column.Default))
	}
	if fk := col.Column.ForeignKey; fk != nil {
		ref := fmt.Sprintf("REFERENCES %s (%s)", quote(d, fk.Table), quote(d, fk.Column))
		if fk.OnDelete != "" {
			ref += " ON DELETE " + fk.OnDelete
		}
		if fk.OnUpdate != "" {
			ref += " ON UPDATE " + fk.OnUpdate
		}
		parts = append(parts, ref)
	}
	return strings.Join(parts, " "), nil
}

func sqlType(d Dialect, col diff.ColumnDescriptor) (string, error) {
	c := col.Column
	switch col.Type {
	case schema.TypeAuto:
		if d == MySQL {
			return "BIGINT AUTO_INCREMENT", nil
		}
		return "BIGSERIAL", nil
	case schema.TypeChar:
		length := c.MaxLength
		if length == 0 {
			length = 255
		}
		return fmt.Sprintf("VARCHAR(%d)", length), nil
	case schema.TypeText:
		return "TEXT", nil
	case schema.TypeInt:
		return "INTEGER", nil
	case schema.TypeBigInt, schema.TypeForeignKey:
		return "BIGINT", nil
	case schema.TypeSmallInt:
		return "SMALLINT", nil
	case schema.TypeFloat:
		return "REAL", nil
	case schema.TypeDouble:
		return "DOUBLE PRECISION", nil
	case schema.TypeDecimal:
		return fmt.Sprintf("NUMERIC(%d, %d)", c.MaxDigits, c.DecimalPlaces), nil
	case schema.TypeBool:
		return "BOOLEAN", nil
	case schema.TypeDate:
		return "DATE", nil
	case schema.TypeTime:
		return "TIME", nil
	case schema.TypeDateTime:
		if d == MySQL {
			return "DATETIME", nil
		}
		return "TIMESTAMP", nil
	case schema.TypeTimestamp:
		return "TIMESTAMP", nil
	case schema.TypeBlob:
		if d == MySQL {
			return "BLOB", nil
		}
		return "BYTEA", nil
	case schema.TypeUUID:
		if d == MySQL {
			return "VARCHAR(40)", nil
		}
		return "UUID", nil
	case schema.TypeArray:
		if d == MySQL {
			return "", fmt.Errorf("array columns are not supported on mysql")
		}
		return "TEXT[]", nil
	case schema.TypeJSON:
		return "JSON", nil
	case schema.TypeBinaryJSON:
		if d == MySQL {
			return "JSON", nil
		}
		return "JSONB", nil
	case schema.TypeHStore:
		if d == MySQL {
			return "", fmt.Errorf("hstore columns are not supported on mysql")
		}
		return "HSTORE", nil
	case schema.TypeInterval:
		if d == MySQL {
			return "", fmt.Errorf("interval columns are not supported on mysql")
		}
		return "INTERVAL", nil
	case schema.TypeTSVector:
		if d == MySQL {
			return "", fmt.Errorf("tsvector columns are not supported on mysql")
		}
		return "TSVECTOR", nil
	default:
		return "", fmt.Errorf("no sql type for canonical type %q", col.Type)
	}
}

func defaultLiteral(v any) string {
	switch val := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	default:
		return fmt.Sprintf("%v", val)
	}
}

func indexName(table string, columns []string) string {
	return table + "_" + strings.Join(columns, "_") + "_idx"
}

func quote(d Dialect, ident string) string {
	if d == MySQL {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
