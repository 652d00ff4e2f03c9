// Package render turns diff operations into the literal call text of the
// migrator vocabulary. It is pure and stateless; it never checks whether
// the migrator will succeed at execution time.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"schema_diff_planner/internal/diff"
	"schema_diff_planner/internal/schema"
)

const (
	indent  = "    "
	newline = "\n" + indent
)

// Operation renders a single operation as migrator call text.
func Operation(op diff.Operation) (string, error) {
	switch op.Kind {
	case diff.KindCreateTable:
		return createTable(op)
	case diff.KindRemoveTable:
		return fmt.Sprintf("migrator.remove_table('%s')", op.Table), nil
	case diff.KindAddColumns:
		return columnsCall("add_columns", op)
	case diff.KindRemoveColumns:
		return fmt.Sprintf("migrator.remove_columns('%s', %s)", op.Table, quotedList(op.Names)), nil
	case diff.KindChangeColumns:
		return columnsCall("change_columns", op)
	case diff.KindSetNullable:
		call := "add_not_null"
		if op.Null {
			call = "drop_not_null"
		}
		return fmt.Sprintf("migrator.%s('%s', '%s')", call, op.Table, op.Column), nil
	case diff.KindAddIndex:
		return fmt.Sprintf("migrator.add_index('%s', %s, unique=%v)", op.Table, quotedList(op.Names), op.Unique), nil
	case diff.KindDropIndex:
		return fmt.Sprintf("migrator.drop_index('%s', %s)", op.Table, quotedList(op.Names)), nil
	default:
		return "", fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}

// Operations renders every operation in order.
func Operations(ops []diff.Operation) ([]string, error) {
	out := make([]string, 0, len(ops))
	for _, op := range ops {
		text, err := Operation(op)
		if err != nil {
			return nil, err
		}
		out = append(out, text)
	}
	return out, nil
}

// Script joins rendered operations into one plan script.
func Script(ops []diff.Operation) (string, error) {
	rendered, err := Operations(ops)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("# generated migration plan\n\n")
	for _, text := range rendered {
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// Column renders the module-qualified declaration fragment for a column,
// e.g. "email = sch.Char(max_length=255, null=true)". withSpacing selects
// whether the assignment carries spaces around '='.
func Column(d diff.ColumnDescriptor, withSpacing bool) (string, error) {
	field, err := d.Type.FieldName()
	if err != nil {
		return "", err
	}
	space := ""
	if withSpacing {
		space = " "
	}
	args := columnArgs(d)
	return fmt.Sprintf("%s%s=%s%s.%s(%s)",
		d.Column.Name, space, space, d.Type.Module(), field, strings.Join(args, ", ")), nil
}

// columnArgs lists declaration parameters in the deterministic order:
// category parameters in registration order first, then default and the
// shared attribute flags.
func columnArgs(d diff.ColumnDescriptor) []string {
	col := d.Column
	var args []string

	switch d.Type {
	case schema.TypeChar:
		args = append(args, fmt.Sprintf("max_length=%d", col.MaxLength))
	case schema.TypeDecimal:
		args = append(args,
			fmt.Sprintf("max_digits=%d", col.MaxDigits),
			fmt.Sprintf("decimal_places=%d", col.DecimalPlaces),
			fmt.Sprintf("auto_round=%v", col.AutoRound))
		if col.Rounding != "" {
			args = append(args, fmt.Sprintf("rounding='%s'", col.Rounding))
		}
	case schema.TypeForeignKey:
		if fk := col.ForeignKey; fk != nil {
			rel := fk.Table
			if fk.Table == d.Table {
				rel = "self"
			}
			args = append(args, fmt.Sprintf("rel='%s'", rel))
			if fk.Column != "" {
				args = append(args, fmt.Sprintf("to_field='%s'", fk.Column))
			}
			if fk.OnDelete != "" {
				args = append(args, fmt.Sprintf("on_delete='%s'", fk.OnDelete))
			}
			if fk.OnUpdate != "" {
				args = append(args, fmt.Sprintf("on_update='%s'", fk.OnUpdate))
			}
		}
	case schema.TypeDateTime, schema.TypeTimestamp:
		if len(col.Formats) > 0 {
			args = append(args, fmt.Sprintf("formats=[%s]", quotedList(col.Formats)))
		}
	}

	if col.FactoryDefault == "" && col.Default != nil {
		args = append(args, "default="+literal(col.Default))
	}
	if col.Null {
		args = append(args, "null=true")
	}
	if col.Index && !col.Unique {
		args = append(args, "index=true")
	}
	if col.Unique {
		args = append(args, "unique=true")
	}
	if col.PrimaryKey {
		args = append(args, "primary_key=true")
	}
	return args
}

func columnsCall(call string, op diff.Operation) (string, error) {
	fragments := make([]string, 0, len(op.Columns))
	for _, d := range op.Columns {
		text, err := Column(d, false)
		if err != nil {
			return "", err
		}
		fragments = append(fragments, text)
	}
	return fmt.Sprintf("migrator.%s(%s'%s',%s%s)",
		call, newline, op.Table, newline, strings.Join(fragments, ","+newline)), nil
}

// createTable renders the full table declaration: every column except an
// implicit single-column identity primary key named "id", followed by a
// metadata block with the table name, a non-default schema, a composite
// primary key and any declared index metadata.
func createTable(op diff.Operation) (string, error) {
	t := op.TableDef
	var fragments []string
	for _, d := range op.Descriptors {
		if implicitIdentity(d) {
			continue
		}
		text, err := Column(d, true)
		if err != nil {
			return "", err
		}
		fragments = append(fragments, text)
	}

	meta := []string{fmt.Sprintf("table_name = '%s'", t.Name)}
	if t.Schema != "" {
		meta = append(meta, fmt.Sprintf("schema = '%s'", t.Schema))
	}
	if len(t.PrimaryKey) > 1 {
		meta = append(meta, fmt.Sprintf("primary_key = (%s)", quotedList(t.PrimaryKey)))
	}
	if len(t.Indexes) > 0 {
		entries := make([]string, 0, len(t.Indexes))
		for _, idx := range t.Indexes {
			entries = append(entries, fmt.Sprintf("((%s), unique=%v)", quotedList(idx.Columns), idx.Unique))
		}
		meta = append(meta, fmt.Sprintf("indexes = [%s]", strings.Join(entries, ", ")))
	}

	body := append([]string{fmt.Sprintf("'%s'", t.Name)}, fragments...)
	body = append(body, "meta("+strings.Join(meta, ", ")+")")
	return "migrator.create_table(" + newline + strings.Join(body, ","+newline) + ")", nil
}

// implicitIdentity reports the conventional auto-increment primary key
// named "id", which create_table leaves implicit.
func implicitIdentity(d diff.ColumnDescriptor) bool {
	return d.Column.Name == "id" && d.Column.PrimaryKey && d.Type == schema.TypeAuto
}

func quotedList(items []string) string {
	quoted := make([]string, 0, len(items))
	for _, item := range items {
		quoted = append(quoted, "'"+item+"'")
	}
	return strings.Join(quoted, ", ")
}

func literal(v any) string {
	switch val := v.(type) {
	case string:
		return strconv.Quote(val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	default:
		return fmt.Sprintf("%v", val)
	}
}
