package diff

import (
	"strings"

	"schema_diff_planner/internal/schema"
)

// ColumnDescriptor pairs a column with its resolved canonical type and the
// table that owns it. It is the comparable-and-renderable view of the
// column used throughout the diff.
type ColumnDescriptor struct {
	Table  string
	Column schema.Column
	Type   schema.CanonicalType
}

// Describe resolves the column's concrete type against the canonical
// registry.
func Describe(table string, col schema.Column) (ColumnDescriptor, error) {
	ct, err := schema.Resolve(col.Type)
	if err != nil {
		return ColumnDescriptor{}, err
	}
	return ColumnDescriptor{Table: table, Column: col, Type: ct}, nil
}

// indexState is the comparable (indexed-and-not-unique, unique) pair.
type indexState [2]bool

// ComparableParams returns the attribute set used for structural
// comparison: type-category parameters, a literal default if one exists,
// nullability under "null" and the index pair under "index". Factory
// defaults and backref metadata never appear.
func (d ColumnDescriptor) ComparableParams() map[string]any {
	col := d.Column
	params := d.categoryParams()

	if col.FactoryDefault == "" && col.Default != nil {
		if v, ok := comparableLiteral(col.Default); ok {
			params["default"] = v
		}
	}

	params["null"] = col.Null
	params["index"] = indexState{col.Index && !col.Unique, col.Unique}
	return params
}

// categoryParams extracts the extra attributes specific to the canonical
// type category. Adding a canonical type with its own parameters means
// adding a case here.
func (d ColumnDescriptor) categoryParams() map[string]any {
	col := d.Column
	params := map[string]any{}
	switch d.Type {
	case schema.TypeChar:
		params["max_length"] = col.MaxLength
	case schema.TypeDecimal:
		params["max_digits"] = col.MaxDigits
		params["decimal_places"] = col.DecimalPlaces
		params["auto_round"] = col.AutoRound
		params["rounding"] = col.Rounding
	case schema.TypeForeignKey:
		if col.ForeignKey != nil {
			if col.ForeignKey.OnDelete != "" {
				params["on_delete"] = col.ForeignKey.OnDelete
			}
			if col.ForeignKey.OnUpdate != "" {
				params["on_update"] = col.ForeignKey.OnUpdate
			}
		}
	case schema.TypeDateTime, schema.TypeTimestamp:
		// Custom format lists only; the default formats are not compared.
		if len(col.Formats) > 0 {
			params["formats"] = strings.Join(col.Formats, "|")
		}
	}
	return params
}

// comparableLiteral reports whether a default value is a literal the diff
// may compare, normalizing it to a stable representation.
func comparableLiteral(v any) (any, bool) {
	switch val := v.(type) {
	case string, bool, float64, float32:
		return val, true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	default:
		return nil, false
	}
}

// paramsDiff returns the key/value pairs present in next but not in prev,
// the set difference the table diff is built on.
func paramsDiff(next, prev map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range next {
		old, ok := prev[k]
		if !ok || old != v {
			out[k] = v
		}
	}
	return out
}
