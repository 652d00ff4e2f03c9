package diff

import (
	"fmt"
	"sort"

	"schema_diff_planner/internal/schema"
)

// DiffTable compares two versions of one table and returns operations in
// the fixed emission order: AddColumns, RemoveColumns, ChangeColumns,
// per-column SetNullable, per-column index operations, compound index
// drops, compound index adds. Column iteration is by sorted name so the
// result is reproducible byte for byte.
func DiffTable(next, prev schema.Table) ([]Operation, error) {
	var ops []Operation

	nextNames := sortedColumnNames(next)
	prevNames := sortedColumnNames(prev)

	added := difference(nextNames, prevNames)
	if len(added) > 0 {
		cols := make([]ColumnDescriptor, 0, len(added))
		for _, name := range added {
			col, _ := next.Column(name)
			d, err := Describe(next.Name, col)
			if err != nil {
				return nil, fmt.Errorf("table %s: %w", next.Name, err)
			}
			cols = append(cols, d)
		}
		ops = append(ops, Operation{Kind: KindAddColumns, Table: next.Name, Columns: cols})
	}

	removed := difference(prevNames, nextNames)
	if len(removed) > 0 {
		ops = append(ops, Operation{Kind: KindRemoveColumns, Table: next.Name, Names: removed})
	}

	var (
		changed    []ColumnDescriptor
		nullables  []Operation
		indexFlips []Operation
	)
	for _, name := range intersection(nextNames, prevNames) {
		nextCol, _ := next.Column(name)
		prevCol, _ := prev.Column(name)

		dn, err := Describe(next.Name, nextCol)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", next.Name, err)
		}
		dp, err := Describe(next.Name, prevCol)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", next.Name, err)
		}

		// A canonical type change always forces a full column change;
		// nullability and index state are not diffed separately then.
		if dn.Type != dp.Type {
			changed = append(changed, dn)
			continue
		}

		delta := paramsDiff(dn.ComparableParams(), dp.ComparableParams())
		nullValue, nullChanged := delta["null"]
		delete(delta, "null")
		indexValue, indexChanged := delta["index"]
		delete(delta, "index")

		if len(delta) > 0 {
			changed = append(changed, dn)
		}
		if nullChanged {
			nullables = append(nullables, Operation{
				Kind:   KindSetNullable,
				Table:  next.Name,
				Column: name,
				Null:   nullValue.(bool),
			})
		}
		if indexChanged {
			state := indexValue.(indexState)
			if state[0] || state[1] {
				if prevCol.Index || prevCol.Unique {
					indexFlips = append(indexFlips, Operation{
						Kind:  KindDropIndex,
						Table: next.Name,
						Names: []string{name},
					})
				}
				indexFlips = append(indexFlips, Operation{
					Kind:   KindAddIndex,
					Table:  next.Name,
					Names:  []string{name},
					Unique: state[1],
				})
			} else {
				indexFlips = append(indexFlips, Operation{
					Kind:  KindDropIndex,
					Table: next.Name,
					Names: []string{name},
				})
			}
		}
	}

	if len(changed) > 0 {
		ops = append(ops, Operation{Kind: KindChangeColumns, Table: next.Name, Columns: changed})
	}
	ops = append(ops, nullables...)
	ops = append(ops, indexFlips...)

	// Compound indexes diff independently of per-column index flags, and
	// only spans of more than one column count as compound.
	prevIdx := compoundSet(prev)
	nextIdx := compoundSet(next)

	for _, key := range sortedIndexKeys(prevIdx) {
		if _, ok := nextIdx[key]; !ok {
			idx := prevIdx[key]
			ops = append(ops, Operation{Kind: KindDropIndex, Table: next.Name, Names: idx.Columns})
		}
	}
	for _, key := range sortedIndexKeys(nextIdx) {
		if _, ok := prevIdx[key]; !ok {
			idx := nextIdx[key]
			ops = append(ops, Operation{Kind: KindAddIndex, Table: next.Name, Names: idx.Columns, Unique: idx.Unique})
		}
	}

	return ops, nil
}

func sortedColumnNames(t schema.Table) []string {
	names := t.ColumnNames()
	sort.Strings(names)
	return names
}

func difference(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, v := range b {
		set[v] = struct{}{}
	}
	var out []string
	for _, v := range a {
		if _, ok := set[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}

func intersection(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, v := range b {
		set[v] = struct{}{}
	}
	var out []string
	for _, v := range a {
		if _, ok := set[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

func compoundSet(t schema.Table) map[string]schema.CompoundIndex {
	out := map[string]schema.CompoundIndex{}
	for _, idx := range t.Indexes {
		if len(idx.Columns) <= 1 {
			continue
		}
		out[indexKey(idx)] = idx
	}
	return out
}

func indexKey(idx schema.CompoundIndex) string {
	key := ""
	for _, c := range idx.Columns {
		key += c + "\x00"
	}
	if idx.Unique {
		key += "unique"
	}
	return key
}

func sortedIndexKeys(set map[string]schema.CompoundIndex) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
