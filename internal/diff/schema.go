package diff

import (
	"fmt"
	"sort"
	"strings"

	"schema_diff_planner/internal/schema"
)

// CyclicDependencyError reports a foreign-key cycle between two or more
// tables. Operation ordering would be unsafe, so the diff stops.
type CyclicDependencyError struct {
	Tables []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic foreign key dependency between tables: %s", strings.Join(e.Tables, ", "))
}

// DiffSchema compares two schema snapshots and returns the full ordered
// operation list: per-table diffs for tables present in both versions,
// CreateTable for tables only in next, RemoveTable for tables only in
// prev. Both snapshots are ordered topologically by foreign-key
// dependency first; reverse flips both orders for generating the down
// direction, where removals must run in reverse dependency order.
func DiffSchema(next, prev schema.Snapshot, reverse bool) ([]Operation, error) {
	nextSorted, err := sortTables(next.Tables)
	if err != nil {
		return nil, err
	}
	prevSorted, err := sortTables(prev.Tables)
	if err != nil {
		return nil, err
	}

	if reverse {
		reverseTables(nextSorted)
		reverseTables(prevSorted)
	}

	prevByName := make(map[string]schema.Table, len(prevSorted))
	for _, t := range prevSorted {
		prevByName[t.Name] = t
	}
	nextByName := make(map[string]schema.Table, len(nextSorted))
	for _, t := range nextSorted {
		nextByName[t.Name] = t
	}

	var ops []Operation

	for _, t := range nextSorted {
		prevTable, ok := prevByName[t.Name]
		if !ok {
			continue
		}
		tableOps, err := DiffTable(t, prevTable)
		if err != nil {
			return nil, err
		}
		ops = append(ops, tableOps...)
	}

	for _, t := range nextSorted {
		if _, ok := prevByName[t.Name]; ok {
			continue
		}
		op, err := createTableOp(t)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}

	for _, t := range prevSorted {
		if _, ok := nextByName[t.Name]; !ok {
			ops = append(ops, Operation{Kind: KindRemoveTable, Table: t.Name})
		}
	}

	return ops, nil
}

func createTableOp(t schema.Table) (Operation, error) {
	table := t
	descriptors := make([]ColumnDescriptor, 0, len(t.Columns))
	for _, col := range t.Columns {
		d, err := Describe(t.Name, col)
		if err != nil {
			return Operation{}, fmt.Errorf("table %s: %w", t.Name, err)
		}
		descriptors = append(descriptors, d)
	}
	return Operation{
		Kind:        KindCreateTable,
		Table:       t.Name,
		TableDef:    &table,
		Descriptors: descriptors,
	}, nil
}

// sortTables orders tables so every table comes after the tables it
// references by foreign key. Kahn's algorithm with a name-sorted ready
// set keeps the order deterministic; self-references are ignored; a
// leftover set means a true cycle.
func sortTables(tables []schema.Table) ([]schema.Table, error) {
	byName := make(map[string]schema.Table, len(tables))
	names := make([]string, 0, len(tables))
	for _, t := range tables {
		byName[t.Name] = t
		names = append(names, t.Name)
	}
	sort.Strings(names)

	// dependents[target] lists tables holding a foreign key to target.
	dependents := make(map[string][]string, len(tables))
	indegree := make(map[string]int, len(tables))
	for _, name := range names {
		indegree[name] = 0
	}
	for _, name := range names {
		t := byName[name]
		seen := map[string]struct{}{}
		for _, col := range t.Columns {
			fk := col.ForeignKey
			if fk == nil || fk.Table == t.Name {
				continue
			}
			if _, ok := byName[fk.Table]; !ok {
				continue
			}
			if _, dup := seen[fk.Table]; dup {
				continue
			}
			seen[fk.Table] = struct{}{}
			dependents[fk.Table] = append(dependents[fk.Table], name)
			indegree[name]++
		}
	}

	var ready []string
	for _, name := range names {
		if indegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	out := make([]schema.Table, 0, len(tables))
	for len(ready) > 0 {
		sort.Strings(ready)
		name := ready[0]
		ready = ready[1:]
		out = append(out, byName[name])
		for _, dep := range dependents[name] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(out) != len(tables) {
		var cycle []string
		for _, name := range names {
			if indegree[name] > 0 {
				cycle = append(cycle, name)
			}
		}
		return nil, &CyclicDependencyError{Tables: cycle}
	}
	return out, nil
}

func reverseTables(tables []schema.Table) {
	for i, j := 0, len(tables)-1; i < j; i, j = i+1, j-1 {
		tables[i], tables[j] = tables[j], tables[i]
	}
}
