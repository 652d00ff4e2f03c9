package schema

import (
	"encoding/json"
	"fmt"
)

// ForeignKey points a column at a referenced table/column.
type ForeignKey struct {
	Table    string `json:"table"`
	Column   string `json:"column"`
	OnDelete string `json:"on_delete,omitempty"`
	OnUpdate string `json:"on_update,omitempty"`
}

// Column describes one column of a table snapshot.
type Column struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Null       bool   `json:"null,omitempty"`
	PrimaryKey bool   `json:"primary_key,omitempty"`
	Unique     bool   `json:"unique,omitempty"`
	Index      bool   `json:"index,omitempty"`

	// Default holds a literal default value. Computed defaults are carried
	// as FactoryDefault and stay out of structural comparison entirely.
	Default        any    `json:"default,omitempty"`
	FactoryDefault string `json:"factory_default,omitempty"`

	// Type-category attributes.
	MaxLength     int      `json:"max_length,omitempty"`
	MaxDigits     int      `json:"max_digits,omitempty"`
	DecimalPlaces int      `json:"decimal_places,omitempty"`
	AutoRound     bool     `json:"auto_round,omitempty"`
	Rounding      string   `json:"rounding,omitempty"`
	Formats       []string `json:"formats,omitempty"`

	ForeignKey *ForeignKey `json:"foreign_key,omitempty"`

	// Backref names a reverse relation. Metadata only, never compared.
	Backref string `json:"backref,omitempty"`
}

// CompoundIndex is a declared index over one or more columns. Only indexes
// spanning more than one column take part in the compound index diff;
// single-column index state is tracked on the column itself.
type CompoundIndex struct {
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique,omitempty"`
}

// Table is an immutable snapshot of one table. Columns keeps declaration
// order; lookups go through Column.
type Table struct {
	Name       string          `json:"name"`
	Schema     string          `json:"schema,omitempty"`
	Columns    []Column        `json:"columns"`
	PrimaryKey []string        `json:"primary_key,omitempty"`
	Indexes    []CompoundIndex `json:"indexes,omitempty"`
}

// Column returns the named column, if present.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns column names in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

// Validate rejects duplicate column names.
func (t Table) Validate() error {
	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		if c.Name == "" {
			return fmt.Errorf("table %s: column with empty name", t.Name)
		}
		if _, ok := seen[c.Name]; ok {
			return fmt.Errorf("table %s: duplicate column %s", t.Name, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// Snapshot is an ordered collection of table snapshots.
type Snapshot struct {
	Tables []Table `json:"tables"`
}

// Table returns the named table, if present.
func (s Snapshot) Table(name string) (Table, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// Validate rejects duplicate table names and invalid tables.
func (s Snapshot) Validate() error {
	seen := make(map[string]struct{}, len(s.Tables))
	for _, t := range s.Tables {
		if t.Name == "" {
			return fmt.Errorf("snapshot: table with empty name")
		}
		if _, ok := seen[t.Name]; ok {
			return fmt.Errorf("snapshot: duplicate table %s", t.Name)
		}
		seen[t.Name] = struct{}{}
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ParseSnapshot decodes and validates a snapshot document.
func ParseSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("parse snapshot: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// EncodeSnapshot renders a snapshot back to its document form.
func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	return json.MarshalIndent(snap, "", "  ")
}
