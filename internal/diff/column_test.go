package diff

import (
	"testing"

	"schema_diff_planner/internal/schema"
)

func TestComparableParamsChar(t *testing.T) {
	d, err := Describe("users", schema.Column{Name: "email", Type: "char", MaxLength: 255, Null: true})
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	params := d.ComparableParams()

	if params["max_length"] != 255 {
		t.Errorf("max_length = %v", params["max_length"])
	}
	if params["null"] != true {
		t.Errorf("null = %v", params["null"])
	}
	if params["index"] != (indexState{false, false}) {
		t.Errorf("index = %v", params["index"])
	}
}

func TestComparableParamsIndexPair(t *testing.T) {
	tests := []struct {
		name string
		col  schema.Column
		want indexState
	}{
		{"plain", schema.Column{Name: "a", Type: "int"}, indexState{false, false}},
		{"indexed", schema.Column{Name: "a", Type: "int", Index: true}, indexState{true, false}},
		{"unique", schema.Column{Name: "a", Type: "int", Unique: true}, indexState{false, true}},
		{"unique wins over index", schema.Column{Name: "a", Type: "int", Index: true, Unique: true}, indexState{false, true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Describe("t", tt.col)
			if err != nil {
				t.Fatalf("Describe: %v", err)
			}
			if got := d.ComparableParams()["index"]; got != tt.want {
				t.Errorf("index = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComparableParamsDefaults(t *testing.T) {
	literal, err := Describe("t", schema.Column{Name: "n", Type: "int", Default: 5})
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if got := literal.ComparableParams()["default"]; got != float64(5) {
		t.Errorf("literal default = %v (%T), want 5.0", got, got)
	}

	// A factory default is computed at write time and never compared.
	factory, err := Describe("t", schema.Column{Name: "ts", Type: "datetime", FactoryDefault: "now"})
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if _, ok := factory.ComparableParams()["default"]; ok {
		t.Error("factory default leaked into comparable params")
	}

	// Same for a factory default shadowing a literal.
	both, err := Describe("t", schema.Column{Name: "ts", Type: "datetime", Default: "x", FactoryDefault: "now"})
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if _, ok := both.ComparableParams()["default"]; ok {
		t.Error("default compared despite factory default")
	}
}

func TestComparableParamsBackrefIgnored(t *testing.T) {
	a, _ := Describe("orders", schema.Column{Name: "customer_id", Type: "foreign_key", ForeignKey: &schema.ForeignKey{Table: "customers", Column: "id"}, Backref: "orders"})
	b, _ := Describe("orders", schema.Column{Name: "customer_id", Type: "foreign_key", ForeignKey: &schema.ForeignKey{Table: "customers", Column: "id"}, Backref: "all_orders"})
	if len(paramsDiff(a.ComparableParams(), b.ComparableParams())) != 0 {
		t.Error("backref change must not produce a params diff")
	}
}

func TestComparableParamsForeignKeyRules(t *testing.T) {
	cascade, _ := Describe("orders", schema.Column{Name: "customer_id", Type: "foreign_key", ForeignKey: &schema.ForeignKey{Table: "customers", Column: "id", OnDelete: "CASCADE"}})
	plain, _ := Describe("orders", schema.Column{Name: "customer_id", Type: "foreign_key", ForeignKey: &schema.ForeignKey{Table: "customers", Column: "id"}})

	delta := paramsDiff(cascade.ComparableParams(), plain.ComparableParams())
	if delta["on_delete"] != "CASCADE" {
		t.Errorf("delta = %v, want on_delete CASCADE", delta)
	}
}

func TestComparableParamsDatetimeFormats(t *testing.T) {
	custom, _ := Describe("t", schema.Column{Name: "ts", Type: "datetime", Formats: []string{"%Y-%m-%d", "%Y-%m-%d %H:%M:%S"}})
	stock, _ := Describe("t", schema.Column{Name: "ts", Type: "datetime"})

	if _, ok := stock.ComparableParams()["formats"]; ok {
		t.Error("default formats must not be compared")
	}
	delta := paramsDiff(custom.ComparableParams(), stock.ComparableParams())
	if delta["formats"] != "%Y-%m-%d|%Y-%m-%d %H:%M:%S" {
		t.Errorf("delta = %v", delta)
	}
}

func TestParamsDiffDirectional(t *testing.T) {
	next := map[string]any{"a": 1, "b": 2}
	prev := map[string]any{"a": 1, "b": 3, "c": 4}

	delta := paramsDiff(next, prev)
	if len(delta) != 1 || delta["b"] != 2 {
		t.Errorf("delta = %v, want only b=2", delta)
	}
}
