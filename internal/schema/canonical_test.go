package schema

import (
	"errors"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		concrete string
		want     CanonicalType
	}{
		{"canonical resolves to itself", "char", TypeChar},
		{"auto resolves to itself", "auto", TypeAuto},
		{"big_auto resolves to auto", "big_auto", TypeAuto},
		{"identity resolves to auto", "identity", TypeAuto},
		{"fixed_char resolves to char", "fixed_char", TypeChar},
		{"ip resolves to bigint", "ip", TypeBigInt},
		{"password resolves to blob", "password", TypeBlob},
		{"binary_uuid resolves to uuid", "binary_uuid", TypeUUID},
		{"datetime_tz resolves to datetime", "datetime_tz", TypeDateTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.concrete)
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.concrete, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.concrete, got, tt.want)
			}
		})
	}
}

func TestResolveUnknownType(t *testing.T) {
	_, err := Resolve("geometry")
	if err == nil {
		t.Fatal("expected error for unknown type")
	}
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %T", err)
	}
	if cfgErr.Type != "geometry" {
		t.Errorf("ConfigurationError.Type = %q, want %q", cfgErr.Type, "geometry")
	}
}

func TestModule(t *testing.T) {
	tests := []struct {
		typ  CanonicalType
		want string
	}{
		{TypeChar, "sch"},
		{TypeDateTime, "sch"},
		{TypeUUID, "sch"},
		{TypeArray, "ext"},
		{TypeJSON, "ext"},
		{TypeBinaryJSON, "ext"},
		{TypeHStore, "ext"},
		{TypeInterval, "ext"},
		{TypeTSVector, "ext"},
	}
	for _, tt := range tests {
		if got := tt.typ.Module(); got != tt.want {
			t.Errorf("%s.Module() = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func TestFieldName(t *testing.T) {
	name, err := TypeBigInt.FieldName()
	if err != nil {
		t.Fatalf("FieldName: %v", err)
	}
	if name != "BigInt" {
		t.Errorf("FieldName = %q, want BigInt", name)
	}

	_, err = CanonicalType("bogus").FieldName()
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}
