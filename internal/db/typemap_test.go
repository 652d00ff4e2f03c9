package db

import "testing"

func TestMapPostgresType(t *testing.T) {
	tests := []struct {
		dataType string
		udt      string
		want     string
	}{
		{"character varying", "varchar", "char"},
		{"integer", "int4", "int"},
		{"timestamp without time zone", "timestamp", "datetime"},
		{"timestamp with time zone", "timestamptz", "datetime_tz"},
		{"jsonb", "jsonb", "binary_json"},
		{"bytea", "bytea", "blob"},
		{"USER-DEFINED", "hstore", "hstore"},
		{"USER-DEFINED", "tsvector", "tsvector"},
		{"ARRAY", "_text", "array"},
	}
	for _, tt := range tests {
		if got := mapPostgresType(tt.dataType, tt.udt); got != tt.want {
			t.Errorf("mapPostgresType(%q, %q) = %q, want %q", tt.dataType, tt.udt, got, tt.want)
		}
	}
}

func TestMapMySQLType(t *testing.T) {
	tests := []struct {
		dataType string
		want     string
	}{
		{"varchar", "char"},
		{"tinyint", "smallint"},
		{"longtext", "text"},
		{"datetime", "datetime"},
		{"varbinary", "blob"},
		{"json", "json"},
	}
	for _, tt := range tests {
		if got := mapMySQLType(tt.dataType); got != tt.want {
			t.Errorf("mapMySQLType(%q) = %q, want %q", tt.dataType, got, tt.want)
		}
	}
}

func TestNormalizeRule(t *testing.T) {
	if got := normalizeRule("NO ACTION"); got != "" {
		t.Errorf("NO ACTION = %q, want empty", got)
	}
	if got := normalizeRule("cascade"); got != "CASCADE" {
		t.Errorf("cascade = %q, want CASCADE", got)
	}
}
