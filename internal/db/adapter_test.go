package db

import (
	"testing"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "plain statements",
			in:   "DROP TABLE a;\nDROP TABLE b;\n",
			want: []string{"DROP TABLE a", "DROP TABLE b"},
		},
		{
			name: "semicolon inside single quotes",
			in:   "INSERT INTO t VALUES ('a;b'); DROP TABLE x;",
			want: []string{"INSERT INTO t VALUES ('a;b')", "DROP TABLE x"},
		},
		{
			name: "semicolon inside double quotes",
			in:   `ALTER TABLE "odd;name" ADD COLUMN c INTEGER;`,
			want: []string{`ALTER TABLE "odd;name" ADD COLUMN c INTEGER`},
		},
		{
			name: "trailing fragment without semicolon",
			in:   "DROP TABLE a; DROP TABLE b",
			want: []string{"DROP TABLE a", "DROP TABLE b"},
		},
		{
			name: "empty chunks ignored",
			in:   ";;\n;  DROP TABLE a;",
			want: []string{"DROP TABLE a"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitStatements(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("statement %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLiteralDefault(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantLiteral any
		wantFactory string
	}{
		{"empty", "", nil, ""},
		{"quoted string", "'active'", "active", ""},
		{"quoted with cast", "'new'::character varying", "new", ""},
		{"escaped quote", "'it''s'", "it's", ""},
		{"integer", "42", float64(42), ""},
		{"negative float", "-1.5", float64(-1.5), ""},
		{"boolean true", "true", true, ""},
		{"boolean false", "FALSE", false, ""},
		{"null keyword", "NULL", nil, ""},
		{"function call is factory", "now()", nil, "now()"},
		{"sequence is factory", "nextval('users_id_seq'::regclass)", nil, "nextval('users_id_seq'"},
		{"bare word stays string", "pending", "pending", ""},
		{"numeric-prefixed word stays string", "123abc", "123abc", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			literal, factory := literalDefault(tt.raw)
			if literal != tt.wantLiteral {
				t.Errorf("literal = %v (%T), want %v", literal, literal, tt.wantLiteral)
			}
			if factory != tt.wantFactory {
				t.Errorf("factory = %q, want %q", factory, tt.wantFactory)
			}
		})
	}
}

func TestOpenRejectsUnknownProvider(t *testing.T) {
	if _, err := Open("sqlite", "file.db"); err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

func TestOpenRejectsBadMySQLDSN(t *testing.T) {
	if _, err := Open("mysql", "not a dsn at(all"); err == nil {
		t.Fatal("expected error for invalid mysql dsn")
	}
}
