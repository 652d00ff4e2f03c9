package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"schema_diff_planner/internal/schema"
)

// Adapter abstracts provider-specific behavior: reflecting a live schema
// into a snapshot, executing generated DDL and keeping plan status rows.
type Adapter interface {
	Provider() string
	Close() error
	FetchSnapshot(ctx context.Context, schemaName string) (schema.Snapshot, error)
	ExecScript(ctx context.Context, script string) error
	EnsurePlanTable(ctx context.Context, table string) error
	InsertPlanStatus(ctx context.Context, table string, entry PlanStatus) error
	UpdatePlanStatus(ctx context.Context, table string, entry PlanStatus) error
	FetchPlanStatuses(ctx context.Context, table string, limit int) ([]PlanStatus, error)
}

// Open builds an adapter for the given provider and DSN.
func Open(provider, dsn string) (Adapter, error) {
	switch strings.ToLower(provider) {
	case "postgres":
		conn, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, err
		}
		conn.SetConnMaxIdleTime(5 * time.Minute)
		conn.SetMaxOpenConns(5)
		return &PostgresAdapter{db: conn}, nil
	case "mysql":
		// Validate DSN early to provide actionable errors.
		if _, err := mysql.ParseDSN(dsn); err != nil {
			return nil, fmt.Errorf("invalid mysql dsn: %w", err)
		}
		conn, err := sql.Open("mysql", dsn)
		if err != nil {
			return nil, err
		}
		conn.SetConnMaxIdleTime(5 * time.Minute)
		conn.SetMaxOpenConns(5)
		return &MySQLAdapter{db: conn}, nil
	default:
		return nil, fmt.Errorf("unsupported provider %s", provider)
	}
}

func nullString(s sql.NullString) any {
	if s.Valid {
		return s.String
	}
	return nil
}

// splitStatements is a small helper used by both providers to avoid driver
// differences around multi-statements.
func splitStatements(sqlText string) []string {
	var (
		out      []string
		current  strings.Builder
		inSingle bool
		inDouble bool
	)

	flush := func() {
		stmt := strings.TrimSpace(current.String())
		if stmt != "" {
			out = append(out, stmt)
		}
		current.Reset()
	}

	for _, r := range sqlText {
		switch r {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case ';':
			if !inSingle && !inDouble {
				flush()
				continue
			}
		}
		current.WriteRune(r)
	}
	flush()
	return out
}

// literalDefault classifies a reflected column default: function-call
// defaults become factory defaults (excluded from comparison), everything
// else is normalized to a literal value.
func literalDefault(raw string) (literal any, factory string) {
	val := strings.TrimSpace(raw)
	if val == "" {
		return nil, ""
	}
	// Strip postgres-style casts ('x'::character varying).
	if i := strings.Index(val, "::"); i > 0 {
		val = strings.TrimSpace(val[:i])
	}
	if strings.Contains(val, "(") {
		return nil, val
	}
	if strings.HasPrefix(val, "'") && strings.HasSuffix(val, "'") && len(val) >= 2 {
		return strings.ReplaceAll(val[1:len(val)-1], "''", "'"), ""
	}
	switch strings.ToLower(val) {
	case "true":
		return true, ""
	case "false":
		return false, ""
	case "null":
		return nil, ""
	}
	if num, err := strconv.ParseFloat(val, 64); err == nil {
		return num, ""
	}
	return val, ""
}
