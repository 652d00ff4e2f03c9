package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"schema_diff_planner/internal/schema"
)

type PostgresAdapter struct {
	db *sql.DB
}

func (p *PostgresAdapter) Provider() string { return "postgres" }

func (p *PostgresAdapter) Close() error { return p.db.Close() }

func (p *PostgresAdapter) EnsurePlanTable(ctx context.Context, table string) error {
	tableName := quoteIdent(table)
	indexName := quoteIdent(fmt.Sprintf("%s_plan_idx", table))
	stmt := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id bigserial PRIMARY KEY,
	plan_id varchar(64) NOT NULL,
	plan_name varchar(255) NOT NULL,
	run_id varchar(64) NOT NULL,
	status varchar(32) NOT NULL,
	checksum varchar(128),
	applied_at timestamptz NOT NULL,
	error text
);
CREATE INDEX IF NOT EXISTS %s ON %s(plan_id, run_id);
`, tableName, indexName, tableName)
	_, err := p.db.ExecContext(ctx, stmt)
	return err
}

func (p *PostgresAdapter) InsertPlanStatus(ctx context.Context, table string, entry PlanStatus) error {
	tableName := quoteIdent(table)
	stmt := fmt.Sprintf(`INSERT INTO %s
		(plan_id, plan_name, run_id, status, checksum, applied_at, error)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`, tableName)
	_, err := p.db.ExecContext(ctx, stmt,
		entry.PlanID,
		entry.PlanName,
		entry.RunID,
		entry.Status,
		entry.Checksum,
		entry.AppliedAt,
		nullString(entry.Error),
	)
	return err
}

func (p *PostgresAdapter) UpdatePlanStatus(ctx context.Context, table string, entry PlanStatus) error {
	tableName := quoteIdent(table)
	stmt := fmt.Sprintf(`
UPDATE %s SET status=$1, applied_at=$2, error=$3
WHERE id = (
	SELECT id FROM %s WHERE plan_id=$4 AND run_id=$5
	ORDER BY applied_at DESC, id DESC
	LIMIT 1
)
`, tableName, tableName)
	_, err := p.db.ExecContext(ctx, stmt,
		entry.Status,
		entry.AppliedAt,
		nullString(entry.Error),
		entry.PlanID,
		entry.RunID,
	)
	return err
}

func (p *PostgresAdapter) FetchPlanStatuses(ctx context.Context, table string, limit int) ([]PlanStatus, error) {
	tableName := quoteIdent(table)
	stmt := fmt.Sprintf(`SELECT plan_id, plan_name, run_id, status, checksum, applied_at, error
FROM %s
ORDER BY applied_at DESC, id DESC
LIMIT $1`, tableName)
	rows, err := p.db.QueryContext(ctx, stmt, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlanStatus
	for rows.Next() {
		var e PlanStatus
		if err := rows.Scan(&e.PlanID, &e.PlanName, &e.RunID, &e.Status, &e.Checksum, &e.AppliedAt, &e.Error); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *PostgresAdapter) ExecScript(ctx context.Context, script string) error {
	for _, stmt := range splitStatements(script) {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// FetchSnapshot reflects tables, columns, primary keys, foreign keys and
// indexes of one schema into a snapshot the diff engine accepts.
func (p *PostgresAdapter) FetchSnapshot(ctx context.Context, schemaName string) (schema.Snapshot, error) {
	if strings.TrimSpace(schemaName) == "" {
		schemaName = "public"
	}

	builders := map[string]*tableBuilder{}
	var names []string

	tablesRows, err := p.db.QueryContext(ctx, `
SELECT table_name
FROM information_schema.tables
WHERE table_schema=$1 AND table_type='BASE TABLE'
ORDER BY table_name`, schemaName)
	if err != nil {
		return schema.Snapshot{}, err
	}
	defer tablesRows.Close()

	for tablesRows.Next() {
		var name string
		if err := tablesRows.Scan(&name); err != nil {
			return schema.Snapshot{}, err
		}
		builders[name] = newTableBuilder(name)
		names = append(names, name)
	}
	if err := tablesRows.Err(); err != nil {
		return schema.Snapshot{}, err
	}

	colsRows, err := p.db.QueryContext(ctx, `
SELECT table_name, column_name, data_type, udt_name, is_nullable, column_default,
       COALESCE(character_maximum_length, 0),
       COALESCE(numeric_precision, 0), COALESCE(numeric_scale, 0)
FROM information_schema.columns
WHERE table_schema=$1
ORDER BY table_name, ordinal_position`, schemaName)
	if err != nil {
		return schema.Snapshot{}, err
	}
	defer colsRows.Close()

	for colsRows.Next() {
		var (
			tbl, col, dataType, udt, nullable string
			def                               sql.NullString
			maxLen, precision, scale          int
		)
		if err := colsRows.Scan(&tbl, &col, &dataType, &udt, &nullable, &def, &maxLen, &precision, &scale); err != nil {
			return schema.Snapshot{}, err
		}
		b, ok := builders[tbl]
		if !ok {
			continue
		}
		column := schema.Column{
			Name: col,
			Type: mapPostgresType(dataType, udt),
			Null: strings.EqualFold(nullable, "YES"),
		}
		if column.Type == "char" {
			column.MaxLength = maxLen
		}
		if column.Type == "decimal" {
			column.MaxDigits = precision
			column.DecimalPlaces = scale
		}
		if def.Valid {
			column.Default, column.FactoryDefault = literalDefault(def.String)
		}
		b.add(column)
	}
	if err := colsRows.Err(); err != nil {
		return schema.Snapshot{}, err
	}

	if err := p.fetchPrimaryKeys(ctx, schemaName, builders); err != nil {
		return schema.Snapshot{}, err
	}
	if err := p.fetchForeignKeys(ctx, schemaName, builders); err != nil {
		return schema.Snapshot{}, err
	}
	if err := p.fetchIndexes(ctx, schemaName, builders); err != nil {
		return schema.Snapshot{}, err
	}

	snap := schema.Snapshot{Tables: make([]schema.Table, 0, len(names))}
	for _, name := range names {
		snap.Tables = append(snap.Tables, builders[name].finish())
	}
	return snap, nil
}

func (p *PostgresAdapter) fetchPrimaryKeys(ctx context.Context, schemaName string, builders map[string]*tableBuilder) error {
	rows, err := p.db.QueryContext(ctx, `
SELECT tc.table_name, kcu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name
 AND tc.table_schema = kcu.table_schema
 AND tc.table_name = kcu.table_name
WHERE tc.table_schema=$1 AND tc.constraint_type='PRIMARY KEY'
ORDER BY tc.table_name, kcu.ordinal_position`, schemaName)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var tbl, col string
		if err := rows.Scan(&tbl, &col); err != nil {
			return err
		}
		if b, ok := builders[tbl]; ok {
			b.primaryKey = append(b.primaryKey, col)
		}
	}
	return rows.Err()
}

func (p *PostgresAdapter) fetchForeignKeys(ctx context.Context, schemaName string, builders map[string]*tableBuilder) error {
	rows, err := p.db.QueryContext(ctx, `
SELECT tc.table_name, kcu.column_name, ccu.table_name, ccu.column_name,
       rc.delete_rule, rc.update_rule
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name
 AND tc.table_schema = kcu.table_schema
JOIN information_schema.constraint_column_usage ccu
  ON tc.constraint_name = ccu.constraint_name
 AND tc.table_schema = ccu.table_schema
JOIN information_schema.referential_constraints rc
  ON tc.constraint_name = rc.constraint_name
 AND tc.table_schema = rc.constraint_schema
WHERE tc.table_schema=$1 AND tc.constraint_type='FOREIGN KEY'`, schemaName)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var tbl, col, refTbl, refCol, onDelete, onUpdate string
		if err := rows.Scan(&tbl, &col, &refTbl, &refCol, &onDelete, &onUpdate); err != nil {
			return err
		}
		b, ok := builders[tbl]
		if !ok {
			continue
		}
		b.setForeignKey(col, schema.ForeignKey{
			Table:    refTbl,
			Column:   refCol,
			OnDelete: normalizeRule(onDelete),
			OnUpdate: normalizeRule(onUpdate),
		})
	}
	return rows.Err()
}

func (p *PostgresAdapter) fetchIndexes(ctx context.Context, schemaName string, builders map[string]*tableBuilder) error {
	rows, err := p.db.QueryContext(ctx, `
SELECT t.relname, i.relname, ix.indisunique, a.attname,
       array_position(ix.indkey, a.attnum)
FROM pg_index ix
JOIN pg_class t ON t.oid = ix.indrelid
JOIN pg_class i ON i.oid = ix.indexrelid
JOIN pg_namespace n ON n.oid = t.relnamespace
JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
WHERE n.nspname=$1 AND NOT ix.indisprimary
ORDER BY t.relname, i.relname, array_position(ix.indkey, a.attnum)`, schemaName)
	if err != nil {
		return err
	}
	defer rows.Close()

	type indexEntry struct {
		table   string
		unique  bool
		columns []string
	}
	indexes := map[string]*indexEntry{}
	var order []string

	for rows.Next() {
		var tbl, idx, col string
		var unique bool
		var pos sql.NullInt64
		if err := rows.Scan(&tbl, &idx, &unique, &col, &pos); err != nil {
			return err
		}
		key := tbl + "." + idx
		entry, ok := indexes[key]
		if !ok {
			entry = &indexEntry{table: tbl, unique: unique}
			indexes[key] = entry
			order = append(order, key)
		}
		entry.columns = append(entry.columns, col)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	sort.Strings(order)
	for _, key := range order {
		entry := indexes[key]
		b, ok := builders[entry.table]
		if !ok {
			continue
		}
		b.addIndex(entry.columns, entry.unique)
	}
	return nil
}

// mapPostgresType maps information_schema data types to the concrete type
// names the canonical registry resolves.
func mapPostgresType(dataType, udt string) string {
	switch strings.ToLower(dataType) {
	case "character varying", "character":
		return "char"
	case "text":
		return "text"
	case "integer":
		return "int"
	case "bigint":
		return "bigint"
	case "smallint":
		return "smallint"
	case "real":
		return "float"
	case "double precision":
		return "double"
	case "numeric":
		return "decimal"
	case "boolean":
		return "bool"
	case "date":
		return "date"
	case "time without time zone", "time with time zone":
		return "time"
	case "timestamp without time zone":
		return "datetime"
	case "timestamp with time zone":
		return "datetime_tz"
	case "bytea":
		return "blob"
	case "uuid":
		return "uuid"
	case "json":
		return "json"
	case "jsonb":
		return "binary_json"
	case "interval":
		return "interval"
	case "array":
		return "array"
	case "user-defined":
		switch strings.ToLower(udt) {
		case "hstore":
			return "hstore"
		case "tsvector":
			return "tsvector"
		}
	}
	return strings.ToLower(dataType)
}

// normalizeRule drops the defaults the engine treats as unset.
func normalizeRule(rule string) string {
	if strings.EqualFold(rule, "NO ACTION") || rule == "" {
		return ""
	}
	return strings.ToUpper(rule)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
