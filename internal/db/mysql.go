package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"schema_diff_planner/internal/schema"
)

type MySQLAdapter struct {
	db *sql.DB
}

func (m *MySQLAdapter) Provider() string { return "mysql" }

func (m *MySQLAdapter) Close() error { return m.db.Close() }

func (m *MySQLAdapter) EnsurePlanTable(ctx context.Context, table string) error {
	tableName := quoteMySQL(table)
	stmt := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id bigint AUTO_INCREMENT PRIMARY KEY,
	plan_id varchar(64) NOT NULL,
	plan_name varchar(255) NOT NULL,
	run_id varchar(64) NOT NULL,
	status varchar(32) NOT NULL,
	checksum varchar(128),
	applied_at timestamp NOT NULL DEFAULT CURRENT_TIMESTAMP,
	error text,
	INDEX plan_status_idx (plan_id, run_id)
) ENGINE=InnoDB;
`, tableName)
	_, err := m.db.ExecContext(ctx, stmt)
	return err
}

func (m *MySQLAdapter) InsertPlanStatus(ctx context.Context, table string, entry PlanStatus) error {
	stmt := fmt.Sprintf(`INSERT INTO %s
		(plan_id, plan_name, run_id, status, checksum, applied_at, error)
		VALUES (?,?,?,?,?,?,?)`, quoteMySQL(table))
	_, err := m.db.ExecContext(ctx, stmt,
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

func (m *MySQLAdapter) UpdatePlanStatus(ctx context.Context, table string, entry PlanStatus) error {
	stmt := fmt.Sprintf(`
UPDATE %s SET status=?, applied_at=?, error=?
WHERE plan_id=? AND run_id=?
ORDER BY applied_at DESC, id DESC
LIMIT 1
`, quoteMySQL(table))
	_, err := m.db.ExecContext(ctx, stmt,
		entry.Status,
		entry.AppliedAt,
		nullString(entry.Error),
		entry.PlanID,
		entry.RunID,
	)
	return err
}

func (m *MySQLAdapter) FetchPlanStatuses(ctx context.Context, table string, limit int) ([]PlanStatus, error) {
	stmt := fmt.Sprintf(`SELECT plan_id, plan_name, run_id, status, checksum, applied_at, error
FROM %s
ORDER BY applied_at DESC, id DESC
LIMIT ?`, quoteMySQL(table))
	rows, err := m.db.QueryContext(ctx, stmt, limit)
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

func (m *MySQLAdapter) ExecScript(ctx context.Context, script string) error {
	for _, stmt := range splitStatements(script) {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// FetchSnapshot reflects one MySQL database into a snapshot. An empty
// schema name falls back to the connection's current database.
func (m *MySQLAdapter) FetchSnapshot(ctx context.Context, schemaName string) (schema.Snapshot, error) {
	schemaName = strings.TrimSpace(schemaName)
	if schemaName == "" {
		if err := m.db.QueryRowContext(ctx, `SELECT DATABASE()`).Scan(&schemaName); err != nil {
			return schema.Snapshot{}, err
		}
	}

	builders := map[string]*tableBuilder{}
	var names []string

	tablesRows, err := m.db.QueryContext(ctx, `
SELECT table_name
FROM information_schema.tables
WHERE table_schema=? AND table_type='BASE TABLE'
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

	colsRows, err := m.db.QueryContext(ctx, `
SELECT table_name, column_name, data_type, is_nullable, column_default, extra,
       COALESCE(character_maximum_length, 0),
       COALESCE(numeric_precision, 0), COALESCE(numeric_scale, 0)
FROM information_schema.columns
WHERE table_schema=?
ORDER BY table_name, ordinal_position`, schemaName)
	if err != nil {
		return schema.Snapshot{}, err
	}
	defer colsRows.Close()

	for colsRows.Next() {
		var (
			tbl, col, dataType, nullable, extra string
			def                                 sql.NullString
			maxLen, precision, scale            int
		)
		if err := colsRows.Scan(&tbl, &col, &dataType, &nullable, &def, &extra, &maxLen, &precision, &scale); err != nil {
			return schema.Snapshot{}, err
		}
		b, ok := builders[tbl]
		if !ok {
			continue
		}
		column := schema.Column{
			Name: col,
			Type: mapMySQLType(dataType),
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
		if strings.Contains(strings.ToLower(extra), "auto_increment") {
			column.FactoryDefault = "auto_increment"
		}
		b.add(column)
	}
	if err := colsRows.Err(); err != nil {
		return schema.Snapshot{}, err
	}

	if err := m.fetchPrimaryKeys(ctx, schemaName, builders); err != nil {
		return schema.Snapshot{}, err
	}
	if err := m.fetchForeignKeys(ctx, schemaName, builders); err != nil {
		return schema.Snapshot{}, err
	}
	if err := m.fetchIndexes(ctx, schemaName, builders); err != nil {
		return schema.Snapshot{}, err
	}

	snap := schema.Snapshot{Tables: make([]schema.Table, 0, len(names))}
	for _, name := range names {
		snap.Tables = append(snap.Tables, builders[name].finish())
	}
	return snap, nil
}

func (m *MySQLAdapter) fetchPrimaryKeys(ctx context.Context, schemaName string, builders map[string]*tableBuilder) error {
	rows, err := m.db.QueryContext(ctx, `
SELECT table_name, column_name
FROM information_schema.key_column_usage
WHERE table_schema=? AND constraint_name='PRIMARY'
ORDER BY table_name, ordinal_position`, schemaName)
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

func (m *MySQLAdapter) fetchForeignKeys(ctx context.Context, schemaName string, builders map[string]*tableBuilder) error {
	rows, err := m.db.QueryContext(ctx, `
SELECT kcu.table_name, kcu.column_name, kcu.referenced_table_name, kcu.referenced_column_name,
       rc.delete_rule, rc.update_rule
FROM information_schema.key_column_usage kcu
JOIN information_schema.referential_constraints rc
  ON kcu.constraint_name = rc.constraint_name
 AND kcu.table_schema = rc.constraint_schema
WHERE kcu.table_schema=? AND kcu.referenced_table_name IS NOT NULL`, schemaName)
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

func (m *MySQLAdapter) fetchIndexes(ctx context.Context, schemaName string, builders map[string]*tableBuilder) error {
	rows, err := m.db.QueryContext(ctx, `
SELECT table_name, index_name, non_unique, column_name
FROM information_schema.statistics
WHERE table_schema=? AND index_name <> 'PRIMARY'
ORDER BY table_name, index_name, seq_in_index`, schemaName)
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
		var nonUnique int
		if err := rows.Scan(&tbl, &idx, &nonUnique, &col); err != nil {
			return err
		}
		key := tbl + "." + idx
		entry, ok := indexes[key]
		if !ok {
			entry = &indexEntry{table: tbl, unique: nonUnique == 0}
			indexes[key] = entry
			order = append(order, key)
		}
		entry.columns = append(entry.columns, col)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, key := range order {
		entry := indexes[key]
		if b, ok := builders[entry.table]; ok {
			b.addIndex(entry.columns, entry.unique)
		}
	}
	return nil
}

// mapMySQLType maps information_schema data types to the concrete type
// names the canonical registry resolves.
func mapMySQLType(dataType string) string {
	switch strings.ToLower(dataType) {
	case "varchar", "char":
		return "char"
	case "text", "mediumtext", "longtext", "tinytext":
		return "text"
	case "int", "mediumint":
		return "int"
	case "bigint":
		return "bigint"
	case "smallint", "tinyint":
		return "smallint"
	case "float":
		return "float"
	case "double":
		return "double"
	case "decimal":
		return "decimal"
	case "date":
		return "date"
	case "time":
		return "time"
	case "datetime":
		return "datetime"
	case "timestamp":
		return "timestamp"
	case "blob", "mediumblob", "longblob", "tinyblob", "binary", "varbinary":
		return "blob"
	case "json":
		return "json"
	}
	return strings.ToLower(dataType)
}

func quoteMySQL(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
