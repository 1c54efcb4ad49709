package trends

import (
	"database/sql"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/richard-senior/footytrends/internal/logger"
	_ "modernc.org/sqlite"
)

// Persistable is implemented by structs stored through Store. Columns are
// described with struct tags:
//
//	column:"name"      column name, defaults to the lowercased field name
//	dbtype:"TEXT"      SQL type; fields without one are not persisted
//	primary:"true"     part of the (possibly compound) primary key
//	index:"true"       gets its own index
//	fk:"table.column"  foreign key, with fk_delete / fk_update actions
type Persistable interface {
	GetTableName() string
	GetPrimaryKey() map[string]any
}

// Store is a SQLite database holding Persistable records
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the SQLite database at path.
// ":memory:" gives a private in-memory database
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// an in-memory database exists per connection
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		logger.Warn("Failed to enable foreign keys", err)
	}
	logger.Info("Database initialized successfully", path)
	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

type columnInfo struct {
	name    string
	dbType  string
	primary bool
	index   bool
	fk      string
	field   int
}

// columnsOf reads the persisted columns of obj's struct type
func columnsOf(t reflect.Type) []columnInfo {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	var cols []columnInfo
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		dbType := field.Tag.Get("dbtype")
		if dbType == "" {
			continue
		}
		name := field.Tag.Get("column")
		if name == "" {
			name = strings.ToLower(field.Name)
		}
		cols = append(cols, columnInfo{
			name:    name,
			dbType:  dbType,
			primary: field.Tag.Get("primary") == "true",
			index:   field.Tag.Get("index") == "true",
			fk:      fkClause(field.Tag, name),
			field:   i,
		})
	}
	return cols
}

func fkClause(tag reflect.StructTag, column string) string {
	ref := tag.Get("fk")
	parts := strings.Split(ref, ".")
	if len(parts) != 2 {
		return ""
	}
	onDelete := tag.Get("fk_delete")
	if onDelete == "" {
		onDelete = "RESTRICT"
	}
	onUpdate := tag.Get("fk_update")
	if onUpdate == "" {
		onUpdate = "RESTRICT"
	}
	return fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s(%s) ON DELETE %s ON UPDATE %s",
		column, parts[0], parts[1], onDelete, onUpdate)
}

// generateCreateTableSQL generates CREATE TABLE SQL from struct tags
func generateCreateTableSQL(obj Persistable) string {
	var defs, primaryKeys, foreignKeys []string
	for _, c := range columnsOf(reflect.TypeOf(obj)) {
		defs = append(defs, c.name+" "+c.dbType)
		if c.primary {
			primaryKeys = append(primaryKeys, c.name)
		}
		if c.fk != "" {
			foreignKeys = append(foreignKeys, c.fk)
		}
	}
	if len(primaryKeys) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(primaryKeys, ", ")))
	}
	defs = append(defs, foreignKeys...)
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", obj.GetTableName(), strings.Join(defs, ", "))
}

// generateIndexSQL generates index creation SQL from struct tags
func generateIndexSQL(obj Persistable) []string {
	table := obj.GetTableName()
	var out []string
	for _, c := range columnsOf(reflect.TypeOf(obj)) {
		if c.index {
			out = append(out, fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(%s)", table, c.name, table, c.name))
		}
	}
	return out
}

// CreateTable creates the table and indexes for obj's type
func (s *Store) CreateTable(obj Persistable) error {
	createSQL := generateCreateTableSQL(obj)
	logger.Debug("Creating table with SQL", createSQL)
	if _, err := s.db.Exec(createSQL); err != nil {
		return fmt.Errorf("failed to create table %s: %w", obj.GetTableName(), err)
	}
	for _, q := range generateIndexSQL(obj) {
		if _, err := s.db.Exec(q); err != nil {
			logger.Warn("Failed to create index", err)
		}
	}
	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Save inserts obj, or updates it if a row with its primary key exists
func (s *Store) Save(obj Persistable) error {
	return save(s.db, obj)
}

// SaveAll saves objs in order inside one transaction. Either all of them are
// stored or none are
func (s *Store) SaveAll(objs ...Persistable) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, obj := range objs {
		if err := save(tx, obj); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Warn("Failed to roll back transaction", rbErr)
			}
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func save(db execer, obj Persistable) error {
	found, err := exists(db, obj)
	if err != nil {
		return fmt.Errorf("failed to check existence: %w", err)
	}
	if found {
		return update(db, obj)
	}
	return insert(db, obj)
}

func insert(db execer, obj Persistable) error {
	v := reflect.Indirect(reflect.ValueOf(obj))
	var names, placeholders []string
	var values []any
	for _, c := range columnsOf(v.Type()) {
		names = append(names, c.name)
		placeholders = append(placeholders, "?")
		values = append(values, v.Field(c.field).Interface())
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		obj.GetTableName(), strings.Join(names, ", "), strings.Join(placeholders, ", "))
	logger.Debug("Insert SQL", query)
	if _, err := db.Exec(query, values...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", obj.GetTableName(), err)
	}
	return nil
}

func update(db execer, obj Persistable) error {
	v := reflect.Indirect(reflect.ValueOf(obj))
	var setPairs []string
	var values []any
	for _, c := range columnsOf(v.Type()) {
		if c.primary {
			continue
		}
		setPairs = append(setPairs, c.name+" = ?")
		values = append(values, v.Field(c.field).Interface())
	}
	if len(setPairs) == 0 {
		return nil
	}
	where, whereValues := buildWhereClause(obj.GetPrimaryKey())
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", obj.GetTableName(), strings.Join(setPairs, ", "), where)
	logger.Debug("Update SQL", query)
	if _, err := db.Exec(query, append(values, whereValues...)...); err != nil {
		return fmt.Errorf("failed to update %s: %w", obj.GetTableName(), err)
	}
	return nil
}

// exists checks if a row with obj's primary key exists
func exists(db execer, obj Persistable) (bool, error) {
	where, values := buildWhereClause(obj.GetPrimaryKey())
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", obj.GetTableName(), where)
	var count int
	if err := db.QueryRow(query, values...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check existence in %s: %w", obj.GetTableName(), err)
	}
	return count > 0, nil
}

// FindWhere loads every row of T's table matching whereClause. The clause may
// carry ORDER BY and LIMIT
func FindWhere[T any, PT interface {
	*T
	Persistable
}](s *Store, whereClause string, args ...any) ([]*T, error) {
	var proto PT = new(T)
	table := proto.GetTableName()
	cols := columnsOf(reflect.TypeOf(proto))
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(names, ", "), table, whereClause)
	logger.Debug("FindWhere SQL", query)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var results []*T
	for rows.Next() {
		obj := new(T)
		v := reflect.ValueOf(obj).Elem()
		dest := make([]any, len(cols))
		for i, c := range cols {
			dest[i] = v.Field(c.field).Addr().Interface()
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row from %s: %w", table, err)
		}
		results = append(results, obj)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows from %s: %w", table, err)
	}
	return results, nil
}

// buildWhereClause builds a WHERE clause from a primary key map. Columns are
// sorted so the generated SQL is stable
func buildWhereClause(primaryKey map[string]any) (string, []any) {
	columns := make([]string, 0, len(primaryKey))
	for c := range primaryKey {
		columns = append(columns, c)
	}
	slices.Sort(columns)

	conditions := make([]string, len(columns))
	values := make([]any, len(columns))
	for i, c := range columns {
		conditions[i] = c + " = ?"
		values[i] = primaryKey[c]
	}
	return strings.Join(conditions, " AND "), values
}
