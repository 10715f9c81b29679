package storage

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hexdb-io/hexdb/internal/metrics"
	"github.com/hexdb-io/hexdb/storage/sqlast"
)

// Engine is the storage engine: it turns a parsed Statement into a table
// mutation against JSON documents under RootDir. One Engine is shared by
// every connection and takes no lock: concurrent writers to the same table
// file race, and the last write wins.
type Engine struct {
	RootDir string

	// StrictDeleteConnectives, when true, evaluates Delete's WHERE clause
	// with the same AND/OR semantics as Select/Update instead of the
	// historical quirk of treating every condition as OR'd together.
	StrictDeleteConnectives bool
}

func NewEngine(rootDir string, strictDeleteConnectives bool) *Engine {
	return &Engine{RootDir: rootDir, StrictDeleteConnectives: strictDeleteConnectives}
}

// Execute dispatches stmt by its concrete type. database is the session's
// currently bound database, or "" if unbound; CreateDatabase is the only
// statement that tolerates an unbound session. The returned Table is the
// operation's result payload where one applies (nil for CreateDatabase and
// CreateTable, which have no row payload).
func (e *Engine) Execute(database string, stmt sqlast.Statement) (*Table, error) {
	start := time.Now()
	op, result, err := e.dispatch(database, stmt)
	metrics.StorageOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	e.recordMetric(op, err)
	return result, err
}

func (e *Engine) dispatch(database string, stmt sqlast.Statement) (string, *Table, error) {
	switch s := stmt.(type) {
	case *sqlast.CreateDatabaseStmt:
		return "create_database", nil, e.CreateDatabase(s.Name)
	case *sqlast.CreateTableStmt:
		return "create_table", nil, e.CreateTable(database, s)
	case *sqlast.InsertStmt:
		t, err := e.Insert(database, s)
		return "insert", t, err
	case *sqlast.TruncateStmt:
		t, err := e.Truncate(database, s)
		return "truncate", t, err
	case *sqlast.SelectStmt:
		t, err := e.Select(database, s)
		return "select", t, err
	case *sqlast.DeleteStmt:
		t, err := e.Delete(database, s)
		return "delete", t, err
	case *sqlast.UpdateStmt:
		t, err := e.Update(database, s)
		return "update", t, err
	default:
		return "unknown", nil, ErrUnexpectedStatement
	}
}

func (e *Engine) recordMetric(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.StorageOperations.WithLabelValues(op, status).Inc()
}

// CreateDatabase creates <root>/dbs/<name>. Binding the session to the new
// database on connect_auto is the command layer's responsibility, since the
// engine has no notion of sessions.
func (e *Engine) CreateDatabase(name string) error {
	if !validName(name) {
		return ErrInvalidName
	}
	dir := databaseDir(e.RootDir, name)
	if _, err := os.Stat(dir); err == nil {
		return &DatabaseExistsError{Name: name}
	}
	return os.MkdirAll(dir, 0o755)
}

// DatabaseExists reports whether <root>/dbs/<name> exists, the check used
// by the command layer to validate connect_auto and DatabaseConnect
// requests before binding a session to it.
func (e *Engine) DatabaseExists(name string) bool {
	_, err := os.Stat(databaseDir(e.RootDir, name))
	return err == nil
}

// ListDatabases returns the names of every database directory under root.
func (e *Engine) ListDatabases() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(e.RootDir, "dbs"))
	if err != nil {
		return nil, err
	}
	var names []string
	for _, ent := range entries {
		if ent.IsDir() {
			names = append(names, ent.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ListTables returns the table names (without their .json suffix) defined
// in database.
func (e *Engine) ListTables(database string) ([]string, error) {
	dir := databaseDir(e.RootDir, database)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrDatabaseMissing
		}
		return nil, err
	}
	var names []string
	for _, ent := range entries {
		if !ent.IsDir() && strings.HasSuffix(ent.Name(), ".json") {
			names = append(names, strings.TrimSuffix(ent.Name(), ".json"))
		}
	}
	sort.Strings(names)
	return names, nil
}

// ReadTable returns the table document for database/table, the payload
// behind a "show table_records" request.
func (e *Engine) ReadTable(database, table string) (*Table, error) {
	if database == "" {
		return nil, ErrSessionNotBound
	}
	return readTable(tablePath(e.RootDir, database, table))
}

// CreateTable writes a fresh table document with rows=null.
func (e *Engine) CreateTable(database string, stmt *sqlast.CreateTableStmt) error {
	if database == "" {
		return ErrSessionNotBound
	}
	if len(stmt.Columns) == 0 {
		return ErrNoColumns
	}
	dir := databaseDir(e.RootDir, database)
	if _, err := os.Stat(dir); err != nil {
		return ErrDatabaseMissing
	}

	cols := make([]Column, 0, len(stmt.Columns))
	for _, cd := range stmt.Columns {
		col := Column{Name: cd.Name, DType: DType(cd.DType), Max: cd.Max}
		for _, c := range cd.Constraints {
			col.Constraints = append(col.Constraints, Constraint{Kind: ConstraintKind(c.Kind), Default: c.Default})
		}
		cols = append(cols, col)
	}

	t := &Table{Name: stmt.Name, Columns: cols, Rows: nil}
	return writeTable(tablePath(e.RootDir, database, stmt.Name), t)
}

// Insert appends or replaces rows per stmt.Mode, enforcing column
// existence, NOT NULL, and type/length compatibility before committing.
func (e *Engine) Insert(database string, stmt *sqlast.InsertStmt) (*Table, error) {
	if database == "" {
		return nil, ErrSessionNotBound
	}
	t, err := readTable(tablePath(e.RootDir, database, stmt.Table))
	if err != nil {
		return nil, err
	}

	if stmt.Columns != nil {
		named := make(map[string]bool, len(stmt.Columns))
		for _, c := range stmt.Columns {
			if t.ColumnIndex(c) < 0 {
				return nil, ErrColumnNotFound
			}
			named[c] = true
		}
		for _, c := range t.Columns {
			if !named[c.Name] && c.HasConstraint(ConstraintNotNull) {
				return nil, ErrNotNullViolation
			}
		}
	}

	newRows := make([]Row, 0, len(stmt.Rows))
	for _, values := range stmt.Rows {
		row, err := e.buildRow(t, stmt.Columns, values)
		if err != nil {
			return nil, err
		}
		newRows = append(newRows, row)
	}

	switch stmt.Mode {
	case sqlast.InsertOverwrite:
		t.Rows = newRows
	default:
		t.Rows = append(t.Rows, newRows...)
	}
	if len(t.Rows) == 0 {
		t.Rows = nil
	}

	if err := writeTable(tablePath(e.RootDir, database, stmt.Table), t); err != nil {
		return nil, err
	}
	return t, nil
}

func (e *Engine) buildRow(t *Table, columns []string, values []*sqlast.Literal) (Row, error) {
	row := make(Row, len(t.Columns))
	for i, c := range t.Columns {
		row[i] = Field{Col: c.Name, Value: nil}
	}

	if columns == nil {
		if len(values) != len(t.Columns) {
			return nil, ErrRowLengthMismatch
		}
		for i, lit := range values {
			col := t.Columns[i]
			if err := checkValue(col, lit); err != nil {
				return nil, err
			}
			row[i] = Field{Col: col.Name, Value: literalFieldValue(lit)}
		}
		return row, nil
	}

	if len(values) != len(columns) {
		return nil, ErrRowLengthMismatch
	}
	for i, name := range columns {
		idx := t.ColumnIndex(name)
		if idx < 0 {
			return nil, ErrColumnNotFound
		}
		col := t.Columns[idx]
		lit := values[i]
		if err := checkValue(col, lit); err != nil {
			return nil, err
		}
		row[idx] = Field{Col: col.Name, Value: literalFieldValue(lit)}
	}

	for _, c := range t.Columns {
		if row[t.ColumnIndex(c.Name)].Value == nil && c.HasConstraint(ConstraintNotNull) {
			return nil, ErrNotNullViolation
		}
	}
	return row, nil
}

// Truncate clears all rows.
func (e *Engine) Truncate(database string, stmt *sqlast.TruncateStmt) (*Table, error) {
	if database == "" {
		return nil, ErrSessionNotBound
	}
	path := tablePath(e.RootDir, database, stmt.Table)
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	t.Rows = nil
	if err := writeTable(path, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Select evaluates stmt.Where against every row and projects matches to
// stmt.Columns. A Table with rows=null is returned, not an error, when
// nothing matches.
func (e *Engine) Select(database string, stmt *sqlast.SelectStmt) (*Table, error) {
	if database == "" {
		return nil, ErrSessionNotBound
	}
	t, err := readTable(tablePath(e.RootDir, database, stmt.Table))
	if err != nil {
		return nil, err
	}

	projectAll := len(stmt.Columns) == 1 && stmt.Columns[0] == "all"
	if !projectAll {
		for _, c := range stmt.Columns {
			if t.ColumnIndex(c) < 0 {
				return nil, ErrColumnNotFound
			}
		}
	}

	var matched []Row
	for _, r := range t.Rows {
		ok, err := matchWhere(t, r, stmt.Where)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, projectRow(t, r, stmt.Columns, projectAll))
		}
	}

	result := &Table{Name: t.Name, Columns: t.Columns, Rows: matched}
	return result, nil
}

func projectRow(t *Table, r Row, columns []string, all bool) Row {
	if all {
		out := make(Row, len(r))
		copy(out, r)
		return out
	}
	out := make(Row, 0, len(columns))
	for _, c := range columns {
		idx := t.ColumnIndex(c)
		out = append(out, r[idx])
	}
	return out
}

// Delete removes matched rows (all rows, absent a WHERE clause) and returns
// a Table whose Rows holds the deleted rows. When StrictDeleteConnectives
// is false (the default), every WHERE condition is treated as OR'd
// together regardless of how it was written, matching the documented quirk
// this protocol's clients depend on.
func (e *Engine) Delete(database string, stmt *sqlast.DeleteStmt) (*Table, error) {
	if database == "" {
		return nil, ErrSessionNotBound
	}
	path := tablePath(e.RootDir, database, stmt.Table)
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}

	if stmt.Where == nil {
		deleted := t.Rows
		t.Rows = nil
		if err := writeTable(path, t); err != nil {
			return nil, err
		}
		return &Table{Name: t.Name, Columns: t.Columns, Rows: deleted}, nil
	}

	where := stmt.Where
	if !e.StrictDeleteConnectives {
		where = orEverything(where)
	}

	var kept, deleted []Row
	for _, r := range t.Rows {
		ok, err := matchWhere(t, r, where)
		if err != nil {
			return nil, err
		}
		if ok {
			deleted = append(deleted, r)
		} else {
			kept = append(kept, r)
		}
	}
	t.Rows = kept
	if len(t.Rows) == 0 {
		t.Rows = nil
	}
	if err := writeTable(path, t); err != nil {
		return nil, err
	}
	return &Table{Name: t.Name, Columns: t.Columns, Rows: deleted}, nil
}

// orEverything rewrites every connective in a WHERE tree to OR, reproducing
// the historical Delete behavior where AND was never honored.
func orEverything(e sqlast.Expr) sqlast.Expr {
	be, ok := e.(*sqlast.BinaryExpr)
	if !ok || !be.Op.IsConnective() {
		return e
	}
	return &sqlast.BinaryExpr{Op: sqlast.OpOr, Left: orEverything(be.Left), Right: orEverything(be.Right)}
}

// Update applies assignments to every row matched by stmt.Where (or every
// row, absent one). A run that matches nothing is a no-op, not an error.
func (e *Engine) Update(database string, stmt *sqlast.UpdateStmt) (*Table, error) {
	if database == "" {
		return nil, ErrSessionNotBound
	}
	path := tablePath(e.RootDir, database, stmt.Table)
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}

	for i, r := range t.Rows {
		ok, err := matchWhere(t, r, stmt.Where)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		for _, a := range stmt.Assignments {
			idx := t.ColumnIndex(a.Column)
			if idx < 0 {
				continue
			}
			col := t.Columns[idx]
			if err := checkValue(col, a.Value); err != nil {
				continue
			}
			t.Rows[i][idx] = Field{Col: col.Name, Value: literalFieldValue(a.Value)}
		}
	}

	if err := writeTable(path, t); err != nil {
		return nil, err
	}
	return t, nil
}
