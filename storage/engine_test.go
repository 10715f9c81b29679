package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexdb-io/hexdb/storage/sqlast"
)

func newTestEngine(t *testing.T) *Engine {
	dir := t.TempDir()
	require.NoError(t, Bootstrap(dir))
	return NewEngine(dir, false)
}

func parseStmt(t *testing.T, sql string) sqlast.Statement {
	t.Helper()
	stmt, err := sqlast.Parse(sql)
	require.NoError(t, err)
	return stmt
}

func TestCreateDatabaseThenDuplicateFails(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.CreateDatabase("pets"))

	err := e.CreateDatabase("pets")
	assert.ErrorIs(t, err, ErrDatabaseExists)
}

func TestCreateTableRequiresBoundDatabase(t *testing.T) {
	e := newTestEngine(t)
	stmt := parseStmt(t, "CREATE TABLE cats (name varchar(255) NOT NULL, gender varchar(255) NOT NULL, age int)")
	_, err := e.Execute("", stmt)
	assert.ErrorIs(t, err, ErrSessionNotBound)
}

func TestCreateTableProducesNullRows(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.CreateDatabase("pets"))
	stmt := parseStmt(t, "CREATE TABLE cats (name varchar(255) NOT NULL, gender varchar(255) NOT NULL, age int)").(*sqlast.CreateTableStmt)
	require.NoError(t, e.CreateTable("pets", stmt))

	tbl, err := readTable(tablePath(e.RootDir, "pets", "cats"))
	require.NoError(t, err)
	assert.Nil(t, tbl.Rows)
	assert.Len(t, tbl.Columns, 3)
}

func setupCatsTable(t *testing.T, e *Engine) {
	t.Helper()
	require.NoError(t, e.CreateDatabase("pets"))
	stmt := parseStmt(t, "CREATE TABLE cats (name varchar(255) NOT NULL, gender varchar(255) NOT NULL, age int)").(*sqlast.CreateTableStmt)
	require.NoError(t, e.CreateTable("pets", stmt))
}

func TestInsertThenSelect(t *testing.T) {
	e := newTestEngine(t)
	setupCatsTable(t, e)

	ins := parseStmt(t, "INSERT INTO cats VALUES ('kika', 'female', 5)")
	_, err := e.Execute("pets", ins)
	require.NoError(t, err)

	sel := parseStmt(t, "SELECT * FROM cats WHERE age >= 2 AND gender = female")
	res, err := e.Execute("pets", sel)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "kika", *res.Rows[0][0].Value)
}

func TestInsertOverwriteReplacesRows(t *testing.T) {
	e := newTestEngine(t)
	setupCatsTable(t, e)

	_, err := e.Execute("pets", parseStmt(t, "INSERT INTO cats VALUES ('kika', 'female', 5)"))
	require.NoError(t, err)
	_, err = e.Execute("pets", parseStmt(t, "INSERT OVERWRITE TABLE cats VALUES ('kot', 'male', 1)"))
	require.NoError(t, err)

	res, err := e.Execute("pets", parseStmt(t, "SELECT * FROM cats"))
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "kot", *res.Rows[0][0].Value)
}

func TestDeleteReturnsDeletedRows(t *testing.T) {
	e := newTestEngine(t)
	setupCatsTable(t, e)
	_, err := e.Execute("pets", parseStmt(t, "INSERT INTO cats VALUES ('kot', 'male', 1)"))
	require.NoError(t, err)

	del, err := e.Execute("pets", parseStmt(t, "DELETE FROM cats WHERE name = kot"))
	require.NoError(t, err)
	require.Len(t, del.Rows, 1)
	assert.Equal(t, "kot", *del.Rows[0][0].Value)

	sel, err := e.Execute("pets", parseStmt(t, "SELECT * FROM cats"))
	require.NoError(t, err)
	assert.Nil(t, sel.Rows)
}

func TestUpdateChangesOnlyMatchedRow(t *testing.T) {
	e := newTestEngine(t)
	setupCatsTable(t, e)
	_, err := e.Execute("pets", parseStmt(t, "INSERT INTO cats VALUES ('kika', 'female', 5), ('kot', 'male', 1)"))
	require.NoError(t, err)

	_, err = e.Execute("pets", parseStmt(t, "UPDATE cats SET age = 9 WHERE name = kika"))
	require.NoError(t, err)

	sel, err := e.Execute("pets", parseStmt(t, "SELECT * FROM cats"))
	require.NoError(t, err)
	require.Len(t, sel.Rows, 2)
	for _, r := range sel.Rows {
		if *r[0].Value == "kika" {
			assert.Equal(t, "9", *r[2].Value)
		} else {
			assert.Equal(t, "1", *r[2].Value)
		}
	}
}

func TestUpdateMatchingNothingIsNoOp(t *testing.T) {
	e := newTestEngine(t)
	setupCatsTable(t, e)
	_, err := e.Execute("pets", parseStmt(t, "INSERT INTO cats VALUES ('kika', 'female', 5)"))
	require.NoError(t, err)

	_, err = e.Execute("pets", parseStmt(t, "UPDATE cats SET age = 9 WHERE name = nobody"))
	require.NoError(t, err)

	sel, err := e.Execute("pets", parseStmt(t, "SELECT * FROM cats"))
	require.NoError(t, err)
	assert.Equal(t, "5", *sel.Rows[0][2].Value)
}

func TestTruncateEmptiesTable(t *testing.T) {
	e := newTestEngine(t)
	setupCatsTable(t, e)
	_, err := e.Execute("pets", parseStmt(t, "INSERT INTO cats VALUES ('kika', 'female', 5)"))
	require.NoError(t, err)

	_, err = e.Execute("pets", parseStmt(t, "TRUNCATE TABLE cats"))
	require.NoError(t, err)

	sel, err := e.Execute("pets", parseStmt(t, "SELECT * FROM cats"))
	require.NoError(t, err)
	assert.Nil(t, sel.Rows)
}

func TestInsertRejectsOversizedVarchar(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.CreateDatabase("pets"))
	stmt := parseStmt(t, "CREATE TABLE notes (body varchar(100))").(*sqlast.CreateTableStmt)
	require.NoError(t, e.CreateTable("pets", stmt))

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	insertSQL := "INSERT INTO notes VALUES ('" + string(long) + "')"
	_, err := e.Execute("pets", parseStmt(t, insertSQL))
	assert.ErrorIs(t, err, ErrValueTooLong)

	tbl, err := readTable(tablePath(e.RootDir, "pets", "notes"))
	require.NoError(t, err)
	assert.Nil(t, tbl.Rows)
}

func TestInsertWithNamedColumnsFillsRestWithNull(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.CreateDatabase("pets"))
	stmt := parseStmt(t, "CREATE TABLE cats (name varchar(255) NOT NULL, nickname varchar(255), age int)").(*sqlast.CreateTableStmt)
	require.NoError(t, e.CreateTable("pets", stmt))

	_, err := e.Execute("pets", parseStmt(t, "INSERT INTO cats (name, age) VALUES ('kika', 5)"))
	require.NoError(t, err)

	sel, err := e.Execute("pets", parseStmt(t, "SELECT * FROM cats"))
	require.NoError(t, err)
	require.Len(t, sel.Rows, 1)
	assert.Nil(t, sel.Rows[0][1].Value)
}

func TestInsertWithNamedColumnsRejectsUnnamedNotNull(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.CreateDatabase("pets"))
	stmt := parseStmt(t, "CREATE TABLE cats (name varchar(255) NOT NULL, gender varchar(255) NOT NULL, age int)").(*sqlast.CreateTableStmt)
	require.NoError(t, e.CreateTable("pets", stmt))

	_, err := e.Execute("pets", parseStmt(t, "INSERT INTO cats (name, age) VALUES ('kika', 5)"))
	assert.ErrorIs(t, err, ErrNotNullViolation)
}

func TestDeleteOrsEveryConditionByDefault(t *testing.T) {
	e := newTestEngine(t)
	setupCatsTable(t, e)
	_, err := e.Execute("pets", parseStmt(t, "INSERT INTO cats VALUES ('kika', 'female', 5), ('kot', 'male', 1)"))
	require.NoError(t, err)

	// Written as AND, but the default (non-strict) Delete treats every
	// connective as OR, so both rows are removed even though neither alone
	// satisfies both conditions.
	del, err := e.Execute("pets", parseStmt(t, "DELETE FROM cats WHERE name = kika AND name = kot"))
	require.NoError(t, err)
	assert.Len(t, del.Rows, 2)
}

func TestDeleteHonorsAndWhenStrict(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Bootstrap(dir))
	e := NewEngine(dir, true)
	setupCatsTable(t, e)
	_, err := e.Execute("pets", parseStmt(t, "INSERT INTO cats VALUES ('kika', 'female', 5), ('kot', 'male', 1)"))
	require.NoError(t, err)

	del, err := e.Execute("pets", parseStmt(t, "DELETE FROM cats WHERE name = kika AND name = kot"))
	require.NoError(t, err)
	assert.Nil(t, del.Rows)
}
