// Package storage implements the SQL-over-JSON storage engine: it turns a
// parser-agnostic AST (see storage/sqlast) into table mutations against
// JSON documents on the local filesystem.
package storage

import "fmt"

// DType is one of the column data types this engine understands.
type DType string

const (
	DTypeInt           DType = "INT"
	DTypeFloat         DType = "FLOAT"
	DTypeText          DType = "TEXT"
	DTypeVarchar       DType = "VARCHAR"
	DTypeLongText      DType = "LONGTEXT"
	DTypeDate          DType = "DATE"
	DTypeDateTimestamp DType = "DATETIMESTAMP"
	DTypeNull          DType = "NULL"
	DTypeBoolean       DType = "BOOLEAN"
)

// MaxVarcharBytes is the hard ceiling on a VARCHAR's declared and actual
// byte length.
const MaxVarcharBytes = 65535

// ConstraintKind is one of the column constraint kinds this engine accepts.
type ConstraintKind string

const (
	ConstraintPrimaryKey ConstraintKind = "PRIMARY_KEY"
	ConstraintForeignKey ConstraintKind = "FOREIGN_KEY"
	ConstraintDefault    ConstraintKind = "DEFAULT"
	ConstraintNotNull    ConstraintKind = "NOT_NULL"
	ConstraintUnique     ConstraintKind = "UNIQUE"
)

// Constraint is a single column constraint. Default carries the literal
// default value when Kind is ConstraintDefault; it's empty otherwise.
type Constraint struct {
	Kind    ConstraintKind
	Default string
}

// Column describes one column of a table's schema.
type Column struct {
	Name        string       `json:"name"`
	DType       DType        `json:"d_type"`
	Max         *int         `json:"max,omitempty"` // VARCHAR byte length cap
	Constraints []Constraint `json:"constraints,omitempty"`
}

// HasConstraint reports whether the column carries the given constraint kind.
func (c Column) HasConstraint(kind ConstraintKind) bool {
	for _, k := range c.Constraints {
		if k.Kind == kind {
			return true
		}
	}
	return false
}

// Field is one row's value for one column. Value is nil to represent SQL
// NULL; every stored value is otherwise a string, per the engine's
// string-first row model — numeric comparisons parse on demand.
type Field struct {
	Col   string  `json:"col"`
	Value *string `json:"value"`
}

// Row is an ordered list of fields, one per column, in schema order.
type Row []Field

// Table is the on-disk JSON document for one table. Rows is nil iff the
// table holds no data rows — never an empty, non-nil slice.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// ColumnIndex returns the schema position of name, or -1 if absent.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column looks up a column definition by name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (t *Table) String() string {
	return fmt.Sprintf("Table(%s, %d columns, %d rows)", t.Name, len(t.Columns), len(t.Rows))
}
