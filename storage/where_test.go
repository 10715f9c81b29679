package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexdb-io/hexdb/storage/sqlast"
)

func strp(s string) *string { return &s }

func catsTable() *Table {
	return &Table{
		Name: "cats",
		Columns: []Column{
			{Name: "name", DType: DTypeVarchar},
			{Name: "gender", DType: DTypeVarchar},
			{Name: "age", DType: DTypeInt},
		},
	}
}

func row(name, gender, age string) Row {
	return Row{
		{Col: "name", Value: strp(name)},
		{Col: "gender", Value: strp(gender)},
		{Col: "age", Value: strp(age)},
	}
}

func TestMatchWhereNilMatchesEverything(t *testing.T) {
	tbl := catsTable()
	ok, err := matchWhere(tbl, row("kika", "female", "5"), nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatchWhereAndChain(t *testing.T) {
	tbl := catsTable()
	where := &sqlast.BinaryExpr{
		Op:   sqlast.OpAnd,
		Left: &sqlast.BinaryExpr{Op: sqlast.OpGtEq, Left: &sqlast.ColumnRef{Name: "age"}, Right: &sqlast.Literal{Value: "2", Type: sqlast.LiteralNumber}},
		Right: &sqlast.BinaryExpr{Op: sqlast.OpEq, Left: &sqlast.ColumnRef{Name: "gender"}, Right: &sqlast.Literal{Value: "female", Type: sqlast.LiteralIdent}},
	}

	ok, err := matchWhere(tbl, row("kika", "female", "5"), where)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = matchWhere(tbl, row("kot", "male", "1"), where)
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestMatchWhereOrExemption pins down the engine's documented quirk: a row
// rescued by an OR-adjacent condition is included even though it fails an
// earlier AND condition.
func TestMatchWhereOrExemption(t *testing.T) {
	tbl := catsTable()
	where := &sqlast.BinaryExpr{
		Op:   sqlast.OpOr,
		Left: &sqlast.BinaryExpr{Op: sqlast.OpEq, Left: &sqlast.ColumnRef{Name: "gender"}, Right: &sqlast.Literal{Value: "female", Type: sqlast.LiteralIdent}},
		Right: &sqlast.BinaryExpr{Op: sqlast.OpEq, Left: &sqlast.ColumnRef{Name: "name"}, Right: &sqlast.Literal{Value: "kot", Type: sqlast.LiteralIdent}},
	}

	ok, err := matchWhere(tbl, row("kot", "male", "1"), where)
	require.NoError(t, err)
	assert.True(t, ok, "name = kot is OR-adjacent and must rescue the row")

	ok, err = matchWhere(tbl, row("mia", "female", "3"), where)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = matchWhere(tbl, row("rex", "male", "2"), where)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchWhereNonIntColumnNumericCompareIsFalse(t *testing.T) {
	tbl := catsTable()
	where := &sqlast.BinaryExpr{Op: sqlast.OpGt, Left: &sqlast.ColumnRef{Name: "name"}, Right: &sqlast.Literal{Value: "1", Type: sqlast.LiteralNumber}}
	ok, err := matchWhere(tbl, row("kika", "female", "5"), where)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFlattenWhereLeftToRight(t *testing.T) {
	// (((age >= 2) AND (gender = female)) OR (name = kot))
	where := &sqlast.BinaryExpr{
		Op: sqlast.OpOr,
		Left: &sqlast.BinaryExpr{
			Op:    sqlast.OpAnd,
			Left:  &sqlast.BinaryExpr{Op: sqlast.OpGtEq, Left: &sqlast.ColumnRef{Name: "age"}, Right: &sqlast.Literal{Value: "2"}},
			Right: &sqlast.BinaryExpr{Op: sqlast.OpEq, Left: &sqlast.ColumnRef{Name: "gender"}, Right: &sqlast.Literal{Value: "female"}},
		},
		Right: &sqlast.BinaryExpr{Op: sqlast.OpEq, Left: &sqlast.ColumnRef{Name: "name"}, Right: &sqlast.Literal{Value: "kot"}},
	}
	conds := flattenWhere(where)
	require.Len(t, conds, 3)
	assert.Equal(t, sqlast.OpAnd, conds[0].conn)
	assert.Equal(t, sqlast.OpAnd, conds[1].conn)
	assert.Equal(t, sqlast.OpOr, conds[2].conn)
}
