package storage

import (
	"math/big"
	"strings"

	"github.com/hexdb-io/hexdb/storage/sqlast"
)

// condition is one flattened comparison from a WHERE clause, together with
// the connective that preceded it (OpAnd for the first condition, since
// there is nothing before it to connect with).
type condition struct {
	conn sqlast.Op // sqlast.OpAnd or sqlast.OpOr
	cmp  *sqlast.BinaryExpr
}

// flattenWhere walks a WHERE expression tree in pre-order and linearizes it
// into an ordered sequence of conditions, each tagged with the connective
// that joins it to the previous one. The tree is left-associative
// (((a OP b) OP c) OP d), so an in-order walk that records the connective
// at each binary node and recurses left-to-right yields the original
// left-to-right condition order.
func flattenWhere(e sqlast.Expr) []condition {
	var out []condition
	var walk func(e sqlast.Expr, conn sqlast.Op)
	walk = func(e sqlast.Expr, conn sqlast.Op) {
		be, ok := e.(*sqlast.BinaryExpr)
		if !ok {
			return
		}
		if be.Op.IsConnective() {
			walk(be.Left, sqlast.OpAnd)
			walk(be.Right, be.Op)
			return
		}
		out = append(out, condition{conn: conn, cmp: be})
	}
	walk(e, sqlast.OpAnd)
	return out
}

// matchWhere reports whether row satisfies where, given table for column
// type lookup. nil where matches every row.
//
// Conditions are flattened in source order and evaluated against the row one
// at a time, without short-circuiting. Every AND-joined condition must hold.
// An OR-joined condition is an exemption: if it holds, the row matches
// regardless of what any AND condition decided, mirroring how this dialect's
// OR behaves as "include this row anyway" rather than ordinary boolean OR.
func matchWhere(t *Table, row Row, where sqlast.Expr) (bool, error) {
	if where == nil {
		return true, nil
	}
	conds := flattenWhere(where)

	andResult := true
	orExempt := false
	for _, c := range conds {
		ok, err := evalCondition(t, row, c.cmp)
		if err != nil {
			return false, err
		}
		switch c.conn {
		case sqlast.OpOr:
			if ok {
				orExempt = true
			}
		default: // AND, including the first condition
			if !ok {
				andResult = false
			}
		}
	}
	return andResult || orExempt, nil
}

func evalCondition(t *Table, row Row, be *sqlast.BinaryExpr) (bool, error) {
	colRef, ok := be.Left.(*sqlast.ColumnRef)
	if !ok {
		return false, ErrColumnNotFound
	}
	lit, ok := be.Right.(*sqlast.Literal)
	if !ok {
		return false, ErrUnsupportedOperator
	}

	idx := t.ColumnIndex(colRef.Name)
	if idx < 0 || idx >= len(row) {
		return false, ErrColumnNotFound
	}
	field := row[idx]

	if field.Value == nil {
		return be.Op == sqlast.OpNotEq && lit.Type != sqlast.LiteralNull, nil
	}
	if lit.Type == sqlast.LiteralNull {
		return be.Op == sqlast.OpNotEq, nil
	}

	col := t.Columns[idx]
	switch be.Op {
	case sqlast.OpEq, sqlast.OpNotEq:
		return evalStringCompare(*field.Value, lit.Value, be.Op)
	case sqlast.OpGt, sqlast.OpGtEq, sqlast.OpLt, sqlast.OpLtEq:
		// Numeric comparisons are only meaningful when the column is
		// declared INT and both operands parse as integers; otherwise the
		// comparison is false, never an error, matching the flattening
		// contract's "never short-circuit" requirement.
		if col.DType != DTypeInt {
			return false, nil
		}
		return evalIntCompare(*field.Value, lit.Value, be.Op), nil
	default:
		return false, ErrUnsupportedOperator
	}
}

// evalIntCompare compares a and b as arbitrary-precision signed integers
// (the wire protocol's values are not bounded to 64 bits), returning false
// for either operand that fails to parse.
func evalIntCompare(a, b string, op sqlast.Op) bool {
	ai, ok := new(big.Int).SetString(a, 10)
	if !ok {
		return false
	}
	bi, ok := new(big.Int).SetString(b, 10)
	if !ok {
		return false
	}
	cmp := ai.Cmp(bi)
	switch op {
	case sqlast.OpGt:
		return cmp > 0
	case sqlast.OpGtEq:
		return cmp >= 0
	case sqlast.OpLt:
		return cmp < 0
	case sqlast.OpLtEq:
		return cmp <= 0
	default:
		return false
	}
}

func evalStringCompare(a, b string, op sqlast.Op) (bool, error) {
	c := strings.Compare(a, b)
	switch op {
	case sqlast.OpEq:
		return c == 0, nil
	case sqlast.OpNotEq:
		return c != 0, nil
	case sqlast.OpGt:
		return c > 0, nil
	case sqlast.OpGtEq:
		return c >= 0, nil
	case sqlast.OpLt:
		return c < 0, nil
	case sqlast.OpLtEq:
		return c <= 0, nil
	default:
		return false, ErrUnsupportedOperator
	}
}
