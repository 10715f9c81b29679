package storage

import (
	"strings"

	"github.com/hexdb-io/hexdb/storage/sqlast"
)

// inferDType maps a parsed literal to the column data type it would occupy
// if stored verbatim. Quoted and bareword strings both infer as VARCHAR —
// this engine does not attempt the length-based VARCHAR/TEXT inference the
// original described, since no length threshold was ever specified for it;
// see DESIGN.md.
func inferDType(lit *sqlast.Literal) DType {
	switch lit.Type {
	case sqlast.LiteralNumber:
		if strings.Contains(lit.Value, ".") {
			return DTypeFloat
		}
		return DTypeInt
	case sqlast.LiteralBool:
		return DTypeBoolean
	case sqlast.LiteralNull:
		return DTypeNull
	default: // LiteralString, LiteralIdent
		return DTypeVarchar
	}
}

// typesCompatible reports whether a value inferred as type t may be stored
// in a column declared as type c.
func typesCompatible(t, c DType) bool {
	if t == c {
		return true
	}
	if c == DTypeVarchar {
		return true
	}
	if c == DTypeText && t == DTypeVarchar {
		return true
	}
	return false
}

// checkValue validates lit against col: type compatibility and, for
// VARCHAR, the declared/absolute length ceiling.
func checkValue(col Column, lit *sqlast.Literal) error {
	if lit.Type == sqlast.LiteralNull {
		if col.HasConstraint(ConstraintNotNull) {
			return ErrNotNullViolation
		}
		return nil
	}

	t := inferDType(lit)
	if !typesCompatible(t, col.DType) {
		return ErrTypeMismatch
	}
	if col.DType == DTypeVarchar {
		max := MaxVarcharBytes
		if col.Max != nil && *col.Max < max {
			max = *col.Max
		}
		if len([]byte(lit.Value)) > max {
			return ErrValueTooLong
		}
	}
	return nil
}

// literalFieldValue returns the string stored for a field, or nil for SQL
// NULL.
func literalFieldValue(lit *sqlast.Literal) *string {
	if lit.Type == sqlast.LiteralNull {
		return nil
	}
	v := lit.Value
	return &v
}
