package store

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/tripleopt/internal/exec"
	"github.com/roach88/tripleopt/internal/plan"
)

// DriverName is the sqlite3 driver with the term functions registered on
// every connection. Open uses it.
const DriverName = "sqlite3_tripleopt"

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			if err := conn.RegisterFunc("term_compare", termCompare, true); err != nil {
				return fmt.Errorf("register term_compare: %w", err)
			}
			if err := conn.RegisterFunc("term_arith", termArith, true); err != nil {
				return fmt.Errorf("register term_arith: %w", err)
			}
			return nil
		},
	})
}

// termCompare orders two term values the way the in-memory executor does:
// numerically when both parse as numbers, lexically otherwise. NULL in,
// NULL out.
func termCompare(a, b any) any {
	as, aok := sqlText(a)
	bs, bok := sqlText(b)
	if !aok || !bok {
		return nil
	}
	return int64(exec.CompareValues(as, bs))
}

// termArith applies an arithmetic operator to two term values. It returns
// NULL when either side is not numeric or the result is undefined.
func termArith(op string, a, b any) any {
	as, aok := sqlText(a)
	bs, bok := sqlText(b)
	if !aok || !bok {
		return nil
	}
	v, ok, err := exec.Arithmetic(plan.ArithOp(op), as, bs)
	if err != nil || !ok {
		return nil
	}
	return v
}

// sqlText reads a callback argument as term text. The driver passes SQL
// NULL to an any parameter as a nil []byte, so that reads as NULL too.
func sqlText(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case []byte:
		if x == nil {
			return "", false
		}
		return string(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	default:
		return fmt.Sprint(x), true
	}
}
