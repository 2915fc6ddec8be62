package repo

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
)

// amount scans SUM results. Drivers disagree on the type: pgx and mysql return decimals as text,
// sqlite returns int64 when every summed value is integral, duckdb returns its own Decimal or a
// *big.Int for HUGEINT sums.
type amount struct {
	value float64
	valid bool
}

// Scan rejects NaN and infinities since they cannot be encoded as JSON numbers.
func (a *amount) Scan(src any) error {
	if err := a.scan(src); err != nil {
		return err
	}
	if math.IsNaN(a.value) || math.IsInf(a.value, 0) {
		return fmt.Errorf("%w: non-finite %v", ErrUnsupportedValue, a.value)
	}
	return nil
}

func (a *amount) scan(src any) error {
	a.valid = true
	switch v := src.(type) {
	case nil:
		a.valid = false
		a.value = 0
	case float64:
		a.value = v
	case float32:
		a.value = float64(v)
	case int64:
		a.value = float64(v)
	case int32:
		a.value = float64(v)
	case []byte:
		return a.parse(string(v))
	case string:
		return a.parse(v)
	case *big.Int:
		a.value, _ = new(big.Float).SetInt(v).Float64()
	case interface{ Float64() float64 }:
		a.value = v.Float64()
	default:
		// duckdb.Decimal declares Float64 on the pointer receiver.
		ptr := reflect.New(reflect.TypeOf(src))
		ptr.Elem().Set(reflect.ValueOf(src))
		f, ok := ptr.Interface().(interface{ Float64() float64 })
		if !ok {
			return fmt.Errorf("%w: %T", ErrUnsupportedValue, src)
		}
		a.value = f.Float64()
	}
	return nil
}

func (a *amount) parse(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedValue, s)
	}
	a.value = f
	return nil
}
