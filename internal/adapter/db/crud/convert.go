package crud

import (
	"fmt"
	"math"
	"reflect"
)

// convert turns value into a reflect.Value of type t. Numbers convert between
// numeric kinds when no precision is lost; everything else must already be
// assignable. nil yields t's zero value.
func convert(t reflect.Type, value any) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(t), nil
	}

	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(t) {
		return v, nil
	}

	if t.Kind() == reflect.Pointer {
		elem, err := convert(t.Elem(), value)
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil
	}

	out := reflect.New(t).Elem()

	switch {
	case isInt(t.Kind()):
		n, ok := toInt64(v)
		if !ok || out.OverflowInt(n) {
			return reflect.Value{}, typeError(t, value)
		}
		out.SetInt(n)
	case isUint(t.Kind()):
		n, ok := toInt64(v)
		if !ok || n < 0 || out.OverflowUint(uint64(n)) {
			return reflect.Value{}, typeError(t, value)
		}
		out.SetUint(uint64(n))
	case isFloat(t.Kind()) && isNumber(v.Kind()):
		out.Set(v.Convert(t))
	case t.Kind() == reflect.String && v.Kind() == reflect.String:
		out.SetString(v.String())
	case t.Kind() == reflect.Bool && v.Kind() == reflect.Bool:
		out.SetBool(v.Bool())
	default:
		return reflect.Value{}, typeError(t, value)
	}

	return out, nil
}

func toInt64(v reflect.Value) (int64, bool) {
	switch {
	case isInt(v.Kind()):
		return v.Int(), true
	case isUint(v.Kind()):
		u := v.Uint()
		return int64(u), u <= math.MaxInt64
	case isFloat(v.Kind()):
		f := v.Float()
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, false
		}
		return int64(f), true
	}
	return 0, false
}

func typeError(t reflect.Type, value any) error {
	return fmt.Errorf("expected %s, got %T", t.Kind(), value)
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func isNumber(k reflect.Kind) bool {
	return isInt(k) || isUint(k) || isFloat(k)
}
