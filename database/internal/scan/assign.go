// Package scan copies driver values into Scan destinations for the in-memory cursors
// (generated keys, test row sets) that do not go through database/sql.
package scan

import (
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// ErrNilDestination is returned when a Scan destination is not a non-nil pointer.
var ErrNilDestination = errors.New("destination must be a non-nil pointer")

// Assign stores src into the value dest points to, converting between the
// basic driver types the way database/sql does for the common cases.
func Assign(dest, src any) error {
	if scanner, ok := dest.(sql.Scanner); ok {
		return scanner.Scan(src)
	}

	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return fmt.Errorf("%w: got %T", ErrNilDestination, dest)
	}
	ev := dv.Elem()

	if src == nil {
		switch ev.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map:
			ev.Set(reflect.Zero(ev.Type()))
			return nil
		default:
			return fmt.Errorf("converting NULL to %s is unsupported", ev.Kind())
		}
	}

	sv := reflect.ValueOf(src)
	if sv.Type().AssignableTo(ev.Type()) {
		ev.Set(sv)
		return nil
	}

	switch ev.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := asInt64(src)
		if err != nil {
			return err
		}
		if ev.OverflowInt(n) {
			return fmt.Errorf("value %d overflows %s", n, ev.Type())
		}
		ev.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := asInt64(src)
		if err != nil {
			return err
		}
		if n < 0 || ev.OverflowUint(uint64(n)) {
			return fmt.Errorf("value %d overflows %s", n, ev.Type())
		}
		ev.SetUint(uint64(n))
		return nil
	case reflect.Float32, reflect.Float64:
		f, err := asFloat64(src)
		if err != nil {
			return err
		}
		ev.SetFloat(f)
		return nil
	case reflect.String:
		ev.SetString(asString(src))
		return nil
	case reflect.Bool:
		b, err := asBool(src)
		if err != nil {
			return err
		}
		ev.SetBool(b)
		return nil
	}

	if b, ok := src.([]byte); ok && ev.Type() == reflect.TypeOf([]byte(nil)) {
		ev.SetBytes(append([]byte(nil), b...))
		return nil
	}

	return fmt.Errorf("unsupported Scan, storing %T into %T", src, dest)
}

func asInt64(src any) (int64, error) {
	sv := reflect.ValueOf(src)
	switch sv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return sv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(sv.Uint()), nil
	case reflect.String:
		return strconv.ParseInt(sv.String(), 10, 64)
	}
	if b, ok := src.([]byte); ok {
		return strconv.ParseInt(string(b), 10, 64)
	}
	return 0, fmt.Errorf("converting %T to integer is unsupported", src)
}

func asFloat64(src any) (float64, error) {
	sv := reflect.ValueOf(src)
	switch sv.Kind() {
	case reflect.Float32, reflect.Float64:
		return sv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(sv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(sv.Uint()), nil
	case reflect.String:
		return strconv.ParseFloat(sv.String(), 64)
	}
	if b, ok := src.([]byte); ok {
		return strconv.ParseFloat(string(b), 64)
	}
	return 0, fmt.Errorf("converting %T to float is unsupported", src)
}

func asString(src any) string {
	switch v := src.(type) {
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(v)
	}
}

func asBool(src any) (bool, error) {
	switch v := src.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	case []byte:
		return strconv.ParseBool(string(v))
	}
	n, err := asInt64(src)
	if err != nil {
		return false, fmt.Errorf("converting %T to bool is unsupported", src)
	}
	return n != 0, nil
}
