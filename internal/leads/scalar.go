package leads

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ScalarKind tags the value held by a Scalar.
type ScalarKind uint8

const (
	KindString ScalarKind = iota + 1
	KindNumber
	KindBool
)

var (
	errNullScalar      = errors.New("leads: scalar is null")
	errCompositeScalar = errors.New("leads: scalar is an object or array")
)

// Scalar is a free-form extra field value: a string, a number or a bool.
type Scalar struct {
	kind ScalarKind
	str  string
	num  float64
	b    bool
}

// String wraps v as a string scalar.
func String(v string) Scalar { return Scalar{kind: KindString, str: v} }

// Number wraps v as a numeric scalar.
func Number(v float64) Scalar { return Scalar{kind: KindNumber, num: v} }

// Bool wraps v as a boolean scalar.
func Bool(v bool) Scalar { return Scalar{kind: KindBool, b: v} }

func (s Scalar) Kind() ScalarKind { return s.kind }

// Str returns the string value and whether s holds one.
func (s Scalar) Str() (string, bool) { return s.str, s.kind == KindString }

// Num returns the numeric value and whether s holds one.
func (s Scalar) Num() (float64, bool) { return s.num, s.kind == KindNumber }

// Bool returns the boolean value and whether s holds one.
func (s Scalar) Bool() (bool, bool) { return s.b, s.kind == KindBool }

// Equal reports whether both scalars have the same kind and value.
func (s Scalar) Equal(o Scalar) bool {
	if s.kind != o.kind {
		return false
	}
	switch s.kind {
	case KindString:
		return s.str == o.str
	case KindNumber:
		return s.num == o.num
	case KindBool:
		return s.b == o.b
	}
	return true
}

func (s Scalar) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case KindString:
		return json.Marshal(s.str)
	case KindNumber:
		return []byte(strconv.FormatFloat(s.num, 'f', -1, 64)), nil
	case KindBool:
		return json.Marshal(s.b)
	}
	return nil, errors.New("leads: marshal of empty scalar")
}

func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errNullScalar
	}
	switch data[0] {
	case 'n':
		return errNullScalar
	case '{', '[':
		return errCompositeScalar
	case '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = String(v)
	case 't', 'f':
		var v bool
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = Bool(v)
	default:
		v, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("leads: invalid scalar %q: %w", data, err)
		}
		*s = Number(v)
	}
	return nil
}
