// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the closed set of value types a port may declare.
//
// Every type is backed by a cty.Type so that coercion, Go interop and JSON
// encoding all go through go-cty instead of bespoke reflection. Scalars map
// directly onto cty primitives. Fixed-size numeric aggregates are lists of
// numbers (vectors, quaternions) or lists of lists of numbers (matrices); cty
// has no fixed-length list, so the shape is enforced by Coerce.

package porttype

import (
	"errors"
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

var (
	// ErrTypeMismatch is returned when a value cannot be coerced to a port type.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrUnknownType is returned by Parse for a name outside the enumeration.
	ErrUnknownType = errors.New("unknown port type")
)

// Type is one member of the closed port type enumeration.
type Type int

const (
	Invalid Type = iota
	Int
	Float
	Bool
	String
	Vector2
	Vector3
	Vector4
	Quaternion
	Matrix3
	Matrix4
)

var names = map[Type]string{
	Int:        "int",
	Float:      "float",
	Bool:       "bool",
	String:     "string",
	Vector2:    "vector2",
	Vector3:    "vector3",
	Vector4:    "vector4",
	Quaternion: "quaternion",
	Matrix3:    "matrix3",
	Matrix4:    "matrix4",
}

// All returns every valid type in declaration order.
func All() []Type {
	return []Type{Int, Float, Bool, String, Vector2, Vector3, Vector4, Quaternion, Matrix3, Matrix4}
}

// Parse returns the type with the given canonical name.
func Parse(name string) (Type, error) {
	for t, n := range names {
		if n == name {
			return t, nil
		}
	}
	return Invalid, fmt.Errorf("%w %q", ErrUnknownType, name)
}

// String returns the canonical name of the type.
func (t Type) String() string {
	if n, ok := names[t]; ok {
		return n
	}
	return fmt.Sprintf("invalid(%d)", int(t))
}

// Valid reports whether t is a member of the enumeration.
func (t Type) Valid() bool {
	_, ok := names[t]
	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", t)
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// shape returns the fixed dimensions of an aggregate: (n, 0) for an n-vector,
// (n, n) for an n×n matrix and (0, 0) for scalars.
func (t Type) shape() (rows, cols int) {
	switch t {
	case Vector2:
		return 2, 0
	case Vector3:
		return 3, 0
	case Vector4, Quaternion:
		return 4, 0
	case Matrix3:
		return 3, 3
	case Matrix4:
		return 4, 4
	}
	return 0, 0
}

// CtyType returns the cty.Type values of t are stored as.
func (t Type) CtyType() cty.Type {
	switch t {
	case Int, Float:
		return cty.Number
	case Bool:
		return cty.Bool
	case String:
		return cty.String
	case Vector2, Vector3, Vector4, Quaternion:
		return cty.List(cty.Number)
	case Matrix3, Matrix4:
		return cty.List(cty.List(cty.Number))
	}
	return cty.NilType
}

// Zero returns the canonical default value of t.
func (t Type) Zero() cty.Value {
	switch t {
	case Int, Float:
		return cty.Zero
	case Bool:
		return cty.True
	case String:
		return cty.StringVal("")
	case Quaternion:
		return numberList(0, 0, 0, 1)
	case Matrix3, Matrix4:
		n, _ := t.shape()
		rows := make([]cty.Value, n)
		for i := range rows {
			row := make([]float64, n)
			row[i] = 1
			rows[i] = numberList(row...)
		}
		return cty.ListVal(rows)
	case Vector2, Vector3, Vector4:
		n, _ := t.shape()
		return numberList(make([]float64, n)...)
	}
	return cty.NilVal
}

func numberList(nums ...float64) cty.Value {
	vals := make([]cty.Value, len(nums))
	for i, n := range nums {
		vals[i] = cty.NumberFloatVal(n)
	}
	return cty.ListVal(vals)
}

// Coerce converts v into a value of type t. The returned error wraps
// ErrTypeMismatch when the value has the wrong kind, the wrong shape, is
// null or unknown, or (for Int) is not a whole number.
func (t Type) Coerce(v cty.Value) (cty.Value, error) {
	if !t.Valid() {
		return cty.NilVal, fmt.Errorf("%w: %s is not a port type", ErrTypeMismatch, t)
	}
	if v == cty.NilVal || v.IsNull() {
		return cty.NilVal, fmt.Errorf("%w: %s does not accept null", ErrTypeMismatch, t)
	}
	if !v.IsWhollyKnown() {
		return cty.NilVal, fmt.Errorf("%w: %s does not accept unknown values", ErrTypeMismatch, t)
	}

	out, err := convert.Convert(v, t.CtyType())
	if err != nil {
		return cty.NilVal, fmt.Errorf("%w: cannot use %s as %s: %v", ErrTypeMismatch, v.Type().FriendlyName(), t, err)
	}
	if err := t.checkShape(out); err != nil {
		return cty.NilVal, err
	}
	if t == Int && !out.AsBigFloat().IsInt() {
		return cty.NilVal, fmt.Errorf("%w: %s is not a whole number", ErrTypeMismatch, out.AsBigFloat().Text('g', -1))
	}
	return out, nil
}

func (t Type) checkShape(v cty.Value) error {
	rows, cols := t.shape()
	if rows == 0 {
		return nil
	}
	if n := v.LengthInt(); n != rows {
		return fmt.Errorf("%w: %s needs %d elements, got %d", ErrTypeMismatch, t, rows, n)
	}
	for i, row := range v.AsValueSlice() {
		if row.IsNull() {
			return fmt.Errorf("%w: %s element %d is null", ErrTypeMismatch, t, i)
		}
		if cols == 0 {
			continue
		}
		if n := row.LengthInt(); n != cols {
			return fmt.Errorf("%w: %s rows need %d elements, got %d", ErrTypeMismatch, t, cols, n)
		}
		for j, cell := range row.AsValueSlice() {
			if cell.IsNull() {
				return fmt.Errorf("%w: %s element [%d][%d] is null", ErrTypeMismatch, t, i, j)
			}
		}
	}
	return nil
}

// Accepts reports whether v can be coerced to t.
func (t Type) Accepts(v cty.Value) bool {
	_, err := t.Coerce(v)
	return err == nil
}

// FromGo builds a value of type t from native Go data, e.g. 5, 1.5, true,
// "name", []float64{0, 1} or [][]float64{{1, 0}, {0, 1}}.
func (t Type) FromGo(v any) (cty.Value, error) {
	if !t.Valid() {
		return cty.NilVal, fmt.Errorf("%w: %s is not a port type", ErrTypeMismatch, t)
	}
	val, err := gocty.ToCtyValue(v, t.CtyType())
	if err != nil {
		return cty.NilVal, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
	}
	return t.Coerce(val)
}

// MustFromGo is FromGo for literals known to be valid. It panics on error.
func (t Type) MustFromGo(v any) cty.Value {
	val, err := t.FromGo(v)
	if err != nil {
		panic(err)
	}
	return val
}

// Marshal encodes a value of type t as JSON.
func (t Type) Marshal(v cty.Value) ([]byte, error) {
	return ctyjson.Marshal(v, t.CtyType())
}

// Unmarshal decodes JSON into a value of type t.
func (t Type) Unmarshal(buf []byte) (cty.Value, error) {
	v, err := ctyjson.Unmarshal(buf, t.CtyType())
	if err != nil {
		return cty.NilVal, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
	}
	return t.Coerce(v)
}

// Equal reports whether two values of the same port type are equal.
func Equal(a, b cty.Value) bool {
	if a == cty.NilVal || b == cty.NilVal {
		return a == b
	}
	return a.RawEquals(b) || a.Equals(b).True()
}

// IntValue returns the integer held by an Int value.
func IntValue(v cty.Value) (int64, error) {
	var out int64
	if err := gocty.FromCtyValue(v, &out); err != nil {
		return 0, err
	}
	return out, nil
}
