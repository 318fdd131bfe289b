package proxy

import (
	"fmt"
	"math"
	"reflect"
	"sort"
)

// EnumMember is one label/value pair.
type EnumMember struct {
	Label string
	Value int
}

// Enum is an immutable bidirectional label/value codec.
type Enum struct {
	name    string
	members []EnumMember
	byLabel map[string]int
	byValue map[int]string
}

// NewEnum builds a codec. Labels and values must each be unique.
func NewEnum(name string, members ...EnumMember) (*Enum, error) {
	e := &Enum{
		name:    name,
		members: make([]EnumMember, len(members)),
		byLabel: make(map[string]int, len(members)),
		byValue: make(map[int]string, len(members)),
	}
	copy(e.members, members)
	for _, m := range e.members {
		if _, dup := e.byLabel[m.Label]; dup {
			return nil, fmt.Errorf("%w: enum %s: duplicate label %q", ErrInvalidArgument, name, m.Label)
		}
		if other, dup := e.byValue[m.Value]; dup {
			return nil, fmt.Errorf("%w: enum %s: value %d used by %q and %q", ErrInvalidArgument, name, m.Value, other, m.Label)
		}
		e.byLabel[m.Label] = m.Value
		e.byValue[m.Value] = m.Label
	}
	sort.SliceStable(e.members, func(i, j int) bool { return e.members[i].Value < e.members[j].Value })
	return e, nil
}

// MustEnum is NewEnum that panics on error, for generated package-level vars.
func MustEnum(name string, members ...EnumMember) *Enum {
	e, err := NewEnum(name, members...)
	if err != nil {
		panic(err)
	}
	return e
}

// Name returns the enum's type name.
func (e *Enum) Name() string { return e.name }

// Value maps a label to its integer.
func (e *Enum) Value(label string) (int, bool) {
	v, ok := e.byLabel[label]
	return v, ok
}

// Label maps an integer to its label.
func (e *Enum) Label(value int) (string, bool) {
	l, ok := e.byValue[value]
	return l, ok
}

// Code converts in either direction: a string label yields its int, an
// integer (any integer kind, or an integral float from decoded JSON) yields
// its label.
func (e *Enum) Code(key any) (any, bool) {
	if s, ok := key.(string); ok {
		return e.Value(s)
	}
	rv := reflect.ValueOf(key)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if n < math.MinInt || n > math.MaxInt {
			return nil, false
		}
		return e.Label(int(n))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n := rv.Uint()
		if n > math.MaxInt {
			return nil, false
		}
		return e.Label(int(n))
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != math.Trunc(f) || f < math.MinInt || f >= -math.MinInt {
			return nil, false
		}
		return e.Label(int(f))
	}
	return nil, false
}

// Members returns the pairs in value order.
func (e *Enum) Members() []EnumMember {
	return append([]EnumMember(nil), e.members...)
}
