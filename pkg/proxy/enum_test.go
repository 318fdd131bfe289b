package proxy

import (
	"fmt"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnum(t *testing.T) {
	e, err := NewEnum("Quality", EnumMember{"High", 10}, EnumMember{"Low", 1}, EnumMember{"Mid", 5})
	require.NoError(t, err)
	assert.Equal(t, "Quality", e.Name())
	assert.Equal(t, []EnumMember{{"Low", 1}, {"Mid", 5}, {"High", 10}}, e.Members())

	members := e.Members()
	members[0].Value = 99
	v, ok := e.Value("Low")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestNewEnum_Errors(t *testing.T) {
	_, err := NewEnum("Mode", EnumMember{"A", 0}, EnumMember{"A", 1})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewEnum("Mode", EnumMember{"A", 0}, EnumMember{"B", 0})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorContains(t, err, "value 0")

	assert.Panics(t, func() { MustEnum("Mode", EnumMember{"A", 0}, EnumMember{"B", 0}) })
}

func TestEnum_Code(t *testing.T) {
	e := MustEnum("Mode", EnumMember{"A", 0}, EnumMember{"B", 1})

	tests := []struct {
		key  any
		want any
		ok   bool
	}{
		{"A", 0, true},
		{"B", 1, true},
		{"C", nil, false},
		{0, "A", true},
		{int64(1), "B", true},
		{uint8(1), "B", true},
		{float64(1), "B", true},
		{1.5, nil, false},
		{2, nil, false},
		{true, nil, false},
		{nil, nil, false},
	}
	for _, tt := range tests {
		got, ok := e.Code(tt.key)
		assert.Equal(t, tt.ok, ok, "%v", tt.key)
		if tt.ok {
			assert.Equal(t, tt.want, got, "%v", tt.key)
		}
	}

	_, ok := e.Label(7)
	assert.False(t, ok)
}

func TestEnum_CodeFloatOutOfRange(t *testing.T) {
	e := MustEnum("Edge", EnumMember{"Lowest", math.MinInt}, EnumMember{"Zero", 0})

	got, ok := e.Code(float64(math.MinInt))
	assert.True(t, ok)
	assert.Equal(t, "Lowest", got)

	for _, f := range []float64{-float64(math.MinInt), math.Inf(1), math.Inf(-1), math.NaN()} {
		_, ok := e.Code(f)
		assert.False(t, ok, "%v", f)
	}
}

func TestEnumProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("every member round-trips through Code", prop.ForAll(
		func(labels []string, offset int) bool {
			seen := make(map[string]bool)
			var members []EnumMember
			for i, l := range labels {
				label := fmt.Sprintf("%s_%d", l, i)
				if seen[label] {
					continue
				}
				seen[label] = true
				members = append(members, EnumMember{Label: label, Value: offset + i*3})
			}
			e, err := NewEnum("Generated", members...)
			if err != nil {
				return false
			}
			for _, m := range members {
				v, ok := e.Code(m.Label)
				if !ok || v != m.Value {
					return false
				}
				l, ok := e.Code(m.Value)
				if !ok || l != m.Label {
					return false
				}
			}
			return len(e.Members()) == len(members)
		},
		gen.SliceOf(gen.Identifier()),
		gen.IntRange(-1000, 1000),
	))

	properties.TestingRun(t)
}
