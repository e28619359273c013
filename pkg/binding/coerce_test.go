package binding

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name   string
		raw    []string
		typ    reflect.Type
		locale string
		want   any
	}{
		{"int", []string{"42"}, reflect.TypeOf(0), "en", 42},
		{"uint8", []string{"7"}, reflect.TypeOf(uint8(0)), "en", uint8(7)},
		{"bool", []string{"true"}, reflect.TypeOf(false), "en", true},
		{"float comma in fr", []string{"1,5"}, reflect.TypeOf(0.0), "fr", 1.5},
		{"float dot in en", []string{"1.5"}, reflect.TypeOf(0.0), "en", 1.5},
		{"duration", []string{"2s"}, reflect.TypeOf(time.Duration(0)), "en", 2 * time.Second},
		{"slice", []string{"1", "2"}, reflect.TypeOf([]int{}), "en", []int{1, 2}},
		{"date", []string{"2024-03-01"}, reflect.TypeOf(time.Time{}), "en", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := coerce(tt.raw, tt.typ, tt.locale)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Interface())
		})
	}

	ptr, err := coerce([]string{"9"}, reflect.TypeOf((*int)(nil)), "en")
	require.NoError(t, err)
	assert.Equal(t, 9, *ptr.Interface().(*int))

	_, err = coerce([]string{"1,5"}, reflect.TypeOf(0.0), "en")
	assert.Error(t, err)
	_, err = coerce([]string{"x"}, reflect.TypeOf(0), "en")
	assert.Error(t, err)
}

func TestIsComplex(t *testing.T) {
	type inner struct{ A int }
	assert.True(t, isComplex(reflect.TypeOf(inner{})))
	assert.True(t, isComplex(reflect.TypeOf(&inner{})))
	assert.True(t, isComplex(reflect.TypeOf(map[string]int{})))
	assert.True(t, isComplex(reflect.TypeOf([]inner{})))
	assert.False(t, isComplex(reflect.TypeOf(time.Time{})))
	assert.False(t, isComplex(reflect.TypeOf([]int{})))
	assert.False(t, isComplex(reflect.TypeOf([]byte{})))
	assert.False(t, isComplex(reflect.TypeOf("")))
}

func TestReadFormLimits(t *testing.T) {
	limits := DefaultFormOptions()
	values, err := readForm([]byte("a=1&a=2&b=x"), "application/x-www-form-urlencoded", limits)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, values["a"])

	limits.ValueCountLimit = 2
	_, err = readForm([]byte("a=1&a=2&b=x"), "application/x-www-form-urlencoded", limits)
	assert.True(t, errors.Is(err, ErrMalformedForm))

	limits = DefaultFormOptions()
	limits.KeyLengthLimit = 3
	_, err = readForm([]byte("long=1"), "application/x-www-form-urlencoded", limits)
	assert.True(t, errors.Is(err, ErrMalformedForm))

	limits = DefaultFormOptions()
	limits.MultipartBodyLengthLimit = 4
	_, err = readForm([]byte("a=12345"), "application/x-www-form-urlencoded", limits)
	assert.True(t, errors.Is(err, ErrMalformedForm))

	_, err = readForm([]byte("--x--"), "multipart/form-data", DefaultFormOptions())
	assert.True(t, errors.Is(err, ErrMalformedForm))
}

func TestFormOptionsApply(t *testing.T) {
	count := 5
	got := DefaultFormOptions().apply(&FormLimits{ValueCountLimit: &count})
	assert.Equal(t, 5, got.ValueCountLimit)
	assert.Equal(t, DefaultFormOptions().KeyLengthLimit, got.KeyLengthLimit)
	assert.Equal(t, DefaultFormOptions(), DefaultFormOptions().apply(nil))
}

func TestSourceOf(t *testing.T) {
	source, name, ok := sourceOf([]any{"other", FromQuery{Name: "q"}}, "term")
	require.True(t, ok)
	assert.Equal(t, SourceQuery, source)
	assert.Equal(t, "q", name)

	source, name, ok = sourceOf([]any{&FromRoute{}}, "id")
	require.True(t, ok)
	assert.Equal(t, SourcePath, source)
	assert.Equal(t, "id", name)

	_, _, ok = sourceOf(nil, "id")
	assert.False(t, ok)
}
