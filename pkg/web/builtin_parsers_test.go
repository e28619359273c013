package web

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInt(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    int
		expectError bool
	}{
		{name: "valid positive integer", input: "123", expected: 123},
		{name: "valid negative integer", input: "-456", expected: -456},
		{name: "letters", input: "abc", expectError: true},
		{name: "float", input: "123.45", expectError: true},
		{name: "empty string", input: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseInt(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseTyped(t *testing.T) {
	id := uuid.New()

	v, err := ParseTyped("UUID", id.String())
	require.NoError(t, err)
	assert.Equal(t, id, v)

	v, err = ParseTyped("double", "1.5")
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)

	v, err = ParseTyped("", "raw")
	require.NoError(t, err)
	assert.Equal(t, "raw", v)

	_, err = ParseTyped("money", "12")
	assert.Error(t, err)

	_, err = ParseTyped("int", "x")
	assert.Error(t, err)
}

func TestResolveTypeAlias(t *testing.T) {
	assert.Equal(t, "uuid.UUID", ResolveTypeAlias("UUID"))
	assert.Equal(t, "float64", ResolveTypeAlias("float"))
	assert.Equal(t, "int", ResolveTypeAlias("int"))
}
