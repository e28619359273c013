package reflectx

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Base struct {
	ID int `json:"id"`
}

type profile struct {
	Base
	Name     string `json:"name,omitempty"`
	Email    string
	Secret   string `json:"-"`
	internal string
}

func TestMembers(t *testing.T) {
	members := Members(reflect.TypeOf(&profile{}))
	require.Len(t, members, 3)

	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	assert.Equal(t, []string{"id", "name", "Email"}, names)
	assert.Equal(t, []int{0, 0}, members[0].Index)

	assert.Nil(t, Members(reflect.TypeOf(42)))
}

func TestMembersComputedOncePerType(t *testing.T) {
	typ := reflect.TypeOf(profile{})

	var wg sync.WaitGroup
	results := make([][]Member, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Members(typ)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, reflect.ValueOf(results[0]).Pointer(), reflect.ValueOf(r).Pointer())
	}
}

func TestLookupIgnoresCase(t *testing.T) {
	m, ok := Lookup(reflect.TypeOf(profile{}), "NAME")
	require.True(t, ok)
	assert.Equal(t, "Name", m.FieldName)

	_, ok = Lookup(reflect.TypeOf(profile{}), "secret")
	assert.False(t, ok)
}
