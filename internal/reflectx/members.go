// Package reflectx caches the bindable members of struct types.
package reflectx

import (
	"reflect"
	"strings"
	"sync"
)

// Member is an exported struct field addressed by its wire name
type Member struct {
	// Name is the json name of the field, or the Go name when untagged
	Name      string
	FieldName string
	Index     []int
	Type      reflect.Type
}

var cache sync.Map // reflect.Type -> []Member

// Members returns the bindable members of t (or *t). The set is computed once
// per type; the returned slice is shared and must not be modified.
func Members(t reflect.Type) []Member {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	if cached, ok := cache.Load(t); ok {
		return cached.([]Member)
	}
	actual, _ := cache.LoadOrStore(t, computeMembers(t))
	return actual.([]Member)
}

func computeMembers(t reflect.Type) []Member {
	var members []Member
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || (f.Anonymous && f.Type.Kind() == reflect.Struct) {
			continue
		}
		name := JSONName(f)
		if name == "" {
			continue
		}
		members = append(members, Member{Name: name, FieldName: f.Name, Index: f.Index, Type: f.Type})
	}
	return members
}

// JSONName returns the json name of a field, "" when the field is skipped
func JSONName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name
	}
	return f.Name
}

// Lookup finds a member by name, ignoring case
func Lookup(t reflect.Type, name string) (Member, bool) {
	for _, m := range Members(t) {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return Member{}, false
}
