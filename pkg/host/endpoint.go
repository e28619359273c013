package host

// Endpoint carries the metadata the authorization stage reads for one function
type Endpoint struct {
	DisplayName string
	Metadata    Metadata
}

// Metadata is an ordered, read-only collection of marker values
type Metadata struct {
	items []any
}

// NewMetadata copies items into a read-only collection
func NewMetadata(items ...any) Metadata {
	return Metadata{items: append([]any(nil), items...)}
}

// Len returns the number of items
func (m Metadata) Len() int {
	return len(m.items)
}

// At returns the i-th item
func (m Metadata) At(i int) any {
	return m.items[i]
}

// Items returns a copy of the items in order
func (m Metadata) Items() []any {
	return append([]any(nil), m.items...)
}

// MetadataOf returns the items assignable to T, in order
func MetadataOf[T any](m Metadata) []T {
	var result []T
	for _, item := range m.items {
		if v, ok := item.(T); ok {
			result = append(result, v)
		}
	}
	return result
}

// HasMetadata reports whether any item is assignable to T
func HasMetadata[T any](m Metadata) bool {
	for _, item := range m.items {
		if _, ok := item.(T); ok {
			return true
		}
	}
	return false
}
