package message

import (
	"errors"
	"fmt"
)

// ErrInvalidProperty is returned when a key or value cannot be stored in a
// property map.
var ErrInvalidProperty = errors.New("invalid property")

// Properties is the user-defined key/value map carried with a message.
type Properties interface {
	// Internals returns parallel views of the keys and values. The slices
	// belong to the map and must not be modified.
	Internals() (keys, values []string, err error)

	// AddOrUpdate inserts the pair or replaces the value of an existing key.
	AddOrUpdate(key, value string) error

	// Get returns the value stored under key.
	Get(key string) (string, bool)

	// Len returns the number of pairs.
	Len() int
}

// Map is an insertion-ordered string map that only accepts printable ASCII
// keys and values. It is not safe for concurrent mutation.
type Map struct {
	keys   []string
	values []string
	index  map[string]int
}

// NewMap creates an empty Map.
func NewMap() *Map {
	return &Map{index: make(map[string]int)}
}

// Internals returns the keys and values as two parallel slices.
func (m *Map) Internals() ([]string, []string, error) {
	return m.keys, m.values, nil
}

// AddOrUpdate stores value under key.
func (m *Map) AddOrUpdate(key, value string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidProperty)
	}
	if !printableASCII(key) {
		return fmt.Errorf("%w: key %q", ErrInvalidProperty, key)
	}
	if !printableASCII(value) {
		return fmt.Errorf("%w: value for key %q", ErrInvalidProperty, key)
	}
	if i, ok := m.index[key]; ok {
		m.values[i] = value
		return nil
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, key)
	m.values = append(m.values, value)
	return nil
}

// Get returns the value for key.
func (m *Map) Get(key string) (string, bool) {
	i, ok := m.index[key]
	if !ok {
		return "", false
	}
	return m.values[i], true
}

// Len returns the number of pairs in the map.
func (m *Map) Len() int {
	return len(m.keys)
}

// ToMap copies the pairs into a plain Go map.
func (m *Map) ToMap() map[string]string {
	out := make(map[string]string, len(m.keys))
	for i, k := range m.keys {
		out[k] = m.values[i]
	}
	return out
}

func printableASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7E {
			return false
		}
	}
	return true
}
