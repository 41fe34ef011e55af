package variables

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// Unresolved is the value given to variables that could not be produced.
const Unresolved = "?"

// Sample maps variable names to generated values.
type Sample map[string]any

// Set is an ordered collection of named rules. Declaration order drives
// generation order, and JSON encoding preserves it.
type Set struct {
	names []string
	rules map[string]Rule
}

// ErrDuplicate is returned by Add when the name is already declared.
var ErrDuplicate = errors.New("variable already exists")

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{rules: make(map[string]Rule)}
}

// Add declares a new variable at the end of the set.
func (s *Set) Add(name string, r Rule) error {
	if name == "" {
		return fmt.Errorf("variable name is empty")
	}
	if _, ok := s.rules[name]; ok {
		return fmt.Errorf("%q: %w", name, ErrDuplicate)
	}
	s.put(name, r)
	return nil
}

// put inserts or replaces name, keeping its original position.
func (s *Set) put(name string, r Rule) {
	if s.rules == nil {
		s.rules = make(map[string]Rule)
	}
	if _, ok := s.rules[name]; !ok {
		s.names = append(s.names, name)
	}
	s.rules[name] = r
}

// Remove deletes name and reports whether it existed.
func (s *Set) Remove(name string) bool {
	if _, ok := s.rules[name]; !ok {
		return false
	}
	delete(s.rules, name)
	s.names = slices.DeleteFunc(s.names, func(n string) bool { return n == name })
	return true
}

// Get returns the rule for name.
func (s *Set) Get(name string) (Rule, bool) {
	if s == nil {
		return Rule{}, false
	}
	r, ok := s.rules[name]
	return r, ok
}

// Names returns the variable names in declaration order.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.names)
}

// Len returns the number of variables.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// MarshalJSON encodes the set as an object in declaration order.
func (s *Set) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range s.Names() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(s.rules[name])
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object of rules, keeping key order. A repeated
// key keeps its first position and its last value.
func (s *Set) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = Set{rules: make(map[string]Rule)}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("variables must be a JSON object")
	}

	out := Set{rules: make(map[string]Rule)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		if name == "" {
			return fmt.Errorf("variable name is empty")
		}
		var r Rule
		if err := dec.Decode(&r); err != nil {
			return fmt.Errorf("variable %q: %w", name, err)
		}
		out.put(name, r)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}
