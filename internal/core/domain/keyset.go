package domain

import (
	"slices"
	"strings"
)

// Key is the normalized projection of a row onto the common columns.
type Key []Value

func (k Key) identity() string {
	var b strings.Builder
	for _, v := range k {
		b.WriteString(v.identity())
		b.WriteByte(0)
	}
	return b.String()
}

// Texts renders every element as a CSV field.
func (k Key) Texts() []string {
	out := make([]string, len(k))
	for i, v := range k {
		out[i] = v.Text()
	}
	return out
}

// CompareKeys orders keys lexicographically by element.
func CompareKeys(a, b Key) int {
	return slices.CompareFunc(a, b, CompareValues)
}

// KeySet holds distinct keys. Duplicate rows collapse to one member and the
// first key seen is the one kept.
type KeySet struct {
	members map[string]Key
}

// BuildKeySet projects every row onto columns, normalizing each value.
// A column missing from a row contributes a null.
func BuildKeySet(rows []Row, columns []string) *KeySet {
	s := &KeySet{members: make(map[string]Key, len(rows))}
	for _, row := range rows {
		key := make(Key, len(columns))
		for i, col := range columns {
			key[i] = row[col].Normalize()
		}
		id := key.identity()
		if _, ok := s.members[id]; !ok {
			s.members[id] = key
		}
	}
	return s
}

func (s *KeySet) Len() int { return len(s.members) }

// Contains reports whether an equal key is a member.
func (s *KeySet) Contains(k Key) bool {
	_, ok := s.members[k.identity()]
	return ok
}

// Minus returns the members of s absent from other, sorted ascending.
func (s *KeySet) Minus(other *KeySet) []Key {
	var out []Key
	for id, k := range s.members {
		if _, ok := other.members[id]; !ok {
			out = append(out, k)
		}
	}
	slices.SortFunc(out, CompareKeys)
	return out
}
