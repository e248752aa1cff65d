package dexkeep

import (
	"iter"
	"maps"
	"slices"
	"strings"
)

// ClassSet is an immutable set of dotted, fully-qualified class names.
// The nil *ClassSet is empty.
type ClassSet struct {
	names map[string]struct{}
}

// NewClassSet returns a ClassSet of the given dotted class names.
// Duplicates collapse.
func NewClassSet(names ...string) *ClassSet {
	s := &ClassSet{names: make(map[string]struct{}, len(names))}
	for _, name := range names {
		s.names[name] = struct{}{}
	}

	return s
}

func (s *ClassSet) Len() int {
	if s == nil {
		return 0
	}

	return len(s.names)
}

func (s *ClassSet) Has(name string) bool {
	if s == nil {
		return false
	}

	_, ok := s.names[name]
	return ok
}

// All returns the members of s in no particular order.
func (s *ClassSet) All() iter.Seq[string] {
	if s == nil {
		return func(func(string) bool) {}
	}

	return maps.Keys(s.names)
}

// Sorted returns the members of s in ascending order.
func (s *ClassSet) Sorted() []string {
	return slices.Sorted(s.All())
}

// NormalizeClassName turns a path-style class name such as
// "com/example/Foo" into its dotted form "com.example.Foo".
func NormalizeClassName(name string) string {
	return strings.ReplaceAll(name, "/", ".")
}

// NormalizePackage turns a package prefix given as "scala", "scala/" or
// "scala." into "scala".
func NormalizePackage(prefix string) string {
	return strings.TrimRight(NormalizeClassName(prefix), ".")
}

// InPackage reports whether the dotted class name is the package prefix
// itself or lives somewhere beneath it. "scalax.Foo" is not in "scala".
// Every class is in the empty package prefix.
func InPackage(name, prefix string) bool {
	return prefix == "" || name == prefix || strings.HasPrefix(name, prefix+".")
}
