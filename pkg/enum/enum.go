// Package enum registers the members of string-typed enums at package
// initialization time.
package enum

import (
	"fmt"
	"reflect"
)

var registered = map[reflect.Type]map[string]struct{}{}

// New registers value as a member of its enum type and returns it. Two
// members of one type can never share a string: a copy-pasted constant
// panics at startup instead of corrupting stored data.
func New[T ~string](value T) T {
	t := reflect.TypeOf(value)
	members, ok := registered[t]
	if !ok {
		members = map[string]struct{}{}
		registered[t] = members
	}

	if _, ok := members[string(value)]; ok {
		panic(fmt.Sprintf("duplicate member %q of enum %s", string(value), t.Name()))
	}

	members[string(value)] = struct{}{}
	return value
}
