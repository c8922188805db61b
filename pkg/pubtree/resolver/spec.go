package resolver

import (
	"fmt"
	"strings"
)

// Spec is a parsed package request: a name plus an optional version
// constraint, as written on the command line or in configuration.
type Spec struct {
	Name       string
	Constraint string
}

// String reassembles the spec in name@constraint form.
func (s Spec) String() string {
	if s.Constraint == "" {
		return s.Name
	}
	return s.Name + "@" + s.Constraint
}

// ParseSpec parses "name" or "name@constraint". Scoped names such as
// "@acme/assets@^1.2.0" split on the last "@".
func ParseSpec(raw string) (Spec, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Spec{}, fmt.Errorf("empty package spec")
	}

	at := strings.LastIndexByte(raw, '@')
	if at <= 0 {
		// No separator, or a scoped name with no constraint ("@acme/assets").
		return Spec{Name: raw}, nil
	}

	return Spec{Name: raw[:at], Constraint: raw[at+1:]}, nil
}
