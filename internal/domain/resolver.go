package domain

import (
	"fmt"
	"strings"
)

// NameTable maps an upper-cased vessel name to its key.
type NameTable interface {
	Lookup(name string) (VesselKey, bool)
}

// StaticNames is an in-memory NameTable. Keys must be upper case.
type StaticNames map[string]VesselKey

// Lookup implements NameTable.
func (s StaticNames) Lookup(name string) (VesselKey, bool) {
	k, ok := s[name]
	return k, ok
}

// DefaultNames returns the built-in alias table.
func DefaultNames() StaticNames {
	return StaticNames{
		"EVER GIVEN": "353136000",
		"EVERGREEN":  "353136000",
		"COMPASS":    "244110352",
	}
}

// ParseAliases parses "NAME=MMSI;NAME2=MMSI2" into a table merged over base.
// Entries with a non-canonical MMSI are rejected.
func ParseAliases(base StaticNames, aliases string) (StaticNames, error) {
	out := make(StaticNames, len(base))
	for k, v := range base {
		out[k] = v
	}
	for _, pair := range strings.Split(aliases, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, key, ok := strings.Cut(pair, "=")
		name = strings.ToUpper(strings.TrimSpace(name))
		key = strings.TrimSpace(key)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid alias %q: expected NAME=MMSI", pair)
		}
		if !IsCanonicalKey(key) {
			return nil, fmt.Errorf("invalid alias %q: MMSI must be 9 digits", pair)
		}
		out[name] = VesselKey(key)
	}
	return out, nil
}

// Resolver maps a user-supplied query onto a VesselKey.
type Resolver struct {
	names NameTable
}

// NewResolver creates a Resolver backed by the given name table.
func NewResolver(names NameTable) *Resolver {
	return &Resolver{names: names}
}

// Resolve returns the canonical key for query. A 9-digit query is returned
// as-is without consulting the name table.
func (r *Resolver) Resolve(query string) (VesselKey, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", &NotFoundError{Query: query, Reason: "query is required"}
	}
	if IsCanonicalKey(q) {
		return VesselKey(q), nil
	}
	if isAllDigits(q) {
		return "", &NotFoundError{Query: q, Reason: "canonical key form expected (9-digit MMSI)"}
	}
	if key, ok := r.names.Lookup(strings.ToUpper(q)); ok {
		return key, nil
	}
	return "", &NotFoundError{Query: q, Reason: "vessel name not recognized"}
}

func isAllDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
