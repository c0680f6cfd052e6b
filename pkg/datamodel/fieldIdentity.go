package datamodel

import (
	"fmt"
	"strings"
	"unicode"
)

// FieldIdentity is the canonical identity of a template field, computed once at
// catalog load. It carries the ordered list of keys under which historically
// saved manual inputs may be stored, so no key guessing happens at runtime.
// The candidate order is a compatibility contract with existing stored data:
// exact name, lower case, upper case, snake/camel normalization, separators
// stripped, positional key, step-scoped key.
type FieldIdentity struct {
	Canonical  string
	Candidates []string
}

// NewFieldIdentity builds the identity for a template field
func NewFieldIdentity(fieldName string, stepNumber int, orderIndex int) *FieldIdentity {
	candidates := []string{
		fieldName,
		strings.ToLower(fieldName),
		strings.ToUpper(fieldName),
		ToSnakeCase(fieldName),
		ToCamelCase(fieldName),
		StripSeparators(fieldName),
		fmt.Sprintf("question_%d", orderIndex),
		fmt.Sprintf("step_%d_%s", stepNumber, fieldName),
	}

	deduped := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		deduped = append(deduped, c)
	}

	return &FieldIdentity{Canonical: fieldName, Candidates: deduped}
}

// Match locates this field's value inside the flat manual-input mapping.
// The first candidate key that exists with a non-nil value wins.
func (f *FieldIdentity) Match(inputs map[string]interface{}) (value interface{}, matchedKey string, found bool) {
	if len(inputs) == 0 {
		return nil, "", false
	}
	for _, key := range f.Candidates {
		if v, ok := inputs[key]; ok && v != nil {
			return v, key, true
		}
	}
	return nil, "", false
}

// ToSnakeCase converts camelCase names to snake_case (flashPoint21 -> flash_point_21)
func ToSnakeCase(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && runes[i-1] != '_' {
				b.WriteRune('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		if unicode.IsDigit(r) && i > 0 && unicode.IsLetter(runes[i-1]) {
			b.WriteRune('_')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ToCamelCase converts snake_case names to camelCase (flash_point_21 -> flashPoint21)
func ToCamelCase(name string) string {
	parts := strings.Split(name, "_")
	if len(parts) == 1 {
		return name
	}
	var b strings.Builder
	b.Grow(len(name))
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i == 0 {
			b.WriteString(p)
			continue
		}
		r := []rune(p)
		b.WriteRune(unicode.ToUpper(r[0]))
		b.WriteString(string(r[1:]))
	}
	return b.String()
}

// StripSeparators removes underscores, dashes and spaces and lower-cases the rest
func StripSeparators(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch r {
		case '_', '-', ' ':
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
