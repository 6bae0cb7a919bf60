package models

import "fmt"

// Kind identifies one of the four structurally identical document variants.
// All kinds share one schema, one status catalog and one workflow; services
// are instantiated per kind and dispatch on this tag.
type Kind string

const (
	KindDecree      Kind = "decree"
	KindReport      Kind = "report"
	KindLetter      Kind = "letter"
	KindInstruction Kind = "instruction"
)

// Kinds lists all document kinds in registration order.
var Kinds = []Kind{KindDecree, KindReport, KindLetter, KindInstruction}

// ParseKind converts a string (e.g. from a URL segment) into a Kind
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindDecree, KindReport, KindLetter, KindInstruction:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown document kind: %q", s)
}

// PathSegment returns the plural REST path segment for the kind ("decrees")
func (k Kind) PathSegment() string {
	return string(k) + "s"
}

func (k Kind) String() string {
	return string(k)
}
