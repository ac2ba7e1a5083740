package mcs

import "strings"

// DefaultClass is the owning class implied by a bare attribute name.
// "WOR" and "Field.WOR" refer to the same attribute.
const DefaultClass = "Field"

// AttrName identifies a model parameter by owning class and attribute name.
// It is parsed and validated once, at registration time, rather than
// re-splitting strings throughout the trial loop.
type AttrName struct {
	Class string
	Attr  string
}

// ParseAttrName parses "ATTR" or "CLASS.ATTR" into an AttrName.
// A bare name gets the default Field class.
func ParseAttrName(s string) (AttrName, error) {
	parts := strings.Split(s, ".")
	switch len(parts) {
	case 1:
		if parts[0] == "" {
			return AttrName{}, Userf("attribute name is empty")
		}
		return AttrName{Class: DefaultClass, Attr: parts[0]}, nil
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return AttrName{}, Userf("attribute name format is 'ATTR' (same as 'Field.ATTR') or 'CLASS.ATTR'; got %q", s)
		}
		return AttrName{Class: parts[0], Attr: parts[1]}, nil
	default:
		return AttrName{}, Userf("attribute name format is 'ATTR' (same as 'Field.ATTR') or 'CLASS.ATTR'; got %q", s)
	}
}

// String returns the fully qualified "CLASS.ATTR" form.
func (n AttrName) String() string {
	return n.Class + "." + n.Attr
}

// Column returns the trial-data column name for this parameter: the bare
// attribute name when the owning class is the default Field class, else the
// fully qualified name, so process-scoped parameters cannot collide with
// field-level ones.
func (n AttrName) Column() string {
	if n.Class == DefaultClass {
		return n.Attr
	}
	return n.String()
}
