package mcs

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Distribution binds a qualified parameter name to a frozen random variable.
// Immutable after construction.
type Distribution struct {
	Name AttrName
	RV   RandomVar
}

func (d *Distribution) String() string {
	return fmt.Sprintf("<Distribution '%s'>", d.Name.Column())
}

// Registry maps fully-qualified parameter names to their sampling
// specifications. It is an explicit object passed into the parser and the
// trial-data generator, so independent runs (and tests) cannot contaminate
// each other through shared process-wide state.
//
// Iteration order is first-registration order, which is stable within a
// process run; trial-table column ordering depends on it.
type Registry struct {
	byName map[string]*Distribution
	order  []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Distribution)}
}

// Register inserts a distribution for the given parameter name, overwriting
// any earlier registration of the same name (last write wins). The name must
// be "ATTR" or "CLASS.ATTR".
func (r *Registry) Register(fullName string, rv RandomVar) (*Distribution, error) {
	name, err := ParseAttrName(fullName)
	if err != nil {
		return nil, err
	}

	key := name.String()
	dist := &Distribution{Name: name, RV: rv}
	if prev, ok := r.byName[key]; ok {
		logrus.Debugf("Replacing %s with a later registration", prev)
	} else {
		r.order = append(r.order, key)
	}
	r.byName[key] = dist
	return dist, nil
}

// Lookup returns the distribution registered for the given name, or nil.
// The name is normalized, so "WOR" and "Field.WOR" find the same entry.
func (r *Registry) Lookup(fullName string) *Distribution {
	name, err := ParseAttrName(fullName)
	if err != nil {
		return nil
	}
	return r.byName[name.String()]
}

// Distributions returns all registered distributions in first-registration
// order.
func (r *Registry) Distributions() []*Distribution {
	dists := make([]*Distribution, len(r.order))
	for i, key := range r.order {
		dists[i] = r.byName[key]
	}
	return dists
}

// Len returns the number of registered distributions.
func (r *Registry) Len() int { return len(r.order) }
