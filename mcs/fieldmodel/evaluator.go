package fieldmodel

import (
	"github.com/fieldmcs/fieldmcs/mcs"
)

// Attribute names the evaluator relies on.
const (
	// ProductionAttr is the field-level energy output, the carbon-intensity
	// denominator. Must be positive.
	ProductionAttr = "production"

	// ActivityAttr and IntensityAttr are per-process: their product is the
	// process's greenhouse-gas mass, booked under the process's category.
	ActivityAttr  = "activity"
	IntensityAttr = "intensity"
)

// Evaluator implements mcs.Evaluator for fieldmodel models: each process
// contributes activity times intensity to its emission category, and carbon
// intensity is total greenhouse gas over the field's production.
type Evaluator struct{}

// Run evaluates one field. A missing or non-positive production attribute is
// a physically invalid configuration and returns an error, which the trial
// runner records as a per-trial failure.
func (Evaluator) Run(mf mcs.Field, trialNum int) (*mcs.EvalResult, error) {
	f, ok := mf.(*field)
	if !ok {
		return nil, mcs.Systemf("field %q belongs to a different model implementation", mf.Name())
	}

	ghg := map[string]float64{
		mcs.CategoryVenting:    0,
		mcs.CategoryFlaring:    0,
		mcs.CategoryFugitives:  0,
		mcs.CategoryCombustion: 0,
		mcs.CategoryLandUse:    0,
		mcs.CategoryOther:      0,
	}

	for _, p := range f.processes {
		category := p.category
		if category == "" {
			category = mcs.CategoryOther
		}
		activity, intensity := 0.0, 0.0
		if a, ok := p.attrs[ActivityAttr]; ok {
			activity = a.Value()
		}
		if a, ok := p.attrs[IntensityAttr]; ok {
			intensity = a.Value()
		}
		ghg[category] += activity * intensity
	}

	production, ok := f.attrs[ProductionAttr]
	if !ok {
		return nil, mcs.Userf("field %q has no %q attribute", f.name, ProductionAttr)
	}
	if production.Value() <= 0 {
		return nil, mcs.Userf("trial %d: field %q has non-positive production %v",
			trialNum, f.name, production.Value())
	}

	total := 0.0
	for _, v := range ghg {
		total += v
	}

	return &mcs.EvalResult{
		CarbonIntensity: total / production.Value(),
		GHG:             ghg,
	}, nil
}
