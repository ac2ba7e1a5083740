package mcs

// Emission categories reported by the model evaluator. The evaluator may
// report others; these are the ones the results table breaks out.
const (
	CategoryVenting    = "Venting"
	CategoryFlaring    = "Flaring"
	CategoryFugitives  = "Fugitives"
	CategoryCombustion = "Combustion"
	CategoryLandUse    = "Land-use"
	CategoryOther      = "Other"
)

// EvalResult is the outcome of one successful model evaluation: the carbon
// intensity scalar and the greenhouse-gas mass broken down by category.
type EvalResult struct {
	CarbonIntensity float64
	GHG             map[string]float64
}

// Attribute is a handle on one model parameter. Marking an attribute
// explicit pins its value: the model's own default and derivation logic must
// not recompute it, and the trial-data generator excludes it from sampling.
type Attribute interface {
	Value() float64
	SetValue(v float64)
	Explicit() bool
	SetExplicit(explicit bool)
}

// Field is the unit of model evaluation (one physical installation). Handles
// are only valid within the model instantiation that produced them; after a
// fresh Load, fields must be re-resolved by name.
type Field interface {
	Name() string
	Enabled() bool
}

// Model is one independent instantiation of the physical process model.
type Model interface {
	// FieldNames returns the enabled field names in definition order.
	FieldNames() []string

	// GetField returns the named field, or a UserError if it is unknown.
	GetField(name string) (Field, error)

	// ResolveAttribute resolves a qualified parameter name on the given
	// field: the default class targets the field itself, any other class
	// targets the field's process of that class. Returns a UserError when
	// the class or attribute cannot be resolved.
	ResolveAttribute(f Field, name AttrName) (Attribute, error)
}

// ModelLoader builds models from serialized definitions. Load must return a
// fresh, fully independent instance on every call: the cached template is the
// immutable source of truth, and per-trial isolation depends on no two Load
// results sharing mutable state.
type ModelLoader interface {
	// Merge reads the given model definition files and merges them, in
	// order, into a single serialized template.
	Merge(paths []string) ([]byte, error)

	// Load parses a serialized template into a new model restricted to the
	// named analysis and, when fieldNames is non-nil, to those fields.
	Load(template []byte, analysisName string, fieldNames []string) (Model, error)
}

// Evaluator runs the physical model for one field and trial. It may return
// an error with a human-readable message for physically invalid or
// non-convergent configurations; the trial runner records such errors as
// per-trial failures rather than propagating them.
type Evaluator interface {
	Run(f Field, trialNum int) (*EvalResult, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(f Field, trialNum int) (*EvalResult, error)

func (fn EvaluatorFunc) Run(f Field, trialNum int) (*EvalResult, error) {
	return fn(f, trialNum)
}
