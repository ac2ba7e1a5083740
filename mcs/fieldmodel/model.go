// Package fieldmodel is the reference implementation of the model boundary
// in package mcs: a YAML-defined attribute-tree model of fields and their
// processes, plus an evaluator that turns per-process activity and emission
// intensity into a greenhouse-gas breakdown and a carbon intensity.
//
// The YAML definition doubles as the cached model template: Loader.Load
// unmarshals the template bytes into a brand-new instance on every call, so
// trial isolation falls out of the serialization round trip.
package fieldmodel

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fieldmcs/fieldmcs/mcs"
)

// AttrDef is one attribute in a model definition file.
type AttrDef struct {
	Value    float64 `yaml:"value"`
	Explicit bool    `yaml:"explicit,omitempty"`
}

// ProcessDef is one process in a model definition file.
type ProcessDef struct {
	Class      string             `yaml:"class"`
	Category   string             `yaml:"category"`
	Attributes map[string]AttrDef `yaml:"attributes"`
}

// FieldDef is one field in a model definition file.
type FieldDef struct {
	Name       string             `yaml:"name"`
	Enabled    *bool              `yaml:"enabled,omitempty"` // nil => enabled
	Attributes map[string]AttrDef `yaml:"attributes"`
	Processes  []ProcessDef       `yaml:"processes"`
}

// ModelDef is a complete model definition file.
type ModelDef struct {
	Analysis string     `yaml:"analysis"`
	Fields   []FieldDef `yaml:"fields"`
}

// === Runtime model ===

type attribute struct {
	value    float64
	explicit bool
}

func (a *attribute) Value() float64            { return a.value }
func (a *attribute) SetValue(v float64)        { a.value = v }
func (a *attribute) Explicit() bool            { return a.explicit }
func (a *attribute) SetExplicit(explicit bool) { a.explicit = explicit }

type process struct {
	class    string
	category string
	attrs    map[string]*attribute
}

type field struct {
	name      string
	enabled   bool
	attrs     map[string]*attribute
	processes []*process
}

func (f *field) Name() string  { return f.name }
func (f *field) Enabled() bool { return f.enabled }

// Model is one independent instantiation of a field emissions model.
type Model struct {
	analysis string
	fields   []*field
	byName   map[string]*field
}

// FieldNames returns the enabled field names in definition order.
func (m *Model) FieldNames() []string {
	var names []string
	for _, f := range m.fields {
		if f.enabled {
			names = append(names, f.name)
		}
	}
	return names
}

// GetField returns the named field.
func (m *Model) GetField(name string) (mcs.Field, error) {
	f, ok := m.byName[name]
	if !ok {
		return nil, mcs.Userf("field %q was not found in analysis %q", name, m.analysis)
	}
	return f, nil
}

// ResolveAttribute resolves a qualified parameter name on the given field.
func (m *Model) ResolveAttribute(mf mcs.Field, name mcs.AttrName) (mcs.Attribute, error) {
	f, ok := mf.(*field)
	if !ok {
		return nil, mcs.Systemf("field %q belongs to a different model implementation", mf.Name())
	}

	attrs := f.attrs
	if name.Class != mcs.DefaultClass {
		var proc *process
		for _, p := range f.processes {
			if p.class == name.Class {
				proc = p
				break
			}
		}
		if proc == nil {
			return nil, mcs.Userf("a process of class %q was not found in %q", name.Class, f.name)
		}
		attrs = proc.attrs
	}

	attr, ok := attrs[name.Attr]
	if !ok {
		return nil, mcs.Userf("the attribute %q was not found in %q", name.Attr, f.name)
	}
	return attr, nil
}

func build(def *ModelDef) *Model {
	m := &Model{analysis: def.Analysis, byName: make(map[string]*field)}
	for _, fd := range def.Fields {
		f := &field{
			name:    fd.Name,
			enabled: fd.Enabled == nil || *fd.Enabled,
			attrs:   buildAttrs(fd.Attributes),
		}
		for _, pd := range fd.Processes {
			f.processes = append(f.processes, &process{
				class:    pd.Class,
				category: pd.Category,
				attrs:    buildAttrs(pd.Attributes),
			})
		}
		m.fields = append(m.fields, f)
		m.byName[f.name] = f
	}
	return m
}

func buildAttrs(defs map[string]AttrDef) map[string]*attribute {
	attrs := make(map[string]*attribute, len(defs))
	for name, def := range defs {
		attrs[name] = &attribute{value: def.Value, explicit: def.Explicit}
	}
	return attrs
}

// === Loader ===

// Loader implements mcs.ModelLoader over YAML model definitions.
type Loader struct{}

// Merge reads and merges the given definition files in order: later files
// override fields of the same name and may change the analysis name. The
// merged form is the template the simulation directory caches.
func (Loader) Merge(paths []string) ([]byte, error) {
	if len(paths) == 0 {
		return nil, mcs.Userf("at least one model file is required")
	}

	merged := &ModelDef{}
	pos := make(map[string]int)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, mcs.Userf("read model file %q: %v", path, err)
		}
		var def ModelDef
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, mcs.Userf("parse model file %q: %v", path, err)
		}

		if def.Analysis != "" {
			merged.Analysis = def.Analysis
		}
		for _, fd := range def.Fields {
			if i, ok := pos[fd.Name]; ok {
				merged.Fields[i] = fd
			} else {
				pos[fd.Name] = len(merged.Fields)
				merged.Fields = append(merged.Fields, fd)
			}
		}
	}

	out, err := yaml.Marshal(merged)
	if err != nil {
		return nil, mcs.Systemf("serialize merged model: %v", err)
	}
	return out, nil
}

// Load parses a serialized template into a fresh model. Every call builds a
// completely new attribute tree; nothing is shared with prior loads.
func (Loader) Load(template []byte, analysisName string, fieldNames []string) (mcs.Model, error) {
	var def ModelDef
	if err := yaml.Unmarshal(template, &def); err != nil {
		return nil, mcs.Systemf("parse model template: %v", err)
	}

	if analysisName != "" && def.Analysis != analysisName {
		return nil, mcs.Userf("analysis %q was not found in model (model defines %q)", analysisName, def.Analysis)
	}

	if fieldNames != nil {
		keep := make(map[string]bool, len(fieldNames))
		for _, name := range fieldNames {
			keep[name] = true
		}
		var fields []FieldDef
		for _, fd := range def.Fields {
			if keep[fd.Name] {
				fields = append(fields, fd)
				delete(keep, fd.Name)
			}
		}
		for name := range keep {
			return nil, mcs.Userf("field %q was not found in analysis %q", name, def.Analysis)
		}
		def.Fields = fields
	}

	return build(&def), nil
}
