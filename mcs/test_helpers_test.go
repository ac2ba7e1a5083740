package mcs

// Shared fakes for the model boundary. The fake loader builds a completely
// fresh model on every Load call, mirroring the isolation contract of a real
// loader: values mutated in one instantiation are invisible to the next.

type fakeAttrDef struct {
	value    float64
	explicit bool
}

type fakeFieldDef struct {
	name    string
	enabled bool
	attrs   map[string]fakeAttrDef
	procs   map[string]map[string]fakeAttrDef
}

type fakeAttr struct {
	value    float64
	explicit bool
}

func (a *fakeAttr) Value() float64            { return a.value }
func (a *fakeAttr) SetValue(v float64)        { a.value = v }
func (a *fakeAttr) Explicit() bool            { return a.explicit }
func (a *fakeAttr) SetExplicit(explicit bool) { a.explicit = explicit }

type fakeField struct {
	name    string
	enabled bool
	attrs   map[string]*fakeAttr
	procs   map[string]map[string]*fakeAttr
}

func (f *fakeField) Name() string  { return f.name }
func (f *fakeField) Enabled() bool { return f.enabled }

type fakeModel struct {
	fields []*fakeField
	byName map[string]*fakeField
}

func (m *fakeModel) FieldNames() []string {
	var names []string
	for _, f := range m.fields {
		if f.enabled {
			names = append(names, f.name)
		}
	}
	return names
}

func (m *fakeModel) GetField(name string) (Field, error) {
	f, ok := m.byName[name]
	if !ok {
		return nil, Userf("field %q was not found", name)
	}
	return f, nil
}

func (m *fakeModel) ResolveAttribute(mf Field, name AttrName) (Attribute, error) {
	f := mf.(*fakeField)
	attrs := f.attrs
	if name.Class != DefaultClass {
		var ok bool
		if attrs, ok = f.procs[name.Class]; !ok {
			return nil, Userf("a process of class %q was not found in %q", name.Class, f.name)
		}
	}
	attr, ok := attrs[name.Attr]
	if !ok {
		return nil, Userf("the attribute %q was not found in %q", name.Attr, f.name)
	}
	return attr, nil
}

type fakeLoader struct {
	fields []fakeFieldDef
}

func (l *fakeLoader) Merge(paths []string) ([]byte, error) {
	return []byte("fake-template"), nil
}

func (l *fakeLoader) Load(template []byte, analysisName string, fieldNames []string) (Model, error) {
	keep := func(name string) bool {
		if fieldNames == nil {
			return true
		}
		for _, n := range fieldNames {
			if n == name {
				return true
			}
		}
		return false
	}

	m := &fakeModel{byName: make(map[string]*fakeField)}
	for _, def := range l.fields {
		if !keep(def.name) {
			continue
		}
		f := &fakeField{
			name:    def.name,
			enabled: def.enabled,
			attrs:   make(map[string]*fakeAttr),
			procs:   make(map[string]map[string]*fakeAttr),
		}
		for attr, ad := range def.attrs {
			f.attrs[attr] = &fakeAttr{value: ad.value, explicit: ad.explicit}
		}
		for class, attrs := range def.procs {
			f.procs[class] = make(map[string]*fakeAttr)
			for attr, ad := range attrs {
				f.procs[class][attr] = &fakeAttr{value: ad.value, explicit: ad.explicit}
			}
		}
		m.fields = append(m.fields, f)
		m.byName[f.name] = f
	}
	return m, nil
}

// oneFieldLoader builds a loader with a single enabled field holding the
// given field-level attributes.
func oneFieldLoader(fieldName string, attrs map[string]fakeAttrDef) *fakeLoader {
	return &fakeLoader{fields: []fakeFieldDef{{
		name:    fieldName,
		enabled: true,
		attrs:   attrs,
	}}}
}
