package metadata

// Snapshot is a frozen copy of a Registry. All accessors return copies, so
// callers can never mutate a snapshot shared with the compiler.
type Snapshot struct {
	version      string
	friendlyName string

	types   []TypeDef
	methods []MethodDef
	events  []EventDef

	typeIndex   map[string]int
	methodIndex map[string]int
}

// Version of the described service.
func (s *Snapshot) Version() string { return s.version }

// FriendlyName of the described service.
func (s *Snapshot) FriendlyName() string { return s.friendlyName }

// Types returns all types in registration order.
func (s *Snapshot) Types() []TypeDef {
	out := make([]TypeDef, len(s.types))
	for i, t := range s.types {
		out[i] = copyType(t)
	}
	return out
}

// Type looks up a registered type by name.
func (s *Snapshot) Type(name string) (TypeDef, bool) {
	i, ok := s.typeIndex[name]
	if !ok {
		return TypeDef{}, false
	}
	return copyType(s.types[i]), true
}

// Enums returns the enum types in registration order.
func (s *Snapshot) Enums() []TypeDef {
	var out []TypeDef
	for _, t := range s.types {
		if t.Kind == KindEnum {
			out = append(out, copyType(t))
		}
	}
	return out
}

// Structs returns the struct types in registration order.
func (s *Snapshot) Structs() []TypeDef {
	var out []TypeDef
	for _, t := range s.types {
		if t.Kind == KindStruct {
			out = append(out, copyType(t))
		}
	}
	return out
}

// Methods returns all methods in registration order.
func (s *Snapshot) Methods() []MethodDef {
	out := make([]MethodDef, len(s.methods))
	for i, m := range s.methods {
		out[i] = copyMethod(m)
	}
	return out
}

// Method looks up a method by its fully qualified name.
func (s *Snapshot) Method(name string) (MethodDef, bool) {
	i, ok := s.methodIndex[name]
	if !ok {
		return MethodDef{}, false
	}
	return copyMethod(s.methods[i]), true
}

// Events returns all events in registration order.
func (s *Snapshot) Events() []EventDef {
	out := make([]EventDef, len(s.events))
	copy(out, s.events)
	return out
}

// Namespaces returns every namespace path implied by method and event names,
// parents before children. Paths of equal depth keep first-use order.
func (s *Snapshot) Namespaces() []string {
	seen := make(map[string]bool)
	var found []string
	visit := func(name string) {
		chain := Ancestors(NamespaceOf(name))
		// Ancestors is deepest first; walk it backwards so parents are noted first.
		for i := len(chain) - 1; i >= 0; i-- {
			if !seen[chain[i]] {
				seen[chain[i]] = true
				found = append(found, chain[i])
			}
		}
	}
	for _, m := range s.methods {
		visit(m.Name)
	}
	for _, e := range s.events {
		visit(e.Name)
	}

	// Stable bucket by depth keeps first-use order within a level.
	maxDepth := 0
	for _, ns := range found {
		if d := Depth(ns); d > maxDepth {
			maxDepth = d
		}
	}
	out := make([]string, 0, len(found))
	for d := 1; d <= maxDepth; d++ {
		for _, ns := range found {
			if Depth(ns) == d {
				out = append(out, ns)
			}
		}
	}
	return out
}

func copyType(t TypeDef) TypeDef {
	if t.Members != nil {
		t.Members = append([]EnumMember(nil), t.Members...)
	}
	if t.Fields != nil {
		fields := make([]FieldDef, len(t.Fields))
		for i, f := range t.Fields {
			f.Default = copyValue(f.Default)
			fields[i] = f
		}
		t.Fields = fields
	}
	return t
}

func copyMethod(m MethodDef) MethodDef {
	if m.Params != nil {
		params := make([]ParamDef, len(m.Params))
		for i, p := range m.Params {
			p.Default = copyValue(p.Default)
			params[i] = p
		}
		m.Params = params
	}
	return m
}

// copyValue deep-copies the JSON-like values used as defaults.
func copyValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = copyValue(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
