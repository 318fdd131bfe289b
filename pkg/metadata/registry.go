package metadata

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry collects the API surface of a service during the registration
// phase. It is safe for concurrent use; Snapshot freezes its current state.
type Registry struct {
	mu sync.RWMutex

	version      string
	friendlyName string

	types   []TypeDef
	methods []MethodDef
	events  []EventDef

	typesByName   map[string]int
	methodsByName map[string]int
	eventsByName  map[string]int
	namespaces    map[string]bool
}

// NewRegistry creates an empty registry for a service.
func NewRegistry(version, friendlyName string) *Registry {
	return &Registry{
		version:       version,
		friendlyName:  friendlyName,
		typesByName:   make(map[string]int),
		methodsByName: make(map[string]int),
		eventsByName:  make(map[string]int),
		namespaces:    make(map[string]bool),
	}
}

// RegisterType registers a struct or enum type under name.
func (r *Registry) RegisterType(name string, def TypeDef) error {
	if err := validateName(name); err != nil {
		return err
	}
	def.Name = name

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.typesByName[name]; exists {
		return fmt.Errorf("%w: type %q", ErrAlreadyDefined, name)
	}

	switch def.Kind {
	case KindEnum:
		members, err := checkMembers(name, def.Members)
		if err != nil {
			return err
		}
		def.Members = members
	case KindStruct, "":
		def.Kind = KindStruct
		fields := make([]FieldDef, 0, len(def.Fields))
		seen := make(map[string]bool, len(def.Fields))
		for _, f := range def.Fields {
			if f.Name == "" || seen[f.Name] {
				return fmt.Errorf("%w: field %q of type %q", ErrInvalidName, f.Name, name)
			}
			seen[f.Name] = true
			ref, isArray := ParseTypeRef(f.TypeRef)
			if ref != name {
				if err := r.resolveLocked(ref); err != nil {
					return fmt.Errorf("field %q of type %q: %w", f.Name, name, err)
				}
			}
			f.TypeRef = ref
			f.IsArray = f.IsArray || isArray
			fields = append(fields, f)
		}
		def.Fields = fields
	default:
		return fmt.Errorf("metadata: type %q has unsupported kind %q", name, def.Kind)
	}

	r.typesByName[name] = len(r.types)
	r.types = append(r.types, def)
	return nil
}

// RegisterEnum registers an enum from a label -> value mapping.
func (r *Registry) RegisterEnum(name string, members map[string]int) error {
	list := make([]EnumMember, 0, len(members))
	for label, value := range members {
		list = append(list, EnumMember{Label: label, Value: value})
	}
	return r.RegisterType(name, TypeDef{Kind: KindEnum, Members: list})
}

// RegisterEnumLabels registers an enum whose values are the 0-based
// positions of its labels.
func (r *Registry) RegisterEnumLabels(name string, labels ...string) error {
	list := make([]EnumMember, len(labels))
	for i, label := range labels {
		list[i] = EnumMember{Label: label, Value: i}
	}
	return r.RegisterType(name, TypeDef{Kind: KindEnum, Members: list})
}

// RegisterMethod registers a method under its fully qualified name.
func (r *Registry) RegisterMethod(def MethodDef) error {
	if err := validateName(def.Name); err != nil {
		return err
	}
	def.Namespace = NamespaceOf(def.Name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.methodsByName[def.Name]; exists {
		return fmt.Errorf("%w: method %q", ErrAlreadyDefined, def.Name)
	}
	if err := r.checkTreeLocked(def.Name, def.Namespace); err != nil {
		return err
	}

	params := make([]ParamDef, 0, len(def.Params))
	seen := make(map[string]bool, len(def.Params))
	for _, p := range def.Params {
		if p.Name == "" || seen[p.Name] {
			return fmt.Errorf("%w: parameter %q of method %q", ErrInvalidName, p.Name, def.Name)
		}
		seen[p.Name] = true
		if err := r.resolveRefLocked(p.TypeRef); err != nil {
			return fmt.Errorf("parameter %q of method %q: %w", p.Name, def.Name, err)
		}
		p.Default = copyValue(p.Default)
		params = append(params, p)
	}
	def.Params = params

	if def.Returns != "" && def.Returns != ReturnsAsync {
		if err := r.resolveRefLocked(def.Returns); err != nil {
			return fmt.Errorf("return of method %q: %w", def.Name, err)
		}
	}

	r.methodsByName[def.Name] = len(r.methods)
	r.methods = append(r.methods, def)
	r.addNamespacesLocked(def.Namespace)
	return nil
}

// RegisterEvent registers an event; typeRef may be empty, a type name or "[Type]".
func (r *Registry) RegisterEvent(name, typeRef string) error {
	return r.RegisterEventDef(EventDef{Name: name, TypeRef: typeRef})
}

// RegisterEventDef registers an event from a full definition.
func (r *Registry) RegisterEventDef(def EventDef) error {
	if err := validateName(def.Name); err != nil {
		return err
	}
	def.Namespace = NamespaceOf(def.Name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.eventsByName[def.Name]; exists {
		return fmt.Errorf("%w: event %q", ErrAlreadyDefined, def.Name)
	}
	for _, ancestor := range Ancestors(def.Namespace) {
		if _, clash := r.methodsByName[ancestor]; clash {
			return fmt.Errorf("%w: namespace %q is a method", ErrAlreadyDefined, ancestor)
		}
	}
	if def.TypeRef != "" {
		ref, isArray := ParseTypeRef(def.TypeRef)
		if err := r.resolveLocked(ref); err != nil {
			return fmt.Errorf("event %q: %w", def.Name, err)
		}
		def.TypeRef = ref
		def.IsArray = def.IsArray || isArray
	}

	r.eventsByName[def.Name] = len(r.events)
	r.events = append(r.events, def)
	r.addNamespacesLocked(def.Namespace)
	return nil
}

// Snapshot returns a deep, read-only copy of the registered metadata.
func (r *Registry) Snapshot() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := &Snapshot{
		version:      r.version,
		friendlyName: r.friendlyName,
		types:        make([]TypeDef, len(r.types)),
		methods:      make([]MethodDef, len(r.methods)),
		events:       make([]EventDef, len(r.events)),
		typeIndex:    make(map[string]int, len(r.types)),
		methodIndex:  make(map[string]int, len(r.methods)),
	}
	for i, t := range r.types {
		s.types[i] = copyType(t)
		s.typeIndex[t.Name] = i
	}
	for i, m := range r.methods {
		s.methods[i] = copyMethod(m)
		s.methodIndex[m.Name] = i
	}
	copy(s.events, r.events)
	return s
}

// GetMetadataSnapshot makes a Registry usable as a compiler service instance.
func (r *Registry) GetMetadataSnapshot() *Snapshot {
	return r.Snapshot()
}

func (r *Registry) resolveRefLocked(ref string) error {
	name, _ := ParseTypeRef(ref)
	return r.resolveLocked(name)
}

func (r *Registry) resolveLocked(name string) error {
	if name == "" || IsBuiltin(name) {
		return nil
	}
	if _, ok := r.typesByName[name]; ok {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// checkTreeLocked rejects a method whose name is already a namespace, or
// whose namespace (or an ancestor) is already a method.
func (r *Registry) checkTreeLocked(name, ns string) error {
	if r.namespaces[name] {
		return fmt.Errorf("%w: method %q is a namespace", ErrAlreadyDefined, name)
	}
	for _, ancestor := range Ancestors(ns) {
		if _, clash := r.methodsByName[ancestor]; clash {
			return fmt.Errorf("%w: namespace %q is a method", ErrAlreadyDefined, ancestor)
		}
	}
	return nil
}

func (r *Registry) addNamespacesLocked(ns string) {
	for _, ancestor := range Ancestors(ns) {
		r.namespaces[ancestor] = true
	}
}

func checkMembers(enum string, members []EnumMember) ([]EnumMember, error) {
	labels := make(map[string]bool, len(members))
	values := make(map[int]string, len(members))
	out := make([]EnumMember, 0, len(members))
	for _, m := range members {
		if m.Label == "" {
			return nil, fmt.Errorf("%w: empty label in enum %q", ErrInvalidName, enum)
		}
		if labels[m.Label] {
			return nil, fmt.Errorf("%w: %q in enum %q", ErrDuplicateLabel, m.Label, enum)
		}
		if other, dup := values[m.Value]; dup {
			return nil, fmt.Errorf("%w: %d used by %q and %q in enum %q", ErrDuplicateValue, m.Value, other, m.Label, enum)
		}
		labels[m.Label] = true
		values[m.Value] = m.Label
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out, nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	for _, seg := range strings.Split(name, ".") {
		if seg == "" || strings.TrimSpace(seg) != seg {
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return nil
}
