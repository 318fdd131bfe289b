package javascript

import (
	"fmt"
	"strings"

	"github.com/blimu-dev/rpc-proxygen/pkg/ir"
)

// instanceMembers are the proxy class members a root namespace or method
// must not replace on the instance.
var instanceMembers = []string{
	"constructor", "__proto__", "useHTTP", "useSocket", "addListener", "on",
	"removeListener", "off", "removeAllListeners", "listenerCount", "emit", "close",
}

// staticMembers are the class constructor properties an enum codec must not
// replace. Some are read-only and would throw when the module loads.
var staticMembers = []string{
	"prototype", "name", "length", "caller", "arguments", "constructor",
	"__proto__", "apply", "bind", "call", "toString", "events",
}

// Names maps metadata names onto the properties the emitted class uses for
// them. Names that clash with a class member get a numeric suffix (close2);
// every other name is used as is.
type Names struct {
	Root    map[string]string
	Statics map[string]string
}

// ResolveNames picks the root instance properties and the enum statics of the
// class described by in.
func ResolveNames(in ir.IR) Names {
	var roots []string
	for _, ns := range in.Namespaces {
		if ns.Depth == 1 {
			roots = append(roots, ns.Name)
		}
	}
	for _, m := range in.MethodsIn("") {
		roots = append(roots, m.Name)
	}

	enums := make([]string, 0, len(in.Enums))
	for _, e := range in.Enums {
		enums = append(enums, e.Name)
	}

	return Names{
		Root:    assignNames(roots, instanceMembers),
		Statics: assignNames(enums, staticMembers),
	}
}

// assignNames keeps every name not in reserved and suffixes the rest with the
// first free number, so a renamed entry never takes a name already in use.
func assignNames(names, reserved []string) map[string]string {
	taken := make(map[string]bool, len(names)+len(reserved))
	clash := make(map[string]bool, len(reserved))
	for _, r := range reserved {
		taken[r] = true
		clash[r] = true
	}
	for _, n := range names {
		taken[n] = true
	}

	out := make(map[string]string, len(names))
	for _, n := range names {
		if !clash[n] {
			out[n] = n
			continue
		}
		name := n
		for i := 2; taken[name]; i++ {
			name = fmt.Sprintf("%s%d", n, i)
		}
		taken[name] = true
		out[n] = name
	}
	return out
}

// Access renders the property chain for a dotted metadata path under base,
// with the first segment mapped to its root property.
func (n Names) Access(base, path string) string {
	segments := strings.Split(path, ".")
	if prop, ok := n.Root[segments[0]]; ok {
		segments[0] = prop
	}
	out := base
	for _, segment := range segments {
		out = member(out, segment)
	}
	return out
}

// Static renders the class property holding an enum codec.
func (n Names) Static(local, enum string) string {
	if prop, ok := n.Statics[enum]; ok {
		return member(local, prop)
	}
	return member(local, enum)
}
