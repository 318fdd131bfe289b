package javascript

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/blimu-dev/rpc-proxygen/pkg/ir"
	"github.com/blimu-dev/rpc-proxygen/pkg/utils"
)

// jsString renders s as a double-quoted JavaScript string literal
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}

// member renders base.name, falling back to bracket access for names that
// are not plain identifiers
func member(base, name string) string {
	if utils.IsJSIdentifier(name) {
		return base + "." + name
	}
	return base + "[" + jsString(name) + "]"
}

// rootKeys lists the instance properties the constructor must bind: top-level
// namespace containers first, then root methods.
func (n Names) rootKeys(in ir.IR) string {
	var keys []string
	for _, ns := range in.Namespaces {
		if ns.Depth == 1 {
			keys = append(keys, jsString(n.Root[ns.Name]))
		}
	}
	for _, m := range in.MethodsIn("") {
		keys = append(keys, jsString(n.Root[m.Name]))
	}
	return "[" + strings.Join(keys, ", ") + "]"
}

// enumPairs renders [label, value] pairs in value order
func enumPairs(e ir.IREnum) string {
	pairs := make([]string, 0, len(e.Members))
	for _, m := range e.Members {
		pairs = append(pairs, fmt.Sprintf("[%s, %d]", jsString(m.Label), m.Value))
	}
	return strings.Join(pairs, ", ")
}

func eventNames(events []ir.IREvent) string {
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, jsString(e.FullName))
	}
	return strings.Join(names, ", ")
}

// oneLine collapses a description onto a single comment line
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
