package generator

import (
	"github.com/blimu-dev/rpc-proxygen/pkg/config"
	"github.com/blimu-dev/rpc-proxygen/pkg/ir"
	"github.com/blimu-dev/rpc-proxygen/pkg/metadata"
)

// BuildIR converts a snapshot into the emitter IR. Methods, events and types
// keep registration order; namespaces come out parent-first.
func BuildIR(snap *metadata.Snapshot, opts Options) ir.IR {
	localName := opts.LocalName
	if localName == "" {
		localName = config.DefaultLocalName
	}

	out := ir.IR{
		Service:   ir.IRService{Name: snap.FriendlyName(), Version: snap.Version()},
		LocalName: localName,
		Package:   opts.Package,
	}

	for _, path := range snap.Namespaces() {
		out.Namespaces = append(out.Namespaces, ir.IRNamespace{
			Path:   path,
			Parent: metadata.NamespaceOf(path),
			Name:   lastSegment(path),
			Depth:  metadata.Depth(path),
		})
	}

	for _, m := range snap.Methods() {
		method := ir.IRMethod{
			FullName:     m.Name,
			Namespace:    m.Namespace,
			Name:         m.LocalName(),
			Returns:      m.Returns,
			ExpectReturn: m.ExpectsReturn(),
			Description:  m.Description,
		}
		for _, p := range m.Params {
			ref, isArray := metadata.ParseTypeRef(p.TypeRef)
			method.Params = append(method.Params, ir.IRParam{
				Name:        p.Name,
				TypeRef:     ref,
				IsArray:     isArray,
				Optional:    p.Optional(),
				Default:     p.Default,
				Description: p.Description,
			})
		}
		out.Methods = append(out.Methods, method)
	}

	for _, e := range snap.Events() {
		out.Events = append(out.Events, ir.IREvent{
			FullName:    e.Name,
			Namespace:   e.Namespace,
			Name:        e.LocalName(),
			TypeRef:     e.TypeRef,
			IsArray:     e.IsArray,
			Description: e.Description,
		})
	}

	for _, t := range snap.Types() {
		switch t.Kind {
		case metadata.KindEnum:
			enum := ir.IREnum{Name: t.Name, Description: t.Description}
			for _, m := range t.Members {
				enum.Members = append(enum.Members, ir.IREnumMember{Label: m.Label, Value: m.Value})
			}
			out.Enums = append(out.Enums, enum)
		case metadata.KindStruct:
			st := ir.IRStruct{Name: t.Name, Description: t.Description}
			for _, f := range t.Fields {
				st.Fields = append(st.Fields, ir.IRField{
					Name:        f.Name,
					TypeRef:     f.TypeRef,
					IsArray:     f.IsArray,
					Required:    f.Required,
					Default:     f.Default,
					Description: f.Description,
				})
			}
			out.Structs = append(out.Structs, st)
		}
	}

	return out
}

func lastSegment(path string) string {
	if ns := metadata.NamespaceOf(path); ns != "" {
		return path[len(ns)+1:]
	}
	return path
}
