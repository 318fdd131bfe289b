package metadata

import (
	"context"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

const componentsPrefix = "#/components/schemas/"

// Components renders the registered types as OpenAPI 3 component schemas and
// validates the result. Enums become integer schemas listing their values,
// with labels in the x-enum-varnames extension.
func (s *Snapshot) Components(ctx context.Context) (*openapi3.Components, error) {
	schemas := make(openapi3.Schemas, len(s.types))
	values := make(map[string]*openapi3.Schema, len(s.types))
	for _, t := range s.types {
		values[t.Name] = &openapi3.Schema{}
	}

	for _, t := range s.types {
		var sc *openapi3.Schema
		switch t.Kind {
		case KindEnum:
			sc = openapi3.NewIntegerSchema()
			labels := make([]string, len(t.Members))
			for i, m := range t.Members {
				sc.Enum = append(sc.Enum, float64(m.Value))
				labels[i] = m.Label
			}
			sc.Extensions = map[string]any{"x-enum-varnames": labels}
		default:
			sc = openapi3.NewObjectSchema()
			for _, f := range t.Fields {
				prop := schemaRef(f.TypeRef, f.IsArray, values)
				if f.Description != "" || f.Default != nil {
					// Wrap so the annotations do not leak onto a shared component.
					prop = openapi3.NewSchemaRef("", &openapi3.Schema{
						AllOf:       openapi3.SchemaRefs{prop},
						Description: f.Description,
						Default:     f.Default,
					})
				}
				sc.Properties[f.Name] = prop
				if f.Required {
					sc.Required = append(sc.Required, f.Name)
				}
			}
		}
		sc.Title = t.Name
		sc.Description = t.Description
		*values[t.Name] = *sc
		schemas[t.Name] = openapi3.NewSchemaRef("", values[t.Name])
	}

	comps := &openapi3.Components{Schemas: schemas}
	if err := comps.Validate(ctx); err != nil {
		return nil, fmt.Errorf("metadata: invalid component schemas: %w", err)
	}
	return comps, nil
}

func schemaRef(typeRef string, isArray bool, user map[string]*openapi3.Schema) *openapi3.SchemaRef {
	var ref *openapi3.SchemaRef
	if v, ok := user[typeRef]; ok {
		ref = openapi3.NewSchemaRef(componentsPrefix+typeRef, v)
	} else {
		ref = openapi3.NewSchemaRef("", builtinSchema(typeRef))
	}
	if !isArray {
		return ref
	}
	arr := openapi3.NewArraySchema()
	arr.Items = ref
	return openapi3.NewSchemaRef("", arr)
}

func builtinSchema(name string) *openapi3.Schema {
	switch name {
	case "boolean":
		return openapi3.NewBoolSchema()
	case "number":
		return openapi3.NewFloat64Schema()
	case "integer":
		return openapi3.NewIntegerSchema()
	case "string":
		return openapi3.NewStringSchema()
	case "object":
		return openapi3.NewObjectSchema()
	case "array":
		arr := openapi3.NewArraySchema()
		arr.Items = openapi3.NewSchemaRef("", &openapi3.Schema{})
		return arr
	case "date":
		return openapi3.NewDateTimeSchema()
	case "null":
		return &openapi3.Schema{Nullable: true}
	default:
		return &openapi3.Schema{}
	}
}
