package metadata

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// Description is the on-disk form of a service's metadata (YAML or JSON).
// Sections are sequences so the file order becomes the registration order.
type Description struct {
	Version string              `yaml:"version"`
	Name    string              `yaml:"name"`
	Types   []TypeDescription   `yaml:"types"`
	Methods []MethodDescription `yaml:"methods"`
	Events  []EventDescription  `yaml:"events"`
}

// TypeDescription declares an enum (Enum labels or Values map) or a struct (Fields).
type TypeDescription struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Enum        []string           `yaml:"enum"`
	Values      map[string]int     `yaml:"values"`
	Fields      []FieldDescription `yaml:"fields"`
}

// FieldDescription declares one struct field.
type FieldDescription struct {
	Name        string    `yaml:"name"`
	Type        string    `yaml:"type"`
	Required    bool      `yaml:"required"`
	Default     yaml.Node `yaml:"default"`
	Description string    `yaml:"description"`
}

// MethodDescription declares one method.
type MethodDescription struct {
	Name        string             `yaml:"name"`
	Params      []ParamDescription `yaml:"params"`
	Returns     string             `yaml:"returns"`
	Description string             `yaml:"description"`
}

// ParamDescription declares one positional parameter.
type ParamDescription struct {
	Name        string    `yaml:"name"`
	Type        string    `yaml:"type"`
	Default     yaml.Node `yaml:"default"`
	Description string    `yaml:"description"`
}

// EventDescription declares one event.
type EventDescription struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
}

// LoadDescription reads a description from a local file path or an HTTP(S)
// URL and registers its contents.
func LoadDescription(input string) (*Registry, error) {
	data, err := readDescription(input)
	if err != nil {
		return nil, err
	}
	reg, err := ParseDescription(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", input, err)
	}
	return reg, nil
}

func readDescription(input string) ([]byte, error) {
	u, err := url.Parse(input)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return os.ReadFile(input)
	}

	resp, err := http.Get(u.String())
	if err != nil {
		return nil, fmt.Errorf("fetch description: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch description %s: unexpected status %s", input, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// ParseDescription decodes a description and replays it into a new Registry:
// types first, then methods, then events, each in file order.
func ParseDescription(data []byte) (*Registry, error) {
	var desc Description
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("decode description: %w", err)
	}
	return desc.Registry()
}

// Registry registers the description into a new Registry.
func (d Description) Registry() (*Registry, error) {
	reg := NewRegistry(d.Version, d.Name)

	for i, t := range d.Types {
		var err error
		switch {
		case len(t.Enum) > 0 && len(t.Values) > 0:
			err = fmt.Errorf("type %q declares both enum and values", t.Name)
		case len(t.Enum) > 0:
			err = reg.RegisterEnumLabels(t.Name, t.Enum...)
		case len(t.Values) > 0:
			err = reg.RegisterEnum(t.Name, t.Values)
		default:
			def := TypeDef{Kind: KindStruct, Description: t.Description}
			for _, f := range t.Fields {
				fd := FieldDef{Name: f.Name, TypeRef: f.Type, Required: f.Required, Description: f.Description}
				if fd.Default, err = decodeDefault(f.Default); err != nil {
					break
				}
				def.Fields = append(def.Fields, fd)
			}
			if err == nil {
				err = reg.RegisterType(t.Name, def)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("types[%d]: %w", i, err)
		}
	}

	for i, m := range d.Methods {
		def := MethodDef{Name: m.Name, Returns: m.Returns, Description: m.Description}
		for _, p := range m.Params {
			pd := ParamDef{Name: p.Name, TypeRef: p.Type, Description: p.Description, HasDefault: hasDefault(p.Default)}
			v, err := decodeDefault(p.Default)
			if err != nil {
				return nil, fmt.Errorf("methods[%d]: %w", i, err)
			}
			pd.Default = v
			def.Params = append(def.Params, pd)
		}
		if err := reg.RegisterMethod(def); err != nil {
			return nil, fmt.Errorf("methods[%d]: %w", i, err)
		}
	}

	for i, e := range d.Events {
		if err := reg.RegisterEventDef(EventDef{Name: e.Name, TypeRef: e.Type, Description: e.Description}); err != nil {
			return nil, fmt.Errorf("events[%d]: %w", i, err)
		}
	}
	return reg, nil
}

// hasDefault reports whether a default key was present; an absent key leaves
// the node zero.
func hasDefault(node yaml.Node) bool {
	return node.Kind != 0
}

func decodeDefault(node yaml.Node) (any, error) {
	if !hasDefault(node) {
		return nil, nil
	}
	var v any
	if err := node.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode default: %w", err)
	}
	return v, nil
}
