package schema

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/crosspacket/crosspacket/internal/codegen/naming"
)

// ReservedNameError is the fatal pre-generation failure raised when a packet
// declares a field whose name equals the configured type identifier field.
type ReservedNameError struct {
	Packet    string
	Field     string
	TypeField string
}

func (e *ReservedNameError) Error() string {
	return fmt.Sprintf("packet %q: field %q collides with the reserved type field %q", e.Packet, e.Field, e.TypeField)
}

// ErrNoFormats is returned when both serialization formats are disabled.
var ErrNoFormats = fmt.Errorf("at least one serialization format (json or msgpack) must be enabled")

// rawField is the full form of a field definition in the document.
type rawField struct {
	Type        string     `yaml:"type"`
	Description string     `yaml:"description"`
	Optional    bool       `yaml:"optional"`
	Deprecated  bool       `yaml:"deprecated"`
	Validation  Validation `yaml:"validation"`
}

// rawPacket is a packet definition in the document, minus its fields, which
// are walked node-by-node to preserve order.
type rawPacket struct {
	Description string `yaml:"description"`
	Version     int    `yaml:"version"`
	Deprecated  bool   `yaml:"deprecated"`
}

type rawSerialization struct {
	JSON    *bool `yaml:"json"`
	MsgPack *bool `yaml:"msgpack"`
}

type rawGlobal struct {
	TypeField     string           `yaml:"type_field"`
	Serialization rawSerialization `yaml:"serialization"`
}

// ParseDocument normalizes a schema document (YAML or JSON) into a Schema.
// Packet and field order follows the document. Shorthand field definitions
// (a bare type tag string) normalize to the same Field value as the
// equivalent full form. The reserved-name invariant is checked across every
// packet before the schema is returned; a single collision is fatal.
//
// Malformed individual definitions do not abort the run: they are recorded
// on Schema.Issues and the remaining packets parse normally.
func ParseDocument(data []byte) (*Schema, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema document: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("schema document is empty")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("schema document root must be a mapping")
	}

	s := &Schema{
		Global: Global{TypeField: DefaultTypeField, JSON: true, MsgPack: true},
	}

	var packetsNode *yaml.Node
	for i := 0; i < len(root.Content)-1; i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "config":
			if err := parseGlobal(value, &s.Global); err != nil {
				return nil, err
			}
		case "packets":
			packetsNode = value
		}
	}

	if !s.Global.JSON && !s.Global.MsgPack {
		return nil, ErrNoFormats
	}

	if packetsNode != nil {
		if packetsNode.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("packets section must be a mapping of path to definition")
		}
		for i := 0; i < len(packetsNode.Content)-1; i += 2 {
			path := packetsNode.Content[i].Value
			pkt, issues := parsePacket(path, packetsNode.Content[i+1])
			s.Issues = append(s.Issues, issues...)
			if pkt != nil {
				s.Packets = append(s.Packets, *pkt)
			}
		}
	}

	// The reserved-name check runs over the whole set before any emitter
	// sees the schema.
	for _, pkt := range s.Packets {
		for _, f := range pkt.Fields {
			if f.Name == s.Global.TypeField {
				return nil, &ReservedNameError{
					Packet:    pkt.Path,
					Field:     f.Name,
					TypeField: s.Global.TypeField,
				}
			}
		}
	}

	return s, nil
}

func parseGlobal(node *yaml.Node, g *Global) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("config section must be a mapping")
	}
	for i := 0; i < len(node.Content)-1; i += 2 {
		if node.Content[i].Value != "global" {
			continue
		}
		var raw rawGlobal
		if err := node.Content[i+1].Decode(&raw); err != nil {
			return fmt.Errorf("failed to parse global config: %w", err)
		}
		if raw.TypeField != "" {
			g.TypeField = raw.TypeField
		}
		if raw.Serialization.JSON != nil {
			g.JSON = *raw.Serialization.JSON
		}
		if raw.Serialization.MsgPack != nil {
			g.MsgPack = *raw.Serialization.MsgPack
		}
	}
	return nil
}

func parsePacket(path string, node *yaml.Node) (*Packet, []Issue) {
	if node.Kind != yaml.MappingNode {
		return nil, []Issue{{Packet: path, Reason: "packet definition must be a mapping"}}
	}

	var raw rawPacket
	if err := node.Decode(&raw); err != nil {
		return nil, []Issue{{Packet: path, Reason: err.Error()}}
	}

	pkt := &Packet{
		Path:        path,
		Name:        TypeName(path),
		Description: raw.Description,
		Version:     raw.Version,
		Deprecated:  raw.Deprecated,
	}
	if pkt.Version == 0 {
		pkt.Version = 1
	}

	var issues []Issue
	for i := 0; i < len(node.Content)-1; i += 2 {
		if node.Content[i].Value != "fields" {
			continue
		}
		fieldsNode := node.Content[i+1]
		if fieldsNode.Kind != yaml.MappingNode {
			issues = append(issues, Issue{Packet: path, Reason: "fields section must be a mapping"})
			continue
		}
		for j := 0; j < len(fieldsNode.Content)-1; j += 2 {
			name := fieldsNode.Content[j].Value
			field, err := parseField(name, fieldsNode.Content[j+1])
			if err != nil {
				issues = append(issues, Issue{Packet: path, Field: name, Reason: err.Error()})
				continue
			}
			pkt.Fields = append(pkt.Fields, field)
		}
	}

	return pkt, issues
}

func parseField(name string, node *yaml.Node) (Field, error) {
	// Shorthand form: a bare type tag string.
	if node.Kind == yaml.ScalarNode {
		return Field{Name: name, Type: TypeTag(node.Value)}, nil
	}
	if node.Kind != yaml.MappingNode {
		return Field{}, fmt.Errorf("field definition must be a type tag or a mapping")
	}
	var raw rawField
	if err := node.Decode(&raw); err != nil {
		return Field{}, err
	}
	if raw.Type == "" {
		raw.Type = string(TagString)
	}
	return Field{
		Name:        name,
		Type:        TypeTag(raw.Type),
		Description: raw.Description,
		Optional:    raw.Optional,
		Deprecated:  raw.Deprecated,
		Validation:  raw.Validation,
	}, nil
}

// TypeName derives the generated type name from a packet path: the last
// path segment converted to PascalCase.
func TypeName(path string) string {
	segment := path
	if idx := strings.LastIndexAny(path, "/."); idx >= 0 {
		segment = path[idx+1:]
	}
	return naming.Pascal(segment)
}
