package schema

// TypeTag is one value from the closed set of abstract field types a packet
// definition may use. Every tag resolves to a native type per target through
// the type table in internal/codegen/typemap.
type TypeTag string

const (
	TagInt             TypeTag = "int"
	TagFloat           TypeTag = "float"
	TagDouble          TypeTag = "double"
	TagBool            TypeTag = "bool"
	TagString          TypeTag = "string"
	TagDateTime        TypeTag = "datetime"
	TagTime            TypeTag = "time"
	TagBytes           TypeTag = "bytes"
	TagList            TypeTag = "list"
	TagListInt         TypeTag = "list_int"
	TagListString      TypeTag = "list_string"
	TagMap             TypeTag = "map"
	TagEmbeddedMap     TypeTag = "embedded_map"
	TagMapStringAny    TypeTag = "map_string_dynamic"
)

// IsList reports whether the tag is one of the list shapes.
func (t TypeTag) IsList() bool {
	return t == TagList || t == TagListInt || t == TagListString
}

// IsMap reports whether the tag is one of the map shapes.
func (t TypeTag) IsMap() bool {
	return t == TagMap || t == TagEmbeddedMap || t == TagMapStringAny
}

// IsNumeric reports whether the tag is an integer or floating-point type.
func (t TypeTag) IsNumeric() bool {
	return t == TagInt || t == TagFloat || t == TagDouble
}

// Validation carries the optional validation block of a field definition.
// These rules are never enforced by generated storage or constructors; they
// are consumed only by the separately emitted validation helper module.
type Validation struct {
	Required      *bool    `yaml:"required"`
	Min           *float64 `yaml:"min"`
	Max           *float64 `yaml:"max"`
	Pattern       string   `yaml:"pattern"`
	AllowEmpty    *bool    `yaml:"allow_empty"`
	AllowNaN      bool     `yaml:"allow_nan"`
	AllowInfinity bool     `yaml:"allow_infinity"`
	// MaxDepth is declared in schema documents for container fields but is
	// not enforced by any emitter. It is carried through for tooling.
	MaxDepth int `yaml:"max_depth"`
}

// IsZero reports whether no validation rule was specified.
func (v Validation) IsZero() bool {
	return v.Required == nil && v.Min == nil && v.Max == nil &&
		v.Pattern == "" && v.AllowEmpty == nil &&
		!v.AllowNaN && !v.AllowInfinity && v.MaxDepth == 0
}

// Field is a normalized packet field. A shorthand definition (a bare type
// tag string) and the equivalent full form produce identical Field values,
// so emitters never see the difference.
type Field struct {
	Name        string
	Type        TypeTag
	Description string
	Optional    bool
	Deprecated  bool
	Validation  Validation
}

// Required reports whether the field must be present: optional fields are
// never required, and the validation block may override the default.
func (f Field) Required() bool {
	if f.Optional {
		return false
	}
	if f.Validation.Required != nil {
		return *f.Validation.Required
	}
	return true
}

// Packet is a normalized packet definition. Field order follows the schema
// document and determines generated field and parameter order.
type Packet struct {
	// Path is the dotted path identifying the packet on the wire and the
	// basis for the generated type name.
	Path        string
	Name        string
	Description string
	Version     int
	Deprecated  bool
	Fields      []Field
}

func (p Packet) hasTag(tags ...TypeTag) bool {
	for _, f := range p.Fields {
		for _, t := range tags {
			if f.Type == t {
				return true
			}
		}
	}
	return false
}

// HasDateTime reports whether the packet has any datetime field.
func (p Packet) HasDateTime() bool { return p.hasTag(TagDateTime) }

// HasTime reports whether the packet has any time-of-day field.
func (p Packet) HasTime() bool { return p.hasTag(TagTime) }

// HasBytes reports whether the packet has any binary blob field.
func (p Packet) HasBytes() bool { return p.hasTag(TagBytes) }

// HasEmbeddedMap reports whether the packet has any embedded_map field.
func (p Packet) HasEmbeddedMap() bool { return p.hasTag(TagEmbeddedMap) }

// HasList reports whether the packet has any list-shaped field.
func (p Packet) HasList() bool { return p.hasTag(TagList, TagListInt, TagListString) }

// HasMap reports whether the packet has any map-shaped field.
func (p Packet) HasMap() bool { return p.hasTag(TagMap, TagEmbeddedMap, TagMapStringAny) }

// Global holds the options shared by every emitter.
type Global struct {
	// TypeField is the wire field carrying the packet type identifier.
	TypeField string
	// JSON and MsgPack toggle the two serialization formats. At least one
	// must remain enabled.
	JSON    bool
	MsgPack bool
}

// DefaultTypeField is used when the document does not configure one.
const DefaultTypeField = "packetType"

// Issue records a malformed packet or field definition that was skipped
// without aborting the run.
type Issue struct {
	Packet string
	Field  string
	Reason string
}

// Schema is the normalized, immutable model of a schema document: the sole
// input to every emitter. It is never mutated after construction.
type Schema struct {
	Global  Global
	Packets []Packet
	// Issues lists definitions that were skipped as malformed.
	Issues []Issue
}
