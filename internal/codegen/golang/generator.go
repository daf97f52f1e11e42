// Package golang generates Go packet code.
package golang

import (
	"github.com/crosspacket/crosspacket/internal/codegen/naming"
	"github.com/crosspacket/crosspacket/internal/codegen/typemap"
	"github.com/crosspacket/crosspacket/internal/codegen/writer"
	"github.com/crosspacket/crosspacket/internal/schema"
)

const msgpackModule = "github.com/vmihailenco/msgpack/v5"

// Config holds the Go target options.
type Config struct {
	TypeField string
	JSON      bool
	MsgPack   bool
	Package   string
}

// Generator emits one base file plus one file per packet. All serialization
// goes through a per-packet map codec so both wire formats share the same
// field handling.
type Generator struct {
	cfg Config
}

// New creates a Go code generator.
func New(cfg Config) *Generator {
	if cfg.TypeField == "" {
		cfg.TypeField = schema.DefaultTypeField
	}
	if cfg.Package == "" {
		cfg.Package = "packets"
	}
	return &Generator{cfg: cfg}
}

// Target returns the canonical target name.
func (g *Generator) Target() string {
	return "go"
}

// FileExtension returns the file extension for generated files.
func (g *Generator) FileExtension() string {
	return ".go"
}

// Generate produces all Go artifacts for the schema.
func (g *Generator) Generate(s *schema.Schema) (map[string]string, error) {
	files := make(map[string]string, len(s.Packets)+1)
	files["packets.go"] = g.generateBase(s)
	for _, pkt := range s.Packets {
		files[naming.Snake(pkt.Name)+".go"] = g.generatePacket(pkt)
	}
	return files, nil
}

// generateBase emits the shared file: the Packet interface, the decoder
// registry with format dispatch, and the value coercion helpers.
func (g *Generator) generateBase(s *schema.Schema) string {
	w := writer.New("\t")

	w.Linef("// Code generated by crosspacket. DO NOT EDIT.")
	w.Blank()
	w.Linef("package %s", g.cfg.Package)
	w.Blank()

	w.Line("import (")
	w.Indent()
	w.Line(`"encoding/base64"`)
	if g.cfg.JSON {
		w.Line(`"encoding/json"`)
	}
	w.Line(`"fmt"`)
	w.Line(`"time"`)
	if g.cfg.MsgPack {
		w.Blank()
		w.Linef("%q", msgpackModule)
	}
	w.Dedent()
	w.Line(")")
	w.Blank()

	w.Line("// Packet is implemented by every generated packet type.")
	w.Block("type Packet interface {", "}", func() {
		w.Line("GetType() string")
	})
	w.Blank()

	w.Line("// timestampLayout renders offsets with exactly three fraction digits and")
	w.Line("// an explicit zone offset, never a bare Z.")
	w.Line(`const timestampLayout = "2006-01-02T15:04:05.000-07:00"`)
	w.Blank()

	w.Line("// packetDecoders maps wire type identifiers to packet constructors.")
	if len(s.Packets) == 0 {
		w.Line("var packetDecoders = map[string]func(map[string]interface{}) Packet{}")
	} else {
		w.Block("var packetDecoders = map[string]func(map[string]interface{}) Packet{", "}", func() {
			for _, pkt := range s.Packets {
				w.Linef("%q: func(raw map[string]interface{}) Packet { p := &%s{}; p.fromMap(raw); return p },", pkt.Path, pkt.Name)
			}
		})
	}
	w.Blank()

	if g.cfg.JSON {
		w.Line("// DeserializeJSON decodes any known packet from its JSON encoding.")
		w.Block("func DeserializeJSON(data []byte) (Packet, error) {", "}", func() {
			w.Line("var raw map[string]interface{}")
			w.Block("if err := json.Unmarshal(data, &raw); err != nil {", "}", func() {
				w.Line("return nil, err")
			})
			w.Line("return packetFromMap(raw)")
		})
		w.Blank()
	}

	if g.cfg.MsgPack {
		w.Line("// DeserializeMsgPack decodes any known packet from its MessagePack encoding.")
		w.Block("func DeserializeMsgPack(data []byte) (Packet, error) {", "}", func() {
			w.Line("var raw map[string]interface{}")
			w.Block("if err := msgpack.Unmarshal(data, &raw); err != nil {", "}", func() {
				w.Line("return nil, err")
			})
			w.Line("converted, _ := deepConvert(raw).(map[string]interface{})")
			w.Line("return packetFromMap(converted)")
		})
		w.Blank()
	}

	w.Block("func packetFromMap(raw map[string]interface{}) (Packet, error) {", "}", func() {
		w.Linef("id, _ := raw[%q].(string)", g.cfg.TypeField)
		w.Line("decode, ok := packetDecoders[id]")
		w.Block("if !ok {", "}", func() {
			w.Line(`return nil, fmt.Errorf("unknown packet type: %q", id)`)
		})
		w.Line("return decode(raw), nil")
	})
	w.Blank()

	w.Line("func formatTimestamp(t time.Time) string {")
	w.Indent()
	w.Line("return t.Format(timestampLayout)")
	w.Dedent()
	w.Line("}")
	w.Blank()

	w.Block("func parseTimestamp(value string) (time.Time, error) {", "}", func() {
		w.Block("if t, err := time.Parse(timestampLayout, value); err == nil {", "}", func() {
			w.Line("return t, nil")
		})
		w.Line("return time.Parse(time.RFC3339, value)")
	})
	w.Blank()

	w.Line("// deepConvert normalizes loosely typed containers produced by the binary")
	w.Line("// decoder into map[string]interface{} and []interface{} shapes.")
	w.Block("func deepConvert(value interface{}) interface{} {", "}", func() {
		w.Block("switch v := value.(type) {", "}", func() {
			w.Line("case map[interface{}]interface{}:")
			w.Indent()
			w.Line("converted := make(map[string]interface{}, len(v))")
			w.Block("for key, elem := range v {", "}", func() {
				w.Line(`converted[fmt.Sprintf("%v", key)] = deepConvert(elem)`)
			})
			w.Line("return converted")
			w.Dedent()
			w.Line("case map[string]interface{}:")
			w.Indent()
			w.Line("converted := make(map[string]interface{}, len(v))")
			w.Block("for key, elem := range v {", "}", func() {
				w.Line("converted[key] = deepConvert(elem)")
			})
			w.Line("return converted")
			w.Dedent()
			w.Line("case []interface{}:")
			w.Indent()
			w.Line("converted := make([]interface{}, len(v))")
			w.Block("for i, elem := range v {", "}", func() {
				w.Line("converted[i] = deepConvert(elem)")
			})
			w.Line("return converted")
			w.Dedent()
			w.Line("default:")
			w.Indent()
			w.Line("return value")
			w.Dedent()
		})
	})
	w.Blank()

	w.Block("func toString(value interface{}) string {", "}", func() {
		w.Block("if s, ok := value.(string); ok {", "}", func() {
			w.Line("return s")
		})
		w.Line(`return fmt.Sprintf("%v", value)`)
	})
	w.Blank()

	w.Block("func toInt64(value interface{}) int64 {", "}", func() {
		w.Block("switch v := value.(type) {", "}", func() {
			for _, c := range []struct{ typ, expr string }{
				{"int64", "v"},
				{"int", "int64(v)"},
				{"int8", "int64(v)"},
				{"int16", "int64(v)"},
				{"int32", "int64(v)"},
				{"uint", "int64(v)"},
				{"uint8", "int64(v)"},
				{"uint16", "int64(v)"},
				{"uint32", "int64(v)"},
				{"uint64", "int64(v)"},
				{"float32", "int64(v)"},
				{"float64", "int64(v)"},
			} {
				w.Linef("case %s:", c.typ)
				w.Indent()
				w.Linef("return %s", c.expr)
				w.Dedent()
			}
		})
		w.Line("return 0")
	})
	w.Blank()

	w.Block("func toFloat64(value interface{}) float64 {", "}", func() {
		w.Block("switch v := value.(type) {", "}", func() {
			for _, c := range []struct{ typ, expr string }{
				{"float64", "v"},
				{"float32", "float64(v)"},
				{"int", "float64(v)"},
				{"int64", "float64(v)"},
				{"uint64", "float64(v)"},
			} {
				w.Linef("case %s:", c.typ)
				w.Indent()
				w.Linef("return %s", c.expr)
				w.Dedent()
			}
		})
		w.Line("return 0")
	})
	w.Blank()

	w.Line("// toBytes accepts native binary from the MessagePack decoder and padded")
	w.Line("// base64 text from the JSON decoder.")
	w.Block("func toBytes(value interface{}) []byte {", "}", func() {
		w.Block("switch v := value.(type) {", "}", func() {
			w.Line("case []byte:")
			w.Indent()
			w.Line("return v")
			w.Dedent()
			w.Line("case string:")
			w.Indent()
			w.Block("if decoded, err := base64.StdEncoding.DecodeString(v); err == nil {", "}", func() {
				w.Line("return decoded")
			})
			w.Dedent()
		})
		w.Line("return nil")
	})
	w.Blank()

	w.Block("func toList(value interface{}) []interface{} {", "}", func() {
		w.Line("converted, _ := deepConvert(value).([]interface{})")
		w.Line("return converted")
	})
	w.Blank()

	w.Block("func toInt64List(value interface{}) []int64 {", "}", func() {
		w.Line("elems := toList(value)")
		w.Block("if elems == nil {", "}", func() {
			w.Line("return nil")
		})
		w.Line("converted := make([]int64, len(elems))")
		w.Block("for i, elem := range elems {", "}", func() {
			w.Line("converted[i] = toInt64(elem)")
		})
		w.Line("return converted")
	})
	w.Blank()

	w.Block("func toStringList(value interface{}) []string {", "}", func() {
		w.Line("elems := toList(value)")
		w.Block("if elems == nil {", "}", func() {
			w.Line("return nil")
		})
		w.Line("converted := make([]string, len(elems))")
		w.Block("for i, elem := range elems {", "}", func() {
			w.Line("converted[i] = toString(elem)")
		})
		w.Line("return converted")
	})
	w.Blank()

	w.Block("func toStringMap(value interface{}) map[string]interface{} {", "}", func() {
		w.Line("converted, _ := deepConvert(value).(map[string]interface{})")
		w.Line("return converted")
	})

	return w.String()
}

// generatePacket emits one packet type with its map codec and the enabled
// wire formats.
func (g *Generator) generatePacket(pkt schema.Packet) string {
	w := writer.New("\t")

	w.Linef("// Code generated by crosspacket. DO NOT EDIT.")
	w.Blank()
	w.Linef("package %s", g.cfg.Package)
	w.Blank()

	imports := g.packetImports(pkt)
	if len(imports) > 0 {
		w.Line("import (")
		w.Indent()
		for _, imp := range imports {
			w.Linef("%q", imp)
		}
		if g.cfg.MsgPack {
			w.Blank()
			w.Linef("%q", msgpackModule)
		}
		w.Dedent()
		w.Line(")")
		w.Blank()
	} else if g.cfg.MsgPack {
		w.Linef("import %q", msgpackModule)
		w.Blank()
	}

	w.Linef("// %sType is the wire identifier of %s packets.", pkt.Name, pkt.Name)
	w.Linef("const %sType = %q", pkt.Name, pkt.Path)
	w.Blank()

	if pkt.Description != "" {
		w.DocComment("//", pkt.Name+" "+pkt.Description)
	} else {
		w.Linef("// %s is the packet for %q.", pkt.Name, pkt.Path)
	}
	if pkt.Deprecated {
		w.Line("//")
		w.Line("// Deprecated: this packet is retained for wire compatibility only.")
	}
	w.Block("type "+pkt.Name+" struct {", "}", func() {
		for _, f := range pkt.Fields {
			if f.Description != "" {
				w.DocComment("//", naming.Pascal(f.Name)+" "+f.Description)
			}
			if f.Deprecated {
				w.Linef("// Deprecated: %s is retained for wire compatibility only.", naming.Pascal(f.Name))
			}
			w.Linef("%s %s", naming.Pascal(f.Name), g.storageType(f))
		}
	})
	w.Blank()

	w.Linef("// New%s creates an empty packet for two-phase initialization.", pkt.Name)
	w.Block("func New"+pkt.Name+"() *"+pkt.Name+" {", "}", func() {
		w.Linef("return &%s{}", pkt.Name)
	})
	w.Blank()

	if len(pkt.Fields) > 0 {
		w.Linef("// New%sWith creates a packet with every field populated.", pkt.Name)
		w.Writef("func New%sWith(", pkt.Name)
		for i, f := range pkt.Fields {
			if i > 0 {
				w.Write(", ")
			}
			w.Writef("%s %s", naming.Camel(f.Name), g.valueType(f))
		}
		w.Linef(") *%s {", pkt.Name)
		w.Indent()
		w.Linef("p := &%s{}", pkt.Name)
		for _, f := range pkt.Fields {
			w.Linef("p.Set%s(%s)", naming.Pascal(f.Name), naming.Camel(f.Name))
		}
		w.Line("return p")
		w.Dedent()
		w.Line("}")
		w.Blank()

		for _, f := range pkt.Fields {
			pascal := naming.Pascal(f.Name)
			w.Linef("// Set%s sets the %s field.", pascal, f.Name)
			w.Block("func (p *"+pkt.Name+") Set"+pascal+"(value "+g.valueType(f)+") {", "}", func() {
				if g.pointerStorage(f) {
					w.Linef("p.%s = &value", pascal)
				} else {
					w.Linef("p.%s = value", pascal)
				}
			})
			w.Blank()
		}
	}

	w.Linef("// GetType returns the wire type identifier.")
	w.Block("func (p *"+pkt.Name+") GetType() string {", "}", func() {
		w.Linef("return %sType", pkt.Name)
	})
	w.Blank()

	g.generateToMap(w, pkt)
	w.Blank()
	g.generateFromMap(w, pkt)

	if g.cfg.JSON {
		w.Blank()
		w.Linef("// ToJSON encodes the packet as JSON.")
		w.Block("func (p *"+pkt.Name+") ToJSON() ([]byte, error) {", "}", func() {
			w.Line("return json.Marshal(p.toMap())")
		})
		w.Blank()
		w.Linef("// %sFromJSON decodes a packet from its JSON encoding.", pkt.Name)
		w.Block("func "+pkt.Name+"FromJSON(data []byte) (*"+pkt.Name+", error) {", "}", func() {
			w.Line("var raw map[string]interface{}")
			w.Block("if err := json.Unmarshal(data, &raw); err != nil {", "}", func() {
				w.Line("return nil, err")
			})
			w.Linef("p := &%s{}", pkt.Name)
			w.Line("p.fromMap(raw)")
			w.Line("return p, nil")
		})
	}

	if g.cfg.MsgPack {
		w.Blank()
		w.Linef("// ToMsgPack encodes the packet as MessagePack.")
		w.Block("func (p *"+pkt.Name+") ToMsgPack() ([]byte, error) {", "}", func() {
			w.Line("return msgpack.Marshal(p.toMap())")
		})
		w.Blank()
		w.Linef("// %sFromMsgPack decodes a packet from its MessagePack encoding.", pkt.Name)
		w.Block("func "+pkt.Name+"FromMsgPack(data []byte) (*"+pkt.Name+", error) {", "}", func() {
			w.Line("var raw map[string]interface{}")
			w.Block("if err := msgpack.Unmarshal(data, &raw); err != nil {", "}", func() {
				w.Line("return nil, err")
			})
			w.Line("converted, _ := deepConvert(raw).(map[string]interface{})")
			w.Linef("p := &%s{}", pkt.Name)
			w.Line("p.fromMap(converted)")
			w.Line("return p, nil")
		})
	}

	return w.String()
}

func (g *Generator) generateToMap(w *writer.Writer, pkt schema.Packet) {
	w.Line("// toMap builds the wire representation shared by both codecs.")
	w.Block("func (p *"+pkt.Name+") toMap() map[string]interface{} {", "}", func() {
		w.Block("m := map[string]interface{}{", "}", func() {
			w.Linef("%q: %sType,", g.cfg.TypeField, pkt.Name)
		})
		for _, f := range pkt.Fields {
			pascal := naming.Pascal(f.Name)
			w.Block("if p."+pascal+" != nil {", "}", func() {
				switch f.Type {
				case schema.TagDateTime:
					w.Linef("m[%q] = formatTimestamp(*p.%s)", f.Name, pascal)
				default:
					if g.pointerStorage(f) {
						w.Linef("m[%q] = *p.%s", f.Name, pascal)
					} else {
						w.Linef("m[%q] = p.%s", f.Name, pascal)
					}
				}
			})
		}
		w.Line("return m")
	})
}

func (g *Generator) generateFromMap(w *writer.Writer, pkt schema.Packet) {
	w.Line("// fromMap restores fields from a decoded wire map. Missing or null")
	w.Line("// entries leave the field unset.")
	w.Block("func (p *"+pkt.Name+") fromMap(raw map[string]interface{}) {", "}", func() {
		if len(pkt.Fields) == 0 {
			w.Line("_ = raw")
			return
		}
		for _, f := range pkt.Fields {
			pascal := naming.Pascal(f.Name)
			w.Block("if v, ok := raw["+quoted(f.Name)+"]; ok && v != nil {", "}", func() {
				switch f.Type {
				case schema.TagInt:
					w.Line("n := toInt64(v)")
					w.Linef("p.%s = &n", pascal)
				case schema.TagFloat, schema.TagDouble:
					w.Line("n := toFloat64(v)")
					w.Linef("p.%s = &n", pascal)
				case schema.TagBool:
					w.Block("if b, ok := v.(bool); ok {", "}", func() {
						w.Linef("p.%s = &b", pascal)
					})
				case schema.TagString, schema.TagTime:
					w.Line("s := toString(v)")
					w.Linef("p.%s = &s", pascal)
				case schema.TagDateTime:
					w.Block("if t, err := parseTimestamp(toString(v)); err == nil {", "}", func() {
						w.Linef("p.%s = &t", pascal)
					})
				case schema.TagBytes:
					w.Linef("p.%s = toBytes(v)", pascal)
				case schema.TagList:
					w.Linef("p.%s = toList(v)", pascal)
				case schema.TagListInt:
					w.Linef("p.%s = toInt64List(v)", pascal)
				case schema.TagListString:
					w.Linef("p.%s = toStringList(v)", pascal)
				case schema.TagMap, schema.TagEmbeddedMap, schema.TagMapStringAny:
					w.Linef("p.%s = toStringMap(v)", pascal)
				default:
					w.Linef("p.%s = deepConvert(v)", pascal)
				}
			})
		}
	})
}

// packetImports returns the standard library imports a packet file needs.
func (g *Generator) packetImports(pkt schema.Packet) []string {
	var imports []string
	if g.cfg.JSON {
		imports = append(imports, "encoding/json")
	}
	if pkt.HasDateTime() {
		imports = append(imports, "time")
	}
	return imports
}

// storageType is the always-nullable struct field type.
func (g *Generator) storageType(f schema.Field) string {
	if g.pointerStorage(f) {
		return "*" + g.valueType(f)
	}
	return g.valueType(f)
}

// valueType is the plain Go type used in constructor and setter signatures.
func (g *Generator) valueType(f schema.Field) string {
	return typemap.Native(f.Type, typemap.Go)
}

// pointerStorage reports whether the field stores through a pointer; slice
// and map shapes are already nullable.
func (g *Generator) pointerStorage(f schema.Field) bool {
	switch f.Type {
	case schema.TagBytes, schema.TagList, schema.TagListInt, schema.TagListString,
		schema.TagMap, schema.TagEmbeddedMap, schema.TagMapStringAny:
		return false
	}
	if typemap.Native(f.Type, typemap.Go) == typemap.Fallback(typemap.Go) {
		return false
	}
	return true
}

func quoted(s string) string {
	return `"` + s + `"`
}
