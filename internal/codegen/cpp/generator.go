// Package cpp generates C++ packet code backed by yyjson and msgpack-c.
package cpp

import (
	"fmt"
	"strings"

	"github.com/crosspacket/crosspacket/internal/codegen/naming"
	"github.com/crosspacket/crosspacket/internal/codegen/typemap"
	"github.com/crosspacket/crosspacket/internal/codegen/writer"
	"github.com/crosspacket/crosspacket/internal/schema"
)

// Config holds the C++ target options.
type Config struct {
	TypeField string
	JSON      bool
	MsgPack   bool
	Indent    string
	Namespace string
}

// Generator emits a header/source pair per packet plus the shared headers:
// a feature-flag config header, the base64 codec helpers and the dispatch
// header exposing PacketVariant.
type Generator struct {
	cfg Config
}

// New creates a C++ code generator.
func New(cfg Config) *Generator {
	if cfg.TypeField == "" {
		cfg.TypeField = schema.DefaultTypeField
	}
	if cfg.Indent == "" {
		cfg.Indent = "    "
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "packets"
	}
	return &Generator{cfg: cfg}
}

// Target returns the canonical target name.
func (g *Generator) Target() string {
	return "cpp"
}

// FileExtension returns the file extension for generated files.
func (g *Generator) FileExtension() string {
	return ".hpp"
}

// Generate produces all C++ artifacts for the schema.
func (g *Generator) Generate(s *schema.Schema) (map[string]string, error) {
	files := make(map[string]string, 2*len(s.Packets)+3)
	files["crosspacket_config.hpp"] = g.generateConfigHeader()
	files["packet_codec.hpp"] = g.generateCodecHeader()
	files["data_packet.hpp"] = g.generateDispatchHeader(s)
	for _, pkt := range s.Packets {
		base := naming.Snake(pkt.Name)
		files[base+".hpp"] = g.generateHeader(pkt)
		files[base+".cpp"] = g.generateSource(pkt, base)
	}
	return files, nil
}

func (g *Generator) generateConfigHeader() string {
	w := writer.New(g.cfg.Indent)
	w.Line("// Auto-generated by CrossPacket - do not modify manually")
	w.Line("// Configuration header defining enabled serialization features")
	w.Line("#pragma once")
	w.Blank()
	w.Line("// Serialization feature flags")
	if g.cfg.JSON {
		w.Line("#define CROSSPACKET_HAS_JSON 1")
	} else {
		w.Line("// #define CROSSPACKET_HAS_JSON 0  // JSON disabled")
	}
	if g.cfg.MsgPack {
		w.Line("#define CROSSPACKET_HAS_MSGPACK 1")
	} else {
		w.Line("// #define CROSSPACKET_HAS_MSGPACK 0  // MessagePack disabled")
	}
	return w.String()
}

// generateCodecHeader emits the shared base64 helpers used by the per-packet
// JSON and MessagePack codecs.
func (g *Generator) generateCodecHeader() string {
	body := g.reindent(codecTemplate)
	body = strings.ReplaceAll(body, "{{namespace}}", g.cfg.Namespace)
	return body
}

// generateDispatchHeader emits data_packet.hpp: one include per packet, the
// PacketVariant alias and the format-specific dispatch entry points.
func (g *Generator) generateDispatchHeader(s *schema.Schema) string {
	w := writer.New(g.cfg.Indent)
	w.Line("// Auto-generated by CrossPacket - do not modify manually")
	w.Line("#pragma once")
	w.Blank()
	w.Line("#include <stdexcept>")
	w.Line("#include <string>")
	w.Line("#include <variant>")
	w.Line("#include <vector>")
	if g.cfg.JSON {
		w.Line("#include <yyjson.h>")
	}
	if g.cfg.MsgPack {
		w.Line("#include <msgpack.hpp>")
	}
	w.Blank()
	w.Line("#include \"crosspacket_config.hpp\"")
	for _, pkt := range s.Packets {
		w.Linef("#include \"%s.hpp\"", naming.Snake(pkt.Name))
	}
	w.Blank()
	w.Linef("namespace %s {", g.cfg.Namespace)
	w.Blank()

	w.Line("/// Any known packet. std::monostate marks the empty state.")
	w.Write("using PacketVariant = std::variant<std::monostate")
	for _, pkt := range s.Packets {
		w.Writef(", %s", pkt.Name)
	}
	w.Write(">;")
	w.Newline()
	w.Blank()

	if g.cfg.JSON {
		w.Line("/// Decodes any known packet from its JSON encoding.")
		w.Line("/// Throws std::runtime_error when the type identifier is not registered.")
		w.Line("inline PacketVariant DeserializePacket(const std::string& json) {")
		w.Indent()
		w.Line("yyjson_doc* doc = yyjson_read(json.c_str(), json.size(), 0);")
		w.Line("if (!doc) {")
		w.Indent()
		w.Line("throw std::runtime_error(\"JSON parse error\");")
		w.Dedent()
		w.Line("}")
		w.Line("yyjson_val* root = yyjson_doc_get_root(doc);")
		w.Linef("yyjson_val* type_val = yyjson_obj_get(root, \"%s\");", g.cfg.TypeField)
		w.Line("std::string type = (type_val && yyjson_is_str(type_val)) ? yyjson_get_str(type_val) : \"\";")
		w.Line("yyjson_doc_free(doc);")
		w.Blank()
		for _, pkt := range s.Packets {
			w.Linef("if (type == %s::TYPE) {", pkt.Name)
			w.Indent()
			w.Linef("return %s::FromJson(json);", pkt.Name)
			w.Dedent()
			w.Line("}")
		}
		w.Line("throw std::runtime_error(\"Unknown packet type: \" + type);")
		w.Dedent()
		w.Line("}")
		w.Blank()
	}

	if g.cfg.MsgPack {
		w.Line("/// Decodes any known packet from its MessagePack encoding.")
		w.Line("/// Throws std::runtime_error when the type identifier is not registered.")
		w.Line("inline PacketVariant DeserializePacketMsgPack(const std::vector<uint8_t>& data) {")
		w.Indent()
		w.Line("msgpack::object_handle oh = msgpack::unpack(reinterpret_cast<const char*>(data.data()), data.size());")
		w.Line("msgpack::object obj = oh.get();")
		w.Line("std::string type;")
		w.Line("if (obj.type == msgpack::type::MAP) {")
		w.Indent()
		w.Line("for (uint32_t i = 0; i < obj.via.map.size; ++i) {")
		w.Indent()
		w.Line("const msgpack::object_kv& kv = obj.via.map.ptr[i];")
		w.Line("if (kv.key.type != msgpack::type::STR) {")
		w.Indent()
		w.Line("continue;")
		w.Dedent()
		w.Line("}")
		w.Linef("if (std::string(kv.key.via.str.ptr, kv.key.via.str.size) == \"%s\") {", g.cfg.TypeField)
		w.Indent()
		w.Line("if (kv.val.type == msgpack::type::STR) {")
		w.Indent()
		w.Line("type = std::string(kv.val.via.str.ptr, kv.val.via.str.size);")
		w.Dedent()
		w.Line("}")
		w.Line("break;")
		w.Dedent()
		w.Line("}")
		w.Dedent()
		w.Line("}")
		w.Dedent()
		w.Line("}")
		w.Blank()
		for _, pkt := range s.Packets {
			w.Linef("if (type == %s::TYPE) {", pkt.Name)
			w.Indent()
			w.Linef("return %s::FromMsgPack(data);", pkt.Name)
			w.Dedent()
			w.Line("}")
		}
		w.Line("throw std::runtime_error(\"Unknown packet type: \" + type);")
		w.Dedent()
		w.Line("}")
		w.Blank()
	}

	w.Linef("} // namespace %s", g.cfg.Namespace)
	return w.String()
}

// generateHeader emits the class declaration for one packet. Every field is
// stored as std::optional so unset values round-trip as null.
func (g *Generator) generateHeader(pkt schema.Packet) string {
	w := writer.New(g.cfg.Indent)
	w.Line("// Auto-generated by CrossPacket - do not modify manually")
	w.Line("#pragma once")
	w.Blank()
	w.Line("#include <cstdint>")
	w.Line("#include <optional>")
	w.Line("#include <stdexcept>")
	w.Line("#include <string>")
	w.Line("#include <vector>")
	if g.cfg.JSON {
		w.Line("#include <yyjson.h>")
	}
	if g.cfg.MsgPack {
		w.Line("#include <msgpack.hpp>")
	}
	w.Blank()
	w.Line("#include \"crosspacket_config.hpp\"")
	w.Blank()
	w.Linef("namespace %s {", g.cfg.Namespace)
	w.Blank()

	if pkt.Description != "" {
		w.DocComment("/// @brief", pkt.Description)
	}
	if pkt.Deprecated {
		w.Line("/// @deprecated Retained for wire compatibility only.")
	}
	w.Linef("class %s {", pkt.Name)
	w.Line("public:")
	w.Indent()
	w.Linef("static constexpr const char* TYPE = \"%s\";", pkt.Path)
	w.Blank()
	w.Linef("%s() = default;", pkt.Name)
	if len(pkt.Fields) > 0 {
		w.Linef("%s(%s);", pkt.Name, g.ctorParams(pkt))
	}
	w.Blank()

	for _, f := range pkt.Fields {
		w.Linef("const %s& Get%s() const { return %s_; }", g.storageType(f), naming.Pascal(f.Name), f.Name)
	}
	w.Blank()
	for _, f := range pkt.Fields {
		w.Linef("void Set%s(const %s& value) { %s_ = value; }", naming.Pascal(f.Name), g.storageType(f), f.Name)
	}
	w.Blank()

	if g.cfg.JSON {
		w.Line("std::string ToJson() const;")
		w.Linef("static %s FromJson(const std::string& json);", pkt.Name)
	}
	if g.cfg.MsgPack {
		w.Line("std::vector<uint8_t> ToMsgPack() const;")
		w.Linef("static %s FromMsgPack(const std::vector<uint8_t>& data);", pkt.Name)
	}
	w.Dedent()
	w.Blank()
	w.Line("private:")
	w.Indent()
	w.Linef("std::string type_ = \"%s\";", pkt.Path)
	for _, f := range pkt.Fields {
		w.Linef("%s %s_;", g.storageType(f), f.Name)
	}
	w.Dedent()
	w.Line("};")
	w.Blank()
	w.Linef("} // namespace %s", g.cfg.Namespace)
	return w.String()
}

// generateSource emits the codec implementations for one packet.
func (g *Generator) generateSource(pkt schema.Packet, base string) string {
	w := writer.New(g.cfg.Indent)
	w.Line("// Auto-generated by CrossPacket - do not modify manually")
	w.Linef("#include \"%s.hpp\"", base)
	w.Blank()
	if g.cfg.JSON {
		w.Line("#include <cstdlib>")
	}
	if g.needsStringify(pkt) {
		w.Line("#include <sstream>")
	}
	w.Line("#include \"packet_codec.hpp\"")
	w.Blank()
	w.Linef("namespace %s {", g.cfg.Namespace)
	w.Blank()

	if len(pkt.Fields) > 0 {
		w.Linef("%s::%s(%s)", pkt.Name, pkt.Name, g.ctorParams(pkt))
		inits := make([]string, 0, len(pkt.Fields))
		for _, f := range pkt.Fields {
			inits = append(inits, fmt.Sprintf("%s_(%s)", f.Name, f.Name))
		}
		w.Indent()
		w.Linef(": %s {}", strings.Join(inits, ", "))
		w.Dedent()
		w.Blank()
	}

	if g.cfg.JSON {
		g.writeToJSON(w, pkt)
		g.writeFromJSON(w, pkt)
	}
	if g.cfg.MsgPack {
		g.writeToMsgPack(w, pkt)
		g.writeFromMsgPack(w, pkt)
	}

	w.Linef("} // namespace %s", g.cfg.Namespace)
	return w.String()
}

func (g *Generator) writeToJSON(w *writer.Writer, pkt schema.Packet) {
	w.Linef("std::string %s::ToJson() const {", pkt.Name)
	w.Indent()
	w.Line("yyjson_mut_doc* doc = yyjson_mut_doc_new(nullptr);")
	w.Line("yyjson_mut_val* root = yyjson_mut_obj(doc);")
	w.Line("yyjson_mut_doc_set_root(doc, root);")
	w.Blank()
	w.Linef("yyjson_mut_obj_add_str(doc, root, \"%s\", TYPE);", g.cfg.TypeField)
	for _, f := range pkt.Fields {
		g.writeJSONEncodeField(w, f)
	}
	w.Blank()
	w.Line("char* json = yyjson_mut_write(doc, 0, nullptr);")
	w.Line("std::string result(json);")
	w.Line("free(json);")
	w.Line("yyjson_mut_doc_free(doc);")
	w.Line("return result;")
	w.Dedent()
	w.Line("}")
	w.Blank()
}

// writeJSONEncodeField emits the null-aware encoding of one field into the
// mutable document rooted at root.
func (g *Generator) writeJSONEncodeField(w *writer.Writer, f schema.Field) {
	value := f.Name + "_.value()"
	w.Linef("if (%s_.has_value()) {", f.Name)
	w.Indent()
	switch {
	case f.Type == schema.TagInt:
		w.Linef("yyjson_mut_obj_add_int(doc, root, \"%s\", %s);", f.Name, value)
	case f.Type == schema.TagFloat || f.Type == schema.TagDouble:
		w.Linef("yyjson_mut_obj_add_real(doc, root, \"%s\", %s);", f.Name, value)
	case f.Type == schema.TagBool:
		w.Linef("yyjson_mut_obj_add_bool(doc, root, \"%s\", %s);", f.Name, value)
	case f.Type == schema.TagBytes:
		w.Linef("std::string encoded = codec::Base64Encode(%s);", value)
		w.Linef("yyjson_mut_obj_add_strcpy(doc, root, \"%s\", encoded.c_str());", f.Name)
	case f.Type == schema.TagListInt:
		w.Line("yyjson_mut_val* arr = yyjson_mut_arr(doc);")
		w.Linef("for (const auto& item : %s) {", value)
		w.Indent()
		w.Line("yyjson_mut_arr_add_int(doc, arr, item);")
		w.Dedent()
		w.Line("}")
		w.Linef("yyjson_mut_obj_add_val(doc, root, \"%s\", arr);", f.Name)
	case f.Type == schema.TagListString:
		w.Line("yyjson_mut_val* arr = yyjson_mut_arr(doc);")
		w.Linef("for (const auto& item : %s) {", value)
		w.Indent()
		w.Line("yyjson_mut_arr_add_strcpy(doc, arr, item.c_str());")
		w.Dedent()
		w.Line("}")
		w.Linef("yyjson_mut_obj_add_val(doc, root, \"%s\", arr);", f.Name)
	case f.Type.IsList() || f.Type.IsMap():
		// Loose containers are carried as their JSON text; splice the
		// parsed value into the output document.
		w.Linef("yyjson_doc* sub_doc = yyjson_read(%s.c_str(), %s.size(), 0);", value, value)
		w.Line("if (sub_doc) {")
		w.Indent()
		w.Line("yyjson_val* sub_root = yyjson_doc_get_root(sub_doc);")
		w.Line("yyjson_mut_val* copied = yyjson_val_mut_copy(doc, sub_root);")
		w.Linef("yyjson_mut_obj_add_val(doc, root, \"%s\", copied);", f.Name)
		w.Line("yyjson_doc_free(sub_doc);")
		w.Dedent()
		w.Line("} else {")
		w.Indent()
		w.Linef("yyjson_mut_obj_add_null(doc, root, \"%s\");", f.Name)
		w.Dedent()
		w.Line("}")
	default:
		// string, datetime, time and the fallback all carry std::string.
		w.Linef("yyjson_mut_obj_add_strcpy(doc, root, \"%s\", %s.c_str());", f.Name, value)
	}
	w.Dedent()
	w.Line("} else {")
	w.Indent()
	w.Linef("yyjson_mut_obj_add_null(doc, root, \"%s\");", f.Name)
	w.Dedent()
	w.Line("}")
}

func (g *Generator) writeFromJSON(w *writer.Writer, pkt schema.Packet) {
	w.Linef("%s %s::FromJson(const std::string& json) {", pkt.Name, pkt.Name)
	w.Indent()
	w.Line("yyjson_doc* doc = yyjson_read(json.c_str(), json.size(), 0);")
	w.Line("if (!doc) {")
	w.Indent()
	w.Line("throw std::runtime_error(\"JSON parse error\");")
	w.Dedent()
	w.Line("}")
	w.Blank()
	w.Line("yyjson_val* root = yyjson_doc_get_root(doc);")
	w.Linef("%s packet;", pkt.Name)
	w.Blank()
	for _, f := range pkt.Fields {
		g.writeJSONDecodeField(w, f)
	}
	w.Blank()
	w.Line("yyjson_doc_free(doc);")
	w.Line("return packet;")
	w.Dedent()
	w.Line("}")
	w.Blank()
}

func (g *Generator) writeJSONDecodeField(w *writer.Writer, f schema.Field) {
	val := f.Name + "_val"
	w.Linef("yyjson_val* %s = yyjson_obj_get(root, \"%s\");", val, f.Name)
	switch {
	case f.Type == schema.TagInt:
		w.Linef("if (%s && yyjson_is_int(%s)) {", val, val)
		w.Indent()
		w.Linef("packet.%s_ = yyjson_get_sint(%s);", f.Name, val)
		w.Dedent()
		w.Line("}")
	case f.Type == schema.TagFloat || f.Type == schema.TagDouble:
		w.Linef("if (%s && (yyjson_is_real(%s) || yyjson_is_int(%s))) {", val, val, val)
		w.Indent()
		w.Linef("packet.%s_ = yyjson_get_num(%s);", f.Name, val)
		w.Dedent()
		w.Line("}")
	case f.Type == schema.TagBool:
		w.Linef("if (%s && yyjson_is_bool(%s)) {", val, val)
		w.Indent()
		w.Linef("packet.%s_ = yyjson_get_bool(%s);", f.Name, val)
		w.Dedent()
		w.Line("}")
	case f.Type == schema.TagBytes:
		w.Linef("if (%s && yyjson_is_str(%s)) {", val, val)
		w.Indent()
		w.Linef("const char* encoded = yyjson_get_str(%s);", val)
		w.Line("if (encoded && *encoded) {")
		w.Indent()
		w.Linef("packet.%s_ = codec::Base64Decode(encoded);", f.Name)
		w.Dedent()
		w.Line("}")
		w.Dedent()
		w.Line("}")
	case f.Type == schema.TagListInt:
		w.Linef("if (%s && yyjson_is_arr(%s)) {", val, val)
		w.Indent()
		w.Line("std::vector<int64_t> items;")
		w.Line("size_t idx, max;")
		w.Line("yyjson_val* item;")
		w.Linef("yyjson_arr_foreach(%s, idx, max, item) {", val)
		w.Indent()
		w.Line("if (yyjson_is_int(item)) {")
		w.Indent()
		w.Line("items.push_back(yyjson_get_sint(item));")
		w.Dedent()
		w.Line("}")
		w.Dedent()
		w.Line("}")
		w.Linef("packet.%s_ = items;", f.Name)
		w.Dedent()
		w.Line("}")
	case f.Type == schema.TagListString:
		w.Linef("if (%s && yyjson_is_arr(%s)) {", val, val)
		w.Indent()
		w.Line("std::vector<std::string> items;")
		w.Line("size_t idx, max;")
		w.Line("yyjson_val* item;")
		w.Linef("yyjson_arr_foreach(%s, idx, max, item) {", val)
		w.Indent()
		w.Line("if (yyjson_is_str(item)) {")
		w.Indent()
		w.Line("items.push_back(yyjson_get_str(item));")
		w.Dedent()
		w.Line("}")
		w.Dedent()
		w.Line("}")
		w.Linef("packet.%s_ = items;", f.Name)
		w.Dedent()
		w.Line("}")
	case f.Type.IsList() || f.Type.IsMap():
		w.Linef("if (%s && !yyjson_is_null(%s)) {", val, val)
		w.Indent()
		w.Linef("char* sub_json = yyjson_val_write(%s, 0, nullptr);", val)
		w.Line("if (sub_json) {")
		w.Indent()
		w.Linef("packet.%s_ = std::string(sub_json);", f.Name)
		w.Line("free(sub_json);")
		w.Dedent()
		w.Line("}")
		w.Dedent()
		w.Line("}")
	default:
		w.Linef("if (%s && yyjson_is_str(%s)) {", val, val)
		w.Indent()
		w.Linef("packet.%s_ = yyjson_get_str(%s);", f.Name, val)
		w.Dedent()
		w.Line("}")
	}
}

// writeToMsgPack packs an explicit map so wire keys match the schema field
// names exactly. std::optional packs as nil when unset.
func (g *Generator) writeToMsgPack(w *writer.Writer, pkt schema.Packet) {
	w.Linef("std::vector<uint8_t> %s::ToMsgPack() const {", pkt.Name)
	w.Indent()
	w.Line("msgpack::sbuffer buffer;")
	w.Line("msgpack::packer<msgpack::sbuffer> pk(buffer);")
	w.Linef("pk.pack_map(%d);", len(pkt.Fields)+1)
	w.Linef("pk.pack(\"%s\");", g.cfg.TypeField)
	w.Line("pk.pack(type_);")
	for _, f := range pkt.Fields {
		w.Linef("pk.pack(\"%s\");", f.Name)
		w.Linef("pk.pack(%s_);", f.Name)
	}
	w.Line("return std::vector<uint8_t>(buffer.data(), buffer.data() + buffer.size());")
	w.Dedent()
	w.Line("}")
	w.Blank()
}

func (g *Generator) writeFromMsgPack(w *writer.Writer, pkt schema.Packet) {
	w.Linef("%s %s::FromMsgPack(const std::vector<uint8_t>& data) {", pkt.Name, pkt.Name)
	w.Indent()
	w.Line("msgpack::object_handle oh = msgpack::unpack(reinterpret_cast<const char*>(data.data()), data.size());")
	w.Line("msgpack::object obj = oh.get();")
	w.Linef("%s packet;", pkt.Name)
	w.Line("if (obj.type != msgpack::type::MAP) {")
	w.Indent()
	w.Line("throw std::runtime_error(\"MessagePack payload is not a map\");")
	w.Dedent()
	w.Line("}")
	w.Blank()
	w.Line("for (uint32_t i = 0; i < obj.via.map.size; ++i) {")
	w.Indent()
	w.Line("const msgpack::object_kv& kv = obj.via.map.ptr[i];")
	w.Line("if (kv.key.type != msgpack::type::STR || kv.val.is_nil()) {")
	w.Indent()
	w.Line("continue;")
	w.Dedent()
	w.Line("}")
	w.Line("std::string key(kv.key.via.str.ptr, kv.key.via.str.size);")
	for i, f := range pkt.Fields {
		prefix := "} else if"
		if i == 0 {
			prefix = "if"
		}
		w.Linef("%s (key == \"%s\") {", prefix, f.Name)
		w.Indent()
		g.writeMsgPackDecodeField(w, f)
		w.Dedent()
	}
	if len(pkt.Fields) > 0 {
		w.Line("}")
	}
	w.Dedent()
	w.Line("}")
	w.Line("return packet;")
	w.Dedent()
	w.Line("}")
	w.Blank()
}

func (g *Generator) writeMsgPackDecodeField(w *writer.Writer, f schema.Field) {
	switch {
	case f.Type == schema.TagInt:
		w.Line("if (kv.val.type == msgpack::type::POSITIVE_INTEGER || kv.val.type == msgpack::type::NEGATIVE_INTEGER) {")
		w.Indent()
		w.Linef("packet.%s_ = kv.val.as<int64_t>();", f.Name)
		w.Dedent()
		w.Line("}")
	case f.Type == schema.TagFloat || f.Type == schema.TagDouble:
		w.Line("if (kv.val.type == msgpack::type::FLOAT32 || kv.val.type == msgpack::type::FLOAT64 ||")
		w.Line("    kv.val.type == msgpack::type::POSITIVE_INTEGER || kv.val.type == msgpack::type::NEGATIVE_INTEGER) {")
		w.Indent()
		w.Linef("packet.%s_ = kv.val.as<double>();", f.Name)
		w.Dedent()
		w.Line("}")
	case f.Type == schema.TagBool:
		w.Line("if (kv.val.type == msgpack::type::BOOLEAN) {")
		w.Indent()
		w.Linef("packet.%s_ = kv.val.as<bool>();", f.Name)
		w.Dedent()
		w.Line("}")
	case f.Type == schema.TagBytes:
		w.Line("if (kv.val.type == msgpack::type::BIN) {")
		w.Indent()
		w.Linef("packet.%s_ = kv.val.as<std::vector<uint8_t>>();", f.Name)
		w.Dedent()
		w.Line("} else if (kv.val.type == msgpack::type::STR) {")
		w.Indent()
		w.Line("std::string encoded(kv.val.via.str.ptr, kv.val.via.str.size);")
		w.Linef("packet.%s_ = codec::Base64Decode(encoded.c_str());", f.Name)
		w.Dedent()
		w.Line("}")
	case f.Type == schema.TagListInt:
		w.Line("if (kv.val.type == msgpack::type::ARRAY) {")
		w.Indent()
		w.Linef("packet.%s_ = kv.val.as<std::vector<int64_t>>();", f.Name)
		w.Dedent()
		w.Line("}")
	case f.Type == schema.TagListString:
		w.Line("if (kv.val.type == msgpack::type::ARRAY) {")
		w.Indent()
		w.Linef("packet.%s_ = kv.val.as<std::vector<std::string>>();", f.Name)
		w.Dedent()
		w.Line("}")
	case f.Type.IsList() || f.Type.IsMap():
		// Native containers from other producers are normalized back to
		// their JSON text form.
		w.Line("if (kv.val.type == msgpack::type::STR) {")
		w.Indent()
		w.Linef("packet.%s_ = std::string(kv.val.via.str.ptr, kv.val.via.str.size);", f.Name)
		w.Dedent()
		w.Line("} else {")
		w.Indent()
		w.Line("std::ostringstream oss;")
		w.Line("oss << kv.val;")
		w.Linef("packet.%s_ = oss.str();", f.Name)
		w.Dedent()
		w.Line("}")
	default:
		w.Line("if (kv.val.type == msgpack::type::STR) {")
		w.Indent()
		w.Linef("packet.%s_ = std::string(kv.val.via.str.ptr, kv.val.via.str.size);", f.Name)
		w.Dedent()
		w.Line("}")
	}
}

// ctorParams renders the full-constructor parameter list.
func (g *Generator) ctorParams(pkt schema.Packet) string {
	params := make([]string, 0, len(pkt.Fields))
	for _, f := range pkt.Fields {
		params = append(params, fmt.Sprintf("const %s& %s", g.storageType(f), f.Name))
	}
	return strings.Join(params, ", ")
}

// storageType returns the member type for a field. Storage is always
// optional: absent wire values stay distinguishable from zero values.
func (g *Generator) storageType(f schema.Field) string {
	return "std::optional<" + typemap.Native(f.Type, typemap.Cpp) + ">"
}

// needsStringify reports whether the source file normalizes MessagePack
// containers through an ostringstream.
func (g *Generator) needsStringify(pkt schema.Packet) bool {
	if !g.cfg.MsgPack {
		return false
	}
	for _, f := range pkt.Fields {
		switch f.Type {
		case schema.TagList, schema.TagMap, schema.TagEmbeddedMap, schema.TagMapStringAny:
			return true
		}
	}
	return false
}

// reindent rewrites the 4-space template indentation into the configured
// indent unit.
func (g *Generator) reindent(template string) string {
	if g.cfg.Indent == "    " {
		return template
	}
	var b strings.Builder
	for _, line := range strings.Split(template, "\n") {
		depth := 0
		for strings.HasPrefix(line, "    ") {
			line = line[4:]
			depth++
		}
		b.WriteString(strings.Repeat(g.cfg.Indent, depth))
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// codecTemplate is the shared base64 helper header.
const codecTemplate = `// Auto-generated by CrossPacket - do not modify manually
#pragma once

#include <cstdint>
#include <cstring>
#include <string>
#include <vector>

namespace {{namespace}} {
namespace codec {

inline std::string Base64Encode(const std::vector<uint8_t>& bytes) {
    static const char* chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/";
    std::string encoded;
    size_t len = bytes.size();
    encoded.reserve((len + 2) / 3 * 4);
    for (size_t i = 0; i < len; i += 3) {
        uint32_t octet_a = bytes[i];
        uint32_t octet_b = (i + 1 < len) ? bytes[i + 1] : 0;
        uint32_t octet_c = (i + 2 < len) ? bytes[i + 2] : 0;
        uint32_t triple = (octet_a << 16) | (octet_b << 8) | octet_c;
        encoded += chars[(triple >> 18) & 0x3F];
        encoded += chars[(triple >> 12) & 0x3F];
        encoded += (i + 1 < len) ? chars[(triple >> 6) & 0x3F] : '=';
        encoded += (i + 2 < len) ? chars[triple & 0x3F] : '=';
    }
    return encoded;
}

inline std::vector<uint8_t> Base64Decode(const char* encoded) {
    static const int decode_table[256] = {
        -1,-1,-1,-1,-1,-1,-1,-1,-1,-1,-1,-1,-1,-1,-1,-1,-1,-1,-1,-1,-1,-1,-1,-1,-1,-1,-1,-1,-1,-1,-1,-1,
        -1,-1,-1,-1,-1,-1,-1,-1,-1,-1,-1,62,-1,-1,-1,63,52,53,54,55,56,57,58,59,60,61,-1,-1,-1,-1,-1,-1,
        -1, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9,10,11,12,13,14,15,16,17,18,19,20,21,22,23,24,25,-1,-1,-1,-1,-1,
        -1,26,27,28,29,30,31,32,33,34,35,36,37,38,39,40,41,42,43,44,45,46,47,48,49,50,51,-1,-1,-1,-1,-1
    };
    std::vector<uint8_t> decoded;
    size_t len = strlen(encoded);
    decoded.reserve(len / 4 * 3);
    for (size_t i = 0; i < len; i += 4) {
        int a = decode_table[(unsigned char)encoded[i]];
        int b = (i + 1 < len) ? decode_table[(unsigned char)encoded[i + 1]] : 0;
        int c = (i + 2 < len && encoded[i + 2] != '=') ? decode_table[(unsigned char)encoded[i + 2]] : 0;
        int d = (i + 3 < len && encoded[i + 3] != '=') ? decode_table[(unsigned char)encoded[i + 3]] : 0;
        decoded.push_back((a << 2) | (b >> 4));
        if (i + 2 < len && encoded[i + 2] != '=') decoded.push_back(((b & 0xF) << 4) | (c >> 2));
        if (i + 3 < len && encoded[i + 3] != '=') decoded.push_back(((c & 0x3) << 6) | d);
    }
    return decoded;
}

} // namespace codec
} // namespace {{namespace}}`
