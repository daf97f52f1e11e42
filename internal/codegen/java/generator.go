// Package java generates Java packet code.
package java

import (
	"github.com/crosspacket/crosspacket/internal/codegen/naming"
	"github.com/crosspacket/crosspacket/internal/codegen/typemap"
	"github.com/crosspacket/crosspacket/internal/codegen/writer"
	"github.com/crosspacket/crosspacket/internal/schema"
)

// Config holds the Java target options.
type Config struct {
	TypeField string
	JSON      bool
	MsgPack   bool
	Indent    string
	Package   string
}

// Generator emits a DataPacket base class carrying the decoder registry, the
// timestamp formatters and the shared MessagePack value visitors, plus one
// class per packet.
type Generator struct {
	cfg Config
}

// New creates a Java code generator.
func New(cfg Config) *Generator {
	if cfg.TypeField == "" {
		cfg.TypeField = schema.DefaultTypeField
	}
	if cfg.Indent == "" {
		cfg.Indent = "    "
	}
	if cfg.Package == "" {
		cfg.Package = "com.crosspacket"
	}
	return &Generator{cfg: cfg}
}

// Target returns the canonical target name.
func (g *Generator) Target() string {
	return "java"
}

// FileExtension returns the file extension for generated files.
func (g *Generator) FileExtension() string {
	return ".java"
}

// Generate produces all Java artifacts for the schema.
func (g *Generator) Generate(s *schema.Schema) (map[string]string, error) {
	files := make(map[string]string, len(s.Packets)+1)
	files["DataPacket.java"] = g.generateBase(s)
	for _, pkt := range s.Packets {
		files[pkt.Name+".java"] = g.generatePacket(pkt)
	}
	return files, nil
}

// generateBase emits the abstract DataPacket class.
func (g *Generator) generateBase(s *schema.Schema) string {
	w := writer.New(g.cfg.Indent)

	w.Linef("package %s;", g.cfg.Package)
	w.Blank()
	w.Line("import java.time.format.DateTimeFormatter;")
	w.Line("import java.util.*;")
	w.Line("import java.util.function.Function;")
	if g.cfg.JSON {
		w.Line("import com.fasterxml.jackson.databind.ObjectMapper;")
	}
	if g.cfg.MsgPack {
		w.Line("import org.msgpack.core.*;")
	}
	w.Blank()

	w.Line("/**")
	w.Line(" * Base class for all data packets.")
	w.Line(" */")
	w.Line("public abstract class DataPacket {")
	w.Blank()
	w.Indent()

	if g.cfg.JSON {
		w.Line("private static final ObjectMapper mapper = new ObjectMapper();")
		w.Blank()
	}

	w.Line("/** Timestamps carry exactly three fraction digits and an explicit offset. */")
	w.Line("protected static final DateTimeFormatter TIMESTAMP_FORMAT =")
	w.Indent()
	w.Line("DateTimeFormatter.ofPattern(\"yyyy-MM-dd'T'HH:mm:ss.SSSxxx\");")
	w.Dedent()
	w.Blank()
	w.Line("protected static final DateTimeFormatter TIME_FORMAT =")
	w.Indent()
	w.Line("DateTimeFormatter.ofPattern(\"HH:mm\");")
	w.Dedent()
	w.Blank()

	w.Line("/** Registry of packet type identifier to decoder. */")
	w.Line("private static final Map<String, Function<Map<String, Object>, DataPacket>> REGISTRY = new HashMap<>();")
	w.Blank()
	w.Line("static {")
	w.Indent()
	for _, pkt := range s.Packets {
		w.Linef("REGISTRY.put(\"%s\", %s::fromMap);", pkt.Path, pkt.Name)
	}
	w.Dedent()
	w.Line("}")
	w.Blank()

	w.Line("/**")
	w.Line(" * Get the packet type identifier.")
	w.Line(" */")
	w.Line("public abstract String getType();")
	w.Blank()

	w.Line("/**")
	w.Line(" * Convert to Map for serialization (internal).")
	w.Line(" */")
	w.Line("protected abstract Map<String, Object> toMap();")
	w.Blank()

	if g.cfg.JSON {
		w.Line("/**")
		w.Line(" * Serialize to JSON string.")
		w.Line(" */")
		w.Line("public String toJson() throws Exception {")
		w.Indent()
		w.Line("return mapper.writeValueAsString(toMap());")
		w.Dedent()
		w.Line("}")
		w.Blank()
	}

	w.Line("/**")
	w.Line(" * Decode any known packet from a deserialized map.")
	w.Line(" */")
	w.Line("public static DataPacket deserialize(Map<String, Object> data) {")
	w.Indent()
	w.Linef("Object packetType = data.get(\"%s\");", g.cfg.TypeField)
	w.Line("Function<Map<String, Object>, DataPacket> decoder = REGISTRY.get(packetType);")
	w.Line("if (decoder == null) {")
	w.Indent()
	w.Line("throw new IllegalArgumentException(\"Unknown packet type: \" + packetType);")
	w.Dedent()
	w.Line("}")
	w.Line("return decoder.apply(data);")
	w.Dedent()
	w.Line("}")
	w.Blank()

	if g.cfg.JSON {
		w.Line("/**")
		w.Line(" * Decode any known packet from a JSON string.")
		w.Line(" */")
		w.Line("public static DataPacket fromJson(String json) throws Exception {")
		w.Indent()
		w.Line("@SuppressWarnings(\"unchecked\")")
		w.Line("Map<String, Object> map = mapper.readValue(json, Map.class);")
		w.Line("return deserialize(map);")
		w.Dedent()
		w.Line("}")
		w.Blank()
	}

	if g.cfg.MsgPack {
		w.Line("/**")
		w.Line(" * Decode any known packet from MessagePack binary data.")
		w.Line(" */")
		w.Line("public static DataPacket fromMsgPack(byte[] data) throws Exception {")
		w.Indent()
		w.Line("return deserialize(unpackMap(data));")
		w.Dedent()
		w.Line("}")
		w.Blank()

		w.Line("// =========== Shared MsgPack utilities ===========")
		w.Blank()

		w.Line("protected static Map<String, Object> unpackMap(byte[] data) throws Exception {")
		w.Indent()
		w.Line("MessageUnpacker unpacker = MessagePack.newDefaultUnpacker(data);")
		w.Line("Map<String, Object> map = new HashMap<>();")
		w.Line("int size = unpacker.unpackMapHeader();")
		w.Line("for (int i = 0; i < size; i++) {")
		w.Indent()
		w.Line("String key = unpacker.unpackString();")
		w.Line("map.put(key, normalizeValue(unpackValue(unpacker)));")
		w.Dedent()
		w.Line("}")
		w.Line("unpacker.close();")
		w.Line("return map;")
		w.Dedent()
		w.Line("}")
		w.Blank()

		w.Line("protected static void packList(MessageBufferPacker packer, List<?> list) throws Exception {")
		w.Indent()
		w.Line("packer.packArrayHeader(list.size());")
		w.Line("for (Object item : list) {")
		w.Indent()
		w.Line("packValue(packer, item);")
		w.Dedent()
		w.Line("}")
		w.Dedent()
		w.Line("}")
		w.Blank()

		w.Line("protected static void packMap(MessageBufferPacker packer, Map<?, ?> map) throws Exception {")
		w.Indent()
		w.Line("packer.packMapHeader(map.size());")
		w.Line("for (Map.Entry<?, ?> entry : map.entrySet()) {")
		w.Indent()
		w.Line("packValue(packer, entry.getKey());")
		w.Line("packValue(packer, entry.getValue());")
		w.Dedent()
		w.Line("}")
		w.Dedent()
		w.Line("}")
		w.Blank()

		w.Line("protected static void packValue(MessageBufferPacker packer, Object value) throws Exception {")
		w.Indent()
		w.Line("if (value == null) { packer.packNil(); }")
		w.Line("else if (value instanceof String) { packer.packString((String) value); }")
		w.Line("else if (value instanceof Long) { packer.packLong((Long) value); }")
		w.Line("else if (value instanceof Integer) { packer.packInt((Integer) value); }")
		w.Line("else if (value instanceof Double) { packer.packDouble((Double) value); }")
		w.Line("else if (value instanceof Float) { packer.packFloat((Float) value); }")
		w.Line("else if (value instanceof Boolean) { packer.packBoolean((Boolean) value); }")
		w.Line("else if (value instanceof byte[]) { byte[] b = (byte[]) value; packer.packBinaryHeader(b.length); packer.writePayload(b); }")
		w.Line("else if (value instanceof List) { packList(packer, (List<?>) value); }")
		w.Line("else if (value instanceof Map) { packMap(packer, (Map<?, ?>) value); }")
		w.Line("else { packer.packString(value.toString()); }")
		w.Dedent()
		w.Line("}")
		w.Blank()

		w.Line("protected static Object unpackValue(MessageUnpacker unpacker) throws Exception {")
		w.Indent()
		w.Line("MessageFormat format = unpacker.getNextFormat();")
		w.Line("switch (format.getValueType()) {")
		w.Indent()
		w.Line("case STRING: return unpacker.unpackString();")
		w.Line("case INTEGER: return unpacker.unpackLong();")
		w.Line("case FLOAT: return unpacker.unpackDouble();")
		w.Line("case BOOLEAN: return unpacker.unpackBoolean();")
		w.Line("case NIL: unpacker.unpackNil(); return null;")
		w.Line("case BINARY: {")
		w.Indent()
		w.Line("int len = unpacker.unpackBinaryHeader();")
		w.Line("byte[] bytes = new byte[len];")
		w.Line("unpacker.readPayload(bytes);")
		w.Line("return bytes;")
		w.Dedent()
		w.Line("}")
		w.Line("case ARRAY: {")
		w.Indent()
		w.Line("int len = unpacker.unpackArrayHeader();")
		w.Line("List<Object> list = new ArrayList<>(len);")
		w.Line("for (int j = 0; j < len; j++) { list.add(unpackValue(unpacker)); }")
		w.Line("return list;")
		w.Dedent()
		w.Line("}")
		w.Line("case MAP: {")
		w.Indent()
		w.Line("int len = unpacker.unpackMapHeader();")
		w.Line("Map<Object, Object> m = new HashMap<>(len);")
		w.Line("for (int j = 0; j < len; j++) { m.put(unpackValue(unpacker), unpackValue(unpacker)); }")
		w.Line("return m;")
		w.Dedent()
		w.Line("}")
		w.Line("default: unpacker.skipValue(); return null;")
		w.Dedent()
		w.Line("}")
		w.Dedent()
		w.Line("}")
		w.Blank()
	}

	w.Line("// =========== Container normalization ===========")
	w.Blank()
	w.Line("protected static Map<String, Object> normalizeMap(Map<?, ?> map) {")
	w.Indent()
	w.Line("Map<String, Object> result = new HashMap<>(map.size());")
	w.Line("for (Map.Entry<?, ?> entry : map.entrySet()) {")
	w.Indent()
	w.Line("result.put(String.valueOf(entry.getKey()), normalizeValue(entry.getValue()));")
	w.Dedent()
	w.Line("}")
	w.Line("return result;")
	w.Dedent()
	w.Line("}")
	w.Blank()
	w.Line("protected static Object normalizeValue(Object value) {")
	w.Indent()
	w.Line("if (value instanceof Map) {")
	w.Indent()
	w.Line("return normalizeMap((Map<?, ?>) value);")
	w.Dedent()
	w.Line("}")
	w.Line("if (value instanceof List) {")
	w.Indent()
	w.Line("List<Object> normalized = new ArrayList<>(((List<?>) value).size());")
	w.Line("for (Object item : (List<?>) value) {")
	w.Indent()
	w.Line("normalized.add(normalizeValue(item));")
	w.Dedent()
	w.Line("}")
	w.Line("return normalized;")
	w.Dedent()
	w.Line("}")
	w.Line("return value;")
	w.Dedent()
	w.Line("}")
	w.Dedent()
	w.Line("}")

	return w.String()
}

// generatePacket emits one packet class.
func (g *Generator) generatePacket(pkt schema.Packet) string {
	w := writer.New(g.cfg.Indent)

	w.Linef("package %s;", g.cfg.Package)
	w.Blank()
	if pkt.HasDateTime() {
		w.Line("import java.time.ZonedDateTime;")
	}
	if pkt.HasTime() {
		w.Line("import java.time.LocalTime;")
	}
	w.Line("import java.util.*;")
	if g.cfg.JSON {
		w.Line("import com.fasterxml.jackson.databind.ObjectMapper;")
	}
	if g.cfg.MsgPack {
		w.Line("import org.msgpack.core.*;")
	}
	w.Blank()

	if pkt.Description != "" {
		w.Line("/**")
		w.Linef(" * %s", pkt.Description)
		w.Line(" */")
	}
	if pkt.Deprecated {
		w.Line("@Deprecated")
	}
	w.Linef("public class %s extends DataPacket {", pkt.Name)
	w.Blank()
	w.Indent()

	w.Linef("public static final String TYPE = \"%s\";", pkt.Path)
	w.Blank()

	for _, f := range pkt.Fields {
		w.Linef("private %s %s;", typemap.Native(f.Type, typemap.Java), naming.Camel(f.Name))
	}
	w.Blank()

	w.Linef("public %s() {}", pkt.Name)
	w.Blank()

	if len(pkt.Fields) > 0 {
		w.Writef("public %s(", pkt.Name)
		for i, f := range pkt.Fields {
			if i > 0 {
				w.Write(", ")
			}
			w.Writef("%s %s", typemap.Native(f.Type, typemap.Java), naming.Camel(f.Name))
		}
		w.Line(") {")
		w.Indent()
		for _, f := range pkt.Fields {
			camel := naming.Camel(f.Name)
			w.Linef("this.%s = %s;", camel, camel)
		}
		w.Dedent()
		w.Line("}")
		w.Blank()
	}

	for _, f := range pkt.Fields {
		javaType := typemap.Native(f.Type, typemap.Java)
		camel := naming.Camel(f.Name)
		pascal := naming.Pascal(f.Name)
		if f.Deprecated {
			w.Line("@Deprecated")
		}
		w.Linef("public %s get%s() {", javaType, pascal)
		w.Indent()
		w.Linef("return %s;", camel)
		w.Dedent()
		w.Line("}")
		w.Blank()
		if f.Deprecated {
			w.Line("@Deprecated")
		}
		w.Linef("public void set%s(%s %s) {", pascal, javaType, camel)
		w.Indent()
		w.Linef("this.%s = %s;", camel, camel)
		w.Dedent()
		w.Line("}")
		w.Blank()
	}

	w.Line("@Override")
	w.Line("public String getType() {")
	w.Indent()
	w.Line("return TYPE;")
	w.Dedent()
	w.Line("}")
	w.Blank()

	w.Line("@Override")
	w.Line("protected Map<String, Object> toMap() {")
	w.Indent()
	w.Line("Map<String, Object> map = new HashMap<>();")
	w.Linef("map.put(\"%s\", TYPE);", g.cfg.TypeField)
	for _, f := range pkt.Fields {
		camel := naming.Camel(f.Name)
		switch f.Type {
		case schema.TagDateTime:
			w.Linef("map.put(\"%s\", %s != null ? TIMESTAMP_FORMAT.format(%s) : null);", f.Name, camel, camel)
		case schema.TagTime:
			w.Linef("map.put(\"%s\", %s != null ? TIME_FORMAT.format(%s) : null);", f.Name, camel, camel)
		default:
			w.Linef("map.put(\"%s\", %s);", f.Name, camel)
		}
	}
	w.Line("return map;")
	w.Dedent()
	w.Line("}")
	w.Blank()

	if g.cfg.MsgPack {
		w.Line("public byte[] toMsgPack() throws Exception {")
		w.Indent()
		w.Line("MessageBufferPacker packer = MessagePack.newDefaultBufferPacker();")
		w.Line("packMap(packer, toMap());")
		w.Line("packer.close();")
		w.Line("return packer.toByteArray();")
		w.Dedent()
		w.Line("}")
		w.Blank()

		w.Linef("public static %s fromMsgPack(byte[] data) throws Exception {", pkt.Name)
		w.Indent()
		w.Line("return fromMap(unpackMap(data));")
		w.Dedent()
		w.Line("}")
		w.Blank()
	}

	g.generateFromMap(w, pkt)

	if g.cfg.JSON {
		w.Blank()
		w.Linef("public static %s fromJson(String json) throws Exception {", pkt.Name)
		w.Indent()
		w.Line("ObjectMapper mapper = new ObjectMapper();")
		w.Line("@SuppressWarnings(\"unchecked\")")
		w.Line("Map<String, Object> map = mapper.readValue(json, Map.class);")
		w.Line("return fromMap(map);")
		w.Dedent()
		w.Line("}")
	}

	w.Dedent()
	w.Line("}")

	return w.String()
}

func (g *Generator) generateFromMap(w *writer.Writer, pkt schema.Packet) {
	w.Linef("static %s fromMap(Map<String, Object> map) {", pkt.Name)
	w.Indent()
	w.Linef("%s packet = new %s();", pkt.Name, pkt.Name)
	for _, f := range pkt.Fields {
		camel := naming.Camel(f.Name)
		pascal := naming.Pascal(f.Name)
		val := camel + "Val"
		w.Linef("Object %s = map.get(\"%s\");", val, f.Name)
		switch f.Type {
		case schema.TagDateTime:
			w.Linef("if (%s != null) packet.set%s(ZonedDateTime.parse(%s.toString()));", val, pascal, val)
		case schema.TagTime:
			w.Linef("if (%s != null) packet.set%s(LocalTime.parse(%s.toString()));", val, pascal, val)
		case schema.TagInt:
			w.Linef("if (%s instanceof Number) packet.set%s(((Number) %s).longValue());", val, pascal, val)
		case schema.TagFloat, schema.TagDouble:
			w.Linef("if (%s instanceof Number) packet.set%s(((Number) %s).doubleValue());", val, pascal, val)
		case schema.TagBool:
			w.Linef("if (%s instanceof Boolean) packet.set%s((Boolean) %s);", val, pascal, val)
		case schema.TagString:
			w.Linef("if (%s != null) packet.set%s(%s.toString());", val, pascal, val)
		case schema.TagBytes:
			w.Linef("if (%s instanceof byte[]) {", val)
			w.Indent()
			w.Linef("packet.set%s((byte[]) %s);", pascal, val)
			w.Dedent()
			w.Linef("} else if (%s instanceof String) {", val)
			w.Indent()
			w.Linef("packet.set%s(Base64.getDecoder().decode((String) %s));", pascal, val)
			w.Dedent()
			w.Line("}")
		case schema.TagListInt:
			w.Linef("if (%s instanceof List) {", val)
			w.Indent()
			w.Linef("List<Long> %sItems = new ArrayList<>();", camel)
			w.Linef("for (Object item : (List<?>) %s) { %sItems.add(((Number) item).longValue()); }", val, camel)
			w.Linef("packet.set%s(%sItems);", pascal, camel)
			w.Dedent()
			w.Line("}")
		case schema.TagListString:
			w.Linef("if (%s instanceof List) {", val)
			w.Indent()
			w.Linef("List<String> %sItems = new ArrayList<>();", camel)
			w.Linef("for (Object item : (List<?>) %s) { %sItems.add(String.valueOf(item)); }", val, camel)
			w.Linef("packet.set%s(%sItems);", pascal, camel)
			w.Dedent()
			w.Line("}")
		case schema.TagList:
			w.Linef("if (%s instanceof List) {", val)
			w.Indent()
			w.Linef("packet.set%s(new ArrayList<>((List<?>) %s));", pascal, val)
			w.Dedent()
			w.Line("}")
		case schema.TagMap, schema.TagMapStringAny:
			w.Linef("if (%s instanceof Map) {", val)
			w.Indent()
			w.Linef("packet.set%s(normalizeMap((Map<?, ?>) %s));", pascal, val)
			w.Dedent()
			w.Line("}")
		case schema.TagEmbeddedMap:
			w.Linef("if (%s instanceof Map) {", val)
			w.Indent()
			w.Linef("packet.set%s(new HashMap<>(normalizeMap((Map<?, ?>) %s)));", pascal, val)
			w.Dedent()
			w.Line("}")
		default:
			w.Linef("packet.set%s(%s);", pascal, val)
		}
	}
	w.Line("return packet;")
	w.Dedent()
	w.Line("}")
}
