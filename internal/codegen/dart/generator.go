// Package dart generates Dart packet code.
package dart

import (
	"fmt"

	"github.com/crosspacket/crosspacket/internal/codegen/naming"
	"github.com/crosspacket/crosspacket/internal/codegen/typemap"
	"github.com/crosspacket/crosspacket/internal/codegen/writer"
	"github.com/crosspacket/crosspacket/internal/schema"
)

// Config holds the Dart target options.
type Config struct {
	TypeField string
	JSON      bool
	MsgPack   bool
	Indent    string
}

// Generator emits a data_packet.dart base library plus one library per
// packet under generated/. Dart has no Flutter-free time-of-day type, so the
// base library carries a generated TimeOfDay class when any packet needs it.
type Generator struct {
	cfg Config
}

// New creates a Dart code generator.
func New(cfg Config) *Generator {
	if cfg.TypeField == "" {
		cfg.TypeField = schema.DefaultTypeField
	}
	if cfg.Indent == "" {
		cfg.Indent = "  "
	}
	return &Generator{cfg: cfg}
}

// Target returns the canonical target name.
func (g *Generator) Target() string {
	return "dart"
}

// FileExtension returns the file extension for generated files.
func (g *Generator) FileExtension() string {
	return ".dart"
}

// Generate produces all Dart artifacts for the schema.
func (g *Generator) Generate(s *schema.Schema) (map[string]string, error) {
	files := make(map[string]string, len(s.Packets)+1)
	files["data_packet.dart"] = g.generateBase(s)
	for _, pkt := range s.Packets {
		files["generated/"+naming.Snake(pkt.Name)+".dart"] = g.generatePacket(pkt)
	}
	return files, nil
}

// generateBase emits the abstract DataPacket class with the decoder registry.
func (g *Generator) generateBase(s *schema.Schema) string {
	w := writer.New(g.cfg.Indent)

	w.Line("// This file is auto-generated. Do not modify manually.")
	w.Line("// Generated by CrossPacket")
	if g.cfg.JSON {
		w.Line("import 'dart:convert';")
	}
	w.Line("import 'dart:typed_data';")
	if g.cfg.MsgPack {
		w.Line("import 'package:msgpack_dart/msgpack_dart.dart' as msgpack;")
	}
	for _, pkt := range s.Packets {
		w.Linef("import './generated/%s.dart';", naming.Snake(pkt.Name))
	}
	w.Blank()

	hasTime := false
	for _, pkt := range s.Packets {
		if pkt.HasTime() {
			hasTime = true
			break
		}
	}
	if hasTime {
		g.generateTimeOfDay(w)
		w.Blank()
	}

	w.Line("/// Base class for all data packets.")
	w.Line("abstract class DataPacket {")
	w.Indent()
	w.Line("/// The packet type identifier.")
	w.Line("String get type;")
	w.Blank()
	w.Line("/// Serializes the packet to a Map.")
	w.Line("Map<String, dynamic> serialize();")
	w.Blank()
	w.Line("/// Registry of packet type identifier to decoder.")
	if len(s.Packets) == 0 {
		w.Line("static final Map<String, DataPacket Function(Map<String, dynamic>)> _decoders = {};")
	} else {
		w.Line("static final Map<String, DataPacket Function(Map<String, dynamic>)> _decoders = {")
		w.Indent()
		for _, pkt := range s.Packets {
			w.Linef("'%s': %s.fromMap,", pkt.Path, pkt.Name)
		}
		w.Dedent()
		w.Line("};")
	}

	if g.cfg.JSON {
		w.Blank()
		w.Line("/// Converts the packet to a JSON string.")
		w.Line("String toJson() => jsonEncode(serialize());")
		w.Blank()
		w.Line("/// Creates a DataPacket from a JSON string.")
		w.Line("static DataPacket fromJson(String jsonString) {")
		w.Indent()
		w.Line("return deserialize(jsonDecode(jsonString) as Map<String, dynamic>);")
		w.Dedent()
		w.Line("}")
	}

	if g.cfg.MsgPack {
		w.Blank()
		w.Line("/// Serializes the packet to MessagePack binary format.")
		w.Line("Uint8List toMsgPack() => msgpack.serialize(serialize());")
		w.Blank()
		w.Line("/// Creates a DataPacket from MessagePack binary data.")
		w.Line("static DataPacket fromMsgPack(Uint8List bytes) {")
		w.Indent()
		w.Line("final data = msgpack.deserialize(bytes);")
		w.Line("return deserialize(Map<String, dynamic>.from(data as Map));")
		w.Dedent()
		w.Line("}")
	}

	w.Blank()
	w.Line("/// Creates a DataPacket from a deserialized Map.")
	w.Line("static DataPacket deserialize(Map<String, dynamic> data) {")
	w.Indent()
	w.Linef("final decoder = _decoders[data['%s']];", g.cfg.TypeField)
	w.Line("if (decoder == null) {")
	w.Indent()
	w.Linef("throw UnimplementedError('Unknown packet type: ${data['%s']}');", g.cfg.TypeField)
	w.Dedent()
	w.Line("}")
	w.Line("return decoder(data);")
	w.Dedent()
	w.Line("}")
	w.Dedent()
	w.Line("}")

	return w.String()
}

func (g *Generator) generateTimeOfDay(w *writer.Writer) {
	w.Line("/// A pure Dart TimeOfDay class (no Flutter dependency).")
	w.Line("/// Represents a time of day with hour and minute components.")
	w.Line("class TimeOfDay {")
	w.Indent()
	w.Line("/// The hour of the day, from 0 to 23.")
	w.Line("final int hour;")
	w.Line("/// The minute of the hour, from 0 to 59.")
	w.Line("final int minute;")
	w.Blank()
	w.Line("/// Creates a TimeOfDay with the given hour and minute.")
	w.Line("const TimeOfDay({required this.hour, required this.minute});")
	w.Blank()
	w.Line("/// Formats the time as HH:mm.")
	w.Line("String format() {")
	w.Indent()
	w.Line("final h = hour.toString().padLeft(2, '0');")
	w.Line("final m = minute.toString().padLeft(2, '0');")
	w.Line("return '$h:$m';")
	w.Dedent()
	w.Line("}")
	w.Blank()
	w.Line("@override")
	w.Line("String toString() => 'TimeOfDay(hour: $hour, minute: $minute)';")
	w.Blank()
	w.Line("@override")
	w.Line("bool operator ==(Object other) {")
	w.Indent()
	w.Line("return other is TimeOfDay && other.hour == hour && other.minute == minute;")
	w.Dedent()
	w.Line("}")
	w.Blank()
	w.Line("@override")
	w.Line("int get hashCode => hour.hashCode ^ minute.hashCode;")
	w.Dedent()
	w.Line("}")
}

// generatePacket emits one packet library.
func (g *Generator) generatePacket(pkt schema.Packet) string {
	w := writer.New(g.cfg.Indent)

	w.Line("// This file is auto-generated. Do not modify manually.")
	w.Line("// Generated by CrossPacket")
	if g.cfg.JSON || pkt.HasBytes() {
		w.Line("import 'dart:convert';")
	}
	if g.cfg.MsgPack || pkt.HasBytes() {
		w.Line("import 'dart:typed_data';")
	}
	if g.cfg.MsgPack {
		w.Line("import 'package:msgpack_dart/msgpack_dart.dart' as msgpack;")
	}
	w.Line("import '../data_packet.dart';")
	w.Blank()

	if pkt.HasDateTime() {
		g.generateDateTimeHelper(w)
		w.Blank()
	}
	if pkt.HasBytes() {
		g.generateBytesHelper(w)
		w.Blank()
	}
	if pkt.HasEmbeddedMap() {
		g.generateDeepConvertHelper(w)
		w.Blank()
	}

	if pkt.Description != "" {
		w.DocComment("///", pkt.Description)
	}
	if pkt.Deprecated {
		w.Line("@Deprecated('Retained for wire compatibility only.')")
	}
	w.Linef("class %s extends DataPacket {", pkt.Name)
	w.Indent()

	// All fields nullable and non-final to support the setter pattern.
	for _, f := range pkt.Fields {
		if f.Description != "" {
			w.DocComment("///", f.Description)
		}
		if f.Deprecated {
			w.Line("@Deprecated('Retained for wire compatibility only.')")
		}
		w.Linef("%s? %s;", typemap.Native(f.Type, typemap.Dart), f.Name)
	}
	w.Blank()

	w.Linef("/// Creates an empty [%s]. Use setters to populate fields.", pkt.Name)
	w.Linef("%s();", pkt.Name)
	w.Blank()

	if len(pkt.Fields) > 0 {
		w.Linef("/// Creates a [%s] with all fields.", pkt.Name)
		w.Linef("%s.create({", pkt.Name)
		w.Indent()
		for _, f := range pkt.Fields {
			w.Linef("this.%s,", f.Name)
		}
		w.Dedent()
		w.Line("});")
		w.Blank()
	}

	w.Line("@override")
	w.Linef("String get type => '%s';", pkt.Path)
	w.Blank()

	w.Line("@override")
	w.Line("Map<String, dynamic> serialize() => _toMap(forJson: true);")
	w.Blank()

	// Bytes are base64 text in JSON but native binary in MessagePack.
	w.Line("Map<String, dynamic> _toMap({required bool forJson}) => {")
	w.Indent()
	w.Linef("'%s': type,", g.cfg.TypeField)
	for _, f := range pkt.Fields {
		w.Linef("'%s': %s,", f.Name, g.encodeExpr(f))
	}
	w.Dedent()
	w.Line("};")
	w.Blank()

	w.Linef("/// Creates a [%s] from a decoded map.", pkt.Name)
	w.Linef("static %s fromMap(Map<String, dynamic> json) =>", pkt.Name)
	w.Indent()
	if len(pkt.Fields) == 0 {
		w.Linef("%s();", pkt.Name)
	} else {
		w.Linef("%s.create(", pkt.Name)
		w.Indent()
		for _, f := range pkt.Fields {
			w.Linef("%s: %s,", f.Name, g.decodeExpr(f))
		}
		w.Dedent()
		w.Line(");")
	}
	w.Dedent()
	w.Blank()

	if g.cfg.JSON {
		w.Line("/// Serializes this packet to a JSON string.")
		w.Line("@override")
		w.Line("String toJson() => jsonEncode(serialize());")
		w.Blank()
		w.Linef("/// Creates a [%s] from a JSON string.", pkt.Name)
		w.Linef("static %s fromJson(String jsonString) {", pkt.Name)
		w.Indent()
		w.Line("return fromMap(jsonDecode(jsonString) as Map<String, dynamic>);")
		w.Dedent()
		w.Line("}")
		w.Blank()
	}

	if g.cfg.MsgPack {
		w.Line("/// Serializes this packet to MessagePack binary format.")
		w.Line("@override")
		w.Line("Uint8List toMsgPack() => msgpack.serialize(_toMap(forJson: false));")
		w.Blank()
		w.Linef("/// Creates a [%s] from MessagePack binary data.", pkt.Name)
		w.Linef("static %s fromMsgPack(Uint8List bytes) {", pkt.Name)
		w.Indent()
		w.Line("final data = msgpack.deserialize(bytes);")
		w.Line("return fromMap(Map<String, dynamic>.from(data as Map));")
		w.Dedent()
		w.Line("}")
	}

	w.Dedent()
	w.Line("}")

	return w.String()
}

func (g *Generator) generateDateTimeHelper(w *writer.Writer) {
	w.Line("/// Formats a DateTime with a 3-digit fraction and explicit offset.")
	w.Line("String _formatDateTimeWithTimezone(DateTime dt) {")
	w.Indent()
	w.Line("final offset = dt.timeZoneOffset;")
	w.Line("final offsetSign = offset.isNegative ? '-' : '+';")
	w.Line("final offsetHours = offset.abs().inHours.toString().padLeft(2, '0');")
	w.Line("final offsetMinutes = (offset.abs().inMinutes % 60).toString().padLeft(2, '0');")
	w.Line("final year = dt.year.toString().padLeft(4, '0');")
	w.Line("final month = dt.month.toString().padLeft(2, '0');")
	w.Line("final day = dt.day.toString().padLeft(2, '0');")
	w.Line("final hour = dt.hour.toString().padLeft(2, '0');")
	w.Line("final minute = dt.minute.toString().padLeft(2, '0');")
	w.Line("final second = dt.second.toString().padLeft(2, '0');")
	w.Line("final millisecond = dt.millisecond.toString().padLeft(3, '0');")
	w.Line("return '$year-$month-${day}T$hour:$minute:$second.$millisecond$offsetSign$offsetHours:$offsetMinutes';")
	w.Dedent()
	w.Line("}")
}

func (g *Generator) generateBytesHelper(w *writer.Writer) {
	w.Line("/// Accepts native binary or padded base64 text.")
	w.Line("Uint8List _asBytes(dynamic value) {")
	w.Indent()
	w.Line("if (value is Uint8List) return value;")
	w.Line("if (value is String) return base64Decode(value);")
	w.Line("return Uint8List.fromList(List<int>.from(value as List));")
	w.Dedent()
	w.Line("}")
}

func (g *Generator) generateDeepConvertHelper(w *writer.Writer) {
	w.Line("/// Safely converts nested msgpack maps to Map<String, dynamic>.")
	w.Line("Map<String, dynamic> _deepConvertMap(dynamic value) {")
	w.Indent()
	w.Line("if (value == null) return {};")
	w.Line("if (value is! Map) return {};")
	w.Line("return _safeMapConvert(value);")
	w.Dedent()
	w.Line("}")
	w.Blank()
	w.Line("/// Recursively converts List elements.")
	w.Line("List<dynamic> _safeListConvert(List<dynamic> list) {")
	w.Indent()
	w.Line("return list.map((item) {")
	w.Indent()
	w.Line("if (item is Map) return _safeMapConvert(item);")
	w.Line("if (item is List) return _safeListConvert(item);")
	w.Line("return item;")
	w.Dedent()
	w.Line("}).toList();")
	w.Dedent()
	w.Line("}")
	w.Blank()
	w.Line("/// Recursively converts Map<dynamic, dynamic> to Map<String, dynamic>.")
	w.Line("Map<String, dynamic> _safeMapConvert(Map<dynamic, dynamic> map) {")
	w.Indent()
	w.Line("return map.map((key, value) {")
	w.Indent()
	w.Line("final stringKey = key?.toString() ?? '';")
	w.Line("dynamic convertedValue;")
	w.Line("if (value is Map) {")
	w.Indent()
	w.Line("convertedValue = _safeMapConvert(value);")
	w.Dedent()
	w.Line("} else if (value is List) {")
	w.Indent()
	w.Line("convertedValue = _safeListConvert(value);")
	w.Dedent()
	w.Line("} else {")
	w.Indent()
	w.Line("convertedValue = value;")
	w.Dedent()
	w.Line("}")
	w.Line("return MapEntry(stringKey, convertedValue);")
	w.Dedent()
	w.Line("});")
	w.Dedent()
	w.Line("}")
}

// encodeExpr renders the serialize() value expression for a field.
func (g *Generator) encodeExpr(f schema.Field) string {
	name := f.Name
	switch f.Type {
	case schema.TagDateTime:
		return fmt.Sprintf("%s != null ? _formatDateTimeWithTimezone(%s!) : null", name, name)
	case schema.TagTime:
		return fmt.Sprintf("%s?.format()", name)
	case schema.TagBytes:
		return fmt.Sprintf("forJson && %s != null ? base64Encode(%s!) : %s", name, name, name)
	default:
		return name
	}
}

// decodeExpr renders the fromMap value expression for a field.
func (g *Generator) decodeExpr(f schema.Field) string {
	name := f.Name
	getter := fmt.Sprintf("json['%s']", name)
	switch f.Type {
	case schema.TagDateTime:
		return fmt.Sprintf("%s != null ? DateTime.parse(%s) : null", getter, getter)
	case schema.TagTime:
		return fmt.Sprintf("%s != null ? TimeOfDay(hour: int.parse(%s.split(':')[0]), minute: int.parse(%s.split(':')[1])) : null", getter, getter, getter)
	case schema.TagFloat, schema.TagDouble:
		return fmt.Sprintf("(%s as num?)?.toDouble()", getter)
	case schema.TagList:
		return fmt.Sprintf("%s as List<dynamic>?", getter)
	case schema.TagListInt:
		return fmt.Sprintf("(%s as List<dynamic>?)?.map((e) => e as int).toList()", getter)
	case schema.TagListString:
		return fmt.Sprintf("(%s as List<dynamic>?)?.map((e) => e.toString()).toList()", getter)
	case schema.TagEmbeddedMap:
		return fmt.Sprintf("%s != null ? _deepConvertMap(%s) : null", getter, getter)
	case schema.TagMap, schema.TagMapStringAny:
		return fmt.Sprintf("%s != null ? Map<String, dynamic>.from(%s as Map) : null", getter, getter)
	case schema.TagBytes:
		return fmt.Sprintf("%s != null ? _asBytes(%s) : null", getter, getter)
	default:
		return getter
	}
}
