// Package csharp generates C# packet code backed by System.Text.Json and
// MessagePack-CSharp.
package csharp

import (
	"strings"

	"github.com/crosspacket/crosspacket/internal/codegen/naming"
	"github.com/crosspacket/crosspacket/internal/codegen/typemap"
	"github.com/crosspacket/crosspacket/internal/codegen/writer"
	"github.com/crosspacket/crosspacket/internal/schema"
)

// Config holds the C# target options.
type Config struct {
	TypeField string
	JSON      bool
	MsgPack   bool
	Indent    string
	Namespace string
}

// Generator emits one class per packet plus DataPacket.cs, which carries the
// dispatch registry and the wire-format converters shared by all packets.
type Generator struct {
	cfg Config
}

// New creates a C# code generator.
func New(cfg Config) *Generator {
	if cfg.TypeField == "" {
		cfg.TypeField = schema.DefaultTypeField
	}
	if cfg.Indent == "" {
		cfg.Indent = "    "
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "CrossPacket"
	}
	return &Generator{cfg: cfg}
}

// Target returns the canonical target name.
func (g *Generator) Target() string {
	return "csharp"
}

// FileExtension returns the file extension for generated files.
func (g *Generator) FileExtension() string {
	return ".cs"
}

// Generate produces all C# artifacts for the schema.
func (g *Generator) Generate(s *schema.Schema) (map[string]string, error) {
	files := make(map[string]string, len(s.Packets)+1)
	files["DataPacket.cs"] = g.generateBase(s)
	for _, pkt := range s.Packets {
		files[pkt.Name+".cs"] = g.generatePacket(pkt)
	}
	return files, nil
}

// generateBase emits DataPacket.cs: the dispatch entry points plus the
// converters that pin timestamps to offset strings with a 3-digit fraction
// and times to HH:mm in both formats.
func (g *Generator) generateBase(s *schema.Schema) string {
	w := writer.New(g.cfg.Indent)
	w.Line("// Auto-generated by CrossPacket - do not modify manually")
	w.Line("using System;")
	if g.cfg.MsgPack {
		w.Line("using System.Collections;")
	}
	w.Line("using System.Collections.Generic;")
	w.Line("using System.Globalization;")
	if g.cfg.JSON {
		w.Line("using System.Text.Json;")
		w.Line("using System.Text.Json.Serialization;")
	}
	if g.cfg.MsgPack {
		w.Line("using MessagePack;")
		w.Line("using MessagePack.Formatters;")
	}
	w.Blank()
	w.Linef("namespace %s", g.cfg.Namespace)
	w.Line("{")
	w.Indent()

	w.Line("/// <summary>")
	w.Line("/// Entry points for decoding any known packet by its type identifier.")
	w.Line("/// </summary>")
	w.Line("public static class DataPacket")
	w.Line("{")
	w.Indent()
	w.Line("public const string TimestampFormat = \"yyyy-MM-dd'T'HH:mm:ss.fffzzz\";")
	w.Line("public const string TimeFormat = @\"hh\\:mm\";")
	w.Blank()

	if g.cfg.JSON {
		w.Line("private static readonly Dictionary<string, Func<string, object?>> JsonRegistry = new()")
		w.Line("{")
		w.Indent()
		for _, pkt := range s.Packets {
			w.Linef("[\"%s\"] = json => %s.FromJson(json),", pkt.Path, pkt.Name)
		}
		w.Dedent()
		w.Line("};")
		w.Blank()
	}
	if g.cfg.MsgPack {
		w.Line("private static readonly Dictionary<string, Func<byte[], object>> MsgPackRegistry = new()")
		w.Line("{")
		w.Indent()
		for _, pkt := range s.Packets {
			w.Linef("[\"%s\"] = data => %s.FromMsgPack(data),", pkt.Path, pkt.Name)
		}
		w.Dedent()
		w.Line("};")
		w.Blank()
	}

	if g.cfg.JSON {
		w.Line("/// <summary>Decodes any known packet from its JSON encoding.</summary>")
		w.Line("/// <exception cref=\"ArgumentException\">The type identifier is not registered.</exception>")
		w.Line("public static object? Deserialize(string json)")
		w.Line("{")
		w.Indent()
		w.Line("using var doc = JsonDocument.Parse(json);")
		w.Linef("string type = doc.RootElement.TryGetProperty(\"%s\", out var typeValue)", g.cfg.TypeField)
		w.Indent()
		w.Line("? typeValue.GetString() ?? \"\"")
		w.Line(": \"\";")
		w.Dedent()
		w.Line("if (JsonRegistry.TryGetValue(type, out var decoder))")
		w.Line("{")
		w.Indent()
		w.Line("return decoder(json);")
		w.Dedent()
		w.Line("}")
		w.Line("throw new ArgumentException($\"Unknown packet type: {type}\");")
		w.Dedent()
		w.Line("}")
		w.Blank()
	}

	if g.cfg.MsgPack {
		w.Line("/// <summary>Decodes any known packet from its MessagePack encoding.</summary>")
		w.Line("/// <exception cref=\"ArgumentException\">The type identifier is not registered.</exception>")
		w.Line("public static object DeserializeMsgPack(byte[] data)")
		w.Line("{")
		w.Indent()
		w.Line("var raw = MessagePackSerializer.Deserialize<Dictionary<object, object>>(data);")
		w.Linef("string type = raw.TryGetValue(\"%s\", out var typeValue)", g.cfg.TypeField)
		w.Indent()
		w.Line("? typeValue as string ?? \"\"")
		w.Line(": \"\";")
		w.Dedent()
		w.Line("if (MsgPackRegistry.TryGetValue(type, out var decoder))")
		w.Line("{")
		w.Indent()
		w.Line("return decoder(data);")
		w.Dedent()
		w.Line("}")
		w.Line("throw new ArgumentException($\"Unknown packet type: {type}\");")
		w.Dedent()
		w.Line("}")
		w.Blank()

		w.Line("/// <summary>Recursively converts a loose container decoded from binary data.</summary>")
		w.Line("public static object? NormalizeValue(object? value)")
		w.Line("{")
		w.Indent()
		w.Line("return value switch")
		w.Line("{")
		w.Indent()
		w.Line("null => null,")
		w.Line("string or byte[] => value,")
		w.Line("IDictionary => NormalizeMap(value),")
		w.Line("IEnumerable => NormalizeList(value),")
		w.Line("_ => value,")
		w.Dedent()
		w.Line("};")
		w.Dedent()
		w.Line("}")
		w.Blank()

		w.Line("/// <summary>Converts any decoded map into a string-keyed dictionary, walking nested containers.</summary>")
		w.Line("public static Dictionary<string, object> NormalizeMap(object? value)")
		w.Line("{")
		w.Indent()
		w.Line("var result = new Dictionary<string, object>();")
		w.Line("if (value is not IDictionary map)")
		w.Line("{")
		w.Indent()
		w.Line("return result;")
		w.Dedent()
		w.Line("}")
		w.Line("foreach (DictionaryEntry entry in map)")
		w.Line("{")
		w.Indent()
		w.Line("result[entry.Key?.ToString() ?? \"\"] = NormalizeValue(entry.Value)!;")
		w.Dedent()
		w.Line("}")
		w.Line("return result;")
		w.Dedent()
		w.Line("}")
		w.Blank()

		w.Line("/// <summary>Converts any decoded sequence into a list, walking nested containers.</summary>")
		w.Line("public static List<object> NormalizeList(object? value)")
		w.Line("{")
		w.Indent()
		w.Line("var result = new List<object>();")
		w.Line("if (value is not IEnumerable items || value is string || value is byte[])")
		w.Line("{")
		w.Indent()
		w.Line("return result;")
		w.Dedent()
		w.Line("}")
		w.Line("foreach (var item in items)")
		w.Line("{")
		w.Indent()
		w.Line("result.Add(NormalizeValue(item)!);")
		w.Dedent()
		w.Line("}")
		w.Line("return result;")
		w.Dedent()
		w.Line("}")
	}
	w.Dedent()
	w.Line("}")
	w.Blank()

	if g.cfg.JSON {
		w.Line("/// <summary>Serializes timestamps as offset strings with a 3-digit fraction.</summary>")
		w.Line("public class TimestampConverter : JsonConverter<DateTimeOffset?>")
		w.Line("{")
		w.Indent()
		w.Line("public override DateTimeOffset? Read(ref Utf8JsonReader reader, Type typeToConvert, JsonSerializerOptions options)")
		w.Line("{")
		w.Indent()
		w.Line("if (reader.TokenType == JsonTokenType.Null)")
		w.Line("{")
		w.Indent()
		w.Line("return null;")
		w.Dedent()
		w.Line("}")
		w.Line("return DateTimeOffset.Parse(reader.GetString()!, CultureInfo.InvariantCulture);")
		w.Dedent()
		w.Line("}")
		w.Blank()
		w.Line("public override void Write(Utf8JsonWriter writer, DateTimeOffset? value, JsonSerializerOptions options)")
		w.Line("{")
		w.Indent()
		w.Line("if (value is null)")
		w.Line("{")
		w.Indent()
		w.Line("writer.WriteNullValue();")
		w.Dedent()
		w.Line("}")
		w.Line("else")
		w.Line("{")
		w.Indent()
		w.Line("writer.WriteStringValue(value.Value.ToString(DataPacket.TimestampFormat, CultureInfo.InvariantCulture));")
		w.Dedent()
		w.Line("}")
		w.Dedent()
		w.Line("}")
		w.Dedent()
		w.Line("}")
		w.Blank()

		w.Line("/// <summary>Serializes times of day as HH:mm strings.</summary>")
		w.Line("public class TimeOfDayConverter : JsonConverter<TimeSpan?>")
		w.Line("{")
		w.Indent()
		w.Line("public override TimeSpan? Read(ref Utf8JsonReader reader, Type typeToConvert, JsonSerializerOptions options)")
		w.Line("{")
		w.Indent()
		w.Line("if (reader.TokenType == JsonTokenType.Null)")
		w.Line("{")
		w.Indent()
		w.Line("return null;")
		w.Dedent()
		w.Line("}")
		w.Line("return TimeSpan.Parse(reader.GetString()!, CultureInfo.InvariantCulture);")
		w.Dedent()
		w.Line("}")
		w.Blank()
		w.Line("public override void Write(Utf8JsonWriter writer, TimeSpan? value, JsonSerializerOptions options)")
		w.Line("{")
		w.Indent()
		w.Line("if (value is null)")
		w.Line("{")
		w.Indent()
		w.Line("writer.WriteNullValue();")
		w.Dedent()
		w.Line("}")
		w.Line("else")
		w.Line("{")
		w.Indent()
		w.Line("writer.WriteStringValue(value.Value.ToString(DataPacket.TimeFormat, CultureInfo.InvariantCulture));")
		w.Dedent()
		w.Line("}")
		w.Dedent()
		w.Line("}")
		w.Dedent()
		w.Line("}")
		w.Blank()
	}

	if g.cfg.MsgPack {
		w.Line("/// <summary>MessagePack timestamps use the same offset string as JSON.</summary>")
		w.Line("public class TimestampFormatter : IMessagePackFormatter<DateTimeOffset?>")
		w.Line("{")
		w.Indent()
		w.Line("public void Serialize(ref MessagePackWriter writer, DateTimeOffset? value, MessagePackSerializerOptions options)")
		w.Line("{")
		w.Indent()
		w.Line("if (value is null)")
		w.Line("{")
		w.Indent()
		w.Line("writer.WriteNil();")
		w.Dedent()
		w.Line("}")
		w.Line("else")
		w.Line("{")
		w.Indent()
		w.Line("writer.Write(value.Value.ToString(DataPacket.TimestampFormat, CultureInfo.InvariantCulture));")
		w.Dedent()
		w.Line("}")
		w.Dedent()
		w.Line("}")
		w.Blank()
		w.Line("public DateTimeOffset? Deserialize(ref MessagePackReader reader, MessagePackSerializerOptions options)")
		w.Line("{")
		w.Indent()
		w.Line("if (reader.TryReadNil())")
		w.Line("{")
		w.Indent()
		w.Line("return null;")
		w.Dedent()
		w.Line("}")
		w.Line("return DateTimeOffset.Parse(reader.ReadString()!, CultureInfo.InvariantCulture);")
		w.Dedent()
		w.Line("}")
		w.Dedent()
		w.Line("}")
		w.Blank()

		w.Line("/// <summary>MessagePack times of day use the same HH:mm string as JSON.</summary>")
		w.Line("public class TimeOfDayFormatter : IMessagePackFormatter<TimeSpan?>")
		w.Line("{")
		w.Indent()
		w.Line("public void Serialize(ref MessagePackWriter writer, TimeSpan? value, MessagePackSerializerOptions options)")
		w.Line("{")
		w.Indent()
		w.Line("if (value is null)")
		w.Line("{")
		w.Indent()
		w.Line("writer.WriteNil();")
		w.Dedent()
		w.Line("}")
		w.Line("else")
		w.Line("{")
		w.Indent()
		w.Line("writer.Write(value.Value.ToString(DataPacket.TimeFormat, CultureInfo.InvariantCulture));")
		w.Dedent()
		w.Line("}")
		w.Dedent()
		w.Line("}")
		w.Blank()
		w.Line("public TimeSpan? Deserialize(ref MessagePackReader reader, MessagePackSerializerOptions options)")
		w.Line("{")
		w.Indent()
		w.Line("if (reader.TryReadNil())")
		w.Line("{")
		w.Indent()
		w.Line("return null;")
		w.Dedent()
		w.Line("}")
		w.Line("return TimeSpan.Parse(reader.ReadString()!, CultureInfo.InvariantCulture);")
		w.Dedent()
		w.Line("}")
		w.Dedent()
		w.Line("}")
		w.Blank()

		w.Line("/// <summary>Decodes loose maps with any key type into string-keyed dictionaries.</summary>")
		w.Line("public class LooseMapFormatter : IMessagePackFormatter<Dictionary<string, object>?>")
		w.Line("{")
		w.Indent()
		w.Line("public void Serialize(ref MessagePackWriter writer, Dictionary<string, object>? value, MessagePackSerializerOptions options)")
		w.Line("{")
		w.Indent()
		w.Line("if (value is null)")
		w.Line("{")
		w.Indent()
		w.Line("writer.WriteNil();")
		w.Line("return;")
		w.Dedent()
		w.Line("}")
		w.Line("var formatter = options.Resolver.GetFormatterWithVerify<object>();")
		w.Line("writer.WriteMapHeader(value.Count);")
		w.Line("foreach (var pair in value)")
		w.Line("{")
		w.Indent()
		w.Line("writer.Write(pair.Key);")
		w.Line("formatter.Serialize(ref writer, pair.Value, options);")
		w.Dedent()
		w.Line("}")
		w.Dedent()
		w.Line("}")
		w.Blank()
		w.Line("public Dictionary<string, object>? Deserialize(ref MessagePackReader reader, MessagePackSerializerOptions options)")
		w.Line("{")
		w.Indent()
		w.Line("if (reader.TryReadNil())")
		w.Line("{")
		w.Indent()
		w.Line("return null;")
		w.Dedent()
		w.Line("}")
		w.Line("var raw = options.Resolver.GetFormatterWithVerify<object>().Deserialize(ref reader, options);")
		w.Line("return DataPacket.NormalizeMap(raw);")
		w.Dedent()
		w.Line("}")
		w.Dedent()
		w.Line("}")
		w.Blank()

		w.Line("/// <summary>Decodes loose lists, normalizing nested containers.</summary>")
		w.Line("public class LooseListFormatter : IMessagePackFormatter<List<object>?>")
		w.Line("{")
		w.Indent()
		w.Line("public void Serialize(ref MessagePackWriter writer, List<object>? value, MessagePackSerializerOptions options)")
		w.Line("{")
		w.Indent()
		w.Line("if (value is null)")
		w.Line("{")
		w.Indent()
		w.Line("writer.WriteNil();")
		w.Line("return;")
		w.Dedent()
		w.Line("}")
		w.Line("var formatter = options.Resolver.GetFormatterWithVerify<object>();")
		w.Line("writer.WriteArrayHeader(value.Count);")
		w.Line("foreach (var item in value)")
		w.Line("{")
		w.Indent()
		w.Line("formatter.Serialize(ref writer, item, options);")
		w.Dedent()
		w.Line("}")
		w.Dedent()
		w.Line("}")
		w.Blank()
		w.Line("public List<object>? Deserialize(ref MessagePackReader reader, MessagePackSerializerOptions options)")
		w.Line("{")
		w.Indent()
		w.Line("if (reader.TryReadNil())")
		w.Line("{")
		w.Indent()
		w.Line("return null;")
		w.Dedent()
		w.Line("}")
		w.Line("var raw = options.Resolver.GetFormatterWithVerify<object>().Deserialize(ref reader, options);")
		w.Line("return DataPacket.NormalizeList(raw);")
		w.Dedent()
		w.Line("}")
		w.Dedent()
		w.Line("}")
	}

	w.Dedent()
	w.Line("}")
	return w.String()
}

// generatePacket emits one packet class.
func (g *Generator) generatePacket(pkt schema.Packet) string {
	w := writer.New(g.cfg.Indent)
	w.Line("// Auto-generated by CrossPacket - do not modify manually")
	w.Line("using System;")
	w.Line("using System.Collections.Generic;")
	if g.cfg.JSON {
		w.Line("using System.Text.Json;")
		w.Line("using System.Text.Json.Serialization;")
	}
	if g.cfg.MsgPack {
		w.Line("using MessagePack;")
	}
	w.Blank()
	w.Linef("namespace %s", g.cfg.Namespace)
	w.Line("{")
	w.Indent()

	if pkt.Description != "" {
		w.Line("/// <summary>")
		w.DocComment("///", pkt.Description)
		w.Line("/// </summary>")
	}
	if pkt.Deprecated {
		w.Line("[Obsolete(\"Retained for wire compatibility only.\")]")
	}
	if g.cfg.MsgPack {
		w.Line("[MessagePackObject]")
	}
	w.Linef("public class %s", pkt.Name)
	w.Line("{")
	w.Indent()
	w.Linef("public const string TYPE = \"%s\";", pkt.Path)
	w.Blank()

	if g.cfg.MsgPack {
		w.Linef("[Key(\"%s\")]", g.cfg.TypeField)
	}
	if g.cfg.JSON {
		w.Linef("[JsonPropertyName(\"%s\")]", g.cfg.TypeField)
	}
	w.Line("public string Type { get; set; } = TYPE;")
	w.Blank()

	for _, f := range pkt.Fields {
		if f.Description != "" {
			w.Linef("/// <summary>%s</summary>", f.Description)
		}
		if g.cfg.MsgPack {
			w.Linef("[Key(\"%s\")]", f.Name)
		}
		if g.cfg.JSON {
			w.Linef("[JsonPropertyName(\"%s\")]", f.Name)
		}
		switch f.Type {
		case schema.TagDateTime:
			if g.cfg.JSON {
				w.Line("[JsonConverter(typeof(TimestampConverter))]")
			}
			if g.cfg.MsgPack {
				w.Line("[MessagePackFormatter(typeof(TimestampFormatter))]")
			}
		case schema.TagTime:
			if g.cfg.JSON {
				w.Line("[JsonConverter(typeof(TimeOfDayConverter))]")
			}
			if g.cfg.MsgPack {
				w.Line("[MessagePackFormatter(typeof(TimeOfDayFormatter))]")
			}
		case schema.TagMap, schema.TagEmbeddedMap, schema.TagMapStringAny:
			if g.cfg.MsgPack {
				w.Line("[MessagePackFormatter(typeof(LooseMapFormatter))]")
			}
		case schema.TagList:
			if g.cfg.MsgPack {
				w.Line("[MessagePackFormatter(typeof(LooseListFormatter))]")
			}
		}
		w.Linef("public %s %s { get; set; }", g.nullableType(f), naming.Pascal(f.Name))
		w.Blank()
	}

	w.Linef("public %s() { }", pkt.Name)
	w.Blank()

	if len(pkt.Fields) > 0 {
		params := make([]string, 0, len(pkt.Fields))
		for _, f := range pkt.Fields {
			params = append(params, g.nullableType(f)+" "+naming.Camel(f.Name))
		}
		w.Linef("public %s(%s)", pkt.Name, strings.Join(params, ", "))
		w.Line("{")
		w.Indent()
		for _, f := range pkt.Fields {
			w.Linef("this.%s = %s;", naming.Pascal(f.Name), naming.Camel(f.Name))
		}
		w.Dedent()
		w.Line("}")
		w.Blank()
	}

	if g.cfg.JSON {
		w.Line("public string ToJson()")
		w.Line("{")
		w.Indent()
		w.Line("return JsonSerializer.Serialize(this);")
		w.Dedent()
		w.Line("}")
		w.Blank()
		w.Linef("public static %s? FromJson(string json)", pkt.Name)
		w.Line("{")
		w.Indent()
		w.Linef("return JsonSerializer.Deserialize<%s>(json);", pkt.Name)
		w.Dedent()
		w.Line("}")
		w.Blank()
	}

	if g.cfg.MsgPack {
		w.Line("public byte[] ToMsgPack()")
		w.Line("{")
		w.Indent()
		w.Line("return MessagePackSerializer.Serialize(this);")
		w.Dedent()
		w.Line("}")
		w.Blank()
		w.Linef("public static %s FromMsgPack(byte[] data)", pkt.Name)
		w.Line("{")
		w.Indent()
		w.Linef("return MessagePackSerializer.Deserialize<%s>(data);", pkt.Name)
		w.Dedent()
		w.Line("}")
	}

	w.Dedent()
	w.Line("}")
	w.Dedent()
	w.Line("}")
	return w.String()
}

// nullableType returns the always-nullable property type for a field.
func (g *Generator) nullableType(f schema.Field) string {
	return typemap.Native(f.Type, typemap.CSharp) + "?"
}
