package csharp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosspacket/crosspacket/internal/schema"
)

func testSchema() *schema.Schema {
	return &schema.Schema{
		Global: schema.Global{TypeField: "packetType", JSON: true, MsgPack: true},
		Packets: []schema.Packet{
			{
				Path:        "chat/message",
				Name:        "ChatMessage",
				Description: "A chat message sent between users",
				Version:     1,
				Fields: []schema.Field{
					{Name: "sender_id", Type: schema.TagInt},
					{Name: "content", Type: schema.TagString},
					{Name: "sent_at", Type: schema.TagDateTime},
					{Name: "alarm_time", Type: schema.TagTime},
					{Name: "payload", Type: schema.TagBytes},
				},
			},
			{
				Path:    "system/ping",
				Name:    "Ping",
				Version: 1,
				Fields:  []schema.Field{{Name: "seq", Type: schema.TagInt}},
			},
		},
	}
}

func TestGenerator_Artifacts(t *testing.T) {
	// Test: DataPacket.cs plus one PascalCase class file per packet
	gen := New(Config{JSON: true, MsgPack: true})

	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	require.Len(t, files, 3)
	assert.Contains(t, files, "DataPacket.cs")
	assert.Contains(t, files, "ChatMessage.cs")
	assert.Contains(t, files, "Ping.cs")
}

func TestGenerator_BaseDispatch(t *testing.T) {
	// Test: both registries dispatch by type identifier and fail loudly
	gen := New(Config{JSON: true, MsgPack: true})

	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	base := files["DataPacket.cs"]
	assert.Contains(t, base, "namespace CrossPacket")
	assert.Contains(t, base, "public static class DataPacket")
	assert.Contains(t, base, `public const string TimestampFormat = "yyyy-MM-dd'T'HH:mm:ss.fffzzz";`)
	assert.Contains(t, base, `public const string TimeFormat = @"hh\:mm";`)
	assert.Contains(t, base, `["chat/message"] = json => ChatMessage.FromJson(json),`)
	assert.Contains(t, base, `["system/ping"] = data => Ping.FromMsgPack(data),`)
	assert.Contains(t, base, "public static object? Deserialize(string json)")
	assert.Contains(t, base, "public static object DeserializeMsgPack(byte[] data)")
	assert.Contains(t, base, `throw new ArgumentException($"Unknown packet type: {type}");`)
}

func TestGenerator_WireFormatConverters(t *testing.T) {
	// Test: JSON converters and MessagePack formatters emit identical
	// timestamp and time-of-day strings
	gen := New(Config{JSON: true, MsgPack: true})

	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	base := files["DataPacket.cs"]
	assert.Contains(t, base, "public class TimestampConverter : JsonConverter<DateTimeOffset?>")
	assert.Contains(t, base, "public class TimeOfDayConverter : JsonConverter<TimeSpan?>")
	assert.Contains(t, base, "public class TimestampFormatter : IMessagePackFormatter<DateTimeOffset?>")
	assert.Contains(t, base, "public class TimeOfDayFormatter : IMessagePackFormatter<TimeSpan?>")
	assert.Contains(t, base, "writer.WriteStringValue(value.Value.ToString(DataPacket.TimestampFormat, CultureInfo.InvariantCulture));")
	assert.Contains(t, base, "writer.Write(value.Value.ToString(DataPacket.TimeFormat, CultureInfo.InvariantCulture));")
	assert.Contains(t, base, "writer.WriteNil();")
	assert.Contains(t, base, "if (reader.TryReadNil())")
}

func TestGenerator_PacketClass(t *testing.T) {
	// Test: nullable properties keyed by schema names in both formats
	gen := New(Config{JSON: true, MsgPack: true})

	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	code := files["ChatMessage.cs"]
	assert.Contains(t, code, "[MessagePackObject]")
	assert.Contains(t, code, "public class ChatMessage")
	assert.Contains(t, code, `public const string TYPE = "chat/message";`)
	assert.Contains(t, code, `[Key("packetType")]`)
	assert.Contains(t, code, `[JsonPropertyName("packetType")]`)
	assert.Contains(t, code, "public string Type { get; set; } = TYPE;")
	assert.Contains(t, code, `[Key("sender_id")]`)
	assert.Contains(t, code, "public long? SenderId { get; set; }")
	assert.Contains(t, code, "[JsonConverter(typeof(TimestampConverter))]")
	assert.Contains(t, code, "[MessagePackFormatter(typeof(TimestampFormatter))]")
	assert.Contains(t, code, "public DateTimeOffset? SentAt { get; set; }")
	assert.Contains(t, code, "[JsonConverter(typeof(TimeOfDayConverter))]")
	assert.Contains(t, code, "public TimeSpan? AlarmTime { get; set; }")
	assert.Contains(t, code, "public byte[]? Payload { get; set; }")
	assert.Contains(t, code, "public ChatMessage() { }")
	assert.Contains(t, code, "public ChatMessage(long? senderId, string? content, DateTimeOffset? sentAt, TimeSpan? alarmTime, byte[]? payload)")
	assert.Contains(t, code, "return JsonSerializer.Serialize(this);")
	assert.Contains(t, code, "return MessagePackSerializer.Deserialize<ChatMessage>(data);")
}

func TestGenerator_LooseContainerNormalization(t *testing.T) {
	// Test: map and list fields decode through formatters that rebuild the
	// tree with string keys, so binary data with integer keys stays usable
	gen := New(Config{JSON: true, MsgPack: true})

	s := &schema.Schema{
		Global: schema.Global{TypeField: "packetType", JSON: true, MsgPack: true},
		Packets: []schema.Packet{
			{
				Path: "game/state",
				Name: "GameState",
				Fields: []schema.Field{
					{Name: "board", Type: schema.TagEmbeddedMap},
					{Name: "moves", Type: schema.TagList},
				},
			},
		},
	}
	files, err := gen.Generate(s)
	require.NoError(t, err)

	base := files["DataPacket.cs"]
	assert.Contains(t, base, "public static object? NormalizeValue(object? value)")
	assert.Contains(t, base, "public static Dictionary<string, object> NormalizeMap(object? value)")
	assert.Contains(t, base, `result[entry.Key?.ToString() ?? ""] = NormalizeValue(entry.Value)!;`)
	assert.Contains(t, base, "public static List<object> NormalizeList(object? value)")
	assert.Contains(t, base, "public class LooseMapFormatter : IMessagePackFormatter<Dictionary<string, object>?>")
	assert.Contains(t, base, "public class LooseListFormatter : IMessagePackFormatter<List<object>?>")
	assert.Contains(t, base, "return DataPacket.NormalizeMap(raw);")
	assert.Contains(t, base, "return DataPacket.NormalizeList(raw);")

	code := files["GameState.cs"]
	assert.Contains(t, code, "[MessagePackFormatter(typeof(LooseMapFormatter))]")
	assert.Contains(t, code, "public Dictionary<string, object>? Board { get; set; }")
	assert.Contains(t, code, "[MessagePackFormatter(typeof(LooseListFormatter))]")
	assert.Contains(t, code, "public List<object>? Moves { get; set; }")
}

func TestGenerator_FormatToggles(t *testing.T) {
	// Test: attributes, converters, and methods follow the toggles
	gen := New(Config{JSON: false, MsgPack: true})
	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	assert.NotContains(t, files["DataPacket.cs"], "JsonRegistry")
	assert.NotContains(t, files["ChatMessage.cs"], "JsonPropertyName")
	assert.NotContains(t, files["ChatMessage.cs"], "ToJson")
	assert.Contains(t, files["ChatMessage.cs"], "public byte[] ToMsgPack()")

	gen = New(Config{JSON: true, MsgPack: false})
	files, err = gen.Generate(testSchema())
	require.NoError(t, err)

	assert.NotContains(t, files["DataPacket.cs"], "MsgPackRegistry")
	assert.NotContains(t, files["ChatMessage.cs"], "[MessagePackObject]")
	assert.NotContains(t, files["ChatMessage.cs"], "ToMsgPack")
	assert.Contains(t, files["ChatMessage.cs"], "public string ToJson()")
}

func TestGenerator_CustomNamespace(t *testing.T) {
	// Test: the configured namespace flows into every file
	gen := New(Config{JSON: true, MsgPack: true, Namespace: "Example.Wire"})

	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	assert.Contains(t, files["DataPacket.cs"], "namespace Example.Wire")
	assert.Contains(t, files["ChatMessage.cs"], "namespace Example.Wire")
}
