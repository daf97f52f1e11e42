package java

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
					{Name: "scores", Type: schema.TagListInt},
					{Name: "metadata", Type: schema.TagEmbeddedMap},
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
	// Test: DataPacket base plus one PascalCase class file per packet
	gen := New(Config{JSON: true, MsgPack: true})

	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	require.Len(t, files, 3)
	assert.Contains(t, files, "DataPacket.java")
	assert.Contains(t, files, "ChatMessage.java")
	assert.Contains(t, files, "Ping.java")
}

func TestGenerator_BaseClass(t *testing.T) {
	// Test: registry, dispatch, timestamp formats, and shared msgpack visitors
	gen := New(Config{JSON: true, MsgPack: true})

	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	base := files["DataPacket.java"]
	assert.Contains(t, base, "package com.crosspacket;")
	assert.Contains(t, base, "public abstract class DataPacket {")
	assert.Contains(t, base, `DateTimeFormatter.ofPattern("yyyy-MM-dd'T'HH:mm:ss.SSSxxx");`)
	assert.Contains(t, base, `DateTimeFormatter.ofPattern("HH:mm");`)
	assert.Contains(t, base, `REGISTRY.put("chat/message", ChatMessage::fromMap);`)
	assert.Contains(t, base, `REGISTRY.put("system/ping", Ping::fromMap);`)
	assert.Contains(t, base, `throw new IllegalArgumentException("Unknown packet type: " + packetType);`)
	assert.Contains(t, base, "protected static Map<String, Object> unpackMap(byte[] data) throws Exception {")
	assert.Contains(t, base, "protected static void packValue(MessageBufferPacker packer, Object value) throws Exception {")
	assert.Contains(t, base, "protected static Object normalizeValue(Object value) {")
}

func TestGenerator_PacketClass(t *testing.T) {
	// Test: type constant, camelCase fields, accessors, map codec
	gen := New(Config{JSON: true, MsgPack: true})

	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	code := files["ChatMessage.java"]
	assert.Contains(t, code, "public class ChatMessage extends DataPacket {")
	assert.Contains(t, code, `public static final String TYPE = "chat/message";`)
	assert.Contains(t, code, "private Long senderId;")
	assert.Contains(t, code, "private ZonedDateTime sentAt;")
	assert.Contains(t, code, "private LocalTime alarmTime;")
	assert.Contains(t, code, "private byte[] payload;")
	assert.Contains(t, code, "private List<Long> scores;")
	assert.Contains(t, code, "public ChatMessage() {}")
	assert.Contains(t, code, "public Long getSenderId() {")
	assert.Contains(t, code, "public void setSenderId(Long senderId) {")
	assert.Contains(t, code, `map.put("packetType", TYPE);`)
	assert.Contains(t, code, `map.put("sent_at", sentAt != null ? TIMESTAMP_FORMAT.format(sentAt) : null);`)
	assert.Contains(t, code, `map.put("alarm_time", alarmTime != null ? TIME_FORMAT.format(alarmTime) : null);`)
	assert.Contains(t, code, "static ChatMessage fromMap(Map<String, Object> map) {")
	assert.Contains(t, code, "if (sentAtVal != null) packet.setSentAt(ZonedDateTime.parse(sentAtVal.toString()));")
	assert.Contains(t, code, "packet.setPayload(Base64.getDecoder().decode((String) payloadVal));")
}

func TestGenerator_FormatToggles(t *testing.T) {
	// Test: each codec's methods and imports follow its toggle
	gen := New(Config{JSON: false, MsgPack: true})
	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	assert.NotContains(t, files["DataPacket.java"], "ObjectMapper")
	assert.NotContains(t, files["ChatMessage.java"], "fromJson")
	assert.Contains(t, files["ChatMessage.java"], "public byte[] toMsgPack() throws Exception {")

	gen = New(Config{JSON: true, MsgPack: false})
	files, err = gen.Generate(testSchema())
	require.NoError(t, err)

	assert.NotContains(t, files["DataPacket.java"], "org.msgpack.core")
	assert.NotContains(t, files["ChatMessage.java"], "toMsgPack")
	assert.Contains(t, files["DataPacket.java"], "public String toJson() throws Exception {")
}

func TestGenerator_CustomPackage(t *testing.T) {
	// Test: the configured package name flows into every file
	gen := New(Config{JSON: true, MsgPack: true, Package: "com.example.wire"})

	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	assert.Contains(t, files["DataPacket.java"], "package com.example.wire;")
	assert.Contains(t, files["ChatMessage.java"], "package com.example.wire;")
}

func TestGenerator_DeprecatedAnnotation(t *testing.T) {
	// Test: deprecated packets and fields carry @Deprecated
	gen := New(Config{JSON: true, MsgPack: true})

	s := &schema.Schema{
		Global: schema.Global{TypeField: "packetType", JSON: true, MsgPack: true},
		Packets: []schema.Packet{
			{
				Path:       "legacy/event",
				Name:       "Event",
				Deprecated: true,
				Fields:     []schema.Field{{Name: "code", Type: schema.TagInt, Deprecated: true}},
			},
		},
	}
	files, err := gen.Generate(s)
	require.NoError(t, err)

	code := files["Event.java"]
	assert.Contains(t, code, "@Deprecated\npublic class Event extends DataPacket {")
	assert.Contains(t, code, "@Deprecated")
}
