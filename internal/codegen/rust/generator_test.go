package rust

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
					{Name: "metadata", Type: schema.TagMap},
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
	// Test: Cargo.toml, mod.rs, and one module per packet
	gen := New(Config{JSON: true, MsgPack: true})

	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	require.Len(t, files, 4)
	assert.Contains(t, files, "Cargo.toml")
	assert.Contains(t, files, "mod.rs")
	assert.Contains(t, files, "chat_message.rs")
	assert.Contains(t, files, "ping.rs")
}

func TestGenerator_CargoManifest(t *testing.T) {
	// Test: the crate manifest pins the serde stack
	gen := New(Config{JSON: true, MsgPack: true})

	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	cargo := files["Cargo.toml"]
	assert.Contains(t, cargo, `name = "crosspacket_generated"`)
	assert.Contains(t, cargo, `serde = { version = "1.0", features = ["derive"] }`)
	assert.Contains(t, cargo, `serde_json = "1.0"`)
	assert.Contains(t, cargo, `rmp-serde = "1.3"`)
	assert.Contains(t, cargo, `chrono = { version = "0.4", features = ["serde"] }`)
}

func TestGenerator_ModDispatch(t *testing.T) {
	// Test: mod.rs declares modules, the Packet enum, and both dispatchers
	gen := New(Config{JSON: true, MsgPack: true})

	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	mod := files["mod.rs"]
	assert.Contains(t, mod, "mod chat_message;")
	assert.Contains(t, mod, "pub use chat_message::ChatMessage;")
	assert.Contains(t, mod, "pub enum Packet {")
	assert.Contains(t, mod, "ChatMessage(ChatMessage),")
	assert.Contains(t, mod, "struct TypeProbe {")
	assert.Contains(t, mod, `#[serde(rename = "packetType", default)]`)
	assert.Contains(t, mod, "pub fn deserialize_packet(json: &str) -> Result<Packet, String> {")
	assert.Contains(t, mod, "pub fn deserialize_packet_msgpack(bytes: &[u8]) -> Result<Packet, String> {")
	assert.Contains(t, mod, `"chat/message" => serde_json::from_str(json).map(Packet::ChatMessage).map_err(|e| e.to_string()),`)
	assert.Contains(t, mod, `other => Err(format!("Unknown packet type: {}", other)),`)
}

func TestGenerator_CodecModules(t *testing.T) {
	// Test: the shared serde modules pin the wire formats
	gen := New(Config{JSON: true, MsgPack: true})

	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	mod := files["mod.rs"]
	assert.Contains(t, mod, "pub mod timestamp_format {")
	assert.Contains(t, mod, `const FORMAT: &str = "%Y-%m-%dT%H:%M:%S%.3f%:z";`)
	assert.Contains(t, mod, "pub mod time_format {")
	assert.Contains(t, mod, `const FORMAT: &str = "%H:%M";`)
	assert.Contains(t, mod, "pub mod base64_bytes {")
	assert.Contains(t, mod, "if serializer.is_human_readable() {")
	assert.Contains(t, mod, "serializer.serialize_bytes(bytes)")
}

func TestGenerator_LooseContainerNormalization(t *testing.T) {
	// Test: map and list fields decode through the loose modules, which
	// stringify non-string map keys anywhere in the tree
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

	mod := files["mod.rs"]
	assert.Contains(t, mod, "pub mod loose_value {")
	assert.Contains(t, mod, "pub struct LooseValue(Value);")
	assert.Contains(t, mod, "fn key_string(value: Value) -> String {")
	assert.Contains(t, mod, "map.insert(key_string(key.into_value()), value.into_value());")
	assert.Contains(t, mod, "pub mod loose_map {")
	assert.Contains(t, mod, "pub mod loose_list {")

	code := files["game_state.rs"]
	assert.Contains(t, code, `#[serde(with = "crate::loose_map", default)]`)
	assert.Contains(t, code, "pub board: Option<HashMap<String, serde_json::Value>>,")
	assert.Contains(t, code, `#[serde(with = "crate::loose_list", default)]`)
	assert.Contains(t, code, "pub moves: Option<Vec<serde_json::Value>>,")
}

func TestGenerator_PacketStruct(t *testing.T) {
	// Test: Option-wrapped fields, serde attributes, constructors, codecs
	gen := New(Config{JSON: true, MsgPack: true})

	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	code := files["chat_message.rs"]
	assert.Contains(t, code, "#[derive(Debug, Clone, Default, Serialize, Deserialize)]")
	assert.Contains(t, code, "pub struct ChatMessage {")
	assert.Contains(t, code, "pub sender_id: Option<i64>,")
	assert.Contains(t, code, `#[serde(with = "crate::timestamp_format", default)]`)
	assert.Contains(t, code, "pub sent_at: Option<DateTime<Utc>>,")
	assert.Contains(t, code, `#[serde(with = "crate::time_format", default)]`)
	assert.Contains(t, code, "pub alarm_time: Option<NaiveTime>,")
	assert.Contains(t, code, `#[serde(with = "crate::base64_bytes", default)]`)
	assert.Contains(t, code, "pub payload: Option<Vec<u8>>,")
	assert.Contains(t, code, "pub metadata: Option<HashMap<String, serde_json::Value>>,")
	assert.Contains(t, code, `pub const TYPE: &'static str = "chat/message";`)
	assert.Contains(t, code, "pub fn new() -> Self {")
	assert.Contains(t, code, "pub fn create(")
	assert.Contains(t, code, "rmp_serde::to_vec_named(self)")
}

func TestGenerator_FormatToggles(t *testing.T) {
	// Test: dispatchers and codec methods follow the format toggles
	gen := New(Config{JSON: false, MsgPack: true})
	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	assert.NotContains(t, files["mod.rs"], "pub fn deserialize_packet(json")
	assert.Contains(t, files["mod.rs"], "deserialize_packet_msgpack")
	assert.NotContains(t, files["chat_message.rs"], "pub fn to_json")
	assert.Contains(t, files["chat_message.rs"], "pub fn to_msgpack")

	gen = New(Config{JSON: true, MsgPack: false})
	files, err = gen.Generate(testSchema())
	require.NoError(t, err)

	assert.NotContains(t, files["mod.rs"], "deserialize_packet_msgpack")
	assert.NotContains(t, files["chat_message.rs"], "to_msgpack")
}
