package cpp

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
	// Test: three shared headers plus a header/source pair per packet
	gen := New(Config{JSON: true, MsgPack: true})

	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	require.Len(t, files, 7)
	assert.Contains(t, files, "crosspacket_config.hpp")
	assert.Contains(t, files, "packet_codec.hpp")
	assert.Contains(t, files, "data_packet.hpp")
	assert.Contains(t, files, "chat_message.hpp")
	assert.Contains(t, files, "chat_message.cpp")
	assert.Contains(t, files, "ping.hpp")
	assert.Contains(t, files, "ping.cpp")
}

func TestGenerator_ConfigHeaderFlags(t *testing.T) {
	// Test: feature defines follow the format toggles
	gen := New(Config{JSON: true, MsgPack: true})
	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	cfg := files["crosspacket_config.hpp"]
	assert.Contains(t, cfg, "#define CROSSPACKET_HAS_JSON 1")
	assert.Contains(t, cfg, "#define CROSSPACKET_HAS_MSGPACK 1")

	gen = New(Config{JSON: true, MsgPack: false})
	files, err = gen.Generate(testSchema())
	require.NoError(t, err)

	cfg = files["crosspacket_config.hpp"]
	assert.Contains(t, cfg, "#define CROSSPACKET_HAS_JSON 1")
	assert.NotContains(t, cfg, "#define CROSSPACKET_HAS_MSGPACK 1")
}

func TestGenerator_DispatchHeader(t *testing.T) {
	// Test: PacketVariant covers every packet and both dispatchers throw on
	// unknown type identifiers
	gen := New(Config{JSON: true, MsgPack: true})

	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	dispatch := files["data_packet.hpp"]
	assert.Contains(t, dispatch, "using PacketVariant = std::variant<std::monostate, ChatMessage, Ping>;")
	assert.Contains(t, dispatch, "inline PacketVariant DeserializePacket(const std::string& json) {")
	assert.Contains(t, dispatch, "inline PacketVariant DeserializePacketMsgPack(const std::vector<uint8_t>& data) {")
	assert.Contains(t, dispatch, `yyjson_val* type_val = yyjson_obj_get(root, "packetType");`)
	assert.Contains(t, dispatch, "if (type == ChatMessage::TYPE) {")
	assert.Contains(t, dispatch, "return ChatMessage::FromJson(json);")
	assert.Contains(t, dispatch, "return ChatMessage::FromMsgPack(data);")
	assert.Contains(t, dispatch, `throw std::runtime_error("Unknown packet type: " + type);`)
	assert.Contains(t, dispatch, `#include "chat_message.hpp"`)
}

func TestGenerator_HeaderOptionalStorage(t *testing.T) {
	// Test: every field is stored as std::optional with accessors
	gen := New(Config{JSON: true, MsgPack: true})

	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	header := files["chat_message.hpp"]
	assert.Contains(t, header, "namespace packets {")
	assert.Contains(t, header, "class ChatMessage {")
	assert.Contains(t, header, `static constexpr const char* TYPE = "chat/message";`)
	assert.Contains(t, header, "std::optional<int64_t> sender_id_;")
	assert.Contains(t, header, "std::optional<std::string> sent_at_;")
	assert.Contains(t, header, "std::optional<std::vector<uint8_t>> payload_;")
	assert.Contains(t, header, "std::optional<std::string> metadata_;")
	assert.Contains(t, header, "const std::optional<int64_t>& GetSenderId() const { return sender_id_; }")
	assert.Contains(t, header, "void SetSenderId(const std::optional<int64_t>& value) { sender_id_ = value; }")
	assert.Contains(t, header, `std::string type_ = "chat/message";`)
	assert.Contains(t, header, "std::string ToJson() const;")
	assert.Contains(t, header, "static ChatMessage FromJson(const std::string& json);")
}

func TestGenerator_SourceCodecs(t *testing.T) {
	// Test: JSON uses yyjson with null handling, MessagePack packs an
	// explicit map keyed by schema field names
	gen := New(Config{JSON: true, MsgPack: true})

	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	src := files["chat_message.cpp"]
	assert.Contains(t, src, "std::string ChatMessage::ToJson() const {")
	assert.Contains(t, src, `yyjson_mut_obj_add_str(doc, root, "packetType", TYPE);`)
	assert.Contains(t, src, `yyjson_mut_obj_add_int(doc, root, "sender_id", sender_id_.value());`)
	assert.Contains(t, src, `yyjson_mut_obj_add_null(doc, root, "sender_id");`)
	assert.Contains(t, src, "std::string encoded = codec::Base64Encode(payload_.value());")
	assert.Contains(t, src, "packet.payload_ = codec::Base64Decode(encoded);")

	assert.Contains(t, src, "pk.pack_map(6);")
	assert.Contains(t, src, `pk.pack("packetType");`)
	assert.Contains(t, src, "pk.pack(type_);")
	assert.Contains(t, src, `pk.pack("sender_id");`)
	assert.Contains(t, src, "pk.pack(sender_id_);")
	assert.Contains(t, src, `if (key == "sender_id") {`)
	assert.Contains(t, src, "packet.sender_id_ = kv.val.as<int64_t>();")
}

func TestGenerator_LooseContainerNormalization(t *testing.T) {
	// Test: loose containers carried as JSON text; native msgpack values
	// from other producers are normalized through an ostringstream
	gen := New(Config{JSON: true, MsgPack: true})

	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	src := files["chat_message.cpp"]
	assert.Contains(t, src, "#include <sstream>")
	assert.Contains(t, src, "std::ostringstream oss;")
	assert.Contains(t, src, "oss << kv.val;")
	assert.Contains(t, src, "packet.metadata_ = oss.str();")
	assert.Contains(t, src, "yyjson_doc* sub_doc = yyjson_read(metadata_.value().c_str(), metadata_.value().size(), 0);")

	assert.NotContains(t, files["ping.cpp"], "#include <sstream>")
}

func TestGenerator_CodecHeaderNamespace(t *testing.T) {
	// Test: the shared base64 helpers live in the configured namespace
	gen := New(Config{JSON: true, MsgPack: true, Namespace: "wire"})

	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	codec := files["packet_codec.hpp"]
	assert.Contains(t, codec, "namespace wire {")
	assert.Contains(t, codec, "inline std::string Base64Encode(const std::vector<uint8_t>& bytes) {")
	assert.Contains(t, codec, "inline std::vector<uint8_t> Base64Decode(const char* encoded) {")
	assert.Contains(t, codec, "} // namespace wire")
	assert.NotContains(t, codec, "{{namespace}}")

	assert.Contains(t, files["data_packet.hpp"], "namespace wire {")
}

func TestGenerator_FormatToggles(t *testing.T) {
	// Test: disabled codecs vanish from headers and sources
	gen := New(Config{JSON: false, MsgPack: true})

	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	assert.NotContains(t, files["chat_message.hpp"], "ToJson")
	assert.NotContains(t, files["chat_message.hpp"], "yyjson.h")
	assert.Contains(t, files["chat_message.hpp"], "ToMsgPack")
	assert.NotContains(t, files["data_packet.hpp"], "DeserializePacket(const std::string& json)")
	assert.Contains(t, files["data_packet.hpp"], "DeserializePacketMsgPack")
}
