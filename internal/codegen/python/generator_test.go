package python

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
					{Name: "ratio", Type: schema.TagFloat},
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
	// Test: package init, shared helpers, validation toolkit, one module
	// per packet
	gen := New(Config{JSON: true, MsgPack: true})

	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	require.Len(t, files, 5)
	assert.Contains(t, files, "__init__.py")
	assert.Contains(t, files, "packet_utils.py")
	assert.Contains(t, files, "security_utils.py")
	assert.Contains(t, files, "chat_message.py")
	assert.Contains(t, files, "ping.py")
}

func TestGenerator_InitDispatch(t *testing.T) {
	// Test: the init module carries the registry and the dispatch function
	gen := New(Config{JSON: true, MsgPack: true})

	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	init := files["__init__.py"]
	assert.Contains(t, init, "from .chat_message import ChatMessage")
	assert.Contains(t, init, `"chat/message": ChatMessage,`)
	assert.Contains(t, init, `"system/ping": Ping,`)
	assert.Contains(t, init, "def deserialize_packet(data):")
	assert.Contains(t, init, `raise ValueError(f"Unknown packet type: {packet_type}")`)
	assert.Contains(t, init, "return packet_class._from_dict(data)")
}

func TestGenerator_TimestampHelpers(t *testing.T) {
	// Test: the shared helpers pin the 3-digit fraction and colon offset
	gen := New(Config{JSON: true, MsgPack: true})

	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	utils := files["packet_utils.py"]
	assert.Contains(t, utils, "def format_timestamp(value: datetime) -> str:")
	assert.Contains(t, utils, `f".{value.microsecond // 1000:03d}"`)
	assert.Contains(t, utils, `return base + offset[:3] + ":" + offset[3:]`)
	assert.Contains(t, utils, `return datetime.fromisoformat(value.replace("Z", "+00:00"))`)
	assert.Contains(t, utils, `return value.strftime("%H:%M")`)
	assert.Contains(t, utils, "def as_bytes(value: Any) -> Optional[bytes]:")
	assert.Contains(t, utils, `return base64.b64encode(value).decode("ascii")`)
}

func TestGenerator_PacketModule(t *testing.T) {
	// Test: dataclass with all-None defaults, codec methods, type constant
	gen := New(Config{JSON: true, MsgPack: true})

	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	code := files["chat_message.py"]
	assert.Contains(t, code, "@dataclass")
	assert.Contains(t, code, "class ChatMessage:")
	assert.Contains(t, code, `TYPE: ClassVar[str] = "chat/message"`)
	assert.Contains(t, code, "sender_id: Optional[int] = None")
	assert.Contains(t, code, "sent_at: Optional[datetime] = None")
	assert.Contains(t, code, "payload: Optional[bytes] = None")
	assert.Contains(t, code, `"packetType": self.TYPE,`)
	assert.Contains(t, code, `"sent_at": format_timestamp(self.sent_at) if self.sent_at else None,`)
	assert.Contains(t, code, "sender_id=int(data.get('sender_id')) if data.get('sender_id') is not None else None,")
	assert.Contains(t, code, "payload=as_bytes(data.get('payload')),")
	assert.Contains(t, code, "def to_json(self) -> str:")
	assert.Contains(t, code, "return json.dumps(self._to_dict(), default=json_default)")
	assert.Contains(t, code, "def to_msgpack(self) -> bytes:")
	assert.Contains(t, code, "return msgpack.packb(self._to_dict(), use_bin_type=True)")
	assert.Contains(t, code, "return cls._from_dict(msgpack.unpackb(data, raw=False))")
}

func TestGenerator_LooseContainerNormalization(t *testing.T) {
	// Test: map and list fields decode through the recursive normalizers, so
	// binary payloads with non-string map keys land as string-keyed dicts
	gen := New(Config{JSON: true, MsgPack: true})

	s := &schema.Schema{
		Global: schema.Global{TypeField: "packetType", JSON: true, MsgPack: true},
		Packets: []schema.Packet{
			{
				Path: "game/state",
				Name: "GameState",
				Fields: []schema.Field{
					{Name: "board", Type: schema.TagEmbeddedMap},
					{Name: "settings", Type: schema.TagMap},
					{Name: "moves", Type: schema.TagList},
				},
			},
		},
	}
	files, err := gen.Generate(s)
	require.NoError(t, err)

	utils := files["packet_utils.py"]
	assert.Contains(t, utils, "def normalize_value(value: Any) -> Any:")
	assert.Contains(t, utils, "return {str(k): normalize_value(v) for k, v in value.items()}")
	assert.Contains(t, utils, "def normalize_map(value: Any) -> Optional[Dict[str, Any]]:")
	assert.Contains(t, utils, "def normalize_list(value: Any) -> Optional[List[Any]]:")
	assert.Contains(t, utils, "return [normalize_value(item) for item in value]")

	code := files["game_state.py"]
	assert.Contains(t, code, "from .packet_utils import normalize_map, normalize_list, json_default")
	assert.Contains(t, code, "board=normalize_map(data.get('board')),")
	assert.Contains(t, code, "settings=normalize_map(data.get('settings')),")
	assert.Contains(t, code, "moves=normalize_list(data.get('moves')),")
}

func TestGenerator_MsgPackImportGuard(t *testing.T) {
	// Test: msgpack is imported behind a guard and only when enabled
	gen := New(Config{JSON: true, MsgPack: true})
	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	assert.Contains(t, files["chat_message.py"], "import msgpack")
	assert.Contains(t, files["chat_message.py"], "HAS_MSGPACK = True")
	assert.Contains(t, files["chat_message.py"], "except ImportError:")

	gen = New(Config{JSON: true, MsgPack: false})
	files, err = gen.Generate(testSchema())
	require.NoError(t, err)

	assert.NotContains(t, files["chat_message.py"], "msgpack")
	assert.NotContains(t, files["chat_message.py"], "to_msgpack")
}

func TestGenerator_FormatToggles(t *testing.T) {
	// Test: disabling JSON removes json methods and the default encoder import
	gen := New(Config{JSON: false, MsgPack: true})

	files, err := gen.Generate(testSchema())
	require.NoError(t, err)

	code := files["chat_message.py"]
	assert.NotContains(t, code, "def to_json")
	assert.NotContains(t, code, "import json\n")
	assert.Contains(t, code, "def to_msgpack")
}

func TestGenerator_SecurityUtils(t *testing.T) {
	// Test: the validation toolkit ships regardless of schema content
	gen := New(Config{JSON: true, MsgPack: true})

	files, err := gen.Generate(&schema.Schema{
		Global: schema.Global{TypeField: "packetType", JSON: true, MsgPack: true},
	})
	require.NoError(t, err)

	sec := files["security_utils.py"]
	assert.Contains(t, sec, "class ValidationError(Exception):")
	assert.Contains(t, sec, "def validate_int(")
}

func TestGenerator_SecurityUtilsReindent(t *testing.T) {
	// Test: the static template re-indents to the configured indent
	gen := New(Config{JSON: true, MsgPack: true, Indent: "  "})

	files, err := gen.Generate(&schema.Schema{
		Global: schema.Global{TypeField: "packetType", JSON: true, MsgPack: true},
	})
	require.NoError(t, err)

	sec := files["security_utils.py"]
	assert.Contains(t, sec, "\n  def __init__(self, field: str, message: str, value: Any = None):")
	assert.NotContains(t, sec, "\n    def __init__(self, field: str, message: str, value: Any = None):")
}
