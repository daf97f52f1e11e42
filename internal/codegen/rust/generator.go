// Package rust generates Rust packet code.
package rust

import (
	"strings"

	"github.com/crosspacket/crosspacket/internal/codegen/naming"
	"github.com/crosspacket/crosspacket/internal/codegen/typemap"
	"github.com/crosspacket/crosspacket/internal/codegen/writer"
	"github.com/crosspacket/crosspacket/internal/schema"
)

// Config holds the Rust target options.
type Config struct {
	TypeField string
	JSON      bool
	MsgPack   bool
	Indent    string
}

// Generator emits a serde-based crate: Cargo.toml, mod.rs with the Packet
// enum, dispatch and the custom serde modules for the wire formats, plus one
// module per packet.
type Generator struct {
	cfg Config
}

// New creates a Rust code generator.
func New(cfg Config) *Generator {
	if cfg.TypeField == "" {
		cfg.TypeField = schema.DefaultTypeField
	}
	if cfg.Indent == "" {
		cfg.Indent = "    "
	}
	return &Generator{cfg: cfg}
}

// Target returns the canonical target name.
func (g *Generator) Target() string {
	return "rust"
}

// FileExtension returns the file extension for generated files.
func (g *Generator) FileExtension() string {
	return ".rs"
}

// Generate produces all Rust artifacts for the schema.
func (g *Generator) Generate(s *schema.Schema) (map[string]string, error) {
	files := make(map[string]string, len(s.Packets)+2)
	files["Cargo.toml"] = g.generateCargo()
	files["mod.rs"] = g.generateMod(s)
	for _, pkt := range s.Packets {
		files[naming.Snake(pkt.Name)+".rs"] = g.generatePacket(pkt)
	}
	return files, nil
}

func (g *Generator) generateCargo() string {
	return `[package]
name = "crosspacket_generated"
version = "1.0.0"
edition = "2021"

[lib]
path = "mod.rs"

[dependencies]
serde = { version = "1.0", features = ["derive"] }
serde_json = "1.0"
rmp-serde = "1.3"
chrono = { version = "0.4", features = ["serde"] }
`
}

// generateMod emits mod.rs: module declarations, the Packet enum with
// dispatch, and the shared serde codec modules.
func (g *Generator) generateMod(s *schema.Schema) string {
	w := writer.New(g.cfg.Indent)

	w.Line("// Auto-generated - do not modify manually")
	w.Blank()
	for _, pkt := range s.Packets {
		filename := naming.Snake(pkt.Name)
		w.Linef("mod %s;", filename)
		w.Linef("pub use %s::%s;", filename, pkt.Name)
	}
	w.Blank()

	w.Line("/// Any known packet, tagged by its wire type identifier.")
	w.Line("#[derive(Debug, Clone)]")
	w.Line("pub enum Packet {")
	w.Indent()
	for _, pkt := range s.Packets {
		w.Linef("%s(%s),", pkt.Name, pkt.Name)
	}
	w.Dedent()
	w.Line("}")
	w.Blank()

	w.Line("#[derive(serde::Deserialize)]")
	w.Line("struct TypeProbe {")
	w.Indent()
	w.Linef("#[serde(rename = \"%s\", default)]", g.cfg.TypeField)
	w.Line("packet_type: String,")
	w.Dedent()
	w.Line("}")
	w.Blank()

	if g.cfg.JSON {
		w.Line("/// Decode any known packet from its JSON encoding.")
		w.Line("pub fn deserialize_packet(json: &str) -> Result<Packet, String> {")
		w.Indent()
		w.Line("let probe: TypeProbe = serde_json::from_str(json).map_err(|e| e.to_string())?;")
		w.Line("match probe.packet_type.as_str() {")
		w.Indent()
		for _, pkt := range s.Packets {
			w.Linef("\"%s\" => serde_json::from_str(json).map(Packet::%s).map_err(|e| e.to_string()),", pkt.Path, pkt.Name)
		}
		w.Line("other => Err(format!(\"Unknown packet type: {}\", other)),")
		w.Dedent()
		w.Line("}")
		w.Dedent()
		w.Line("}")
		w.Blank()
	}

	if g.cfg.MsgPack {
		w.Line("/// Decode any known packet from its MessagePack encoding.")
		w.Line("pub fn deserialize_packet_msgpack(bytes: &[u8]) -> Result<Packet, String> {")
		w.Indent()
		w.Line("let probe: TypeProbe = rmp_serde::from_slice(bytes).map_err(|e| e.to_string())?;")
		w.Line("match probe.packet_type.as_str() {")
		w.Indent()
		for _, pkt := range s.Packets {
			w.Linef("\"%s\" => rmp_serde::from_slice(bytes).map(Packet::%s).map_err(|e| e.to_string()),", pkt.Path, pkt.Name)
		}
		w.Line("other => Err(format!(\"Unknown packet type: {}\", other)),")
		w.Dedent()
		w.Line("}")
		w.Dedent()
		w.Line("}")
		w.Blank()
	}

	w.Line(g.reindent(codecModules))

	return w.String()
}

// generatePacket emits one packet module.
func (g *Generator) generatePacket(pkt schema.Packet) string {
	w := writer.New(g.cfg.Indent)

	w.Line("// Auto-generated - do not modify manually")
	w.Line("use serde::{Deserialize, Serialize};")
	var chrono []string
	if pkt.HasDateTime() {
		chrono = append(chrono, "DateTime", "Utc")
	}
	if pkt.HasTime() {
		chrono = append(chrono, "NaiveTime")
	}
	if len(chrono) > 0 {
		w.Linef("use chrono::{%s};", strings.Join(chrono, ", "))
	}
	if pkt.HasMap() {
		w.Line("use std::collections::HashMap;")
	}
	w.Blank()

	if pkt.Description != "" {
		w.DocComment("///", pkt.Description)
	}
	if pkt.Deprecated {
		w.Line("#[deprecated(note = \"retained for wire compatibility only\")]")
	}
	w.Line("#[derive(Debug, Clone, Default, Serialize, Deserialize)]")
	w.Linef("pub struct %s {", pkt.Name)
	w.Indent()
	w.Linef("#[serde(rename = \"%s\", default)]", g.cfg.TypeField)
	w.Line("pub packet_type: String,")
	for _, f := range pkt.Fields {
		if f.Description != "" {
			w.DocComment("///", f.Description)
		}
		switch f.Type {
		case schema.TagDateTime:
			w.Line("#[serde(with = \"crate::timestamp_format\", default)]")
		case schema.TagTime:
			w.Line("#[serde(with = \"crate::time_format\", default)]")
		case schema.TagBytes:
			w.Line("#[serde(with = \"crate::base64_bytes\", default)]")
		case schema.TagMap, schema.TagEmbeddedMap, schema.TagMapStringAny:
			w.Line("#[serde(with = \"crate::loose_map\", default)]")
		case schema.TagList:
			w.Line("#[serde(with = \"crate::loose_list\", default)]")
		default:
			w.Line("#[serde(default)]")
		}
		w.Linef("pub %s: Option<%s>,", f.Name, typemap.Native(f.Type, typemap.Rust))
	}
	w.Dedent()
	w.Line("}")
	w.Blank()

	w.Linef("impl %s {", pkt.Name)
	w.Indent()
	w.Linef("pub const TYPE: &'static str = \"%s\";", pkt.Path)
	w.Blank()

	w.Line("/// Creates an empty packet. Populate fields directly.")
	w.Line("pub fn new() -> Self {")
	w.Indent()
	w.Line("Self {")
	w.Indent()
	w.Line("packet_type: Self::TYPE.to_string(),")
	w.Line("..Default::default()")
	w.Dedent()
	w.Line("}")
	w.Dedent()
	w.Line("}")
	w.Blank()

	if len(pkt.Fields) > 0 {
		w.Line("/// Creates a packet with every field provided.")
		w.Line("pub fn create(")
		w.Indent()
		for _, f := range pkt.Fields {
			w.Linef("%s: Option<%s>,", f.Name, typemap.Native(f.Type, typemap.Rust))
		}
		w.Dedent()
		w.Line(") -> Self {")
		w.Indent()
		w.Line("Self {")
		w.Indent()
		w.Line("packet_type: Self::TYPE.to_string(),")
		for _, f := range pkt.Fields {
			w.Linef("%s,", f.Name)
		}
		w.Dedent()
		w.Line("}")
		w.Dedent()
		w.Line("}")
		w.Blank()
	}

	if g.cfg.JSON {
		w.Line("pub fn to_json(&self) -> Result<String, serde_json::Error> {")
		w.Indent()
		w.Line("serde_json::to_string(self)")
		w.Dedent()
		w.Line("}")
		w.Blank()
		w.Line("pub fn from_json(json: &str) -> Result<Self, serde_json::Error> {")
		w.Indent()
		w.Line("serde_json::from_str(json)")
		w.Dedent()
		w.Line("}")
		w.Blank()
	}

	if g.cfg.MsgPack {
		w.Line("pub fn to_msgpack(&self) -> Result<Vec<u8>, rmp_serde::encode::Error> {")
		w.Indent()
		w.Line("rmp_serde::to_vec_named(self)")
		w.Dedent()
		w.Line("}")
		w.Blank()
		w.Line("pub fn from_msgpack(bytes: &[u8]) -> Result<Self, rmp_serde::decode::Error> {")
		w.Indent()
		w.Line("rmp_serde::from_slice(bytes)")
		w.Dedent()
		w.Line("}")
	}

	w.Dedent()
	w.Line("}")

	return w.String()
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

// codecModules holds the shared serde helpers: offset timestamps with a
// 3-digit fraction, HH:MM times, bytes as base64 text in human-readable
// encodings but native binary in MessagePack, and loose-container decoding
// that normalizes any map key to a string.
const codecModules = `pub mod timestamp_format {
    use chrono::{DateTime, Utc};
    use serde::{Deserialize, Deserializer, Serializer};

    const FORMAT: &str = "%Y-%m-%dT%H:%M:%S%.3f%:z";

    pub fn serialize<S: Serializer>(value: &Option<DateTime<Utc>>, serializer: S) -> Result<S::Ok, S::Error> {
        match value {
            Some(ts) => serializer.serialize_str(&ts.format(FORMAT).to_string()),
            None => serializer.serialize_none(),
        }
    }

    pub fn deserialize<'de, D: Deserializer<'de>>(deserializer: D) -> Result<Option<DateTime<Utc>>, D::Error> {
        let text: Option<String> = Option::deserialize(deserializer)?;
        match text {
            Some(text) => DateTime::parse_from_rfc3339(&text)
                .map(|ts| Some(ts.with_timezone(&Utc)))
                .map_err(serde::de::Error::custom),
            None => Ok(None),
        }
    }
}

pub mod time_format {
    use chrono::NaiveTime;
    use serde::{Deserialize, Deserializer, Serializer};

    const FORMAT: &str = "%H:%M";

    pub fn serialize<S: Serializer>(value: &Option<NaiveTime>, serializer: S) -> Result<S::Ok, S::Error> {
        match value {
            Some(t) => serializer.serialize_str(&t.format(FORMAT).to_string()),
            None => serializer.serialize_none(),
        }
    }

    pub fn deserialize<'de, D: Deserializer<'de>>(deserializer: D) -> Result<Option<NaiveTime>, D::Error> {
        let text: Option<String> = Option::deserialize(deserializer)?;
        match text {
            Some(text) => NaiveTime::parse_from_str(&text, FORMAT)
                .or_else(|_| NaiveTime::parse_from_str(&text, "%H:%M:%S"))
                .map(Some)
                .map_err(serde::de::Error::custom),
            None => Ok(None),
        }
    }
}

pub mod base64_bytes {
    use serde::{Deserializer, Serializer};

    const TABLE: &[u8] = b"ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/";

    pub fn encode(data: &[u8]) -> String {
        let mut out = String::with_capacity((data.len() + 2) / 3 * 4);
        for chunk in data.chunks(3) {
            let b = [
                chunk[0],
                chunk.get(1).copied().unwrap_or(0),
                chunk.get(2).copied().unwrap_or(0),
            ];
            out.push(TABLE[(b[0] >> 2) as usize] as char);
            out.push(TABLE[(((b[0] & 0x03) << 4) | (b[1] >> 4)) as usize] as char);
            out.push(if chunk.len() > 1 {
                TABLE[(((b[1] & 0x0f) << 2) | (b[2] >> 6)) as usize] as char
            } else {
                '='
            });
            out.push(if chunk.len() > 2 {
                TABLE[(b[2] & 0x3f) as usize] as char
            } else {
                '='
            });
        }
        out
    }

    pub fn decode(text: &str) -> Result<Vec<u8>, String> {
        let mut out = Vec::with_capacity(text.len() / 4 * 3);
        let mut buffer = 0u32;
        let mut bits = 0u32;
        for ch in text.bytes() {
            if ch == b'=' || ch == b'\n' || ch == b'\r' {
                continue;
            }
            let value = TABLE
                .iter()
                .position(|&t| t == ch)
                .ok_or_else(|| format!("invalid base64 character: {}", ch as char))?;
            buffer = (buffer << 6) | value as u32;
            bits += 6;
            if bits >= 8 {
                bits -= 8;
                out.push((buffer >> bits) as u8);
            }
        }
        Ok(out)
    }

    pub fn serialize<S: Serializer>(value: &Option<Vec<u8>>, serializer: S) -> Result<S::Ok, S::Error> {
        match value {
            Some(bytes) => {
                if serializer.is_human_readable() {
                    serializer.serialize_str(&encode(bytes))
                } else {
                    serializer.serialize_bytes(bytes)
                }
            }
            None => serializer.serialize_none(),
        }
    }

    pub fn deserialize<'de, D: Deserializer<'de>>(deserializer: D) -> Result<Option<Vec<u8>>, D::Error> {
        struct BytesVisitor;

        impl<'de> serde::de::Visitor<'de> for BytesVisitor {
            type Value = Option<Vec<u8>>;

            fn expecting(&self, f: &mut std::fmt::Formatter) -> std::fmt::Result {
                f.write_str("base64 text, binary, or null")
            }

            fn visit_none<E>(self) -> Result<Self::Value, E> {
                Ok(None)
            }

            fn visit_unit<E>(self) -> Result<Self::Value, E> {
                Ok(None)
            }

            fn visit_some<D2: Deserializer<'de>>(self, deserializer: D2) -> Result<Self::Value, D2::Error> {
                deserializer.deserialize_any(BytesVisitor)
            }

            fn visit_str<E: serde::de::Error>(self, value: &str) -> Result<Self::Value, E> {
                decode(value).map(Some).map_err(E::custom)
            }

            fn visit_bytes<E>(self, value: &[u8]) -> Result<Self::Value, E> {
                Ok(Some(value.to_vec()))
            }

            fn visit_byte_buf<E>(self, value: Vec<u8>) -> Result<Self::Value, E> {
                Ok(Some(value))
            }

            fn visit_seq<A: serde::de::SeqAccess<'de>>(self, mut seq: A) -> Result<Self::Value, A::Error> {
                let mut out = Vec::new();
                while let Some(byte) = seq.next_element::<u8>()? {
                    out.push(byte);
                }
                Ok(Some(out))
            }
        }

        deserializer.deserialize_option(BytesVisitor)
    }
}

pub mod loose_value {
    use serde::de::{Deserializer, MapAccess, SeqAccess, Visitor};
    use serde_json::{Map, Value};

    /// A serde_json::Value that tolerates non-string map keys anywhere in
    /// the tree. MessagePack maps may carry integer keys, which the plain
    /// Value deserializer rejects.
    pub struct LooseValue(Value);

    impl LooseValue {
        pub fn into_value(self) -> Value {
            self.0
        }
    }

    fn key_string(value: Value) -> String {
        match value {
            Value::String(text) => text,
            other => other.to_string(),
        }
    }

    impl<'de> serde::Deserialize<'de> for LooseValue {
        fn deserialize<D: Deserializer<'de>>(deserializer: D) -> Result<Self, D::Error> {
            struct LooseVisitor;

            impl<'de> Visitor<'de> for LooseVisitor {
                type Value = Value;

                fn expecting(&self, f: &mut std::fmt::Formatter) -> std::fmt::Result {
                    f.write_str("any value")
                }

                fn visit_bool<E>(self, value: bool) -> Result<Value, E> {
                    Ok(Value::Bool(value))
                }

                fn visit_i64<E>(self, value: i64) -> Result<Value, E> {
                    Ok(Value::from(value))
                }

                fn visit_u64<E>(self, value: u64) -> Result<Value, E> {
                    Ok(Value::from(value))
                }

                fn visit_f64<E>(self, value: f64) -> Result<Value, E> {
                    Ok(Value::from(value))
                }

                fn visit_str<E>(self, value: &str) -> Result<Value, E> {
                    Ok(Value::String(value.to_string()))
                }

                fn visit_string<E>(self, value: String) -> Result<Value, E> {
                    Ok(Value::String(value))
                }

                fn visit_bytes<E>(self, value: &[u8]) -> Result<Value, E> {
                    Ok(Value::Array(value.iter().map(|b| Value::from(*b)).collect()))
                }

                fn visit_none<E>(self) -> Result<Value, E> {
                    Ok(Value::Null)
                }

                fn visit_unit<E>(self) -> Result<Value, E> {
                    Ok(Value::Null)
                }

                fn visit_some<D2: Deserializer<'de>>(self, deserializer: D2) -> Result<Value, D2::Error> {
                    deserializer.deserialize_any(LooseVisitor)
                }

                fn visit_seq<A: SeqAccess<'de>>(self, mut seq: A) -> Result<Value, A::Error> {
                    let mut items = Vec::new();
                    while let Some(item) = seq.next_element::<LooseValue>()? {
                        items.push(item.into_value());
                    }
                    Ok(Value::Array(items))
                }

                fn visit_map<A: MapAccess<'de>>(self, mut access: A) -> Result<Value, A::Error> {
                    let mut map = Map::new();
                    while let Some((key, value)) = access.next_entry::<LooseValue, LooseValue>()? {
                        map.insert(key_string(key.into_value()), value.into_value());
                    }
                    Ok(Value::Object(map))
                }
            }

            deserializer.deserialize_any(LooseVisitor).map(LooseValue)
        }
    }
}

pub mod loose_map {
    use serde::{Deserialize, Deserializer, Serializer};
    use serde_json::Value;
    use std::collections::HashMap;

    use crate::loose_value::LooseValue;

    pub fn serialize<S: Serializer>(value: &Option<HashMap<String, Value>>, serializer: S) -> Result<S::Ok, S::Error> {
        match value {
            Some(map) => serializer.collect_map(map),
            None => serializer.serialize_none(),
        }
    }

    pub fn deserialize<'de, D: Deserializer<'de>>(deserializer: D) -> Result<Option<HashMap<String, Value>>, D::Error> {
        let loose: Option<LooseValue> = Option::deserialize(deserializer)?;
        Ok(loose.map(|v| match v.into_value() {
            Value::Object(map) => map.into_iter().collect(),
            _ => HashMap::new(),
        }))
    }
}

pub mod loose_list {
    use serde::{Deserialize, Deserializer, Serializer};
    use serde_json::Value;

    use crate::loose_value::LooseValue;

    pub fn serialize<S: Serializer>(value: &Option<Vec<Value>>, serializer: S) -> Result<S::Ok, S::Error> {
        match value {
            Some(items) => serializer.collect_seq(items),
            None => serializer.serialize_none(),
        }
    }

    pub fn deserialize<'de, D: Deserializer<'de>>(deserializer: D) -> Result<Option<Vec<Value>>, D::Error> {
        let loose: Option<LooseValue> = Option::deserialize(deserializer)?;
        Ok(loose.map(|v| match v.into_value() {
            Value::Array(items) => items,
            _ => Vec::new(),
        }))
    }
}`
