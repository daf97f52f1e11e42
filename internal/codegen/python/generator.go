// Package python generates Python packet code.
package python

import (
	"fmt"

	"github.com/crosspacket/crosspacket/internal/codegen/naming"
	"github.com/crosspacket/crosspacket/internal/codegen/typemap"
	"github.com/crosspacket/crosspacket/internal/codegen/writer"
	"github.com/crosspacket/crosspacket/internal/schema"
)

// Config holds the Python target options.
type Config struct {
	TypeField string
	JSON      bool
	MsgPack   bool
	Indent    string
}

// Generator emits dataclass-based packet modules plus the package base
// (__init__.py with dispatch, packet_utils.py with shared codec helpers,
// security_utils.py with the validation toolkit).
type Generator struct {
	cfg Config
}

// New creates a Python code generator.
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
	return "python"
}

// FileExtension returns the file extension for generated files.
func (g *Generator) FileExtension() string {
	return ".py"
}

// Generate produces all Python artifacts for the schema.
func (g *Generator) Generate(s *schema.Schema) (map[string]string, error) {
	files := make(map[string]string, len(s.Packets)+3)
	files["__init__.py"] = g.generateInit(s)
	files["packet_utils.py"] = g.generateUtils()
	files["security_utils.py"] = g.generateSecurityUtils()
	for _, pkt := range s.Packets {
		files[naming.Snake(pkt.Name)+".py"] = g.generatePacket(pkt)
	}
	return files, nil
}

// generateInit emits the package init with the type registry and dispatch.
func (g *Generator) generateInit(s *schema.Schema) string {
	w := writer.New(g.cfg.Indent)

	w.Line(`"""`)
	w.Line("Auto-generated packet module.")
	w.Line(`"""`)
	w.Blank()

	for _, pkt := range s.Packets {
		w.Linef("from .%s import %s", naming.Snake(pkt.Name), pkt.Name)
	}
	if len(s.Packets) > 0 {
		w.Blank()
	}
	w.Blank()

	w.Line("# Registry of wire type identifier to packet class.")
	if len(s.Packets) == 0 {
		w.Line("PACKET_TYPES = {}")
	} else {
		w.Line("PACKET_TYPES = {")
		w.Indent()
		for _, pkt := range s.Packets {
			w.Linef("%q: %s,", pkt.Path, pkt.Name)
		}
		w.Dedent()
		w.Line("}")
	}
	w.Blank()
	w.Blank()

	w.Line("def deserialize_packet(data):")
	w.Indent()
	w.Linef(`"""Deserialize a packet based on its %s field."""`, g.cfg.TypeField)
	w.Linef(`packet_type = data.get(%q) if isinstance(data, dict) else None`, g.cfg.TypeField)
	w.Line("packet_class = PACKET_TYPES.get(packet_type)")
	w.Line("if packet_class is None:")
	w.Indent()
	w.Line(`raise ValueError(f"Unknown packet type: {packet_type}")`)
	w.Dedent()
	w.Line("return packet_class._from_dict(data)")
	w.Dedent()

	return w.String()
}

// generateUtils emits the shared codec helpers. Timestamps render with
// exactly three fraction digits and an explicit offset, never a bare Z.
func (g *Generator) generateUtils() string {
	w := writer.New(g.cfg.Indent)

	w.Line(`"""`)
	w.Line("Shared serialization helpers for generated packets.")
	w.Line(`"""`)
	w.Line("from __future__ import annotations")
	w.Blank()
	w.Line("import base64")
	w.Line("from datetime import datetime, time")
	w.Line("from typing import Any, Dict, List, Optional")
	w.Blank()
	w.Blank()

	w.Line("def format_timestamp(value: datetime) -> str:")
	w.Indent()
	w.Line(`"""Format as yyyy-MM-ddTHH:mm:ss.SSS+HH:MM with a 3-digit fraction."""`)
	w.Line("if value.tzinfo is None:")
	w.Indent()
	w.Line("value = value.astimezone()")
	w.Dedent()
	w.Line(`base = value.strftime("%Y-%m-%dT%H:%M:%S") + f".{value.microsecond // 1000:03d}"`)
	w.Line(`offset = value.strftime("%z")`)
	w.Line(`return base + offset[:3] + ":" + offset[3:]`)
	w.Dedent()
	w.Blank()
	w.Blank()

	w.Line("def parse_timestamp(value: str) -> datetime:")
	w.Indent()
	w.Line(`"""Parse an offset timestamp, tolerating a trailing Z."""`)
	w.Line(`return datetime.fromisoformat(value.replace("Z", "+00:00"))`)
	w.Dedent()
	w.Blank()
	w.Blank()

	w.Line("def format_time(value: time) -> str:")
	w.Indent()
	w.Line(`"""Format a time of day as zero-padded HH:MM."""`)
	w.Line(`return value.strftime("%H:%M")`)
	w.Dedent()
	w.Blank()
	w.Blank()

	w.Line("def parse_time(value: str) -> time:")
	w.Indent()
	w.Line("return time.fromisoformat(value)")
	w.Dedent()
	w.Blank()
	w.Blank()

	w.Line("def as_bytes(value: Any) -> Optional[bytes]:")
	w.Indent()
	w.Line(`"""Accept native binary or padded base64 text."""`)
	w.Line("if value is None:")
	w.Indent()
	w.Line("return None")
	w.Dedent()
	w.Line("if isinstance(value, str):")
	w.Indent()
	w.Line("return base64.b64decode(value)")
	w.Dedent()
	w.Line("return bytes(value)")
	w.Dedent()
	w.Blank()
	w.Blank()

	w.Line("def normalize_value(value: Any) -> Any:")
	w.Indent()
	w.Line(`"""Recursively convert loose containers to string-keyed dicts and lists."""`)
	w.Line("if isinstance(value, dict):")
	w.Indent()
	w.Line("return {str(k): normalize_value(v) for k, v in value.items()}")
	w.Dedent()
	w.Line("if isinstance(value, (list, tuple)):")
	w.Indent()
	w.Line("return [normalize_value(item) for item in value]")
	w.Dedent()
	w.Line("return value")
	w.Dedent()
	w.Blank()
	w.Blank()

	w.Line("def normalize_map(value: Any) -> Optional[Dict[str, Any]]:")
	w.Indent()
	w.Line(`"""Normalize a decoded map field, tolerating non-string keys."""`)
	w.Line("if value is None:")
	w.Indent()
	w.Line("return None")
	w.Dedent()
	w.Line("if not isinstance(value, dict):")
	w.Indent()
	w.Line("return {}")
	w.Dedent()
	w.Line("return {str(k): normalize_value(v) for k, v in value.items()}")
	w.Dedent()
	w.Blank()
	w.Blank()

	w.Line("def normalize_list(value: Any) -> Optional[List[Any]]:")
	w.Indent()
	w.Line(`"""Normalize a decoded list field, walking nested containers."""`)
	w.Line("if value is None:")
	w.Indent()
	w.Line("return None")
	w.Dedent()
	w.Line("return [normalize_value(item) for item in value]")
	w.Dedent()
	w.Blank()
	w.Blank()

	w.Line("def json_default(value: Any) -> Any:")
	w.Indent()
	w.Line(`"""JSON fallback encoder: bytes become padded base64 text."""`)
	w.Line("if isinstance(value, bytes):")
	w.Indent()
	w.Line(`return base64.b64encode(value).decode("ascii")`)
	w.Dedent()
	w.Line("return str(value)")
	w.Dedent()

	return w.String()
}

// generatePacket emits one dataclass packet module.
func (g *Generator) generatePacket(pkt schema.Packet) string {
	w := writer.New(g.cfg.Indent)

	w.Line(`"""`)
	w.Linef("Auto-generated packet: %s", pkt.Name)
	if pkt.Description != "" {
		w.Line(pkt.Description)
	}
	if pkt.Deprecated {
		w.Blank()
		w.Line("Deprecated: retained for wire compatibility only.")
	}
	w.Line(`"""`)
	w.Line("from __future__ import annotations")
	w.Blank()

	if g.cfg.JSON {
		w.Line("import json")
	}
	w.Line("from dataclasses import dataclass")
	w.Line("from typing import Any, ClassVar, Dict, List, Optional")
	if pkt.HasDateTime() && pkt.HasTime() {
		w.Line("from datetime import datetime, time")
	} else if pkt.HasDateTime() {
		w.Line("from datetime import datetime")
	} else if pkt.HasTime() {
		w.Line("from datetime import time")
	}

	helpers := g.helperImports(pkt)
	if len(helpers) > 0 {
		w.Blank()
		w.Write("from .packet_utils import ")
		for i, name := range helpers {
			if i > 0 {
				w.Write(", ")
			}
			w.Write(name)
		}
		w.Newline()
	}

	if g.cfg.MsgPack {
		w.Blank()
		w.Line("try:")
		w.Indent()
		w.Line("import msgpack")
		w.Line("HAS_MSGPACK = True")
		w.Dedent()
		w.Line("except ImportError:")
		w.Indent()
		w.Line("HAS_MSGPACK = False")
		w.Dedent()
	}
	w.Blank()
	w.Blank()

	w.Line("@dataclass")
	w.Linef("class %s:", pkt.Name)
	w.Indent()
	if pkt.Description != "" {
		w.Linef(`"""%s"""`, pkt.Description)
	} else {
		w.Linef(`"""Data packet for %s."""`, pkt.Path)
	}
	w.Blank()
	w.Linef("TYPE: ClassVar[str] = %q", pkt.Path)
	w.Blank()

	// All fields default to None so the empty constructor works.
	for _, f := range pkt.Fields {
		w.Linef("%s: Optional[%s] = None", f.Name, typemap.Native(f.Type, typemap.Python))
	}
	if len(pkt.Fields) > 0 {
		w.Blank()
	}

	w.Line("def _to_dict(self) -> Dict[str, Any]:")
	w.Indent()
	w.Line(`"""Convert to dictionary for serialization (internal)."""`)
	w.Line("return {")
	w.Indent()
	w.Linef("%q: self.TYPE,", g.cfg.TypeField)
	for _, f := range pkt.Fields {
		w.Linef("%q: %s,", f.Name, g.encodeExpr(f))
	}
	w.Dedent()
	w.Line("}")
	w.Dedent()
	w.Blank()

	if g.cfg.JSON {
		w.Line("def to_json(self) -> str:")
		w.Indent()
		w.Line(`"""Serialize to JSON string."""`)
		w.Line("return json.dumps(self._to_dict(), default=json_default)")
		w.Dedent()
		w.Blank()
	}

	if g.cfg.MsgPack {
		w.Line("def to_msgpack(self) -> bytes:")
		w.Indent()
		w.Line(`"""Serialize to MessagePack binary format."""`)
		w.Line("if not HAS_MSGPACK:")
		w.Indent()
		w.Line(`raise ImportError("msgpack is required for binary serialization")`)
		w.Dedent()
		w.Line("return msgpack.packb(self._to_dict(), use_bin_type=True)")
		w.Dedent()
		w.Blank()
	}

	w.Line("@classmethod")
	w.Linef("def _from_dict(cls, data: Dict[str, Any]) -> %s:", pkt.Name)
	w.Indent()
	w.Line(`"""Create instance from dictionary (internal)."""`)
	if len(pkt.Fields) == 0 {
		w.Line("return cls()")
	} else {
		w.Line("return cls(")
		w.Indent()
		for _, f := range pkt.Fields {
			w.Linef("%s=%s,", f.Name, g.decodeExpr(f))
		}
		w.Dedent()
		w.Line(")")
	}
	w.Dedent()
	w.Blank()

	if g.cfg.JSON {
		w.Line("@classmethod")
		w.Linef("def from_json(cls, json_str: str) -> %s:", pkt.Name)
		w.Indent()
		w.Line(`"""Deserialize from JSON string."""`)
		w.Line("return cls._from_dict(json.loads(json_str))")
		w.Dedent()
		w.Blank()
	}

	if g.cfg.MsgPack {
		w.Line("@classmethod")
		w.Linef("def from_msgpack(cls, data: bytes) -> %s:", pkt.Name)
		w.Indent()
		w.Line(`"""Deserialize from MessagePack binary format."""`)
		w.Line("if not HAS_MSGPACK:")
		w.Indent()
		w.Line(`raise ImportError("msgpack is required for binary deserialization")`)
		w.Dedent()
		w.Line("return cls._from_dict(msgpack.unpackb(data, raw=False))")
		w.Dedent()
	}
	w.Dedent()

	return w.String()
}

// encodeExpr renders the _to_dict value expression for a field.
func (g *Generator) encodeExpr(f schema.Field) string {
	name := "self." + f.Name
	switch f.Type {
	case schema.TagDateTime:
		return fmt.Sprintf("format_timestamp(%s) if %s else None", name, name)
	case schema.TagTime:
		return fmt.Sprintf("format_time(%s) if %s else None", name, name)
	default:
		return name
	}
}

// decodeExpr renders the _from_dict value expression for a field.
func (g *Generator) decodeExpr(f schema.Field) string {
	getter := fmt.Sprintf("data.get('%s')", f.Name)
	switch f.Type {
	case schema.TagDateTime:
		return fmt.Sprintf("parse_timestamp(%s) if %s else None", getter, getter)
	case schema.TagTime:
		return fmt.Sprintf("parse_time(%s) if %s else None", getter, getter)
	case schema.TagBytes:
		return fmt.Sprintf("as_bytes(%s)", getter)
	case schema.TagMap, schema.TagEmbeddedMap, schema.TagMapStringAny:
		return fmt.Sprintf("normalize_map(%s)", getter)
	case schema.TagList:
		return fmt.Sprintf("normalize_list(%s)", getter)
	case schema.TagListInt:
		return fmt.Sprintf("[int(x) for x in %s] if %s is not None else None", getter, getter)
	case schema.TagListString:
		return fmt.Sprintf("[str(x) for x in %s] if %s is not None else None", getter, getter)
	case schema.TagInt:
		return fmt.Sprintf("int(%s) if %s is not None else None", getter, getter)
	case schema.TagFloat, schema.TagDouble:
		return fmt.Sprintf("float(%s) if %s is not None else None", getter, getter)
	case schema.TagBool:
		return fmt.Sprintf("bool(%s) if %s is not None else None", getter, getter)
	default:
		return getter
	}
}

// helperImports lists the packet_utils names a packet module needs.
func (g *Generator) helperImports(pkt schema.Packet) []string {
	var names []string
	if pkt.HasDateTime() {
		names = append(names, "format_timestamp", "parse_timestamp")
	}
	if pkt.HasTime() {
		names = append(names, "format_time", "parse_time")
	}
	if pkt.HasBytes() {
		names = append(names, "as_bytes")
	}
	needMap, needList := false, false
	for _, f := range pkt.Fields {
		switch f.Type {
		case schema.TagMap, schema.TagEmbeddedMap, schema.TagMapStringAny:
			needMap = true
		case schema.TagList:
			needList = true
		}
	}
	if needMap {
		names = append(names, "normalize_map")
	}
	if needList {
		names = append(names, "normalize_list")
	}
	if g.cfg.JSON {
		names = append(names, "json_default")
	}
	return names
}
