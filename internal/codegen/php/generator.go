// Package php generates PHP packet code using ext-json and ext-msgpack.
package php

import (
	"github.com/crosspacket/crosspacket/internal/codegen/naming"
	"github.com/crosspacket/crosspacket/internal/codegen/typemap"
	"github.com/crosspacket/crosspacket/internal/codegen/writer"
	"github.com/crosspacket/crosspacket/internal/schema"
)

// Config holds the PHP target options.
type Config struct {
	TypeField string
	JSON      bool
	MsgPack   bool
	Indent    string
	Namespace string
}

// Generator emits one class per packet plus DataPacket.php, the class-map
// dispatcher shared by both wire formats.
type Generator struct {
	cfg Config
}

// New creates a PHP code generator.
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
	return "php"
}

// FileExtension returns the file extension for generated files.
func (g *Generator) FileExtension() string {
	return ".php"
}

// Generate produces all PHP artifacts for the schema.
func (g *Generator) Generate(s *schema.Schema) (map[string]string, error) {
	files := make(map[string]string, len(s.Packets)+1)
	files["DataPacket.php"] = g.generateBase(s)
	for _, pkt := range s.Packets {
		files[pkt.Name+".php"] = g.generatePacket(pkt)
	}
	return files, nil
}

// generateBase emits DataPacket.php: the timestamp format constant and the
// class-map dispatch for both wire formats.
func (g *Generator) generateBase(s *schema.Schema) string {
	w := writer.New(g.cfg.Indent)
	w.Line("<?php")
	w.Line("// Auto-generated by CrossPacket - do not modify manually")
	w.Blank()
	w.Line("declare(strict_types=1);")
	w.Blank()
	w.Linef("namespace %s;", g.cfg.Namespace)
	w.Blank()
	w.Line("use InvalidArgumentException;")
	w.Blank()

	w.Line("/**")
	w.Line(" * Entry points for decoding any known packet by its type identifier.")
	w.Line(" */")
	w.Line("final class DataPacket")
	w.Line("{")
	w.Indent()
	w.Line("public const TIMESTAMP_FORMAT = 'Y-m-d\\TH:i:s.vP';")
	w.Blank()
	w.Line("/** @var array<string, class-string> */")
	w.Line("private const REGISTRY = [")
	w.Indent()
	for _, pkt := range s.Packets {
		w.Linef("'%s' => %s::class,", pkt.Path, pkt.Name)
	}
	w.Dedent()
	w.Line("];")
	w.Blank()

	if g.cfg.JSON {
		w.Line("/**")
		w.Line(" * Decodes any known packet from its JSON encoding.")
		w.Line(" *")
		w.Line(" * @throws InvalidArgumentException when the type identifier is not registered")
		w.Line(" */")
		w.Line("public static function deserialize(string $json): object")
		w.Line("{")
		w.Indent()
		w.Line("$data = json_decode($json, true, 512, JSON_THROW_ON_ERROR);")
		w.Linef("$type = is_array($data) ? (string) ($data['%s'] ?? '') : '';", g.cfg.TypeField)
		w.Line("$class = self::REGISTRY[$type] ?? null;")
		w.Line("if ($class === null) {")
		w.Indent()
		w.Line("throw new InvalidArgumentException(\"Unknown packet type: $type\");")
		w.Dedent()
		w.Line("}")
		w.Line("return $class::fromJson($json);")
		w.Dedent()
		w.Line("}")
		w.Blank()
	}

	if g.cfg.MsgPack {
		w.Line("/**")
		w.Line(" * Decodes any known packet from its MessagePack encoding.")
		w.Line(" *")
		w.Line(" * @throws InvalidArgumentException when the type identifier is not registered")
		w.Line(" */")
		w.Line("public static function deserializeMsgPack(string $data): object")
		w.Line("{")
		w.Indent()
		w.Line("$arr = msgpack_unpack($data);")
		w.Linef("$type = is_array($arr) ? (string) ($arr['%s'] ?? '') : '';", g.cfg.TypeField)
		w.Line("$class = self::REGISTRY[$type] ?? null;")
		w.Line("if ($class === null) {")
		w.Indent()
		w.Line("throw new InvalidArgumentException(\"Unknown packet type: $type\");")
		w.Dedent()
		w.Line("}")
		w.Line("return $class::fromMsgPack($data);")
		w.Dedent()
		w.Line("}")
		w.Blank()

		w.Line("/**")
		w.Line(" * Recursively converts a loose container decoded from binary data,")
		w.Line(" * casting every map key to string.")
		w.Line(" */")
		w.Line("public static function normalizeArray(mixed $value): array")
		w.Line("{")
		w.Indent()
		w.Line("if ($value instanceof \\stdClass) {")
		w.Indent()
		w.Line("$value = (array) $value;")
		w.Dedent()
		w.Line("}")
		w.Line("if (!is_array($value)) {")
		w.Indent()
		w.Line("return [];")
		w.Dedent()
		w.Line("}")
		w.Line("$result = [];")
		w.Line("foreach ($value as $key => $item) {")
		w.Indent()
		w.Line("$result[(string) $key] = self::normalizeValue($item);")
		w.Dedent()
		w.Line("}")
		w.Line("return $result;")
		w.Dedent()
		w.Line("}")
		w.Blank()

		w.Line("public static function normalizeValue(mixed $value): mixed")
		w.Line("{")
		w.Indent()
		w.Line("if ($value instanceof \\stdClass || is_array($value)) {")
		w.Indent()
		w.Line("return self::normalizeArray($value);")
		w.Dedent()
		w.Line("}")
		w.Line("return $value;")
		w.Dedent()
		w.Line("}")
	}

	w.Dedent()
	w.Line("}")
	return w.String()
}

// generatePacket emits one packet class with fluent setters.
func (g *Generator) generatePacket(pkt schema.Packet) string {
	w := writer.New(g.cfg.Indent)
	w.Line("<?php")
	w.Line("// Auto-generated by CrossPacket - do not modify manually")
	w.Blank()
	w.Line("declare(strict_types=1);")
	w.Blank()
	w.Linef("namespace %s;", g.cfg.Namespace)
	w.Blank()
	if pkt.HasDateTime() {
		w.Line("use DateTimeImmutable;")
	}
	if g.cfg.JSON {
		w.Line("use JsonSerializable;")
	}
	w.Blank()

	if pkt.Description != "" || pkt.Deprecated {
		w.Line("/**")
		if pkt.Description != "" {
			w.DocComment(" *", pkt.Description)
		}
		if pkt.Deprecated {
			w.Line(" * @deprecated Retained for wire compatibility only.")
		}
		w.Line(" */")
	}
	if g.cfg.JSON {
		w.Linef("class %s implements JsonSerializable", pkt.Name)
	} else {
		w.Linef("class %s", pkt.Name)
	}
	w.Line("{")
	w.Indent()
	w.Linef("public const TYPE = '%s';", pkt.Path)
	w.Blank()

	for _, f := range pkt.Fields {
		if f.Description != "" {
			w.Linef("/** @var %s %s */", g.nullableType(f), f.Description)
		}
		w.Linef("private %s $%s = null;", g.nullableType(f), f.Name)
	}
	w.Blank()

	w.Line("public function __construct(")
	if len(pkt.Fields) > 0 {
		w.Indent()
		for i, f := range pkt.Fields {
			comma := ","
			if i == len(pkt.Fields)-1 {
				comma = ""
			}
			w.Linef("%s $%s = null%s", g.nullableType(f), f.Name, comma)
		}
		w.Dedent()
	}
	w.Line(") {")
	w.Indent()
	for _, f := range pkt.Fields {
		w.Linef("$this->%s = $%s;", f.Name, f.Name)
	}
	w.Dedent()
	w.Line("}")
	w.Blank()

	for _, f := range pkt.Fields {
		pascal := naming.Pascal(f.Name)
		w.Linef("public function get%s(): %s", pascal, g.nullableType(f))
		w.Line("{")
		w.Indent()
		w.Linef("return $this->%s;", f.Name)
		w.Dedent()
		w.Line("}")
		w.Blank()
		w.Linef("public function set%s(%s $%s): self", pascal, g.nullableType(f), f.Name)
		w.Line("{")
		w.Indent()
		w.Linef("$this->%s = $%s;", f.Name, f.Name)
		w.Line("return $this;")
		w.Dedent()
		w.Line("}")
		w.Blank()
	}

	// The wire map differs between formats only for bytes: base64 text in
	// JSON, the raw byte string in MessagePack.
	w.Line("private function toArray(bool $forJson): array")
	w.Line("{")
	w.Indent()
	w.Line("return [")
	w.Indent()
	w.Linef("'%s' => self::TYPE,", g.cfg.TypeField)
	for _, f := range pkt.Fields {
		w.Linef("'%s' => %s,", f.Name, g.encodeExpr(f))
	}
	w.Dedent()
	w.Line("];")
	w.Dedent()
	w.Line("}")
	w.Blank()

	if g.cfg.JSON {
		w.Line("public function jsonSerialize(): array")
		w.Line("{")
		w.Indent()
		w.Line("return $this->toArray(true);")
		w.Dedent()
		w.Line("}")
		w.Blank()

		w.Line("public function toJson(): string")
		w.Line("{")
		w.Indent()
		w.Line("return json_encode($this->jsonSerialize(), JSON_THROW_ON_ERROR);")
		w.Dedent()
		w.Line("}")
		w.Blank()

		w.Line("public static function fromJson(string $json): self")
		w.Line("{")
		w.Indent()
		w.Line("$data = json_decode($json, true, 512, JSON_THROW_ON_ERROR);")
		w.Line("$instance = new self();")
		for _, f := range pkt.Fields {
			w.Linef("if (isset($data['%s'])) {", f.Name)
			w.Indent()
			w.Linef("$instance->set%s(%s);", naming.Pascal(f.Name), g.decodeExpr(f, "$data", true))
			w.Dedent()
			w.Line("}")
		}
		w.Line("return $instance;")
		w.Dedent()
		w.Line("}")
		w.Blank()
	}

	if g.cfg.MsgPack {
		w.Line("public function toMsgPack(): string")
		w.Line("{")
		w.Indent()
		w.Line("return msgpack_pack($this->toArray(false));")
		w.Dedent()
		w.Line("}")
		w.Blank()

		w.Line("public static function fromMsgPack(string $data): self")
		w.Line("{")
		w.Indent()
		w.Line("$arr = msgpack_unpack($data);")
		w.Line("$instance = new self();")
		for _, f := range pkt.Fields {
			w.Linef("if (isset($arr['%s'])) {", f.Name)
			w.Indent()
			w.Linef("$instance->set%s(%s);", naming.Pascal(f.Name), g.decodeExpr(f, "$arr", false))
			w.Dedent()
			w.Line("}")
		}
		w.Line("return $instance;")
		w.Dedent()
		w.Line("}")
	}

	w.Dedent()
	w.Line("}")
	return w.String()
}

// nullableType returns the property type for a field. mixed already admits
// null, everything else gets the ? prefix.
func (g *Generator) nullableType(f schema.Field) string {
	base := typemap.Native(f.Type, typemap.PHP)
	if base == "mixed" {
		return "mixed"
	}
	return "?" + base
}

// encodeExpr renders the wire value of a field inside toArray.
func (g *Generator) encodeExpr(f schema.Field) string {
	switch f.Type {
	case schema.TagDateTime:
		return "$this->" + f.Name + "?->format(DataPacket::TIMESTAMP_FORMAT)"
	case schema.TagBytes:
		return "$forJson && $this->" + f.Name + " !== null ? base64_encode($this->" + f.Name + ") : $this->" + f.Name
	default:
		return "$this->" + f.Name
	}
}

// decodeExpr renders the native value of a field read from a decoded map.
func (g *Generator) decodeExpr(f schema.Field, source string, fromJSON bool) string {
	access := source + "['" + f.Name + "']"
	switch f.Type {
	case schema.TagDateTime:
		return "new DateTimeImmutable(" + access + ")"
	case schema.TagBytes:
		if fromJSON {
			return "base64_decode(" + access + ", true) ?: ''"
		}
		return access
	case schema.TagInt:
		return "(int) " + access
	case schema.TagFloat, schema.TagDouble:
		return "(float) " + access
	case schema.TagBool:
		return "(bool) " + access
	case schema.TagString, schema.TagTime:
		return "(string) " + access
	case schema.TagList, schema.TagMap, schema.TagEmbeddedMap, schema.TagMapStringAny:
		if fromJSON {
			return access
		}
		return "DataPacket::normalizeArray(" + access + ")"
	default:
		return access
	}
}
