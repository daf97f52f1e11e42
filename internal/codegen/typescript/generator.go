// Package typescript generates TypeScript packet code.
package typescript

import (
	"github.com/crosspacket/crosspacket/internal/codegen/naming"
	"github.com/crosspacket/crosspacket/internal/codegen/typemap"
	"github.com/crosspacket/crosspacket/internal/codegen/writer"
	"github.com/crosspacket/crosspacket/internal/schema"
)

// Config holds the TypeScript target options.
type Config struct {
	TypeField string
	JSON      bool
	MsgPack   bool
	Indent    string
}

// Generator emits one module per packet plus an index.ts carrying the
// re-exports and the deserialization registry.
type Generator struct {
	cfg Config
}

// New creates a TypeScript code generator.
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
	return "typescript"
}

// FileExtension returns the file extension for generated files.
func (g *Generator) FileExtension() string {
	return ".ts"
}

// Generate produces all TypeScript artifacts for the schema.
func (g *Generator) Generate(s *schema.Schema) (map[string]string, error) {
	files := make(map[string]string, len(s.Packets)+1)
	files["index.ts"] = g.generateIndex(s)
	for _, pkt := range s.Packets {
		files[naming.Snake(pkt.Name)+".ts"] = g.generatePacket(pkt)
	}
	return files, nil
}

// generateIndex emits index.ts with re-exports and the type registry.
func (g *Generator) generateIndex(s *schema.Schema) string {
	w := writer.New(g.cfg.Indent)

	w.Line("// Auto-generated - do not modify manually")
	w.Blank()

	for _, pkt := range s.Packets {
		w.Linef("import { %s } from './%s';", pkt.Name, naming.Snake(pkt.Name))
	}
	w.Blank()
	for _, pkt := range s.Packets {
		w.Linef("export { %s } from './%s';", pkt.Name, naming.Snake(pkt.Name))
	}
	w.Blank()

	w.Line("// Packet type map for deserialization")
	if len(s.Packets) == 0 {
		w.Line("const packetTypes: Record<string, any> = {};")
	} else {
		w.Line("const packetTypes: Record<string, any> = {")
		w.Indent()
		for _, pkt := range s.Packets {
			w.Linef("'%s': %s,", pkt.Path, pkt.Name)
		}
		w.Dedent()
		w.Line("};")
	}
	w.Blank()

	w.Line("/**")
	w.Line(" * Deserialize a packet from parsed JSON data.")
	w.Linef(" * @param data - The parsed JSON object with a %s field", g.cfg.TypeField)
	w.Line(" * @returns The deserialized packet instance")
	w.Line(" */")
	w.Line("export function deserializePacket(data: any): any {")
	w.Indent()
	w.Linef("const PacketClass = packetTypes[data.%s];", g.cfg.TypeField)
	w.Linef("if (!PacketClass) throw new Error(`Unknown packet type: ${data.%s}`);", g.cfg.TypeField)
	w.Line("return PacketClass.fromData(data);")
	w.Dedent()
	w.Line("}")

	return w.String()
}

// generatePacket emits one packet module.
func (g *Generator) generatePacket(pkt schema.Packet) string {
	w := writer.New(g.cfg.Indent)

	w.Line("// Auto-generated - do not modify manually")
	if g.cfg.MsgPack {
		w.Line("import * as msgpack from '@msgpack/msgpack';")
	}
	w.Blank()

	if pkt.HasDateTime() {
		g.generateDateTimeHelper(w)
		w.Blank()
	}
	if pkt.HasBytes() {
		g.generateBytesHelpers(w)
		w.Blank()
	}
	if pkt.HasEmbeddedMap() {
		g.generateEmbeddedMapHelpers(w)
		w.Blank()
	}

	// Serialized data interface: the wire shape shared by both codecs.
	w.Linef("export interface %sData {", pkt.Name)
	w.Indent()
	w.Linef("%s: string;", g.cfg.TypeField)
	for _, f := range pkt.Fields {
		w.Linef("%s: %s | null;", naming.Camel(f.Name), g.dataType(f))
	}
	w.Dedent()
	w.Line("}")
	w.Blank()

	// Input interface: every field optional so the empty constructor works.
	w.Linef("export interface %sInput {", pkt.Name)
	w.Indent()
	for _, f := range pkt.Fields {
		w.Linef("%s?: %s | null;", naming.Camel(f.Name), g.inputType(f))
	}
	w.Dedent()
	w.Line("}")
	w.Blank()

	if pkt.Description != "" {
		w.Line("/**")
		w.Linef(" * %s", pkt.Description)
		w.Line(" */")
	}
	if pkt.Deprecated {
		w.Line("/** @deprecated Retained for wire compatibility only. */")
	}
	w.Linef("export class %s {", pkt.Name)
	w.Indent()
	w.Linef("static readonly TYPE = \"%s\";", pkt.Path)
	w.Blank()

	for _, f := range pkt.Fields {
		if f.Description != "" {
			w.Linef("/** %s */", f.Description)
		}
		if f.Deprecated {
			w.Line("/** @deprecated Retained for wire compatibility only. */")
		}
		w.Linef("%s: %s | null = null;", naming.Camel(f.Name), typemap.Native(f.Type, typemap.TypeScript))
	}
	w.Blank()

	w.Linef("constructor(data?: %sInput) {", pkt.Name)
	w.Indent()
	w.Line("if (!data) return;")
	for _, f := range pkt.Fields {
		camel := naming.Camel(f.Name)
		if f.Type == schema.TagDateTime {
			w.Linef("this.%s = data.%s != null ? (data.%s instanceof Date ? data.%s : new Date(data.%s)) : null;", camel, camel, camel, camel, camel)
		} else {
			w.Linef("this.%s = data.%s ?? null;", camel, camel)
		}
	}
	w.Dedent()
	w.Line("}")
	w.Blank()

	w.Linef("private _toData(): %sData {", pkt.Name)
	w.Indent()
	w.Line("return {")
	w.Indent()
	w.Linef("%s: %s.TYPE,", g.cfg.TypeField, pkt.Name)
	for _, f := range pkt.Fields {
		camel := naming.Camel(f.Name)
		switch f.Type {
		case schema.TagDateTime:
			w.Linef("%s: this.%s != null ? formatDateTimeWithOffset(this.%s) : null,", camel, camel, camel)
		case schema.TagEmbeddedMap:
			w.Linef("%s: this.%s != null ? embeddedMapToObject(this.%s) : null,", camel, camel, camel)
		default:
			w.Linef("%s: this.%s,", camel, camel)
		}
	}
	w.Dedent()
	w.Line("};")
	w.Dedent()
	w.Line("}")
	w.Blank()

	w.Linef("static fromData(data: %sData): %s {", pkt.Name, pkt.Name)
	w.Indent()
	w.Linef("return new %s({", pkt.Name)
	w.Indent()
	for _, f := range pkt.Fields {
		camel := naming.Camel(f.Name)
		switch f.Type {
		case schema.TagDateTime:
			w.Linef("%s: data.%s ? new Date(data.%s) : null,", camel, camel, camel)
		case schema.TagBytes:
			w.Linef("%s: data.%s != null ? asBytes(data.%s) : null,", camel, camel, camel)
		case schema.TagEmbeddedMap:
			w.Linef("%s: data.%s != null ? toEmbeddedMap(data.%s) : null,", camel, camel, camel)
		default:
			w.Linef("%s: data.%s,", camel, camel)
		}
	}
	w.Dedent()
	w.Line("});")
	w.Dedent()
	w.Line("}")
	w.Blank()

	if g.cfg.JSON {
		w.Line("toJSON(): string {")
		w.Indent()
		if pkt.HasBytes() {
			w.Line("return JSON.stringify(this._toData(), jsonReplacer);")
		} else {
			w.Line("return JSON.stringify(this._toData());")
		}
		w.Dedent()
		w.Line("}")
		w.Blank()
		w.Linef("static fromJSON(json: string): %s {", pkt.Name)
		w.Indent()
		w.Linef("return %s.fromData(JSON.parse(json) as %sData);", pkt.Name, pkt.Name)
		w.Dedent()
		w.Line("}")
		w.Blank()
	}

	if g.cfg.MsgPack {
		w.Line("toMsgPack(): Uint8Array {")
		w.Indent()
		w.Line("return msgpack.encode(this._toData());")
		w.Dedent()
		w.Line("}")
		w.Blank()
		w.Linef("static fromMsgPack(bytes: Uint8Array): %s {", pkt.Name)
		w.Indent()
		w.Linef("const data = msgpack.decode(bytes) as %sData;", pkt.Name)
		w.Linef("return %s.fromData(data);", pkt.Name)
		w.Dedent()
		w.Line("}")
	}

	w.Dedent()
	w.Line("}")

	return w.String()
}

func (g *Generator) generateDateTimeHelper(w *writer.Writer) {
	w.Line("/** Formats a Date with a 3-digit fraction and explicit offset, never Z. */")
	w.Line("function formatDateTimeWithOffset(date: Date): string {")
	w.Indent()
	w.Line("const pad = (n: number, width = 2) => n.toString().padStart(width, '0');")
	w.Line("const offsetMinutesTotal = -date.getTimezoneOffset();")
	w.Line("const sign = offsetMinutesTotal < 0 ? '-' : '+';")
	w.Line("const offsetHours = pad(Math.floor(Math.abs(offsetMinutesTotal) / 60));")
	w.Line("const offsetMinutes = pad(Math.abs(offsetMinutesTotal) % 60);")
	w.Line("const base = `${date.getFullYear()}-${pad(date.getMonth() + 1)}-${pad(date.getDate())}` +")
	w.Indent()
	w.Line("`T${pad(date.getHours())}:${pad(date.getMinutes())}:${pad(date.getSeconds())}.${pad(date.getMilliseconds(), 3)}`;")
	w.Dedent()
	w.Line("return `${base}${sign}${offsetHours}:${offsetMinutes}`;")
	w.Dedent()
	w.Line("}")
}

func (g *Generator) generateBytesHelpers(w *writer.Writer) {
	w.Line("/** Accepts native binary or padded base64 text. */")
	w.Line("function asBytes(value: Uint8Array | string): Uint8Array {")
	w.Indent()
	w.Line("if (typeof value !== 'string') return value;")
	w.Line("const binary = atob(value);")
	w.Line("const bytes = new Uint8Array(binary.length);")
	w.Line("for (let i = 0; i < binary.length; i++) bytes[i] = binary.charCodeAt(i);")
	w.Line("return bytes;")
	w.Dedent()
	w.Line("}")
	w.Blank()
	w.Line("/** JSON replacer: binary fields become padded base64 text. */")
	w.Line("function jsonReplacer(_key: string, value: any): any {")
	w.Indent()
	w.Line("if (value instanceof Uint8Array) {")
	w.Indent()
	w.Line("let binary = '';")
	w.Line("for (let i = 0; i < value.length; i++) binary += String.fromCharCode(value[i]);")
	w.Line("return btoa(binary);")
	w.Dedent()
	w.Line("}")
	w.Line("return value;")
	w.Dedent()
	w.Line("}")
}

func (g *Generator) generateEmbeddedMapHelpers(w *writer.Writer) {
	w.Line("/** Recursively converts loose containers to string-keyed plain objects. */")
	w.Line("function normalizeLoose(value: any): any {")
	w.Indent()
	w.Line("if (value instanceof Map) {")
	w.Indent()
	w.Line("const result: Record<string, any> = {};")
	w.Line("value.forEach((v, k) => {")
	w.Indent()
	w.Line("result[String(k)] = normalizeLoose(v);")
	w.Dedent()
	w.Line("});")
	w.Line("return result;")
	w.Dedent()
	w.Line("}")
	w.Line("if (Array.isArray(value)) return value.map(normalizeLoose);")
	w.Line("if (value !== null && typeof value === 'object' && !(value instanceof Uint8Array) && !(value instanceof Date)) {")
	w.Indent()
	w.Line("const result: Record<string, any> = {};")
	w.Line("for (const [k, v] of Object.entries(value)) result[String(k)] = normalizeLoose(v);")
	w.Line("return result;")
	w.Dedent()
	w.Line("}")
	w.Line("return value;")
	w.Dedent()
	w.Line("}")
	w.Blank()
	w.Line("function embeddedMapToObject(map: Map<any, any>): Record<string, any> {")
	w.Indent()
	w.Line("return normalizeLoose(map) as Record<string, any>;")
	w.Dedent()
	w.Line("}")
	w.Blank()
	w.Line("function toEmbeddedMap(value: Record<string, any> | Map<any, any>): Map<any, any> {")
	w.Indent()
	w.Line("return new Map(Object.entries(normalizeLoose(value) as Record<string, any>));")
	w.Dedent()
	w.Line("}")
}

// dataType is the wire-shape type of a field in the Data interface.
func (g *Generator) dataType(f schema.Field) string {
	switch f.Type {
	case schema.TagDateTime:
		return "string"
	case schema.TagBytes:
		return "Uint8Array | string"
	case schema.TagEmbeddedMap:
		return "Record<string, any>"
	default:
		return typemap.Native(f.Type, typemap.TypeScript)
	}
}

// inputType is the constructor input type of a field.
func (g *Generator) inputType(f schema.Field) string {
	if f.Type == schema.TagDateTime {
		return "Date | string"
	}
	return typemap.Native(f.Type, typemap.TypeScript)
}
