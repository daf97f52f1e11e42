package codegen

import "github.com/crosspacket/crosspacket/internal/schema"

// Fileset maps an artifact identifier (a file name relative to the target's
// output directory) to its generated text. The alias keeps emitter packages
// free of any dependency on this package.
type Fileset = map[string]string

// Generator is the interface every target emitter implements.
type Generator interface {
	// Generate produces all artifacts for the schema: one base artifact plus
	// one or more artifacts per packet. It never touches the filesystem.
	Generate(s *schema.Schema) (Fileset, error)

	// Target returns the canonical target name (e.g. "python", "typescript").
	Target() string

	// FileExtension returns the extension of generated files (e.g. ".py").
	FileExtension() string
}

// Options carries the per-run settings threaded into each generator factory.
// Zero values mean "use the target's default".
type Options struct {
	// TypeField is the wire field carrying the packet type identifier.
	TypeField string

	// JSON and MsgPack toggle the serialization codecs.
	JSON    bool
	MsgPack bool

	// Indent is the indent unit for generated code.
	Indent string

	// Package is the package, namespace, or module name for targets that
	// declare one (Java package, Go package, C++/C#/PHP namespace).
	Package string
}
