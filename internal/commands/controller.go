// Package commands contains the CLI commands for the application
package commands

// Flags carries the command-line options shared across commands.
type Flags struct {
	// Config is the path to the schema document (packets.yaml / packets.json).
	Config string

	// Targets lists the explicitly selected targets; empty means all.
	Targets []string
	All     bool

	// Override rewrites artifacts that already exist on disk.
	Override bool

	// Clean removes previously generated files before writing.
	Clean bool

	// NoJSON and NoMsgPack disable a codec on top of the document settings.
	NoJSON    bool
	NoMsgPack bool
}

// Controller dispatches CLI commands.
type Controller struct {
	Flags *Flags
}
