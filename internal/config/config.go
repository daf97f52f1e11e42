// Package config loads the generation-run configuration carried in the
// schema document's config section.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Target holds the per-target generation options from the document.
type Target struct {
	OutputDir string `yaml:"output_dir"`
	Indent    string `yaml:"indent"`
	Package   string `yaml:"package"`
	Namespace string `yaml:"namespace"`
}

// Config is the parsed config section of a schema document. The same
// document carries both the packet definitions and the run configuration.
type Config struct {
	Targets map[string]Target
}

// defaults per target: output directory, indent unit, and the package or
// namespace name for targets that declare one.
var defaults = map[string]Target{
	"dart":       {OutputDir: "./generated/dart", Indent: "  "},
	"python":     {OutputDir: "./generated/python", Indent: "    "},
	"java":       {OutputDir: "./generated/java", Indent: "    ", Package: "com.crosspacket"},
	"typescript": {OutputDir: "./generated/typescript", Indent: "  "},
	"rust":       {OutputDir: "./generated/rust", Indent: "    "},
	"go":         {OutputDir: "./generated/go", Indent: "\t", Package: "packets"},
	"cpp":        {OutputDir: "./generated/cpp", Indent: "    ", Namespace: "packets"},
	"csharp":     {OutputDir: "./generated/csharp", Indent: "    ", Namespace: "CrossPacket"},
	"php":        {OutputDir: "./generated/php", Indent: "    ", Namespace: "CrossPacket"},
}

// Load reads and parses the config section of the document at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse extracts per-target configuration from a schema document (YAML or
// JSON). Unknown targets are kept verbatim; the registry rejects them later.
func Parse(data []byte) (*Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config document: %w", err)
	}
	cfg := &Config{Targets: make(map[string]Target)}
	if len(doc.Content) == 0 {
		return cfg, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return cfg, nil
	}
	for i := 0; i < len(root.Content)-1; i += 2 {
		if root.Content[i].Value != "config" {
			continue
		}
		section := root.Content[i+1]
		if section.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("config section must be a mapping")
		}
		for j := 0; j < len(section.Content)-1; j += 2 {
			name := section.Content[j].Value
			if name == "global" {
				// Global settings belong to the schema parser.
				continue
			}
			var t Target
			if err := section.Content[j+1].Decode(&t); err != nil {
				return nil, fmt.Errorf("failed to parse config for target %q: %w", name, err)
			}
			cfg.Targets[name] = t
		}
	}
	return cfg, nil
}

// Target returns the effective configuration for a target: the document's
// entry merged over the built-in defaults.
func (c *Config) Target(name string) Target {
	t := defaults[name]
	doc, ok := c.Targets[name]
	if !ok {
		return t
	}
	if doc.OutputDir != "" {
		t.OutputDir = doc.OutputDir
	}
	if doc.Indent != "" {
		t.Indent = doc.Indent
	}
	if doc.Package != "" {
		t.Package = doc.Package
	}
	if doc.Namespace != "" {
		t.Namespace = doc.Namespace
	}
	return t
}

// PackageName returns the value threaded into the generator's package or
// namespace option for a target. Targets without one return "".
func (t Target) PackageName() string {
	if t.Package != "" {
		return t.Package
	}
	return t.Namespace
}
