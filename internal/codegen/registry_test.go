package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosspacket/crosspacket/internal/schema"
)

type stubGenerator struct {
	target string
	opts   Options
}

func (s *stubGenerator) Generate(*schema.Schema) (Fileset, error) { return Fileset{}, nil }
func (s *stubGenerator) Target() string                           { return s.target }
func (s *stubGenerator) FileExtension() string                    { return ".txt" }

func TestRegistry_RegisterAndGet(t *testing.T) {
	// Test: registered factories build generators with the given options
	r := NewRegistry()
	r.Register("stub", func(opts Options) Generator {
		return &stubGenerator{target: "stub", opts: opts}
	})

	gen, err := r.Get("stub", Options{TypeField: "kind", JSON: true})
	require.NoError(t, err)
	assert.Equal(t, "stub", gen.Target())

	stub := gen.(*stubGenerator)
	assert.Equal(t, "kind", stub.opts.TypeField)
	assert.True(t, stub.opts.JSON)
}

func TestRegistry_Alias(t *testing.T) {
	// Test: aliases resolve to the canonical target
	r := NewRegistry()
	r.Register("typescript", func(opts Options) Generator {
		return &stubGenerator{target: "typescript", opts: opts}
	})
	r.Alias("ts", "typescript")

	gen, err := r.Get("ts", Options{})
	require.NoError(t, err)
	assert.Equal(t, "typescript", gen.Target())
}

func TestRegistry_UnsupportedTarget(t *testing.T) {
	// Test: unknown targets fail with the requested name in the error
	r := NewRegistry()

	_, err := r.Get("cobol", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported target: cobol")
}

func TestRegistry_TargetsSorted(t *testing.T) {
	// Test: Targets returns canonical names sorted, aliases excluded
	r := NewRegistry()
	r.Register("zeta", func(Options) Generator { return &stubGenerator{target: "zeta"} })
	r.Register("alpha", func(Options) Generator { return &stubGenerator{target: "alpha"} })
	r.Alias("z", "zeta")

	assert.Equal(t, []string{"alpha", "zeta"}, r.Targets())
}

func TestDefaultRegistry_AllNineTargets(t *testing.T) {
	// Test: the default registry carries every target and its aliases
	expected := []string{"cpp", "csharp", "dart", "go", "java", "php", "python", "rust", "typescript"}
	assert.Equal(t, expected, DefaultRegistry.Targets())

	for _, name := range expected {
		gen, err := DefaultRegistry.Get(name, Options{JSON: true, MsgPack: true})
		require.NoError(t, err, "target %s", name)
		assert.Equal(t, name, gen.Target())
		assert.NotEmpty(t, gen.FileExtension())
	}

	aliases := map[string]string{
		"ts":     "typescript",
		"golang": "go",
		"c++":    "cpp",
		"c#":     "csharp",
		"rs":     "rust",
	}
	for alias, canonical := range aliases {
		gen, err := DefaultRegistry.Get(alias, Options{JSON: true, MsgPack: true})
		require.NoError(t, err, "alias %s", alias)
		assert.Equal(t, canonical, gen.Target())
	}
}
