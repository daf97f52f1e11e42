package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosspacket/crosspacket/internal/schema"
)

// writeDocument writes a schema document routing generated output into the
// test's temp directory and returns the document path plus the output root.
func writeDocument(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	doc := fmt.Sprintf(`config:
  global:
    type_field: packetType
  go:
    output_dir: %s/go
  python:
    output_dir: %s/python
packets:
  chat/message:
    fields:
      sender_id: int
      content: string
`, out, out)
	path := filepath.Join(dir, "packets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path, out
}

func TestGenerate_WritesTargetFiles(t *testing.T) {
	// Test: a single-target run materializes the emitter's fileset into the
	// configured output directory
	docPath, out := writeDocument(t)

	cmd := NewGenerateCommand(&Flags{Config: docPath, Targets: []string{"go"}})
	require.NoError(t, cmd.Run(context.Background()))

	base, err := os.ReadFile(filepath.Join(out, "go", "packets.go"))
	require.NoError(t, err)
	assert.Contains(t, string(base), "package packets")

	packet, err := os.ReadFile(filepath.Join(out, "go", "message.go"))
	require.NoError(t, err)
	assert.Contains(t, string(packet), `const MessageType = "chat/message"`)
}

func TestGenerate_MultipleTargets(t *testing.T) {
	// Test: each selected target writes into its own directory
	docPath, out := writeDocument(t)

	cmd := NewGenerateCommand(&Flags{Config: docPath, Targets: []string{"go", "python"}})
	require.NoError(t, cmd.Run(context.Background()))

	_, err := os.Stat(filepath.Join(out, "go", "packets.go"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, "python", "__init__.py"))
	assert.NoError(t, err)
}

func TestGenerate_SkipsExistingWithoutOverride(t *testing.T) {
	// Test: existing files are preserved unless --override is set
	docPath, out := writeDocument(t)
	target := filepath.Join(out, "go", "packets.go")

	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, os.WriteFile(target, []byte("// hand edited\n"), 0o644))

	cmd := NewGenerateCommand(&Flags{Config: docPath, Targets: []string{"go"}})
	require.NoError(t, cmd.Run(context.Background()))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "// hand edited\n", string(data))

	cmd = NewGenerateCommand(&Flags{Config: docPath, Targets: []string{"go"}, Override: true})
	require.NoError(t, cmd.Run(context.Background()))

	data, err = os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "package packets")
}

func TestGenerate_CleanRemovesStaleFiles(t *testing.T) {
	// Test: --clean removes files matching this run's extensions and leaves
	// unrelated files alone
	docPath, out := writeDocument(t)
	goDir := filepath.Join(out, "go")
	require.NoError(t, os.MkdirAll(goDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(goDir, "removed_packet.go"), []byte("package packets\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(goDir, "notes.txt"), []byte("keep me\n"), 0o644))

	cmd := NewGenerateCommand(&Flags{Config: docPath, Targets: []string{"go"}, Clean: true, Override: true})
	require.NoError(t, cmd.Run(context.Background()))

	_, err := os.Stat(filepath.Join(goDir, "removed_packet.go"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(goDir, "notes.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(goDir, "packets.go"))
	assert.NoError(t, err)
}

func TestGenerate_BothFormatsDisabled(t *testing.T) {
	// Test: suppressing the last enabled format is fatal
	docPath, _ := writeDocument(t)

	cmd := NewGenerateCommand(&Flags{Config: docPath, Targets: []string{"go"}, NoJSON: true, NoMsgPack: true})
	err := cmd.Run(context.Background())
	assert.ErrorIs(t, err, schema.ErrNoFormats)
}

func TestGenerate_NoMsgPackDropsCodec(t *testing.T) {
	// Test: --no-msgpack removes the binary codec from generated output
	docPath, out := writeDocument(t)

	cmd := NewGenerateCommand(&Flags{Config: docPath, Targets: []string{"go"}, NoMsgPack: true})
	require.NoError(t, cmd.Run(context.Background()))

	data, err := os.ReadFile(filepath.Join(out, "go", "message.go"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "ToMsgPack")
	assert.Contains(t, string(data), "ToJSON")
}

func TestGenerate_UnknownTargetIsReported(t *testing.T) {
	// Test: an unsupported target fails with its name; other targets still run
	docPath, out := writeDocument(t)

	cmd := NewGenerateCommand(&Flags{Config: docPath, Targets: []string{"cobol", "go"}})
	err := cmd.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cobol")
	assert.Contains(t, err.Error(), "unsupported target")

	_, statErr := os.Stat(filepath.Join(out, "go", "packets.go"))
	assert.NoError(t, statErr)
}

func TestGenerate_MissingDocument(t *testing.T) {
	// Test: a missing schema document is a read error, not a panic
	cmd := NewGenerateCommand(&Flags{Config: filepath.Join(t.TempDir(), "nope.yaml"), Targets: []string{"go"}})
	err := cmd.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read schema document")
}

func TestGenerate_CancelledContext(t *testing.T) {
	// Test: a cancelled context stops the run before emitting
	docPath, _ := writeDocument(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := NewGenerateCommand(&Flags{Config: docPath, Targets: []string{"go"}})
	assert.ErrorIs(t, cmd.Run(ctx), context.Canceled)
}
