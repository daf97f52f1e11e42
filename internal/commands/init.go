package commands

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// InitOptions are the answers collected by the init wizard.
type InitOptions struct {
	Document  string
	TypeField string
}

// FileSystem abstracts the file operations the init command performs.
type FileSystem interface {
	Stat(name string) (os.FileInfo, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
}

type osFileSystem struct{}

func (fs *osFileSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

func (fs *osFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

// InitCommand scaffolds a starter schema document.
type InitCommand struct {
	filesystem FileSystem
	// For testing: if set, skip prompting
	testOptions *InitOptions
}

func NewInitCommand() *InitCommand {
	return &InitCommand{filesystem: &osFileSystem{}}
}

// Init runs the interactive wizard and writes a starter document.
func (c *Controller) Init(ctx context.Context) error {
	return NewInitCommand().Run(ctx)
}

func (ic *InitCommand) Run(ctx context.Context) error {
	return ic.RunWithOptions(ctx)
}

// RunWithOptions runs the wizard. Program options are only passed by tests
// to drive the form headlessly.
func (ic *InitCommand) RunWithOptions(ctx context.Context, opts ...tea.ProgramOption) error {
	var options *InitOptions
	var err error

	if ic.testOptions != nil {
		options = ic.testOptions
	} else {
		options, err = ic.promptInitOptions(opts...)
		if err != nil {
			return fmt.Errorf("failed to get init options: %w", err)
		}
	}

	if options.TypeField == "" {
		options.TypeField = "packetType"
	}
	content := fmt.Sprintf(starterDocument, options.TypeField)
	if err := ic.filesystem.WriteFile(options.Document, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", options.Document, err)
	}

	fmt.Printf("Created %s - run `crosspacket generate --config %s` to generate code\n", options.Document, options.Document)
	return nil
}

func (ic *InitCommand) promptInitOptions(opts ...tea.ProgramOption) (*InitOptions, error) {
	var document string
	var typeField string

	form := ic.createInitForm(&document, &typeField)

	if len(opts) > 0 {
		// For testing: run with provided options
		program := tea.NewProgram(form, opts...)
		if _, err := program.Run(); err != nil {
			return nil, err
		}
	} else {
		if err := form.Run(); err != nil {
			return nil, err
		}
	}

	return &InitOptions{
		Document:  document,
		TypeField: typeField,
	}, nil
}

func (ic *InitCommand) createInitForm(document *string, typeField *string) *huh.Form {
	*document = "packets.yaml"
	*typeField = "packetType"

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Schema document").
				Description("Where to create the packet schema").
				Value(document).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("document path cannot be empty")
					}
					if _, err := ic.filesystem.Stat(s); err == nil {
						return fmt.Errorf("file %s already exists", s)
					}
					return nil
				}),

			huh.NewInput().
				Title("Type field").
				Description("Wire field carrying the packet type identifier").
				Value(typeField),
		),
	)
}

const starterDocument = `config:
  global:
    type_field: %s
    serialization:
      json: true
      msgpack: true

packets:
  chat/message:
    description: A chat message sent between users
    fields:
      sender_id: int
      content: string
      sent_at: datetime
      attachments:
        type: list_string
        optional: true
`
