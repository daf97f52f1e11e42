package codegen

import (
	"github.com/crosspacket/crosspacket/internal/codegen/cpp"
	"github.com/crosspacket/crosspacket/internal/codegen/csharp"
	"github.com/crosspacket/crosspacket/internal/codegen/dart"
	"github.com/crosspacket/crosspacket/internal/codegen/golang"
	"github.com/crosspacket/crosspacket/internal/codegen/java"
	"github.com/crosspacket/crosspacket/internal/codegen/php"
	"github.com/crosspacket/crosspacket/internal/codegen/python"
	"github.com/crosspacket/crosspacket/internal/codegen/rust"
	"github.com/crosspacket/crosspacket/internal/codegen/typescript"
)

// DefaultRegistry is the global registry with all nine targets registered.
var DefaultRegistry = NewRegistry()

func init() {
	DefaultRegistry.Register("dart", func(opts Options) Generator {
		return dart.New(dart.Config{
			TypeField: opts.TypeField, JSON: opts.JSON, MsgPack: opts.MsgPack,
			Indent: opts.Indent,
		})
	})

	DefaultRegistry.Register("python", func(opts Options) Generator {
		return python.New(python.Config{
			TypeField: opts.TypeField, JSON: opts.JSON, MsgPack: opts.MsgPack,
			Indent: opts.Indent,
		})
	})

	DefaultRegistry.Register("java", func(opts Options) Generator {
		return java.New(java.Config{
			TypeField: opts.TypeField, JSON: opts.JSON, MsgPack: opts.MsgPack,
			Indent: opts.Indent, Package: opts.Package,
		})
	})

	DefaultRegistry.Register("typescript", func(opts Options) Generator {
		return typescript.New(typescript.Config{
			TypeField: opts.TypeField, JSON: opts.JSON, MsgPack: opts.MsgPack,
			Indent: opts.Indent,
		})
	})

	DefaultRegistry.Register("rust", func(opts Options) Generator {
		return rust.New(rust.Config{
			TypeField: opts.TypeField, JSON: opts.JSON, MsgPack: opts.MsgPack,
			Indent: opts.Indent,
		})
	})

	DefaultRegistry.Register("go", func(opts Options) Generator {
		return golang.New(golang.Config{
			TypeField: opts.TypeField, JSON: opts.JSON, MsgPack: opts.MsgPack,
			Package: opts.Package,
		})
	})

	DefaultRegistry.Register("cpp", func(opts Options) Generator {
		return cpp.New(cpp.Config{
			TypeField: opts.TypeField, JSON: opts.JSON, MsgPack: opts.MsgPack,
			Indent: opts.Indent, Namespace: opts.Package,
		})
	})

	DefaultRegistry.Register("csharp", func(opts Options) Generator {
		return csharp.New(csharp.Config{
			TypeField: opts.TypeField, JSON: opts.JSON, MsgPack: opts.MsgPack,
			Indent: opts.Indent, Namespace: opts.Package,
		})
	})

	DefaultRegistry.Register("php", func(opts Options) Generator {
		return php.New(php.Config{
			TypeField: opts.TypeField, JSON: opts.JSON, MsgPack: opts.MsgPack,
			Indent: opts.Indent, Namespace: opts.Package,
		})
	})

	DefaultRegistry.Alias("ts", "typescript")
	DefaultRegistry.Alias("golang", "go")
	DefaultRegistry.Alias("c++", "cpp")
	DefaultRegistry.Alias("c#", "csharp")
	DefaultRegistry.Alias("rs", "rust")
}
