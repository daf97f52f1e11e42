package golang

import (
	"fmt"
	"go/format"
	"go/parser"
	"go/token"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crosspacket/crosspacket/internal/schema"
)

var propertyTags = []schema.TypeTag{
	schema.TagInt, schema.TagFloat, schema.TagDouble, schema.TagBool,
	schema.TagString, schema.TagDateTime, schema.TagTime, schema.TagBytes,
	schema.TagList, schema.TagListInt, schema.TagListString,
	schema.TagMap, schema.TagEmbeddedMap, schema.TagMapStringAny,
}

func randomSchema(rng *rand.Rand) *schema.Schema {
	s := &schema.Schema{
		Global: schema.Global{TypeField: "packetType", JSON: true, MsgPack: true},
	}
	packets := 1 + rng.Intn(4)
	for i := 0; i < packets; i++ {
		path := fmt.Sprintf("domain%d/packet_%d", rng.Intn(3), i)
		pkt := schema.Packet{
			Path:    path,
			Name:    schema.TypeName(path),
			Version: 1 + rng.Intn(5),
		}
		fields := rng.Intn(9)
		for j := 0; j < fields; j++ {
			pkt.Fields = append(pkt.Fields, schema.Field{
				Name:     fmt.Sprintf("field_%d", j),
				Type:     propertyTags[rng.Intn(len(propertyTags))],
				Optional: rng.Intn(2) == 0,
			})
		}
		s.Packets = append(s.Packets, pkt)
	}
	return s
}

func TestGenerator_PropertyBasedValidGo(t *testing.T) {
	// Test: every artifact for 50 random schemas survives gofmt and parses
	// as a syntactically valid Go source file
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 50; i++ {
		s := randomSchema(rng)

		// Formats vary too; at least one is always on.
		cfg := Config{JSON: rng.Intn(2) == 0, MsgPack: true}
		files, err := New(cfg).Generate(s)
		require.NoError(t, err, "iteration %d", i)
		require.NotEmpty(t, files, "iteration %d", i)

		for name, src := range files {
			formatted, err := format.Source([]byte(src))
			require.NoError(t, err, "iteration %d: %s does not gofmt:\n%s", i, name, src)

			fset := token.NewFileSet()
			_, err = parser.ParseFile(fset, name, formatted, parser.AllErrors)
			require.NoError(t, err, "iteration %d: %s does not parse", i, name)
		}
	}
}
