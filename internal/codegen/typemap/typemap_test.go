package typemap

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crosspacket/crosspacket/internal/schema"
)

var allTags = []schema.TypeTag{
	schema.TagInt, schema.TagFloat, schema.TagDouble, schema.TagBool,
	schema.TagString, schema.TagDateTime, schema.TagTime, schema.TagBytes,
	schema.TagList, schema.TagListInt, schema.TagListString,
	schema.TagMap, schema.TagEmbeddedMap, schema.TagMapStringAny,
}

func TestNative_TotalLookup(t *testing.T) {
	// Test: every tag resolves to a non-empty type on every target
	for _, tag := range allTags {
		for _, target := range Targets {
			assert.NotEmpty(t, Native(tag, target), "Native(%s, %s)", tag, target)
		}
	}
}

func TestNative_KnownMappings(t *testing.T) {
	// Test: spot-check mappings against the type table
	cases := []struct {
		tag      schema.TypeTag
		target   string
		expected string
	}{
		{schema.TagInt, Java, "Long"}, // boxed so unset fields stay null
		{schema.TagInt, Go, "int64"},
		{schema.TagInt, Cpp, "int64_t"},
		{schema.TagDateTime, Java, "ZonedDateTime"},
		{schema.TagDateTime, Rust, "DateTime<Utc>"},
		{schema.TagDateTime, Go, "time.Time"},
		{schema.TagDateTime, CSharp, "DateTimeOffset"},
		{schema.TagTime, Dart, "TimeOfDay"},
		{schema.TagTime, CSharp, "TimeSpan"},
		{schema.TagBytes, TypeScript, "Uint8Array"},
		{schema.TagBytes, Rust, "Vec<u8>"},
		{schema.TagList, Cpp, "std::string"}, // loose containers carried as JSON text
		{schema.TagMapStringAny, Python, "Dict[str, Any]"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, Native(tc.tag, tc.target), "Native(%s, %s)", tc.tag, tc.target)
	}
}

func TestNative_UnknownTagFallsBack(t *testing.T) {
	// Test: a tag outside the closed set yields the target's dynamic fallback
	assert.Equal(t, "dynamic", Native(schema.TypeTag("hologram"), Dart))
	assert.Equal(t, "interface{}", Native(schema.TypeTag("hologram"), Go))
	assert.Equal(t, "mixed", Native(schema.TypeTag("hologram"), PHP))
}

func TestNative_UnknownTargetFallsBack(t *testing.T) {
	// Test: an unknown target degrades to string rather than failing
	assert.Equal(t, "string", Native(schema.TagInt, "cobol"))
}

func TestFallback(t *testing.T) {
	// Test: Fallback returns the dynamic default per target
	assert.Equal(t, "serde_json::Value", Fallback(Rust))
	assert.Equal(t, "any", Fallback(TypeScript))
	assert.Equal(t, "Object", Fallback(Java))
}

func TestTargets_CoversAllNine(t *testing.T) {
	// Test: the target list is the full set in registration order
	assert.Equal(t, []string{Dart, Python, Java, TypeScript, Rust, Go, Cpp, CSharp, PHP}, Targets)
	assert.Len(t, Targets, 9)
}
