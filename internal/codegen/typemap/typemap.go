// Package typemap holds the immutable table mapping abstract field type
// tags to the idiomatic native type name of each target ecosystem.
package typemap

import "github.com/crosspacket/crosspacket/internal/schema"

// Target identifiers, used both as table keys and registry names.
const (
	Dart       = "dart"
	Python     = "python"
	Java       = "java"
	TypeScript = "typescript"
	Rust       = "rust"
	Go         = "go"
	Cpp        = "cpp"
	CSharp     = "csharp"
	PHP        = "php"
)

// Targets lists every supported target in registration order.
var Targets = []string{Dart, Python, Java, TypeScript, Rust, Go, Cpp, CSharp, PHP}

// table maps type tag -> target -> native type name.
var table = map[schema.TypeTag]map[string]string{
	schema.TagInt: {
		// Java uses boxed types so unset fields stay null on the wire.
		Dart: "int", Python: "int", Java: "Long", TypeScript: "number",
		Rust: "i64", Go: "int64", Cpp: "int64_t", CSharp: "long", PHP: "int",
	},
	schema.TagFloat: {
		Dart: "double", Python: "float", Java: "Double", TypeScript: "number",
		Rust: "f64", Go: "float64", Cpp: "double", CSharp: "double", PHP: "float",
	},
	schema.TagDouble: {
		Dart: "double", Python: "float", Java: "Double", TypeScript: "number",
		Rust: "f64", Go: "float64", Cpp: "double", CSharp: "double", PHP: "float",
	},
	schema.TagBool: {
		Dart: "bool", Python: "bool", Java: "Boolean", TypeScript: "boolean",
		Rust: "bool", Go: "bool", Cpp: "bool", CSharp: "bool", PHP: "bool",
	},
	schema.TagString: {
		Dart: "String", Python: "str", Java: "String", TypeScript: "string",
		Rust: "String", Go: "string", Cpp: "std::string", CSharp: "string", PHP: "string",
	},
	schema.TagDateTime: {
		Dart: "DateTime", Python: "datetime", Java: "ZonedDateTime", TypeScript: "Date",
		Rust: "DateTime<Utc>", Go: "time.Time", Cpp: "std::string",
		CSharp: "DateTimeOffset", PHP: "DateTimeImmutable",
	},
	schema.TagTime: {
		Dart: "TimeOfDay", Python: "time", Java: "LocalTime", TypeScript: "string",
		Rust: "NaiveTime", Go: "string", Cpp: "std::string", CSharp: "TimeSpan", PHP: "string",
	},
	schema.TagBytes: {
		Dart: "Uint8List", Python: "bytes", Java: "byte[]", TypeScript: "Uint8Array",
		Rust: "Vec<u8>", Go: "[]byte", Cpp: "std::vector<uint8_t>", CSharp: "byte[]", PHP: "string",
	},
	schema.TagList: {
		Dart: "List<dynamic>", Python: "List[Any]", Java: "List<Object>", TypeScript: "any[]",
		Rust: "Vec<serde_json::Value>", Go: "[]interface{}", Cpp: "std::string",
		CSharp: "List<object>", PHP: "array",
	},
	schema.TagListInt: {
		Dart: "List<int>", Python: "List[int]", Java: "List<Long>", TypeScript: "number[]",
		Rust: "Vec<i64>", Go: "[]int64", Cpp: "std::vector<int64_t>", CSharp: "List<long>", PHP: "array",
	},
	schema.TagListString: {
		Dart: "List<String>", Python: "List[str]", Java: "List<String>", TypeScript: "string[]",
		Rust: "Vec<String>", Go: "[]string", Cpp: "std::vector<std::string>",
		CSharp: "List<string>", PHP: "array",
	},
	schema.TagMap: {
		Dart: "Map<String, dynamic>", Python: "Dict[str, Any]", Java: "Map<String, Object>",
		TypeScript: "Record<string, any>", Rust: "HashMap<String, serde_json::Value>",
		Go: "map[string]interface{}", Cpp: "std::string", CSharp: "Dictionary<string, object>", PHP: "array",
	},
	schema.TagEmbeddedMap: {
		Dart: "Map<dynamic, dynamic>", Python: "Dict[Any, Any]", Java: "Map<Object, Object>",
		TypeScript: "Map<any, any>", Rust: "HashMap<String, serde_json::Value>",
		Go: "map[string]interface{}", Cpp: "std::string", CSharp: "Dictionary<string, object>", PHP: "array",
	},
	schema.TagMapStringAny: {
		Dart: "Map<String, dynamic>", Python: "Dict[str, Any]", Java: "Map<String, Object>",
		TypeScript: "Record<string, any>", Rust: "HashMap<String, serde_json::Value>",
		Go: "map[string]interface{}", Cpp: "std::string", CSharp: "Dictionary<string, object>", PHP: "array",
	},
}

// fallback is the loosely typed default per target, used for any tag the
// table does not resolve. Lookup is total by design: a schema using a newly
// introduced tag still generates for targets that have not added support.
var fallback = map[string]string{
	Dart:       "dynamic",
	Python:     "Any",
	Java:       "Object",
	TypeScript: "any",
	Rust:       "serde_json::Value",
	Go:         "interface{}",
	Cpp:        "std::string",
	CSharp:     "object",
	PHP:        "mixed",
}

// Native returns the idiomatic native type name for a tag on a target.
// Unknown tag/target pairs yield the target's dynamic fallback type.
func Native(tag schema.TypeTag, target string) string {
	if targets, ok := table[tag]; ok {
		if name, ok := targets[target]; ok {
			return name
		}
	}
	if def, ok := fallback[target]; ok {
		return def
	}
	return "string"
}

// Fallback returns the dynamic default type for a target.
func Fallback(target string) string {
	if def, ok := fallback[target]; ok {
		return def
	}
	return "string"
}
