package compiler

import (
	"reflect"
	"testing"
)

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want any
		ok   bool
	}{
		{"integer", "42", float64(42), true},
		{"negative float", "-3.14", -3.14, true},
		{"exponent", "1e3", float64(1000), true},
		{"double quoted", `"hello"`, "hello", true},
		{"single quoted", `'hi'`, "hi", true},
		{"escaped quote", `"a\"b"`, `a"b`, true},
		{"true", "true", true, true},
		{"false", "false", false, true},
		{"null", "null", nil, true},
		{"undefined", "undefined", nil, true},
		{"array", `[1, 2, 3]`, []any{float64(1), float64(2), float64(3)}, true},
		{"empty array", `[]`, []any{}, true},
		{"nested array", `[[1], ["a"]]`, []any{[]any{float64(1)}, []any{"a"}}, true},
		{"object", `{a: 1, b: "x"}`, map[string]any{"a": float64(1), "b": "x"}, true},
		{"quoted keys", `{"a": true}`, map[string]any{"a": true}, true},
		{"nested object", `{list: [1], inner: {k: null}}`, map[string]any{"list": []any{float64(1)}, "inner": map[string]any{"k": nil}}, true},
		{"call is not a literal", "fetchData()", nil, false},
		{"identifier is not a literal", "someVar", nil, false},
		{"arithmetic is not a literal", "1 + 2", nil, false},
		{"trailing junk", "42 junk", nil, false},
		{"unterminated string", `"abc`, nil, false},
		{"unterminated array", `[1, 2`, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLiteral(tt.in)
			if ok != tt.ok {
				t.Fatalf("ParseLiteral(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseLiteral(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractConstants_WrapDeclarations(t *testing.T) {
	script := `
let count = wrap(0)
name = wrap("leaf")
items = wrap([1, 2, 3])
user = wrap({id: 7, admin: false})
dynamic = wrap(fetchData())
`
	consts := ExtractConstants(script, nil)

	if consts["count"] != float64(0) {
		t.Errorf("count: got %#v", consts["count"])
	}
	if consts["name"] != "leaf" {
		t.Errorf("name: got %#v", consts["name"])
	}
	if !reflect.DeepEqual(consts["items"], []any{float64(1), float64(2), float64(3)}) {
		t.Errorf("items: got %#v", consts["items"])
	}
	if !reflect.DeepEqual(consts["user"], map[string]any{"id": float64(7), "admin": false}) {
		t.Errorf("user: got %#v", consts["user"])
	}
	// Unparseable initializers fall back to their raw text.
	if consts["dynamic"] != "fetchData()" {
		t.Errorf("dynamic: got %#v", consts["dynamic"])
	}
}

func TestExtractConstants_ConstDeclarations(t *testing.T) {
	script := `
const version = "1.2.0"
const limit = 25
let notConst = 9
`
	consts := ExtractConstants(script, nil)

	if consts["version"] != "1.2.0" {
		t.Errorf("version: got %#v", consts["version"])
	}
	if consts["limit"] != float64(25) {
		t.Errorf("limit: got %#v", consts["limit"])
	}
	if _, ok := consts["notConst"]; ok {
		t.Error("plain let assignment must not be extracted as a constant")
	}
}

func TestExtractConstants_MultilineLiteral(t *testing.T) {
	script := `config = wrap({
	theme: "dark",
	depth: 2
})`
	consts := ExtractConstants(script, nil)

	want := map[string]any{"theme": "dark", "depth": float64(2)}
	if !reflect.DeepEqual(consts["config"], want) {
		t.Errorf("config: got %#v, want %#v", consts["config"], want)
	}
}

func TestExtractConstants_OverridesWin(t *testing.T) {
	script := `page = wrap(1)`
	consts := ExtractConstants(script, map[string]any{"page": float64(7), "extra": "route"})

	if consts["page"] != float64(7) {
		t.Errorf("override lost: got %#v", consts["page"])
	}
	if consts["extra"] != "route" {
		t.Errorf("pure override missing: got %#v", consts["extra"])
	}
}

func TestFormatConstant(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{float64(0), "0"},
		{float64(3.5), "3.5"},
		{true, "true"},
		{nil, "null"},
		{"plain", "plain"},
		{[]any{float64(1), "a"}, `[1,"a"]`},
		{map[string]any{"k": float64(1)}, `{"k":1}`},
	}
	for _, tt := range tests {
		if got := FormatConstant(tt.in); got != tt.want {
			t.Errorf("FormatConstant(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
