package script

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	body, imports, err := NewPipeline().Normalize(`import { x } from "./x.js"
function inc() { return x() + 1 }
`)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if !strings.Contains(imports, `"./x.js"`) {
		t.Errorf("import statement should be split out: %q", imports)
	}
	if strings.Contains(body, "import ") {
		t.Errorf("body must not keep import statements: %q", body)
	}
	if !strings.Contains(body, "function inc()") {
		t.Errorf("body lost the function: %q", body)
	}
}

func TestNormalize_SyntaxError(t *testing.T) {
	_, _, err := NewPipeline().Normalize(`function {`)
	if err == nil {
		t.Fatal("expected a transform error")
	}
	if !strings.Contains(err.Error(), "esbuild") {
		t.Errorf("error should identify the collaborator: %v", err)
	}
}

func TestMinifyJS_KeepsIdentifiers(t *testing.T) {
	out, err := NewPipeline().MinifyJS(`function updateCountDOM(value) {
  return value;
}
`)
	if err != nil {
		t.Fatalf("minify failed: %v", err)
	}
	if !strings.Contains(out, "updateCountDOM") {
		t.Errorf("generated names must survive minification: %q", out)
	}
	if strings.Contains(out, "\n  ") {
		t.Errorf("whitespace should be stripped: %q", out)
	}
}

func TestMinifyCSS(t *testing.T) {
	out, err := NewPipeline().MinifyCSS(`.box {
  color: red;
}
`)
	if err != nil {
		t.Fatalf("minify failed: %v", err)
	}
	if strings.Contains(out, "\n  ") {
		t.Errorf("whitespace should be stripped: %q", out)
	}
}

func TestMinifyHTML(t *testing.T) {
	out, err := NewPipeline().MinifyHTML("<div>\n  <p>hi</p>\n\n</div>\n")
	if err != nil {
		t.Fatalf("minify failed: %v", err)
	}
	if out != "<div><p>hi</p></div>" {
		t.Errorf("unexpected output: %q", out)
	}
}
