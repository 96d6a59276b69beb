package compiler

import (
	"errors"
	"strings"
	"testing"
)

func TestParseComponent_AllSections(t *testing.T) {
	source := `<script>
let count = wrap(0)
</script>

<template>
<p>{{count}}</p>
</template>

<style>
p { color: red; }
</style>`

	comp, warnings, err := ParseComponent(source, "/app/Counter.leaf")
	if err != nil {
		t.Fatalf("failed to parse component: %v", err)
	}

	if comp.Name != "Counter" {
		t.Errorf("expected name 'Counter', got %q", comp.Name)
	}
	if !strings.Contains(comp.Script, "count = wrap(0)") {
		t.Errorf("script section not extracted: %q", comp.Script)
	}
	if !strings.Contains(comp.Template, "<p>{{count}}</p>") {
		t.Errorf("template section not extracted: %q", comp.Template)
	}
	if !strings.Contains(comp.Style, "color: red") {
		t.Errorf("style section not extracted: %q", comp.Style)
	}
	if comp.StyleIsolated {
		t.Error("plain <style> should not be isolated")
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
}

func TestParseComponent_IsolatedStyle(t *testing.T) {
	source := `<template><div class="box"></div></template>
<style isolated>.box { padding: 1rem; }</style>`

	comp, _, err := ParseComponent(source, "Card.leaf")
	if err != nil {
		t.Fatalf("failed to parse component: %v", err)
	}
	if !comp.StyleIsolated {
		t.Error("expected style-is-isolated for <style isolated>")
	}
}

func TestParseComponent_NoStyleDefaultsIsolated(t *testing.T) {
	comp, _, err := ParseComponent(`<template><p>hi</p></template>`, "Plain.leaf")
	if err != nil {
		t.Fatalf("failed to parse component: %v", err)
	}
	if !comp.StyleIsolated {
		t.Error("absent style section should default to isolated")
	}
}

func TestParseComponent_NestedSameTagDepth(t *testing.T) {
	source := `<template>
<div>
  <template><span>inner</span></template>
</div>
</template>`

	comp, _, err := ParseComponent(source, "Nested.leaf")
	if err != nil {
		t.Fatalf("failed to parse component: %v", err)
	}
	if !strings.Contains(comp.Template, "<template><span>inner</span></template>") {
		t.Errorf("nested same-named tag not kept inside outer section: %q", comp.Template)
	}
}

func TestParseComponent_SelfClosingNestedTag(t *testing.T) {
	source := `<template><div><template/></div></template>`

	comp, _, err := ParseComponent(source, "SelfClose.leaf")
	if err != nil {
		t.Fatalf("failed to parse component: %v", err)
	}
	if comp.Template != "<div><template/></div>" {
		t.Errorf("unexpected template content: %q", comp.Template)
	}
}

func TestParseComponent_CaseInsensitiveTags(t *testing.T) {
	source := `<TEMPLATE><p>hi</p></TEMPLATE>
<Style>p { margin: 0; }</Style>`

	comp, _, err := ParseComponent(source, "Mixed.leaf")
	if err != nil {
		t.Fatalf("failed to parse component: %v", err)
	}
	if comp.Template != "<p>hi</p>" {
		t.Errorf("case-insensitive template lookup failed: %q", comp.Template)
	}
	if !strings.Contains(comp.Style, "margin: 0") {
		t.Errorf("case-insensitive style lookup failed: %q", comp.Style)
	}
}

func TestParseComponent_Imports(t *testing.T) {
	source := `<import Header from "./Header.leaf">
<import Footer from './Footer.leaf'>

<template>
<Header/>
<main>content</main>
<Footer/>
</template>`

	comp, _, err := ParseComponent(source, "Page.leaf")
	if err != nil {
		t.Fatalf("failed to parse component: %v", err)
	}

	if len(comp.Imports) != 2 {
		t.Fatalf("expected 2 imports, got %d", len(comp.Imports))
	}
	if comp.Imports[0].Name != "Header" || comp.Imports[0].Path != "./Header.leaf" {
		t.Errorf("unexpected first import: %+v", comp.Imports[0])
	}
	if comp.Imports[1].Name != "Footer" || comp.Imports[1].Path != "./Footer.leaf" {
		t.Errorf("unexpected second import: %+v", comp.Imports[1])
	}
	if strings.Contains(comp.Template, "<import") {
		t.Errorf("import declarations should be stripped from template: %q", comp.Template)
	}
}

func TestParseComponent_MissingTemplateWarns(t *testing.T) {
	_, warnings, err := ParseComponent(`<script>let a = 1</script>`, "Bare.leaf")
	if err != nil {
		t.Fatalf("failed to parse component: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
	if !strings.Contains(warnings[0].Message, "template") {
		t.Errorf("warning should mention missing template: %q", warnings[0].Message)
	}
}

func TestParseComponent_StoreSuppressesTemplateWarning(t *testing.T) {
	comp, warnings, err := ParseComponent(`<store>theme = wrap("dark")</store>`, "Theme.leaf")
	if err != nil {
		t.Fatalf("failed to parse component: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("store component should not warn about missing template: %v", warnings)
	}
	if !comp.IsStore {
		t.Error("expected is-store flag for template-less store component")
	}
	if !strings.Contains(comp.Store, "theme") {
		t.Errorf("store body not extracted: %q", comp.Store)
	}
}

func TestParseComponent_UnterminatedSection(t *testing.T) {
	_, _, err := ParseComponent(`<template><p>open`, "Broken.leaf")
	if err == nil {
		t.Fatal("expected structural error for unterminated section")
	}
	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if cerr.Kind != ErrStructure {
		t.Errorf("expected structural error kind, got %v", cerr.Kind)
	}
}

func TestParseComponent_NoFilename(t *testing.T) {
	if _, _, err := ParseComponent("<template></template>", ""); err == nil {
		t.Fatal("expected error for empty filename")
	}
}

func TestParseComponent_QuotedAngleInAttr(t *testing.T) {
	source := `<template><input placeholder="a > b"></template>`

	comp, _, err := ParseComponent(source, "Angle.leaf")
	if err != nil {
		t.Fatalf("failed to parse component: %v", err)
	}
	if !strings.Contains(comp.Template, `placeholder="a > b"`) {
		t.Errorf("quoted '>' mangled section scan: %q", comp.Template)
	}
}
