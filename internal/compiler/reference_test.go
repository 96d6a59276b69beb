package compiler

import (
	"reflect"
	"testing"
)

func TestParseReferences_Forms(t *testing.T) {
	template := `<p>{{name}}</p><div>{{{markup}}}</div><span>{{@html}}</span>`

	refs := ParseReferences(template)
	if len(refs) != 3 {
		t.Fatalf("expected 3 references, got %d", len(refs))
	}

	if refs[0].Expr != "name" || refs[0].Raw {
		t.Errorf("escaped form mis-parsed: %+v", refs[0])
	}
	if refs[1].Expr != "markup" || !refs[1].Raw {
		t.Errorf("triple-brace raw form mis-parsed: %+v", refs[1])
	}
	if refs[2].Expr != "html" || !refs[2].Raw {
		t.Errorf("at-sign raw form mis-parsed: %+v", refs[2])
	}
}

func TestParseReferences_SpansMatchSource(t *testing.T) {
	template := `a {{ x }} b {{y.z}} c`

	refs := ParseReferences(template)
	if len(refs) != 2 {
		t.Fatalf("expected 2 references, got %d", len(refs))
	}
	for _, ref := range refs {
		if template[ref.Start:ref.End] != ref.Text {
			t.Errorf("span [%d:%d] does not match text %q", ref.Start, ref.End, ref.Text)
		}
	}
	if refs[0].Expr != "x" {
		t.Errorf("whitespace not trimmed: %q", refs[0].Expr)
	}
}

func TestParseReferences_PropertyChain(t *testing.T) {
	refs := ParseReferences(`{{user.address.city}}`)
	if len(refs) != 1 {
		t.Fatalf("expected 1 reference, got %d", len(refs))
	}
	if refs[0].Base != "user" {
		t.Errorf("base: got %q", refs[0].Base)
	}
	if !reflect.DeepEqual(refs[0].Path, []string{"address", "city"}) {
		t.Errorf("path: got %v", refs[0].Path)
	}
}

func TestParseReferences_CallKeepsBaseOnly(t *testing.T) {
	refs := ParseReferences(`{{items.map(i => i.id)}}`)
	if len(refs) != 1 {
		t.Fatalf("expected 1 reference, got %d", len(refs))
	}
	if refs[0].Base != "items" {
		t.Errorf("call expression should keep base: got %q", refs[0].Base)
	}
	if refs[0].Path != nil {
		t.Errorf("call expression must not produce a path: got %v", refs[0].Path)
	}
}

func TestParseReferences_ComplexExprHasNoBase(t *testing.T) {
	refs := ParseReferences(`{{count + offset}}`)
	if len(refs) != 1 {
		t.Fatalf("expected 1 reference, got %d", len(refs))
	}
	if refs[0].Base != "" {
		t.Errorf("arithmetic expression should have no base: got %q", refs[0].Base)
	}
	if refs[0].Expr != "count + offset" {
		t.Errorf("expression text lost: %q", refs[0].Expr)
	}
}

func TestParseReferences_UnterminatedIgnored(t *testing.T) {
	refs := ParseReferences(`before {{open and <b>{{done}}</b>`)

	// The unterminated opener swallows up to the next closer; the scan must
	// not panic and must terminate.
	for _, ref := range refs {
		if ref.End > len(`before {{open and <b>{{done}}</b>`) {
			t.Errorf("reference span out of bounds: %+v", ref)
		}
	}
}
