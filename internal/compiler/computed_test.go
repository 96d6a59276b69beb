package compiler

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseComputed(t *testing.T) {
	script := `a = wrap(1)
total = computed(() => a() + b())
labeled = computed(() => format(a(), ","), ['a'])
after()`

	vars, rest := ParseComputed(script)

	if len(vars) != 2 {
		t.Fatalf("expected 2 computed vars, got %d", len(vars))
	}
	if vars[0].Name != "total" || vars[0].Expr != "a() + b()" {
		t.Errorf("total mis-parsed: %+v", vars[0])
	}
	if vars[0].Deps != nil {
		t.Errorf("no explicit deps expected for total: %v", vars[0].Deps)
	}
	if vars[1].Name != "labeled" || vars[1].Expr != `format(a(), ",")` {
		t.Errorf("labeled mis-parsed: %+v", vars[1])
	}
	if !reflect.DeepEqual(vars[1].Deps, []string{"a"}) {
		t.Errorf("explicit deps lost: %v", vars[1].Deps)
	}

	if strings.Contains(rest, "computed(") {
		t.Errorf("declarations not stripped:\n%s", rest)
	}
	if !strings.Contains(rest, "a = wrap(1)") || !strings.Contains(rest, "after()") {
		t.Errorf("surrounding script lost:\n%s", rest)
	}
}

func TestParseComputed_BlockBody(t *testing.T) {
	script := `sum = computed(() => {
  let s = 0
  return s + a()
})`

	vars, _ := ParseComputed(script)
	if len(vars) != 1 {
		t.Fatalf("expected 1 computed var, got %d", len(vars))
	}
	if !strings.HasPrefix(vars[0].Expr, "{") || !strings.Contains(vars[0].Expr, "return s + a()") {
		t.Errorf("block body lost: %q", vars[0].Expr)
	}
}

func TestInferDeps(t *testing.T) {
	v := ComputedVar{Name: "total", Expr: "price() * qty() + shipping"}
	deps := InferDeps(v, []string{"price", "qty", "shipping", "unrelated", "total"})

	want := []string{"price", "qty", "shipping"}
	if !reflect.DeepEqual(deps, want) {
		t.Errorf("inferred deps = %v, want %v", deps, want)
	}
}

func TestInferDeps_WholeIdentifierOnly(t *testing.T) {
	v := ComputedVar{Name: "c", Expr: "subtotal() + 1"}
	deps := InferDeps(v, []string{"total", "subtotal"})

	if !reflect.DeepEqual(deps, []string{"subtotal"}) {
		t.Errorf("identifier boundary ignored: %v", deps)
	}
}

func TestTransformComputed_GetterAndInvalidation(t *testing.T) {
	reactive := []ReactiveVar{{Name: "a"}, {Name: "b"}}
	vars := []ComputedVar{{Name: "total", Expr: "a() + b()"}}
	names := map[string]bool{"a": true, "b": true, "total": true}

	gen := TransformComputed(vars, reactive, "data-lf-0", names)

	if !strings.Contains(gen.Functions, "var _totalCache;") || !strings.Contains(gen.Functions, "var _totalDirty = true;") {
		t.Errorf("cache state missing:\n%s", gen.Functions)
	}
	if !strings.Contains(gen.Functions, "function total()") {
		t.Errorf("getter missing:\n%s", gen.Functions)
	}
	if !strings.Contains(gen.Functions, "function invalidateTotal()") {
		t.Errorf("invalidate function missing:\n%s", gen.Functions)
	}
	if !strings.Contains(gen.Functions, "function updateTotalDOM(value)") {
		t.Errorf("computed DOM update missing:\n%s", gen.Functions)
	}

	// Both dependencies' update paths must cascade into the invalidation.
	if !strings.Contains(gen.Wiring, "updateADOM = function(value)") {
		t.Errorf("a's update not wrapped:\n%s", gen.Wiring)
	}
	if !strings.Contains(gen.Wiring, "updateBDOM = function(value)") {
		t.Errorf("b's update not wrapped:\n%s", gen.Wiring)
	}
	if strings.Count(gen.Wiring, "invalidateTotal();") != 2 {
		t.Errorf("each dependency should trigger invalidateTotal:\n%s", gen.Wiring)
	}
}

func TestTransformComputed_ChainCascades(t *testing.T) {
	reactive := []ReactiveVar{{Name: "a"}}
	vars := []ComputedVar{
		{Name: "double", Expr: "a() * 2"},
		{Name: "quad", Expr: "double() * 2"},
	}
	names := map[string]bool{"a": true, "double": true, "quad": true}

	gen := TransformComputed(vars, reactive, "data-lf-0", names)

	if !strings.Contains(gen.Wiring, "invalidateDouble = function()") {
		t.Errorf("computed-on-computed must wrap the upstream invalidate:\n%s", gen.Wiring)
	}
	if !strings.Contains(gen.Wiring, "invalidateQuad();") {
		t.Errorf("downstream invalidate must be chained:\n%s", gen.Wiring)
	}
}

func TestTransformComputed_BareReadsRewritten(t *testing.T) {
	reactive := []ReactiveVar{{Name: "a"}, {Name: "b"}}
	vars := []ComputedVar{{Name: "sum", Expr: "a + b"}}
	names := map[string]bool{"a": true, "b": true, "sum": true}

	gen := TransformComputed(vars, reactive, "data-lf-0", names)
	if !strings.Contains(gen.Functions, "(a() + b())") {
		t.Errorf("bare reads in the expression must become accessor calls:\n%s", gen.Functions)
	}
}

func TestTransformComputed_InitialPaint(t *testing.T) {
	vars := []ComputedVar{{Name: "total", Expr: "a()"}}
	gen := TransformComputed(vars, []ReactiveVar{{Name: "a"}}, "data-lf-0", map[string]bool{"a": true})

	if !strings.Contains(gen.Wiring, "updateTotalDOM(total());") {
		t.Errorf("computed value must be painted once at startup:\n%s", gen.Wiring)
	}
}
