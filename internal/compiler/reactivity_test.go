package compiler

import (
	"strings"
	"testing"
)

func TestFindReactiveVars(t *testing.T) {
	script := `
count = wrap(0)
let user = wrap({name: "ada", role: "admin"})
items = wrap(fetch("/items"))
`
	refs := ParseReferences(`{{count}} {{user.name}} {{user.role}} {{user.name}}`)
	vars := FindReactiveVars(script, refs, nil)

	if len(vars) != 3 {
		t.Fatalf("expected 3 vars, got %d", len(vars))
	}

	count := vars[0]
	if count.Name != "count" || !count.HasValue || count.Value != float64(0) {
		t.Errorf("count mis-resolved: %+v", count)
	}
	if count.IsObject {
		t.Error("count is not an object")
	}

	user := vars[1]
	if !user.IsObject {
		t.Error("user should be an object")
	}
	if len(user.Paths) != 2 {
		t.Errorf("expected 2 distinct paths for user, got %v", user.Paths)
	}

	items := vars[2]
	if items.HasValue {
		t.Errorf("dynamic initializer must not resolve to a value: %+v", items)
	}
	if items.Init != `fetch("/items")` {
		t.Errorf("raw initializer lost: %q", items.Init)
	}
}

func TestFindReactiveVars_OverrideWins(t *testing.T) {
	vars := FindReactiveVars(`page = wrap(1)`, nil, map[string]any{"page": float64(4)})
	if len(vars) != 1 || vars[0].Value != float64(4) {
		t.Fatalf("override not applied: %+v", vars)
	}
}

func TestStripReactiveDecls(t *testing.T) {
	script := `count = wrap(0)
function reset() {
  count = 0
}
label = wrap("hi");
reset()`

	out := StripReactiveDecls(script)
	if strings.Contains(out, "wrap(") {
		t.Errorf("declarations not stripped:\n%s", out)
	}
	if !strings.Contains(out, "function reset()") || !strings.Contains(out, "reset()") {
		t.Errorf("surrounding code lost:\n%s", out)
	}
}

func TestTransformReactivity_Codegen(t *testing.T) {
	script := `count = wrap(0)
function bump() {
  count++
}`
	refs := ParseReferences(`<p>{{count}}</p>`)
	vars := FindReactiveVars(script, refs, nil)

	gen := TransformReactivity(script, vars, "data-lf-11223344", false, nil)

	if !strings.Contains(gen.Backing, "let _count = 0;") {
		t.Errorf("backing declaration missing:\n%s", gen.Backing)
	}
	if !strings.Contains(gen.Functions, "function count(value)") {
		t.Errorf("accessor missing:\n%s", gen.Functions)
	}
	if !strings.Contains(gen.Functions, "arguments.length === 0") {
		t.Errorf("accessor must distinguish read from write:\n%s", gen.Functions)
	}
	if !strings.Contains(gen.Functions, "function updateCountDOM(value)") {
		t.Errorf("DOM update function missing:\n%s", gen.Functions)
	}
	if !strings.Contains(gen.Functions, "data-lf-11223344") {
		t.Errorf("update function must select within the component scope:\n%s", gen.Functions)
	}
	if !strings.Contains(gen.Script, "count(count() + 1)") {
		t.Errorf("mutation in remaining script not rewritten:\n%s", gen.Script)
	}
	if strings.Contains(gen.Script, "wrap(") {
		t.Errorf("declaration survived into remaining script:\n%s", gen.Script)
	}
}

func TestTransformReactivity_StringInitializer(t *testing.T) {
	vars := FindReactiveVars(`name = wrap("leaf")`, nil, nil)
	gen := TransformReactivity(`name = wrap("leaf")`, vars, "data-lf-0", false, nil)

	if !strings.Contains(gen.Backing, `let _name = "leaf";`) {
		t.Errorf("string initializer must stay quoted:\n%s", gen.Backing)
	}
}

func TestTransformReactivity_UpdateHookNotification(t *testing.T) {
	vars := FindReactiveVars(`x = wrap(0)`, nil, nil)

	with := TransformReactivity(`x = wrap(0)`, vars, "data-lf-0", true, nil)
	if !strings.Contains(with.Functions, "runUpdateHooks('x')") {
		t.Errorf("setter should notify update hooks when they exist:\n%s", with.Functions)
	}

	without := TransformReactivity(`x = wrap(0)`, vars, "data-lf-0", false, nil)
	if strings.Contains(without.Functions, "runUpdateHooks") {
		t.Errorf("no hook notification expected without update hooks:\n%s", without.Functions)
	}
}

func TestTransformReactivity_PropertySetters(t *testing.T) {
	script := `user = wrap({name: "ada", address: {city: "london"}})`
	refs := ParseReferences(`{{user.name}} {{user.address.city}}`)
	vars := FindReactiveVars(script, refs, nil)

	gen := TransformReactivity(script, vars, "data-lf-0", false, nil)

	if !strings.Contains(gen.Functions, "function setUserName(value)") {
		t.Errorf("property setter for user.name missing:\n%s", gen.Functions)
	}
	if !strings.Contains(gen.Functions, "_user.name = value;") {
		t.Errorf("setter must mutate the backing field:\n%s", gen.Functions)
	}
	if !strings.Contains(gen.Functions, "function setUserAddressCity(value)") {
		t.Errorf("nested path setter missing:\n%s", gen.Functions)
	}
	if !strings.Contains(gen.Functions, "updateUserDOM(_user);") {
		t.Errorf("setter must re-run the whole-value update:\n%s", gen.Functions)
	}
}

func TestTransformReactivity_MountedLegacyRendering(t *testing.T) {
	vars := FindReactiveVars(`mounted = wrap(false)`, nil, nil)
	gen := TransformReactivity(`mounted = wrap(false)`, vars, "data-lf-0", false, nil)

	if !strings.Contains(gen.Functions, "'Mounted' : 'Not Mounted'") {
		t.Errorf("mounted boolean must render status text:\n%s", gen.Functions)
	}
	if !strings.Contains(gen.Functions, ".indicator") || !strings.Contains(gen.Functions, "classList.toggle('active'") {
		t.Errorf("mounted must toggle the indicator's active class:\n%s", gen.Functions)
	}
}

func TestTransformReactivity_ComputedNamesRewritten(t *testing.T) {
	script := `count = wrap(1)
console.log(total)`
	vars := FindReactiveVars(script, nil, nil)

	gen := TransformReactivity(script, vars, "data-lf-0", false, []string{"total"})
	if !strings.Contains(gen.Script, "console.log(total())") {
		t.Errorf("computed reads must become calls:\n%s", gen.Script)
	}
}
