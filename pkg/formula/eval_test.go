package formula

import (
	"math"
	"strings"
	"testing"
)

func mustCompile(t *testing.T, text string, vars []string) *Expr {
	t.Helper()
	e, err := Compile(text, vars)
	if err != nil {
		t.Fatalf("Compile(%q) failed: %v", text, err)
	}
	return e
}

func mustCompileExtended(t *testing.T, text string, vars []string) *Expr {
	t.Helper()
	e, err := CompileExtended(text, vars)
	if err != nil {
		t.Fatalf("CompileExtended(%q) failed: %v", text, err)
	}
	return e
}

func TestEvaluateArithmetic(t *testing.T) {
	cases := []struct {
		name   string
		text   string
		vars   []string
		values map[string]float64
		want   float64
	}{
		{
			"weighted sum",
			"security*0.4 + testing*0.3 + docs*0.3",
			[]string{"security", "testing", "docs"},
			map[string]float64{"security": 100, "testing": 80, "docs": 60},
			82.0,
		},
		{"precedence", "2 + 3 * 4", nil, nil, 14},
		{"parens", "(2 + 3) * 4", nil, nil, 20},
		{"power right assoc", "2 ** 3 ** 2", nil, nil, 512},
		{"unary exponent", "2 ** -1", nil, nil, 0.5},
		{"floor division", "7 // 2", nil, nil, 3},
		{"negative floor division", "-7 // 2", nil, nil, -4},
		{"modulo", "7 % 3", nil, nil, 1},
		{"unary minus", "-x + 10", []string{"x"}, map[string]float64{"x": 4}, 6},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := mustCompile(t, c.text, c.vars)
			got, err := e.Evaluate(c.values)
			if err != nil {
				t.Fatalf("Evaluate failed: %v", err)
			}
			if math.Abs(got-c.want) > 1e-9 {
				t.Fatalf("Evaluate(%q) = %v, want %v", c.text, got, c.want)
			}
		})
	}
}

func TestEvaluateComparisonsYieldNumbers(t *testing.T) {
	cases := []struct {
		text   string
		values map[string]float64
		want   float64
	}{
		{"(x > 50) * 10", map[string]float64{"x": 80}, 10},
		{"(x > 50) * 10", map[string]float64{"x": 20}, 0},
		{"(x == 5) + (x != 5)", map[string]float64{"x": 5}, 1},
		{"x <= 5", map[string]float64{"x": 5}, 1},
		{"x >= 6", map[string]float64{"x": 5}, 0},
	}
	for _, c := range cases {
		e := mustCompile(t, c.text, []string{"x"})
		got, err := e.Evaluate(c.values)
		if err != nil {
			t.Fatalf("Evaluate(%q) failed: %v", c.text, err)
		}
		if got != c.want {
			t.Fatalf("Evaluate(%q) with %v = %v, want %v", c.text, c.values, got, c.want)
		}
	}
}

func TestEvaluateBuiltins(t *testing.T) {
	cases := []struct {
		text string
		want float64
	}{
		{"min(3, 1, 2)", 1},
		{"max(3, 1, 2)", 3},
		{"min((3, 1, 2))", 1},
		{"sum((1, 2, 3))", 6},
		{"sum(1, 2, 3)", 6},
		{"avg(1, 2, 3)", 2},
		{"avg([])", 0},
		{"abs(-4)", 4},
		{"round(2.5)", 3},
		{"round(2.4)", 2},
		{"pow(2, 10)", 1024},
	}
	for _, c := range cases {
		e := mustCompile(t, c.text, nil)
		got, err := e.Evaluate(nil)
		if err != nil {
			t.Fatalf("Evaluate(%q) failed: %v", c.text, err)
		}
		if got != c.want {
			t.Fatalf("Evaluate(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	e := mustCompile(t, "round(security*0.4 + testing*0.6)", []string{"security", "testing"})
	values := map[string]float64{"security": 77, "testing": 63}
	first, err := e.Evaluate(values)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		got, err := e.Evaluate(values)
		if err != nil {
			t.Fatal(err)
		}
		if got != first {
			t.Fatalf("run %d = %v, first run = %v", i, got, first)
		}
	}
}

func TestEvaluateMissingVariables(t *testing.T) {
	e := mustCompile(t, "security + testing", []string{"security", "testing"})
	_, err := e.Evaluate(map[string]float64{"security": 50})
	if err == nil {
		t.Fatal("evaluation with a missing score unexpectedly succeeded")
	}
	if !IsError(err) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if !strings.Contains(err.Error(), "testing") {
		t.Fatalf("error = %q, want it to name the missing score", err.Error())
	}
}

func TestEvaluateDivisionByZero(t *testing.T) {
	for _, text := range []string{"x / y", "x // y", "x % y"} {
		e := mustCompile(t, text, []string{"x", "y"})
		_, err := e.Evaluate(map[string]float64{"x": 1, "y": 0})
		if err == nil {
			t.Fatalf("Evaluate(%q) with zero divisor unexpectedly succeeded", text)
		}
		if !IsError(err) {
			t.Fatalf("Evaluate(%q) error type = %T, want *Error", text, err)
		}
	}
}

func TestEvaluateValueEntityAttrs(t *testing.T) {
	entity := &EntityAttrs{
		Kind:      "Component",
		Type:      "service",
		Lifecycle: "deprecated",
		Owner:     "group:default/platform",
		Tags:      []string{"go", "internal"},
	}

	cases := []struct {
		name string
		text string
		want float64
	}{
		{"lifecycle match", "entity.lifecycle == 'deprecated'", 1},
		{"lifecycle mismatch", "entity.lifecycle == 'production'", 0},
		{"bare lifecycle match", "lifecycle == 'deprecated'", 1},
		{"bare type membership", "type in ('service', 'website')", 1},
		{"membership", "entity.type in ('service', 'website')", 1},
		{"negated membership", "'legacy' not in entity.tags", 1},
		{"tag present", "'go' in entity.tags", 1},
		{"and", "entity.kind == 'Component' and entity.type == 'service'", 1},
		{"or short circuit", "entity.kind == 'API' or entity.type == 'service'", 1},
		{"not", "not entity.lifecycle == 'deprecated'", 0},
		{"tag count", "len(entity.tags)", 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := mustCompileExtended(t, c.text, nil)
			v, err := e.EvaluateValue(nil, entity)
			if err != nil {
				t.Fatalf("EvaluateValue(%q) failed: %v", c.text, err)
			}
			got, ok := v.Float()
			if !ok {
				t.Fatalf("EvaluateValue(%q) returned a non-number", c.text)
			}
			if got != c.want {
				t.Fatalf("EvaluateValue(%q) = %v, want %v", c.text, got, c.want)
			}
		})
	}
}

func TestEvaluateValueScoreRefShadowsAttribute(t *testing.T) {
	// A declared score ref wins over an attribute of the same name.
	entity := &EntityAttrs{Type: "service"}
	e := mustCompileExtended(t, "type + 1", []string{"type"})
	v, err := e.EvaluateValue(map[string]float64{"type": 3}, entity)
	if err != nil {
		t.Fatalf("EvaluateValue failed: %v", err)
	}
	if got, _ := v.Float(); got != 4 {
		t.Fatalf("EvaluateValue = %v, want 4", got)
	}
}

func TestEvaluateValueTernaryLabels(t *testing.T) {
	text := "'S' if score >= 90 else 'A' if score >= 75 else 'C'"
	e := mustCompileExtended(t, text, []string{"score"})

	cases := []struct {
		score float64
		want  string
	}{
		{95, "S"},
		{90, "S"},
		{82, "A"},
		{40, "C"},
	}
	for _, c := range cases {
		v, err := e.EvaluateValue(map[string]float64{"score": c.score}, nil)
		if err != nil {
			t.Fatalf("EvaluateValue(score=%v) failed: %v", c.score, err)
		}
		got, ok := v.Text()
		if !ok {
			t.Fatalf("EvaluateValue(score=%v) returned a non-string", c.score)
		}
		if got != c.want {
			t.Fatalf("EvaluateValue(score=%v) = %q, want %q", c.score, got, c.want)
		}
	}
}

func TestEvaluateValueOnlyRequiresReferencedScores(t *testing.T) {
	e := mustCompileExtended(t, "security > 50", []string{"security"})
	v, err := e.EvaluateValue(map[string]float64{"security": 80, "unrelated": 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := v.Float(); got != 1 {
		t.Fatalf("got %v, want 1", got)
	}

	_, err = e.EvaluateValue(map[string]float64{"unrelated": 1}, nil)
	if err == nil {
		t.Fatal("evaluation without the referenced score unexpectedly succeeded")
	}
}

func TestEvaluateMixedTypeComparisons(t *testing.T) {
	e := mustCompileExtended(t, "entity.owner == 5", nil)
	v, err := e.EvaluateValue(nil, &EntityAttrs{Owner: "team-a"})
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := v.Float(); got != 0 {
		t.Fatalf("string == number should be 0, got %v", got)
	}

	e = mustCompileExtended(t, "entity.owner < 5", nil)
	_, err = e.EvaluateValue(nil, &EntityAttrs{Owner: "team-a"})
	if err == nil {
		t.Fatal("ordering a string against a number unexpectedly succeeded")
	}
}
