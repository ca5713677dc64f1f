package formula

import (
	"math"
	"sort"
	"strings"
)

type valueKind int

const (
	numberValue valueKind = iota
	stringValue
	listValue
)

// Value is an evaluation result: a number in strict mode, possibly a string
// in extended mode (label functions return labels directly).
type Value struct {
	kind valueKind
	num  float64
	str  string
	list []Value
}

// NumberValue wraps a float.
func NumberValue(f float64) Value {
	return Value{kind: numberValue, num: f}
}

// StringValue wraps a string.
func StringValue(s string) Value {
	return Value{kind: stringValue, str: s}
}

// IsString reports whether the value is a string.
func (v Value) IsString() bool {
	return v.kind == stringValue
}

// Float returns the numeric value; strings and lists report false.
func (v Value) Float() (float64, bool) {
	if v.kind != numberValue {
		return 0, false
	}
	return v.num, true
}

// Text returns the string value; numbers and lists report false.
func (v Value) Text() (string, bool) {
	if v.kind != stringValue {
		return "", false
	}
	return v.str, true
}

// Truthy follows the usual rules: nonzero numbers, non-empty strings and
// non-empty lists are true.
func (v Value) Truthy() bool {
	switch v.kind {
	case numberValue:
		return v.num != 0
	case stringValue:
		return v.str != ""
	default:
		return len(v.list) > 0
	}
}

// EntityAttrs supplies entity.<attr> values for extended-mode evaluation.
// Missing attributes read as empty strings.
type EntityAttrs struct {
	Kind        string
	Type        string
	Lifecycle   string
	Owner       string
	System      string
	Domain      string
	Namespace   string
	Name        string
	Title       string
	Description string
	Tags        []string
}

func (a *EntityAttrs) attr(name string) Value {
	if a == nil {
		return StringValue("")
	}
	switch name {
	case "kind":
		return StringValue(a.Kind)
	case "type":
		return StringValue(a.Type)
	case "lifecycle":
		return StringValue(a.Lifecycle)
	case "owner":
		return StringValue(a.Owner)
	case "system":
		return StringValue(a.System)
	case "domain":
		return StringValue(a.Domain)
	case "namespace":
		return StringValue(a.Namespace)
	case "name":
		return StringValue(a.Name)
	case "title":
		return StringValue(a.Title)
	case "description":
		return StringValue(a.Description)
	case "tags":
		elems := make([]Value, len(a.Tags))
		for i, tag := range a.Tags {
			elems[i] = StringValue(tag)
		}
		return Value{kind: listValue, list: elems}
	}
	return StringValue("")
}

// Evaluate computes the expression over the given score values. It is
// strict: every variable the expression was compiled against must be
// present. Comparisons yield 1.0/0.0 so patterns like (x>50)*10 work.
func (e *Expr) Evaluate(values map[string]float64) (float64, error) {
	var missing []string
	for name := range e.allowed {
		if _, ok := values[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return 0, errorf("missing required scores: %s", strings.Join(missing, ", "))
	}

	v, err := e.eval(e.root, values, nil)
	if err != nil {
		return 0, err
	}
	f, ok := v.Float()
	if !ok {
		return 0, errorf("expression did not produce a number")
	}
	return f, nil
}

// EvaluateValue computes an extended-mode expression over scores and entity
// attributes. Only variables the expression actually references must be
// present in scores.
func (e *Expr) EvaluateValue(scores map[string]float64, entity *EntityAttrs) (Value, error) {
	var missing []string
	for _, name := range e.refs {
		if _, ok := scores[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return Value{}, errorf("missing required scores: %s", strings.Join(missing, ", "))
	}
	return e.eval(e.root, scores, entity)
}

func (e *Expr) eval(n node, scores map[string]float64, entity *EntityAttrs) (Value, error) {
	switch n := n.(type) {
	case numberNode:
		return NumberValue(n.value), nil

	case stringNode:
		return StringValue(n.value), nil

	case identNode:
		// Declared score refs shadow bare attribute names, mirroring
		// validation.
		if _, declared := e.allowed[n.name]; declared {
			f, ok := scores[n.name]
			if !ok {
				return Value{}, errorf("missing required scores: %s", n.name)
			}
			return NumberValue(f), nil
		}
		if e.extended {
			if _, ok := allowedEntityAttrs[n.name]; ok {
				return entity.attr(n.name), nil
			}
		}
		return Value{}, errorf("missing required scores: %s", n.name)

	case attrNode:
		return entity.attr(n.name), nil

	case binaryNode:
		return e.evalBinary(n, scores, entity)

	case compareNode:
		return e.evalCompare(n, scores, entity)

	case boolNode:
		if n.op == tokAnd {
			for _, term := range n.terms {
				v, err := e.eval(term, scores, entity)
				if err != nil {
					return Value{}, err
				}
				if !v.Truthy() {
					return NumberValue(0), nil
				}
			}
			return NumberValue(1), nil
		}
		for _, term := range n.terms {
			v, err := e.eval(term, scores, entity)
			if err != nil {
				return Value{}, err
			}
			if v.Truthy() {
				return NumberValue(1), nil
			}
		}
		return NumberValue(0), nil

	case notNode:
		v, err := e.eval(n.operand, scores, entity)
		if err != nil {
			return Value{}, err
		}
		if v.Truthy() {
			return NumberValue(0), nil
		}
		return NumberValue(1), nil

	case unaryNode:
		v, err := e.eval(n.operand, scores, entity)
		if err != nil {
			return Value{}, err
		}
		f, ok := v.Float()
		if !ok {
			return Value{}, errorf("unary %s expects a number", tokenText(n.op))
		}
		if n.op == tokMinus {
			return NumberValue(-f), nil
		}
		return NumberValue(f), nil

	case ternaryNode:
		cond, err := e.eval(n.cond, scores, entity)
		if err != nil {
			return Value{}, err
		}
		if cond.Truthy() {
			return e.eval(n.then, scores, entity)
		}
		return e.eval(n.els, scores, entity)

	case callNode:
		args := make([]Value, len(n.args))
		for i, arg := range n.args {
			v, err := e.eval(arg, scores, entity)
			if err != nil {
				return Value{}, err
			}
			args[i] = v
		}
		return evalCall(n.fn, args)

	case listNode:
		elems := make([]Value, len(n.elems))
		for i, elem := range n.elems {
			v, err := e.eval(elem, scores, entity)
			if err != nil {
				return Value{}, err
			}
			elems[i] = v
		}
		return Value{kind: listValue, list: elems}, nil
	}

	return Value{}, errorf("cannot evaluate expression node")
}

func (e *Expr) evalBinary(n binaryNode, scores map[string]float64, entity *EntityAttrs) (Value, error) {
	left, err := e.eval(n.left, scores, entity)
	if err != nil {
		return Value{}, err
	}
	right, err := e.eval(n.right, scores, entity)
	if err != nil {
		return Value{}, err
	}
	a, aok := left.Float()
	b, bok := right.Float()
	if !aok || !bok {
		return Value{}, errorf("operator %s expects numbers", tokenText(n.op))
	}

	switch n.op {
	case tokPlus:
		return NumberValue(a + b), nil
	case tokMinus:
		return NumberValue(a - b), nil
	case tokStar:
		return NumberValue(a * b), nil
	case tokSlash:
		if b == 0 {
			return Value{}, errorf("division by zero")
		}
		return NumberValue(a / b), nil
	case tokFloorDiv:
		if b == 0 {
			return Value{}, errorf("division by zero")
		}
		return NumberValue(math.Floor(a / b)), nil
	case tokPercent:
		if b == 0 {
			return Value{}, errorf("modulo by zero")
		}
		return NumberValue(math.Mod(a, b)), nil
	case tokPower:
		return NumberValue(math.Pow(a, b)), nil
	}
	return Value{}, errorf("operator %s not allowed", tokenText(n.op))
}

func (e *Expr) evalCompare(n compareNode, scores map[string]float64, entity *EntityAttrs) (Value, error) {
	left, err := e.eval(n.left, scores, entity)
	if err != nil {
		return Value{}, err
	}
	right, err := e.eval(n.right, scores, entity)
	if err != nil {
		return Value{}, err
	}

	if n.op == tokIn {
		contained, err := contains(left, right)
		if err != nil {
			return Value{}, err
		}
		if contained != n.negated {
			return NumberValue(1), nil
		}
		return NumberValue(0), nil
	}

	result, err := compare(n.op, left, right)
	if err != nil {
		return Value{}, err
	}
	if result {
		return NumberValue(1), nil
	}
	return NumberValue(0), nil
}

func compare(op tokenKind, left, right Value) (bool, error) {
	if left.kind == numberValue && right.kind == numberValue {
		a, b := left.num, right.num
		switch op {
		case tokEq:
			return a == b, nil
		case tokNe:
			return a != b, nil
		case tokLt:
			return a < b, nil
		case tokLe:
			return a <= b, nil
		case tokGt:
			return a > b, nil
		case tokGe:
			return a >= b, nil
		}
	}
	if left.kind == stringValue && right.kind == stringValue {
		a, b := left.str, right.str
		switch op {
		case tokEq:
			return a == b, nil
		case tokNe:
			return a != b, nil
		case tokLt:
			return a < b, nil
		case tokLe:
			return a <= b, nil
		case tokGt:
			return a > b, nil
		case tokGe:
			return a >= b, nil
		}
	}
	// Mixed types: equality is false, ordering is an error.
	switch op {
	case tokEq:
		return false, nil
	case tokNe:
		return true, nil
	}
	return false, errorf("cannot order values of different types")
}

func contains(left, right Value) (bool, error) {
	switch right.kind {
	case listValue:
		for _, elem := range right.list {
			eq, err := compare(tokEq, left, elem)
			if err != nil {
				return false, err
			}
			if eq {
				return true, nil
			}
		}
		return false, nil
	case stringValue:
		sub, ok := left.Text()
		if !ok {
			return false, errorf("operator 'in' on a string expects a string operand")
		}
		return strings.Contains(right.str, sub), nil
	}
	return false, errorf("operator 'in' expects a list or string")
}

func evalCall(fn string, args []Value) (Value, error) {
	if fn == "len" {
		if len(args) != 1 {
			return Value{}, errorf("len expects exactly one argument")
		}
		switch args[0].kind {
		case listValue:
			return NumberValue(float64(len(args[0].list))), nil
		case stringValue:
			return NumberValue(float64(len(args[0].str))), nil
		}
		return Value{}, errorf("len expects a list or string")
	}

	nums, err := flattenNumbers(fn, args)
	if err != nil {
		return Value{}, err
	}

	switch fn {
	case "min":
		if len(nums) == 0 {
			return Value{}, errorf("min expects at least one argument")
		}
		out := nums[0]
		for _, f := range nums[1:] {
			out = math.Min(out, f)
		}
		return NumberValue(out), nil
	case "max":
		if len(nums) == 0 {
			return Value{}, errorf("max expects at least one argument")
		}
		out := nums[0]
		for _, f := range nums[1:] {
			out = math.Max(out, f)
		}
		return NumberValue(out), nil
	case "abs":
		if len(nums) != 1 {
			return Value{}, errorf("abs expects exactly one argument")
		}
		return NumberValue(math.Abs(nums[0])), nil
	case "sum":
		total := 0.0
		for _, f := range nums {
			total += f
		}
		return NumberValue(total), nil
	case "avg":
		if len(nums) == 0 {
			return NumberValue(0), nil
		}
		total := 0.0
		for _, f := range nums {
			total += f
		}
		return NumberValue(total / float64(len(nums))), nil
	case "round":
		if len(nums) != 1 {
			return Value{}, errorf("round expects exactly one argument")
		}
		return NumberValue(math.Round(nums[0])), nil
	case "pow":
		if len(nums) != 2 {
			return Value{}, errorf("pow expects exactly two arguments")
		}
		return NumberValue(math.Pow(nums[0], nums[1])), nil
	case "sqrt":
		if len(nums) != 1 {
			return Value{}, errorf("sqrt expects exactly one argument")
		}
		if nums[0] < 0 {
			return Value{}, errorf("sqrt of a negative number")
		}
		return NumberValue(math.Sqrt(nums[0])), nil
	case "floor":
		if len(nums) != 1 {
			return Value{}, errorf("floor expects exactly one argument")
		}
		return NumberValue(math.Floor(nums[0])), nil
	case "ceil":
		if len(nums) != 1 {
			return Value{}, errorf("ceil expects exactly one argument")
		}
		return NumberValue(math.Ceil(nums[0])), nil
	}
	return Value{}, errorf("function not allowed: %s", fn)
}

// flattenNumbers expands list arguments so min(a, b) and min([a, b]) behave
// the same.
func flattenNumbers(fn string, args []Value) ([]float64, error) {
	var nums []float64
	var walk func(v Value) error
	walk = func(v Value) error {
		switch v.kind {
		case numberValue:
			nums = append(nums, v.num)
			return nil
		case listValue:
			for _, elem := range v.list {
				if err := walk(elem); err != nil {
					return err
				}
			}
			return nil
		}
		return errorf("%s expects numeric arguments", fn)
	}
	for _, arg := range args {
		if err := walk(arg); err != nil {
			return nil, err
		}
	}
	return nums, nil
}

func tokenText(kind tokenKind) string {
	switch kind {
	case tokPlus:
		return "+"
	case tokMinus:
		return "-"
	case tokStar:
		return "*"
	case tokSlash:
		return "/"
	case tokFloorDiv:
		return "//"
	case tokPercent:
		return "%"
	case tokPower:
		return "**"
	case tokEq:
		return "=="
	case tokNe:
		return "!="
	case tokLt:
		return "<"
	case tokLe:
		return "<="
	case tokGt:
		return ">"
	case tokGe:
		return ">="
	}
	return "?"
}
