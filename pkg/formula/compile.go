// Package formula implements the sandboxed expression language used by rank
// definitions: a restricted numeric/boolean grammar over named score
// variables, compiled once and safe for concurrent evaluation.
package formula

import "sort"

// maxDepth caps expression nesting.
const maxDepth = 50

var strictBuiltins = map[string]struct{}{
	"min":   {},
	"max":   {},
	"abs":   {},
	"sum":   {},
	"avg":   {},
	"round": {},
	"pow":   {},
}

var extendedBuiltins = map[string]struct{}{
	"min":   {},
	"max":   {},
	"abs":   {},
	"sum":   {},
	"avg":   {},
	"round": {},
	"pow":   {},
	"len":   {},
	"sqrt":  {},
	"floor": {},
	"ceil":  {},
}

// allowedEntityAttrs is the fixed whitelist for entity.* access.
var allowedEntityAttrs = map[string]struct{}{
	"kind":        {},
	"type":        {},
	"lifecycle":   {},
	"owner":       {},
	"system":      {},
	"domain":      {},
	"tags":        {},
	"namespace":   {},
	"name":        {},
	"title":       {},
	"description": {},
}

// Expr is a compiled expression. It holds no evaluation state and may be
// shared across concurrent evaluations with different value maps.
type Expr struct {
	source   string
	root     node
	allowed  map[string]struct{}
	refs     []string // referenced variable names, sorted
	extended bool
	builtins map[string]struct{}
}

// Compile parses and validates a strict-mode expression: numeric constants
// and the declared variables only, no strings, no entity access, no boolean
// keywords. This is the grammar simple rank formulas use.
func Compile(text string, allowedVars []string) (*Expr, error) {
	return compile(text, allowedVars, false)
}

// CompileExtended parses and validates an extended-mode expression, as used
// by rule conditions and label functions: string constants, entity.<attr>
// access against a fixed attribute whitelist (whitelisted attribute names
// also resolve bare, unless shadowed by a score ref), and/or/not, in/not in,
// and a few extra builtins on top of the strict grammar.
func CompileExtended(text string, scoreRefs []string) (*Expr, error) {
	return compile(text, scoreRefs, true)
}

func compile(text string, allowedVars []string, extended bool) (*Expr, error) {
	root, err := parse(text)
	if err != nil {
		return nil, err
	}

	e := &Expr{
		source:   text,
		root:     root,
		allowed:  make(map[string]struct{}, len(allowedVars)),
		extended: extended,
		builtins: strictBuiltins,
	}
	if extended {
		e.builtins = extendedBuiltins
	}
	for _, name := range allowedVars {
		e.allowed[name] = struct{}{}
	}

	refs := make(map[string]struct{})
	if err := e.validate(root, 0, refs); err != nil {
		return nil, err
	}
	e.refs = make([]string, 0, len(refs))
	for name := range refs {
		e.refs = append(e.refs, name)
	}
	sort.Strings(e.refs)
	return e, nil
}

// Source returns the original expression text.
func (e *Expr) Source() string {
	return e.source
}

// Variables returns the variable names the expression references, sorted.
func (e *Expr) Variables() []string {
	return e.refs
}

func (e *Expr) validate(n node, depth int, refs map[string]struct{}) error {
	if depth > maxDepth {
		return errorf("formula is too complex (max depth %d exceeded)", maxDepth)
	}

	switch n := n.(type) {
	case numberNode:
		return nil

	case stringNode:
		if !e.extended {
			return errorf("string constants are not allowed here")
		}
		return nil

	case identNode:
		if _, ok := e.builtins[n.name]; ok {
			// Builtin names can only appear as calls.
			return errorf("unknown variable: %s", n.name)
		}
		if _, ok := e.allowed[n.name]; ok {
			refs[n.name] = struct{}{}
			return nil
		}
		// In extended mode a bare whitelisted attribute name reads the
		// entity attribute, so conditions may say lifecycle == 'deprecated'
		// as well as entity.lifecycle == 'deprecated'. Declared score refs
		// shadow attribute names.
		if e.extended {
			if _, ok := allowedEntityAttrs[n.name]; ok {
				return nil
			}
		}
		return errorf("unknown variable: %s", n.name)

	case attrNode:
		if !e.extended {
			return errorf("entity attributes are not allowed here")
		}
		if _, ok := allowedEntityAttrs[n.name]; !ok {
			return errorf("entity attribute not allowed: entity.%s", n.name)
		}
		return nil

	case binaryNode:
		if err := e.validate(n.left, depth+1, refs); err != nil {
			return err
		}
		return e.validate(n.right, depth+1, refs)

	case compareNode:
		if n.op == tokIn && !e.extended {
			return errorf("operator 'in' is not allowed here")
		}
		if err := e.validate(n.left, depth+1, refs); err != nil {
			return err
		}
		return e.validate(n.right, depth+1, refs)

	case boolNode:
		if !e.extended {
			return errorf("boolean operators are not allowed here")
		}
		for _, term := range n.terms {
			if err := e.validate(term, depth+1, refs); err != nil {
				return err
			}
		}
		return nil

	case notNode:
		if !e.extended {
			return errorf("operator 'not' is not allowed here")
		}
		return e.validate(n.operand, depth+1, refs)

	case unaryNode:
		return e.validate(n.operand, depth+1, refs)

	case ternaryNode:
		if err := e.validate(n.cond, depth+1, refs); err != nil {
			return err
		}
		if err := e.validate(n.then, depth+1, refs); err != nil {
			return err
		}
		return e.validate(n.els, depth+1, refs)

	case callNode:
		if _, ok := e.builtins[n.fn]; !ok {
			return errorf("function not allowed: %s", n.fn)
		}
		for _, arg := range n.args {
			if err := e.validate(arg, depth+1, refs); err != nil {
				return err
			}
		}
		return nil

	case listNode:
		for _, elem := range n.elems {
			if err := e.validate(elem, depth+1, refs); err != nil {
				return err
			}
		}
		return nil
	}

	return errorf("expression node not allowed")
}
