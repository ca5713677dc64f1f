// Package rank computes derived rank values from entity scores. A rank
// definition yields one of three evaluator strategies: a plain formula, an
// ordered rule chain, or a label function.
package rank

import (
	"errors"
	"fmt"

	"catalogd/pkg/catalog"
	"catalogd/pkg/formula"
)

// ErrNoRuleMatched reports that no rule in a conditional chain applied to
// the entity. The rank is not applicable, as opposed to having failed;
// callers check with errors.Is.
var ErrNoRuleMatched = errors.New("no rule matched")

// Result is a single rank computation outcome.
type Result struct {
	Value float64
	Label string
}

// Evaluator computes a rank for one entity's scores. Implementations are
// immutable after construction and safe for concurrent use.
type Evaluator interface {
	Evaluate(scores map[string]float64, entity *formula.EntityAttrs) (Result, error)
}

// New compiles the active strategy of a rank definition. Label functions take
// precedence over rules, rules over the plain formula.
func New(def catalog.RankDefinition) (Evaluator, error) {
	switch def.Mode() {
	case catalog.RankModeLabelFunction:
		return newLabelFunction(def)
	case catalog.RankModeRules:
		return newConditionalRules(def)
	default:
		return newSimpleFormula(def)
	}
}

// simpleFormula evaluates one strict formula over the referenced scores and
// maps the value onto the definition's thresholds.
type simpleFormula struct {
	def  catalog.RankDefinition
	expr *formula.Expr
}

func newSimpleFormula(def catalog.RankDefinition) (Evaluator, error) {
	if def.Formula == "" {
		return nil, formula.Errorf("rank %s has no formula", def.ID)
	}
	expr, err := formula.Compile(def.Formula, def.ScoreRefs)
	if err != nil {
		return nil, err
	}
	return &simpleFormula{def: def, expr: expr}, nil
}

func (e *simpleFormula) Evaluate(scores map[string]float64, _ *formula.EntityAttrs) (Result, error) {
	value, err := e.expr.Evaluate(scores)
	if err != nil {
		return Result{}, err
	}
	return Result{Value: value, Label: e.def.Label(value)}, nil
}

type compiledRule struct {
	condition *formula.Expr // nil means the rule always applies
	value     *formula.Expr
}

// conditionalRules walks the rule chain in order. The first rule whose
// condition is truthy supplies the value; rules that fail to evaluate are
// skipped rather than failing the whole rank.
type conditionalRules struct {
	def   catalog.RankDefinition
	rules []compiledRule
}

func newConditionalRules(def catalog.RankDefinition) (Evaluator, error) {
	rules := make([]compiledRule, 0, len(def.Rules))
	for _, r := range def.Rules {
		var compiled compiledRule
		if r.Condition != "" {
			cond, err := formula.CompileExtended(r.Condition, def.ScoreRefs)
			if err != nil {
				return nil, err
			}
			compiled.condition = cond
		}
		value, err := formula.CompileExtended(r.Formula, def.ScoreRefs)
		if err != nil {
			return nil, err
		}
		compiled.value = value
		rules = append(rules, compiled)
	}
	if len(rules) == 0 {
		return nil, formula.Errorf("rank %s has no rules", def.ID)
	}
	return &conditionalRules{def: def, rules: rules}, nil
}

func (e *conditionalRules) Evaluate(scores map[string]float64, entity *formula.EntityAttrs) (Result, error) {
	for _, rule := range e.rules {
		if rule.condition != nil {
			cond, err := rule.condition.EvaluateValue(scores, entity)
			if err != nil {
				continue
			}
			if !cond.Truthy() {
				continue
			}
		}
		v, err := rule.value.EvaluateValue(scores, entity)
		if err != nil {
			continue
		}
		value, ok := v.Float()
		if !ok {
			continue
		}
		return Result{Value: value, Label: e.def.Label(value)}, nil
	}
	return Result{}, fmt.Errorf("rank %s: %w", e.def.ID, ErrNoRuleMatched)
}

// labelFunction evaluates one extended expression that yields the label
// directly. A numeric result is mapped through the thresholds instead.
type labelFunction struct {
	def  catalog.RankDefinition
	expr *formula.Expr
}

func newLabelFunction(def catalog.RankDefinition) (Evaluator, error) {
	expr, err := formula.CompileExtended(def.LabelFunction, def.ScoreRefs)
	if err != nil {
		return nil, err
	}
	return &labelFunction{def: def, expr: expr}, nil
}

func (e *labelFunction) Evaluate(scores map[string]float64, entity *formula.EntityAttrs) (Result, error) {
	v, err := e.expr.EvaluateValue(scores, entity)
	if err != nil {
		return Result{}, err
	}
	if label, ok := v.Text(); ok {
		return Result{Value: 0, Label: label}, nil
	}
	if value, ok := v.Float(); ok {
		return Result{Value: value, Label: e.def.Label(value)}, nil
	}
	return Result{}, formula.Errorf("rank %s: label function did not produce a label", e.def.ID)
}
