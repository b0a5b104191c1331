package privacy

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/syssam/veloxsql/compiler"
	"github.com/syssam/veloxsql/expr"
)

// Policy decision sentinel errors.
//
// Rules return one of these values to tell the policy how to proceed.
// Use errors.Is() to check for them:
//
//	if errors.Is(err, privacy.Deny) { ... }
var (
	// Allow terminates the evaluation with an allow decision.
	Allow = errors.New("veloxsql/privacy: allow rule")

	// Deny terminates the evaluation with a deny decision.
	Deny = errors.New("veloxsql/privacy: deny rule")

	// Skip passes the decision to the next rule in the chain.
	Skip = errors.New("veloxsql/privacy: skip rule")
)

// Allowf returns a formatted wrapped Allow decision.
func Allowf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Allow)...)
}

// Denyf returns a formatted wrapped Deny decision.
func Denyf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Deny)...)
}

// Skipf returns a formatted wrapped Skip decision.
func Skipf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Skip)...)
}

// Mutation is the statement under evaluation, as seen by a compiler filter.
type Mutation struct {
	Cmd *compiler.Command
	// Row is the model pointer, the evaluated *expr.FieldValues of an
	// initializer, or the update payload.
	Row any
}

// Op returns the statement kind of the mutation.
func (m *Mutation) Op() compiler.Op { return m.Cmd.Op }

// Model returns the Go type name of the mutated model.
func (m *Mutation) Model() string { return m.Cmd.Model.Name }

// Field returns the value the mutation writes to the named field. The name
// is matched against Go field names and column names, ignoring case.
// For payloads, entries that match no field of the model are ignored.
func (m *Mutation) Field(name string) (any, bool) {
	fd, ok := m.Cmd.Model.Field(name)
	if !ok {
		return nil, false
	}
	switch row := m.Row.(type) {
	case nil:
		return nil, false
	case expr.Payload:
		for k, v := range row.All() {
			if f, ok := m.Cmd.Model.Field(k); ok && f == fd {
				return v, true
			}
		}
		return nil, false
	default:
		rv := reflect.ValueOf(row)
		if rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return nil, false
			}
			rv = rv.Elem()
		}
		if rv.Type() != m.Cmd.Model.Type {
			return nil, false
		}
		return fd.Value(rv).Interface(), true
	}
}

// Fields returns the Go names of the fields the mutation carries explicitly.
// It is nil for model rows, since a model carries every field.
func (m *Mutation) Fields() []string {
	p, ok := m.Row.(expr.Payload)
	if !ok {
		return nil
	}
	var names []string
	for k := range p.All() {
		if fd, ok := m.Cmd.Model.Field(k); ok {
			names = append(names, fd.Name)
		}
	}
	return names
}

type (
	// MutationRule decides whether a mutation is allowed.
	MutationRule interface {
		EvalMutation(context.Context, *Mutation) error
	}

	// MutationPolicy combines multiple mutation rules into a single policy.
	MutationPolicy []MutationRule
)

// MutationRuleFunc type is an adapter which allows the use of
// ordinary functions as mutation rules.
type MutationRuleFunc func(context.Context, *Mutation) error

// EvalMutation returns f(ctx, m).
func (f MutationRuleFunc) EvalMutation(ctx context.Context, m *Mutation) error {
	return f(ctx, m)
}

// AlwaysAllowRule returns a rule that always returns an Allow decision.
func AlwaysAllowRule() MutationRule {
	return fixedDecision{Allow}
}

// AlwaysDenyRule returns a rule that always returns a Deny decision.
func AlwaysDenyRule() MutationRule {
	return fixedDecision{Deny}
}

// ContextMutationRule creates a mutation rule from a context evaluation
// function. Returning nil is equivalent to returning Skip.
func ContextMutationRule(eval func(context.Context) error) MutationRule {
	return MutationRuleFunc(func(ctx context.Context, _ *Mutation) error {
		return eval(ctx)
	})
}

// OnOperation evaluates the given rule only on the given statement kinds.
func OnOperation(rule MutationRule, ops ...compiler.Op) MutationRule {
	return MutationRuleFunc(func(ctx context.Context, m *Mutation) error {
		if slices.Contains(ops, m.Op()) {
			return rule.EvalMutation(ctx, m)
		}
		return Skip
	})
}

// OnModel evaluates the given rule only on the named models. Names are
// matched against the Go type name, ignoring case.
func OnModel(rule MutationRule, models ...string) MutationRule {
	return MutationRuleFunc(func(ctx context.Context, m *Mutation) error {
		for _, name := range models {
			if strings.EqualFold(name, m.Model()) {
				return rule.EvalMutation(ctx, m)
			}
		}
		return Skip
	})
}

// DenyOperationRule returns a rule denying the given statement kind.
func DenyOperationRule(op compiler.Op) MutationRule {
	rule := MutationRuleFunc(func(_ context.Context, m *Mutation) error {
		return Denyf("veloxsql/privacy: operation %s is not allowed", m.Op())
	})
	return OnOperation(rule, op)
}

// AllowOperationRule returns a rule allowing the given statement kind.
func AllowOperationRule(op compiler.Op) MutationRule {
	rule := MutationRuleFunc(func(context.Context, *Mutation) error {
		return Allow
	})
	return OnOperation(rule, op)
}

// DenyFieldsRule returns a rule denying mutations that explicitly carry any
// of the named fields. Model rows are skipped, since the compiler already
// drops fields marked skip-on-update from them.
func DenyFieldsRule(fields ...string) MutationRule {
	return MutationRuleFunc(func(_ context.Context, m *Mutation) error {
		for _, name := range m.Fields() {
			for _, f := range fields {
				if strings.EqualFold(name, f) {
					return Denyf("veloxsql/privacy: field %s.%s is not writable", m.Model(), name)
				}
			}
		}
		return Skip
	})
}

// EvalMutation evaluates a mutation against the policy. The first rule
// returning a decision other than Skip ends the evaluation. An Allow
// decision or a policy where every rule skips yields nil.
func (policies MutationPolicy) EvalMutation(ctx context.Context, m *Mutation) error {
	if decision, ok := DecisionFromContext(ctx); ok {
		return decision
	}
	for _, policy := range policies {
		switch decision := policy.EvalMutation(ctx, m); {
		case decision == nil || errors.Is(decision, Skip):
		case errors.Is(decision, Allow):
			return nil
		default:
			return decision
		}
	}
	return nil
}

// Filter binds the policy to ctx and returns it as a compiler filter.
// Compilers are cheap to derive, so per-request filters are attached with
// Compiler.With:
//
//	c, err := base.With(compiler.WithUpdateFilter(policy.Filter(ctx)))
func (policies MutationPolicy) Filter(ctx context.Context) compiler.Filter {
	return func(cmd *compiler.Command, row any) error {
		return policies.EvalMutation(ctx, &Mutation{Cmd: cmd, Row: row})
	}
}

type decisionCtxKey struct{}

// DecisionContext creates a new context from the given parent context with
// a policy decision attached to it. Policies evaluated under the returned
// context return the decision without running their rules.
func DecisionContext(parent context.Context, decision error) context.Context {
	if decision == nil || errors.Is(decision, Skip) {
		return parent
	}
	return context.WithValue(parent, decisionCtxKey{}, decision)
}

// DecisionFromContext retrieves the policy decision from the context.
func DecisionFromContext(ctx context.Context) (error, bool) {
	decision, ok := ctx.Value(decisionCtxKey{}).(error)
	if ok && errors.Is(decision, Allow) {
		decision = nil
	}
	return decision, ok
}

type fixedDecision struct {
	decision error
}

func (f fixedDecision) EvalMutation(context.Context, *Mutation) error {
	return f.decision
}
