// Package privacy evaluates authorization policies against the mutations a
// compiler is about to render.
//
// A policy is an ordered list of rules. Each rule returns Allow, Deny or
// Skip, and the first decision other than Skip wins. A policy whose rules
// all skip allows the mutation, so policies usually end with
// AlwaysDenyRule.
//
// Policies run as compiler filters. The filter is bound to a request context
// carrying the Viewer:
//
//	policy := privacy.MutationPolicy{
//	    privacy.DenyIfNoViewer(),
//	    privacy.OnModel(privacy.DenyFieldsRule("Role"), "User"),
//	    privacy.HasRole("admin"),
//	    privacy.IsOwner("OwnerID"),
//	    privacy.AlwaysDenyRule(),
//	}
//
//	ctx = privacy.WithViewer(ctx, viewer)
//	c, err := base.With(compiler.WithUpdateFilter(policy.Filter(ctx)))
//
// A denied mutation fails with a *compiler.FilterError wrapping the
// decision, so errors.Is(err, privacy.Deny) reports it.
package privacy
