// Package relation derives typed graph edges from entity spec fields.
package relation

import "catalogd/pkg/catalog"

// Extract returns the outgoing relations an entity declares. Edge targets
// are resolved to full Kind:namespace/name identifiers; bare names take the
// default kind conventional for the field (owner -> Group, system -> System,
// and so on). Empty fields yield no edges. Extraction never fails: targets
// that do not exist in the catalog simply produce dangling edges, which the
// graph queries treat as leaves.
func Extract(e catalog.Entity) []catalog.Relation {
	fields := e.Spec.RelationFields()
	source := e.ID()

	var out []catalog.Relation
	single := func(ref string, rel catalog.RelationType, defaultKind catalog.Kind) {
		if ref == "" {
			return
		}
		out = append(out, catalog.Relation{
			SourceID: source,
			TargetID: resolveTarget(ref, defaultKind),
			Type:     rel,
		})
	}
	many := func(refs []string, rel catalog.RelationType, defaultKind catalog.Kind) {
		for _, ref := range refs {
			single(ref, rel, defaultKind)
		}
	}

	single(fields.Owner, catalog.RelationOwnedBy, catalog.KindGroup)
	single(fields.System, catalog.RelationPartOf, catalog.KindSystem)
	single(fields.Domain, catalog.RelationPartOfDomain, catalog.KindDomain)
	single(fields.Parent, catalog.RelationChildOf, catalog.KindGroup)
	single(fields.SubdomainOf, catalog.RelationSubdomainOf, catalog.KindDomain)
	single(fields.SubcomponentOf, catalog.RelationSubcomponentOf, catalog.KindComponent)
	many(fields.DependsOn, catalog.RelationDependsOn, catalog.KindComponent)
	many(fields.ProvidesAPIs, catalog.RelationProvidesAPI, catalog.KindAPI)
	many(fields.ConsumesAPIs, catalog.RelationConsumesAPI, catalog.KindAPI)
	many(fields.MemberOf, catalog.RelationMemberOf, catalog.KindGroup)
	many(fields.Children, catalog.RelationParentOf, catalog.KindGroup)
	many(fields.Members, catalog.RelationHasMember, catalog.KindUser)
	return out
}

// ExtractAll extracts relations for a batch of entities in input order.
func ExtractAll(entities []catalog.Entity) []catalog.Relation {
	var out []catalog.Relation
	for _, e := range entities {
		out = append(out, Extract(e)...)
	}
	return out
}

// resolveTarget turns a reference string into a canonical entity ID. Bare
// names get the field's default kind and the default namespace; prefixed
// references keep their declared kind with its case normalized.
func resolveTarget(ref string, defaultKind catalog.Kind) string {
	parsed := catalog.ParseRef(ref)
	if !hasKindPrefix(ref) {
		parsed.Kind = defaultKind
	}
	return parsed.String()
}

func hasKindPrefix(ref string) bool {
	for i := 0; i < len(ref); i++ {
		if ref[i] == ':' {
			return true
		}
	}
	return false
}
