package catalog

// RelationType is the fixed vocabulary of edge types.
type RelationType string

const (
	RelationDependsOn      RelationType = "dependsOn"
	RelationProvidesAPI    RelationType = "providesApi"
	RelationConsumesAPI    RelationType = "consumesApi"
	RelationOwnedBy        RelationType = "ownedBy"
	RelationPartOf         RelationType = "partOf"
	RelationPartOfDomain   RelationType = "partOfDomain"
	RelationMemberOf       RelationType = "memberOf"
	RelationChildOf        RelationType = "childOf"
	RelationParentOf       RelationType = "parentOf"
	RelationHasMember      RelationType = "hasMember"
	RelationSubdomainOf    RelationType = "subdomainOf"
	RelationSubcomponentOf RelationType = "subcomponentOf"
)

// Relation is a directed, typed edge between two entity IDs. Targets are
// case-normalized before storage; duplicates are kept as-is.
type Relation struct {
	SourceID string       `json:"source_id"`
	TargetID string       `json:"target_id"`
	Type     RelationType `json:"relation_type"`
}
