package catalog

import (
	"encoding/json"
	"fmt"
)

// Metadata carries the fields shared by every entity kind.
type Metadata struct {
	Name        string            `json:"name" validate:"required"`
	Namespace   string            `json:"namespace,omitempty"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Scores      []ScoreValue      `json:"scores,omitempty"`
}

// RelationFields exposes the relation-relevant optional fields of an entity
// spec. Kinds that lack a field leave it zero; the extractor only emits
// edges for non-empty values.
type RelationFields struct {
	Owner          string
	System         string
	Domain         string
	Parent         string
	SubdomainOf    string
	SubcomponentOf string
	DependsOn      []string
	ProvidesAPIs   []string
	ConsumesAPIs   []string
	MemberOf       []string
	Children       []string
	Members        []string
}

// Attributes exposes the non-relation spec fields referenced by rank
// conditions and queries.
type Attributes struct {
	Type      string
	Lifecycle string
}

// Spec is the closed set of per-kind entity payloads.
type Spec interface {
	RelationFields() RelationFields
	Attributes() Attributes
}

type ComponentSpec struct {
	Type           string   `json:"type,omitempty"`
	Lifecycle      string   `json:"lifecycle,omitempty"`
	Owner          string   `json:"owner,omitempty"`
	System         string   `json:"system,omitempty"`
	SubcomponentOf string   `json:"subcomponentOf,omitempty"`
	DependsOn      []string `json:"dependsOn,omitempty"`
	ProvidesAPIs   []string `json:"providesApis,omitempty"`
	ConsumesAPIs   []string `json:"consumesApis,omitempty"`
}

func (s ComponentSpec) RelationFields() RelationFields {
	return RelationFields{
		Owner:          s.Owner,
		System:         s.System,
		SubcomponentOf: s.SubcomponentOf,
		DependsOn:      s.DependsOn,
		ProvidesAPIs:   s.ProvidesAPIs,
		ConsumesAPIs:   s.ConsumesAPIs,
	}
}

func (s ComponentSpec) Attributes() Attributes {
	return Attributes{Type: s.Type, Lifecycle: s.Lifecycle}
}

type APISpec struct {
	Type       string `json:"type,omitempty"`
	Lifecycle  string `json:"lifecycle,omitempty"`
	Owner      string `json:"owner,omitempty"`
	System     string `json:"system,omitempty"`
	Definition string `json:"definition,omitempty"`
}

func (s APISpec) RelationFields() RelationFields {
	return RelationFields{Owner: s.Owner, System: s.System}
}

func (s APISpec) Attributes() Attributes {
	return Attributes{Type: s.Type, Lifecycle: s.Lifecycle}
}

type ResourceSpec struct {
	Type      string   `json:"type,omitempty"`
	Owner     string   `json:"owner,omitempty"`
	System    string   `json:"system,omitempty"`
	DependsOn []string `json:"dependsOn,omitempty"`
}

func (s ResourceSpec) RelationFields() RelationFields {
	return RelationFields{Owner: s.Owner, System: s.System, DependsOn: s.DependsOn}
}

func (s ResourceSpec) Attributes() Attributes {
	return Attributes{Type: s.Type}
}

type SystemSpec struct {
	Type   string `json:"type,omitempty"`
	Owner  string `json:"owner,omitempty"`
	Domain string `json:"domain,omitempty"`
}

func (s SystemSpec) RelationFields() RelationFields {
	return RelationFields{Owner: s.Owner, Domain: s.Domain}
}

func (s SystemSpec) Attributes() Attributes {
	return Attributes{Type: s.Type}
}

type DomainSpec struct {
	Type        string `json:"type,omitempty"`
	Owner       string `json:"owner,omitempty"`
	SubdomainOf string `json:"subdomainOf,omitempty"`
}

func (s DomainSpec) RelationFields() RelationFields {
	return RelationFields{Owner: s.Owner, SubdomainOf: s.SubdomainOf}
}

func (s DomainSpec) Attributes() Attributes {
	return Attributes{Type: s.Type}
}

type UserSpec struct {
	MemberOf []string `json:"memberOf,omitempty"`
}

func (s UserSpec) RelationFields() RelationFields {
	return RelationFields{MemberOf: s.MemberOf}
}

func (s UserSpec) Attributes() Attributes {
	return Attributes{}
}

type GroupSpec struct {
	Type     string   `json:"type,omitempty"`
	Parent   string   `json:"parent,omitempty"`
	Children []string `json:"children,omitempty"`
	Members  []string `json:"members,omitempty"`
}

func (s GroupSpec) RelationFields() RelationFields {
	return RelationFields{
		Parent:   s.Parent,
		Children: s.Children,
		Members:  s.Members,
	}
}

func (s GroupSpec) Attributes() Attributes {
	return Attributes{Type: s.Type}
}

type LocationSpec struct {
	Type    string   `json:"type,omitempty"`
	Targets []string `json:"targets,omitempty"`
}

func (s LocationSpec) RelationFields() RelationFields {
	return RelationFields{}
}

func (s LocationSpec) Attributes() Attributes {
	return Attributes{Type: s.Type}
}

// emptySpec backs entities of unrecognized kinds.
type emptySpec struct{}

func (emptySpec) RelationFields() RelationFields { return RelationFields{} }
func (emptySpec) Attributes() Attributes         { return Attributes{} }

// Entity is one catalog record. Entities are produced fresh on every
// ingestion pass and treated as immutable within a snapshot.
type Entity struct {
	Kind     Kind
	Metadata Metadata
	Spec     Spec
}

// ID returns the canonical Kind:namespace/name identifier.
func (e Entity) ID() string {
	return e.Ref().String()
}

// Ref returns the entity's reference with namespace defaulted.
func (e Entity) Ref() Ref {
	ns := e.Metadata.Namespace
	if ns == "" {
		ns = "default"
	}
	return Ref{Kind: e.Kind, Namespace: ns, Name: e.Metadata.Name}
}

// EntityContext is the flattened attribute view exposed to rank conditions
// and label functions.
type EntityContext struct {
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

// Context flattens the entity for formula evaluation.
func (e Entity) Context() EntityContext {
	rel := e.Spec.RelationFields()
	attrs := e.Spec.Attributes()
	ns := e.Metadata.Namespace
	if ns == "" {
		ns = "default"
	}
	return EntityContext{
		Kind:        string(e.Kind),
		Type:        attrs.Type,
		Lifecycle:   attrs.Lifecycle,
		Owner:       rel.Owner,
		System:      rel.System,
		Domain:      rel.Domain,
		Namespace:   ns,
		Name:        e.Metadata.Name,
		Title:       e.Metadata.Title,
		Description: e.Metadata.Description,
		Tags:        e.Metadata.Tags,
	}
}

// UnmarshalJSON decodes an entity record, selecting the spec variant from
// the kind field. Unknown fields are ignored; unknown kinds get an empty
// spec so the record still lands in the catalog.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind     string          `json:"kind"`
		Metadata Metadata        `json:"metadata"`
		Spec     json.RawMessage `json:"spec"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode entity record: %w", err)
	}
	if raw.Kind == "" {
		return fmt.Errorf("entity record missing kind")
	}

	e.Kind = KindFromString(raw.Kind)
	e.Metadata = raw.Metadata
	if e.Metadata.Namespace == "" {
		e.Metadata.Namespace = "default"
	}

	spec, err := decodeSpec(e.Kind, raw.Spec)
	if err != nil {
		return err
	}
	e.Spec = spec
	return nil
}

func decodeSpec(kind Kind, data json.RawMessage) (Spec, error) {
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}

	unmarshal := func(v Spec) (Spec, error) {
		if err := json.Unmarshal(data, v); err != nil {
			return nil, fmt.Errorf("failed to decode %s spec: %w", kind, err)
		}
		return v, nil
	}

	switch kind {
	case KindComponent:
		s := &ComponentSpec{}
		return unmarshal(s)
	case KindAPI:
		s := &APISpec{}
		return unmarshal(s)
	case KindResource:
		s := &ResourceSpec{}
		return unmarshal(s)
	case KindSystem:
		s := &SystemSpec{}
		return unmarshal(s)
	case KindDomain:
		s := &DomainSpec{}
		return unmarshal(s)
	case KindUser:
		s := &UserSpec{}
		return unmarshal(s)
	case KindGroup:
		s := &GroupSpec{}
		return unmarshal(s)
	case KindLocation:
		s := &LocationSpec{}
		return unmarshal(s)
	default:
		return emptySpec{}, nil
	}
}
