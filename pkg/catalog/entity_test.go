package catalog

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		in   string
		want Ref
	}{
		{"Component:default/billing", Ref{KindComponent, "default", "billing"}},
		{"component:prod/billing", Ref{KindComponent, "prod", "billing"}},
		{"group:platform", Ref{KindGroup, "default", "platform"}},
		{"billing", Ref{KindComponent, "default", "billing"}},
		{"API:default/payments-api", Ref{KindAPI, "default", "payments-api"}},
	}
	for _, tt := range tests {
		if got := ParseRef(tt.in); got != tt.want {
			t.Errorf("ParseRef(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeRef(t *testing.T) {
	if got := NormalizeRef("resource:default/redis-cache"); got != "Resource:default/redis-cache" {
		t.Errorf("NormalizeRef = %q", got)
	}
	if got := NormalizeRef("redis-cache"); got != "redis-cache" {
		t.Errorf("NormalizeRef without kind = %q", got)
	}
}

func TestEntityID(t *testing.T) {
	e := Entity{
		Kind:     KindComponent,
		Metadata: Metadata{Name: "billing"},
		Spec:     &ComponentSpec{},
	}
	if got := e.ID(); got != "Component:default/billing" {
		t.Errorf("ID() = %q", got)
	}

	e.Metadata.Namespace = "prod"
	if got := e.ID(); got != "Component:prod/billing" {
		t.Errorf("ID() with namespace = %q", got)
	}
}

func TestEntityUnmarshalJSON(t *testing.T) {
	raw := `{
		"kind": "component",
		"metadata": {"name": "billing", "tags": ["go"]},
		"spec": {
			"type": "service",
			"lifecycle": "production",
			"owner": "platform",
			"dependsOn": ["resource:default/billing-db"]
		}
	}`

	var e Entity
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if e.Kind != KindComponent || e.Metadata.Namespace != "default" {
		t.Fatalf("entity = %+v", e)
	}
	spec, ok := e.Spec.(*ComponentSpec)
	if !ok {
		t.Fatalf("spec type = %T", e.Spec)
	}
	if spec.Owner != "platform" || !reflect.DeepEqual(spec.DependsOn, []string{"resource:default/billing-db"}) {
		t.Fatalf("spec = %+v", spec)
	}

	ctx := e.Context()
	if ctx.Lifecycle != "production" || ctx.Owner != "platform" || ctx.Kind != "Component" {
		t.Fatalf("context = %+v", ctx)
	}
}

func TestEntityUnmarshalUnknownKind(t *testing.T) {
	var e Entity
	if err := json.Unmarshal([]byte(`{"kind": "Widget", "metadata": {"name": "x"}}`), &e); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if e.Spec.Attributes() != (Attributes{}) {
		t.Fatalf("unknown kind spec = %+v", e.Spec)
	}

	if err := json.Unmarshal([]byte(`{"metadata": {"name": "x"}}`), &e); err == nil {
		t.Fatal("missing kind must fail")
	}
}

func TestScorecardEffectiveID(t *testing.T) {
	card := ScorecardDefinition{Name: "engineering"}
	if got := card.EffectiveID(); got != "engineering" {
		t.Errorf("EffectiveID = %q", got)
	}
	card.ID = "eng-v2"
	if got := card.EffectiveID(); got != "eng-v2" {
		t.Errorf("EffectiveID with explicit id = %q", got)
	}
}
