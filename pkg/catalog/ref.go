package catalog

import (
	"fmt"
	"strings"
)

// Ref is a parsed entity reference in Kind:namespace/name form.
type Ref struct {
	Kind      Kind
	Namespace string
	Name      string
}

// ParseRef parses an entity reference string. Accepted forms:
//
//	kind:namespace/name
//	kind:name          (default namespace)
//	name               (Component kind, default namespace)
func ParseRef(ref string) Ref {
	if idx := strings.Index(ref, ":"); idx >= 0 {
		kind := KindFromString(ref[:idx])
		rest := ref[idx+1:]
		if slash := strings.Index(rest, "/"); slash >= 0 {
			return Ref{Kind: kind, Namespace: rest[:slash], Name: rest[slash+1:]}
		}
		return Ref{Kind: kind, Namespace: "default", Name: rest}
	}
	return Ref{Kind: KindComponent, Namespace: "default", Name: ref}
}

func (r Ref) String() string {
	return fmt.Sprintf("%s:%s/%s", r.Kind, r.Namespace, r.Name)
}

// NormalizeRef rewrites the kind token of a reference to canonical case,
// e.g. "resource:default/redis-cache" -> "Resource:default/redis-cache".
// References without a kind prefix are returned unchanged.
func NormalizeRef(ref string) string {
	idx := strings.Index(ref, ":")
	if idx < 0 {
		return ref
	}
	return string(KindFromString(ref[:idx])) + ref[idx:]
}
