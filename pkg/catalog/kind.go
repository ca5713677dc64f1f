package catalog

import "strings"

// Kind identifies the entity kind in canonical case.
type Kind string

const (
	KindComponent Kind = "Component"
	KindAPI       Kind = "API"
	KindResource  Kind = "Resource"
	KindSystem    Kind = "System"
	KindDomain    Kind = "Domain"
	KindUser      Kind = "User"
	KindGroup     Kind = "Group"
	KindLocation  Kind = "Location"
)

// Kinds lists all supported entity kinds in display order.
var Kinds = []Kind{
	KindComponent,
	KindAPI,
	KindResource,
	KindSystem,
	KindDomain,
	KindUser,
	KindGroup,
	KindLocation,
}

var kindByLower = map[string]Kind{
	"component": KindComponent,
	"api":       KindAPI,
	"resource":  KindResource,
	"system":    KindSystem,
	"domain":    KindDomain,
	"user":      KindUser,
	"group":     KindGroup,
	"location":  KindLocation,
}

// KindFromString resolves a kind token case-insensitively. Unrecognized
// tokens pass through unchanged so that foreign kinds survive round trips.
func KindFromString(value string) Kind {
	if kind, ok := kindByLower[strings.ToLower(value)]; ok {
		return kind
	}
	return Kind(value)
}
