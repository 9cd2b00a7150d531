package game

import "plaza-server/protocol"

// AvatarDef binds an avatar asset reference to its animation clip keys. The
// enum-to-clip mapping is fixed here at catalog definition time; animation
// switches never search clip names at runtime.
type AvatarDef struct {
	Ref   string
	Clips map[protocol.Animation]string
}

// Catalog is the fixed, ordered list of avatars a room assigns round-robin.
// The profile table the UI layer reads is indexed the same way, so a player's
// profile slot equals their catalog slot.
type Catalog []AvatarDef

// DefaultCatalog is used when no catalog is configured.
var DefaultCatalog = Catalog{
	{Ref: "nova", Clips: map[protocol.Animation]string{
		protocol.AnimIdle: "nova@idle",
		protocol.AnimWalk: "nova@walk",
	}},
	{Ref: "atlas", Clips: map[protocol.Animation]string{
		protocol.AnimIdle: "atlas@idle",
		protocol.AnimWalk: "atlas@walk",
	}},
	{Ref: "vega", Clips: map[protocol.Animation]string{
		protocol.AnimIdle: "vega@idle",
		protocol.AnimWalk: "vega@walk",
	}},
	{Ref: "orion", Clips: map[protocol.Animation]string{
		protocol.AnimIdle: "orion@idle",
		protocol.AnimWalk: "orion@walk",
	}},
}

// Has reports whether ref names an avatar in the catalog.
func (c Catalog) Has(ref string) bool {
	for _, def := range c {
		if def.Ref == ref {
			return true
		}
	}
	return false
}
