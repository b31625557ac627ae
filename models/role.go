package models

import "strings"

// Role is the caller's role as asserted by the identity provider.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleAdmin      Role = "admin"
	RoleOwner      Role = "owner"
	RoleEditor     Role = "editor"
	RoleAuditor    Role = "auditor"
	RoleMarketer   Role = "marketer"
	RoleShipper    Role = "shipper"
	RoleOverviewer Role = "overviewer"
)

// ParseRole maps a role string to a Role. Unknown and empty strings become RoleCustomer.
func ParseRole(s string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := roleCapabilities[r]; ok {
		return r
	}
	return RoleCustomer
}

// Staff reports whether the role belongs to the back office.
func (r Role) Staff() bool {
	return r != RoleCustomer
}

// Capability names an administrative area.
type Capability string

const (
	CapOrdersRead  Capability = "orders.read"
	CapOrdersWrite Capability = "orders.write"
	CapProducts    Capability = "products"
	CapPromos      Capability = "promos"
	CapFeedback    Capability = "feedback"
	CapFull        Capability = "full"
)

var knownCapabilities = map[Capability]struct{}{
	CapOrdersRead: {}, CapOrdersWrite: {}, CapProducts: {}, CapPromos: {}, CapFeedback: {}, CapFull: {},
}

var roleCapabilities = map[Role][]Capability{
	RoleCustomer:   nil,
	RoleAdmin:      {CapFull},
	RoleOwner:      {CapFull},
	RoleEditor:     {CapProducts, CapPromos},
	RoleAuditor:    {CapOrdersRead},
	RoleMarketer:   {CapPromos, CapFeedback},
	RoleShipper:    {CapOrdersRead, CapOrdersWrite},
	RoleOverviewer: {CapOrdersRead},
}

// ParseCapabilities parses a list of capability names, dropping unknown ones.
// "fullaccess" is accepted as an alias of CapFull.
func ParseCapabilities(names []string) []Capability {
	out := make([]Capability, 0, len(names))
	for _, n := range names {
		c := Capability(strings.ToLower(strings.TrimSpace(n)))
		if c == "fullaccess" {
			c = CapFull
		}
		if _, ok := knownCapabilities[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   Role
	caps   map[Capability]struct{}
}

// NewActor builds an actor from its role defaults plus per-user grants. Grants are
// ignored for customers.
func NewActor(userID string, role Role, grants []Capability) Actor {
	a := Actor{UserID: userID, Role: role, caps: make(map[Capability]struct{})}
	for _, c := range roleCapabilities[role] {
		a.caps[c] = struct{}{}
	}
	if role.Staff() {
		for _, c := range grants {
			a.caps[c] = struct{}{}
		}
	}
	return a
}

// Can reports whether the actor holds capability c.
func (a Actor) Can(c Capability) bool {
	if _, ok := a.caps[CapFull]; ok {
		return true
	}
	_, ok := a.caps[c]
	return ok
}

// Capabilities returns the actor's effective capabilities.
func (a Actor) Capabilities() []Capability {
	out := make([]Capability, 0, len(a.caps))
	for c := range a.caps {
		out = append(out, c)
	}
	return out
}
