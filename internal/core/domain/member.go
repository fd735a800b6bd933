package domain

// MemberStatus indicates the standing of a loyalty member.
type MemberStatus string

const (
	MemberActive    MemberStatus = "Active"
	MemberInactive  MemberStatus = "Inactive"
	MemberSuspended MemberStatus = "Suspended"
)

// LoyaltyMember is a member record owned by the loyalty backend. The relay only
// reads members and appends ledger entries against them; it never creates them.
type LoyaltyMember struct {
	MemberID         string       `json:"memberId"`         // backend-assigned, stable
	MembershipNumber string       `json:"membershipNumber"` // human-facing, stable
	FirstName        string       `json:"firstName,omitempty"`
	LastName         string       `json:"lastName,omitempty"`
	Email            string       `json:"email,omitempty"`
	PointsBalance    int64        `json:"pointsBalance"` // derived from the ledger, never stored
	Tier             string       `json:"tier,omitempty"`
	Status           MemberStatus `json:"status"`
}

// MemberLookupResult is the outcome of a member resolution attempt.
// A miss is Found=false with a nil Member; only backend failures surface as errors.
type MemberLookupResult struct {
	Found  bool           `json:"found"`
	Member *LoyaltyMember `json:"member,omitempty"`
}

// IdentifierKind selects which identifier a member lookup matches against.
type IdentifierKind string

const (
	IdentifierPhone  IdentifierKind = "phone"
	IdentifierEmail  IdentifierKind = "email"
	IdentifierNumber IdentifierKind = "number"
)
