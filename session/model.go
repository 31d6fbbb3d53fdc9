package session

// Permissions is the fixed set of capability flags issued by the backend
// alongside a session. The server copy is authoritative; flags may be
// replaced wholesale on refresh independently of the token.
type Permissions struct {
	CanView       bool `json:"can_view"`
	CanMessage    bool `json:"can_message"`
	CanUpload     bool `json:"can_upload"`
	CanPay        bool `json:"can_pay"`
	CanReschedule bool `json:"can_reschedule"`
}

// Session defines a public type used by portalkit APIs.
//
// Session instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Session struct {
	// Token is the opaque server-issued session token presented on every
	// authenticated request. The client never inspects its contents.
	Token string

	// ExpiresAt is the absolute Unix timestamp (seconds) after which the
	// token is invalid server-side.
	ExpiresAt int64

	// BookingID is the single booking record this session is scoped to.
	BookingID string

	Permissions Permissions

	CreatedAt int64
}
