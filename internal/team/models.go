package team

// Invite status values. pending is the only non-terminal state.
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDenied   = "denied"
)

type Team struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"owner_id"`
	CreatedAt int64  `json:"created_at"`
}

type Membership struct {
	TeamID    string `json:"team_id"`
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// Invite references an invitee by email; the invitee need not be a user yet.
// The token is the sole capability granting access to respond.
type Invite struct {
	Token        string `json:"token"`
	TeamID       string `json:"team_id"`
	InviterID    string `json:"inviter_id"`
	InviteeEmail string `json:"invitee_email"`
	Status       string `json:"status"`
	CreatedAt    int64  `json:"created_at"`
	ResolvedAt   *int64 `json:"resolved_at,omitempty"`
}
