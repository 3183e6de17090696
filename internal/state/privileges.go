package state

// Privileges is the server-side privilege bitmask stored per account.
type Privileges uint64

const (
	PrivUnrestricted Privileges = 1 << 0 // account is not restricted
	PrivVerified     Privileges = 1 << 1 // has completed an in-game login
	PrivSupporter    Privileges = 1 << 2
	PrivModerator    Privileges = 1 << 3
	PrivAdmin        Privileges = 1 << 4
	PrivTourney      Privileges = 1 << 5 // may manage match state without host
	PrivDeveloper    Privileges = 1 << 6
	PrivBot          Privileges = 1 << 7

	PrivStaff = PrivModerator | PrivAdmin | PrivDeveloper
)

// Restricted reports whether the bitmask denotes a restricted account.
func (p Privileges) Restricted() bool {
	return p&PrivUnrestricted == 0
}

// ClientPrivileges is the reduced privilege set shown to the osu client.
type ClientPrivileges int32

const (
	ClientPrivPlayer    ClientPrivileges = 1 << 0
	ClientPrivModerator ClientPrivileges = 1 << 1
	ClientPrivSupporter ClientPrivileges = 1 << 2
	ClientPrivOwner     ClientPrivileges = 1 << 3
	ClientPrivDeveloper ClientPrivileges = 1 << 4
)

// ClientSide maps server privileges onto the bits the client understands.
func (p Privileges) ClientSide() ClientPrivileges {
	out := ClientPrivPlayer
	if p&PrivSupporter != 0 {
		out |= ClientPrivSupporter
	}
	if p&PrivModerator != 0 || p&PrivAdmin != 0 {
		out |= ClientPrivModerator
	}
	if p&PrivDeveloper != 0 {
		out |= ClientPrivDeveloper
	}
	return out
}

// ClientFeatures is the capability bitmask exchanged during the extended
// client handshake. Clients without FeatureGroups get chat-text fallbacks
// instead of group packets.
type ClientFeatures int32

const (
	FeatureGroups ClientFeatures = 1 << 0
	FeatureCheats ClientFeatures = 1 << 1
)
