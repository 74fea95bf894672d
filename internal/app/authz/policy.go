// Package authz classifies command senders and source groups against the configured identities.
package authz

// Policy holds the maintainer and control group identities.
// Both values are fixed for the lifetime of the process.
type Policy struct {
	maintainerID   string
	controlGroupID string
}

// NewPolicy creates a new authorization policy.
func NewPolicy(maintainerID, controlGroupID string) Policy {
	return Policy{
		maintainerID:   maintainerID,
		controlGroupID: controlGroupID,
	}
}

// IsMaintainer reports whether senderID is the maintainer.
func (p Policy) IsMaintainer(senderID string) bool {
	return senderID != "" && senderID == p.maintainerID
}

// IsFromControlGroup reports whether groupID is the control group.
func (p Policy) IsFromControlGroup(groupID string) bool {
	return groupID != "" && groupID == p.controlGroupID
}

// ControlGroupID returns the configured control group.
func (p Policy) ControlGroupID() string {
	return p.controlGroupID
}
