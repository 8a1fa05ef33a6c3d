package authz

import "github.com/sellotec/backend/internal/models"

// Capability names an action a role may perform. The same table backs the
// server-side route guards and the client's menu visibility, so role checks
// live in exactly one place.
type Capability string

const (
	CapMessagesSend     Capability = "messages.send"
	CapMessagesRead     Capability = "messages.read"
	CapModerationReview Capability = "moderation.review"
	CapUsersManage      Capability = "users.manage"
	CapReportsView      Capability = "reports.view"
)

var capabilities = map[models.Role][]Capability{
	models.RoleAdmin: {
		CapMessagesSend, CapMessagesRead,
		CapModerationReview, CapUsersManage, CapReportsView,
	},
	models.RoleCoordinador: {
		CapMessagesSend, CapMessagesRead, CapReportsView,
	},
	models.RoleDocente: {
		CapMessagesSend, CapMessagesRead, CapReportsView,
	},
	models.RoleEstudiante: {
		CapMessagesSend, CapMessagesRead,
	},
}

// Can reports whether the role is permitted the capability.
func Can(role models.Role, cap Capability) bool {
	for _, c := range capabilities[role] {
		if c == cap {
			return true
		}
	}
	return false
}

// For returns the full capability set of a role, for UI affordance.
func For(role models.Role) []Capability {
	caps := capabilities[role]
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}
