package domain

// Action is a capability that can be granted to a role.
type Action string

const (
	ActionManageTodos       Action = "todos:manage"
	ActionManageProfile     Action = "profile:manage"
	ActionReadNotifications Action = "notifications:read"
	ActionCountUsers        Action = "users:count"
	ActionManageRoles       Action = "users:manage_roles"
)

// Capabilities maps every role to the actions it may perform.
var Capabilities = map[Role][]Action{
	RoleUser: {
		ActionManageTodos,
		ActionManageProfile,
		ActionReadNotifications,
	},
	RoleAdmin: {
		ActionManageTodos,
		ActionManageProfile,
		ActionReadNotifications,
		ActionCountUsers,
		ActionManageRoles,
	},
}

// Can reports whether role holds action. Unknown roles hold nothing.
func Can(role Role, action Action) bool {
	for _, a := range Capabilities[role] {
		if a == action {
			return true
		}
	}
	return false
}
