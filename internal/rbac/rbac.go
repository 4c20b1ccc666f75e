package rbac

type Role string
type Action string

const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

const (
	ActionView   Action = "view"
	ActionMutate Action = "mutate"
	ActionReload Action = "reload"
)

func Can(role Role, action Action) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleOperator:
		return action == ActionView || action == ActionMutate
	case RoleViewer:
		return action == ActionView
	default:
		return false
	}
}

// Normalize maps an unknown or empty role to operator, so tokens from a gate
// that does not issue roles can still work the board.
func Normalize(role string) Role {
	switch Role(role) {
	case RoleViewer, RoleOperator, RoleAdmin:
		return Role(role)
	default:
		return RoleOperator
	}
}
