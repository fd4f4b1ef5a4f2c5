package rbac

// Role is held per team membership, not globally.
const (
	RoleAdmin = "admin"
	RoleTutor = "tutor"
)

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	RoleTutor: {
		"team:view",
		"assignment:view",
		"mark:submit",
		"report:view",
	},
	RoleAdmin: {
		"*", // everything within the team
	},
}
