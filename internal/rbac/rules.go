package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"exam:view",
		"attempt:create",
		"attempt:save",
		"attempt:check",
		"attempt:submit",
		"attempt:view-own",
		"stats:view-own",
	},
	"teacher": {
		"exam:create",
		"exam:view",
		"exam:view-full",
		"attempt:view-all",
		"stats:view-all",
	},
	"admin": {
		"*", // everything
	},
}
