package permissions

// PermissionScope defines the context in which a permission applies
type PermissionScope string

const (
	ScopeGlobal PermissionScope = "global" // applies system-wide
	ScopeAlbum  PermissionScope = "album"  // applies to a specific album context
)

// Keys referenced directly by the handlers.
const (
	AlbumManageClasses  = "album.manage.classes"
	AlbumManageRequests = "album.manage.requests"
	AlbumManageMembers  = "album.manage.members"
	AlbumManageSettings = "album.manage.settings"
	AlbumView           = "album.view"
)

// PermissionDefinition describes a single, specific permission
type PermissionDefinition struct {
	Key         string          `json:"key"`         // unique key, e.g., "album.create"
	Name        string          `json:"name"`        // friendly name, e.g., "Create Album"
	Description string          `json:"description"` // detailed description of what the permission allows
	Scope       PermissionScope `json:"scope"`       // scope of the permission (global or album-specific)
}

// PermissionGroupDefinition groups related permissions
type PermissionGroupDefinition struct {
	Key         string                 `json:"key"`         // unique key for the group, e.g., "album"
	Name        string                 `json:"name"`        // friendly name for the group, e.g., "Album Management"
	Description string                 `json:"description"` // detailed description of the permission group
	Permissions []PermissionDefinition `json:"permissions"` // list of permissions within this group
}

// DefinedPermissionGroups holds all statically defined permission groups and their permissions
var DefinedPermissionGroups = []PermissionGroupDefinition{
	{
		Key:         "user",
		Name:        "User Management",
		Description: "Permissions related to managing user accounts.",
		Permissions: []PermissionDefinition{
			{
				Key:         "user.create",
				Name:        "Create User",
				Description: "Allows creating new user accounts.",
				Scope:       ScopeGlobal,
			},
			{
				Key:         "user.edit",
				Name:        "Edit User",
				Description: "Allows editing existing user accounts (e.g., username, direct permissions).",
				Scope:       ScopeGlobal,
			},
			{
				Key:         "user.delete",
				Name:        "Delete User",
				Description: "Allows deleting user accounts.",
				Scope:       ScopeGlobal,
			},
			{
				Key:         "user.list",
				Name:        "List Users",
				Description: "Allows viewing a list of user accounts.",
				Scope:       ScopeGlobal,
			},
		},
	},
	{
		Key:         "album",
		Name:        "Album Management",
		Description: "Permissions related to managing yearbook albums.",
		Permissions: []PermissionDefinition{
			{
				Key:         "album.create",
				Name:        "Create Album",
				Description: "Allows creating new albums.",
				Scope:       ScopeGlobal,
			},
			{
				Key:         "album.delete",
				Name:        "Delete Album",
				Description: "Allows deleting albums.",
				Scope:       ScopeGlobal,
			},
			{
				Key:         "album.list",
				Name:        "List Albums",
				Description: "Allows viewing the list of available albums.",
				Scope:       ScopeGlobal,
			},
			{
				Key:         AlbumView,
				Name:        "View Album",
				Description: "Allows viewing an album's classes and member roster.",
				Scope:       ScopeAlbum,
			},
			// album-specific permissions assigned per-album rather than globally
			{
				Key:         AlbumManageClasses,
				Name:        "Manage Album Classes",
				Description: "Allows creating, renaming, reordering and deleting classes in a specific album.",
				Scope:       ScopeAlbum,
			},
			{
				Key:         AlbumManageRequests,
				Name:        "Manage Join Requests",
				Description: "Allows approving and rejecting join requests for a specific album.",
				Scope:       ScopeAlbum,
			},
			{
				Key:         AlbumManageMembers,
				Name:        "Manage Album Members",
				Description: "Allows editing member profiles and removing members from a specific album.",
				Scope:       ScopeAlbum,
			},
			{
				Key:         AlbumManageSettings,
				Name:        "Manage Album Settings",
				Description: "Allows changing album settings such as the member capacity and invite token.",
				Scope:       ScopeAlbum,
			},
		},
	},
	{
		Key:         "invite",
		Name:        "Invite Token Management",
		Description: "Permissions related to managing album invite tokens.",
		Permissions: []PermissionDefinition{
			{
				Key:         "invite.rotate",
				Name:        "Rotate Invite Tokens",
				Description: "Allows generating or rotating an album's invite token.",
				Scope:       ScopeAlbum,
			},
			{
				Key:         "invite.view",
				Name:        "View Invite Tokens",
				Description: "Allows viewing an album's current invite token.",
				Scope:       ScopeAlbum,
			},
		},
	},
}

var (
	allPermissionKeysMap map[string]PermissionDefinition
	allPermissionKeys    []string
)

func init() {
	allPermissionKeysMap = make(map[string]PermissionDefinition)
	for _, group := range DefinedPermissionGroups {
		for _, perm := range group.Permissions {
			allPermissionKeysMap[perm.Key] = perm
			allPermissionKeys = append(allPermissionKeys, perm.Key)
		}
	}
}

// GetAllPermissionDefinitions returns a map of all defined permissions, keyed by their unique string key
func GetAllPermissionDefinitions() map[string]PermissionDefinition {
	return allPermissionKeysMap
}

// GetAllPermissionKeys returns a slice of all unique permission string keys
func GetAllPermissionKeys() []string {
	// return a copy to prevent modification of the internal slice
	keys := make([]string, len(allPermissionKeys))
	copy(keys, allPermissionKeys)
	return keys
}

// IsValidPermissionKey checks if a given permission key is defined
func IsValidPermissionKey(key string) bool {
	_, ok := allPermissionKeysMap[key]
	return ok
}
