// Package constants holds the fixed reference values shared across the service.
package constants

import "time"

// Rate limits per endpoint category.
type RateLimit struct {
	Max    int64
	Window time.Duration
}

var (
	RateLimitAuthSignin    = RateLimit{Max: 5, Window: time.Minute}
	RateLimitPublicVenues  = RateLimit{Max: 60, Window: time.Minute}
	RateLimitSingerRequest = RateLimit{Max: 10, Window: time.Hour}
	RateLimitCustomerAPI   = RateLimit{Max: 100, Window: time.Minute}
	RateLimitAdminAPI      = RateLimit{Max: 200, Window: time.Minute}
)

// Cache lifetimes.
const (
	CacheTTLVenuesList  = 5 * time.Minute
	CacheTTLVenueDetail = 10 * time.Minute
	CacheTTLPermissions = 30 * time.Minute
)

// Pagination bounds.
const (
	PaginationMinLimit = 1
	PaginationMaxLimit = 100

	VenuesDefaultLimit   = 20
	RequestsDefaultLimit = 50
)

// Role slugs.
const (
	RoleAdmin           = "admin"
	RoleSupportAdmin    = "support_admin"
	RoleCustomerOwner   = "customer_owner"
	RoleCustomerManager = "customer_manager"
	RoleCustomerStaff   = "customer_staff"
	RoleSinger          = "singer"
)

// Permission slugs.
const (
	PermVenuesRead        = "venues:read"
	PermVenuesWrite       = "venues:write"
	PermVenuesDelete      = "venues:delete"
	PermSystemsRead       = "systems:read"
	PermSystemsWrite      = "systems:write"
	PermAPIKeysRead       = "api_keys:read"
	PermAPIKeysWrite      = "api_keys:write"
	PermAPIKeysRevoke     = "api_keys:revoke"
	PermSongdbRead        = "songdb:read"
	PermSongdbWrite       = "songdb:write"
	PermRequestsRead      = "requests:read"
	PermRequestsProcess   = "requests:process"
	PermOrganizationRead  = "organization:read"
	PermOrganizationWrite = "organization:write"
	PermBillingRead       = "billing:read"
	PermBillingWrite      = "billing:write"
	PermBrandingRead      = "branding:read"
	PermBrandingWrite     = "branding:write"
)

// SlugDescription pairs a slug with its human description.
type SlugDescription struct {
	Slug        string
	Description string
}

// DefaultRoles are the system roles present in every deployment.
var DefaultRoles = []SlugDescription{
	{RoleAdmin, "Platform administrator"},
	{RoleSupportAdmin, "Support team admin"},
	{RoleCustomerOwner, "Customer account owner"},
	{RoleCustomerManager, "Customer manager"},
	{RoleCustomerStaff, "Customer staff member"},
	{RoleSinger, "Singer user"},
}

// DefaultPermissions are the system permissions present in every deployment.
var DefaultPermissions = []SlugDescription{
	{PermVenuesRead, "View venues"},
	{PermVenuesWrite, "Create/edit venues"},
	{PermVenuesDelete, "Delete venues"},
	{PermSystemsRead, "View systems"},
	{PermSystemsWrite, "Create/edit systems"},
	{PermAPIKeysRead, "View API keys"},
	{PermAPIKeysWrite, "Create/rotate API keys"},
	{PermAPIKeysRevoke, "Revoke API keys"},
	{PermSongdbRead, "View songdb"},
	{PermSongdbWrite, "Manage songdb"},
	{PermRequestsRead, "View requests"},
	{PermRequestsProcess, "Process requests"},
	{PermOrganizationRead, "View organization members"},
	{PermOrganizationWrite, "Manage organization members"},
	{PermBillingRead, "View billing"},
	{PermBillingWrite, "Manage subscriptions"},
	{PermBrandingRead, "View branding"},
	{PermBrandingWrite, "Edit branding"},
}

// DefaultGrants maps each system role to the permissions it is seeded with.
var DefaultGrants = map[string][]string{
	RoleAdmin: allPermissionSlugs(),
	RoleSupportAdmin: {
		PermVenuesRead, PermSystemsRead, PermAPIKeysRead, PermSongdbRead,
		PermRequestsRead, PermOrganizationRead, PermBillingRead, PermBrandingRead,
	},
	RoleCustomerOwner: {
		PermVenuesRead, PermVenuesWrite, PermVenuesDelete,
		PermSystemsRead, PermSystemsWrite,
		PermAPIKeysRead, PermAPIKeysWrite, PermAPIKeysRevoke,
		PermSongdbRead, PermSongdbWrite,
		PermRequestsRead, PermRequestsProcess,
		PermOrganizationRead, PermOrganizationWrite,
		PermBillingRead, PermBillingWrite,
		PermBrandingRead, PermBrandingWrite,
	},
	RoleCustomerManager: {
		PermVenuesRead, PermVenuesWrite, PermSystemsRead, PermSystemsWrite,
		PermSongdbRead, PermSongdbWrite, PermRequestsRead, PermRequestsProcess,
		PermOrganizationRead, PermBrandingRead, PermBrandingWrite,
	},
	RoleCustomerStaff: {
		PermVenuesRead, PermSystemsRead, PermSongdbRead, PermRequestsRead, PermRequestsProcess,
	},
	RoleSinger: {PermVenuesRead},
}

func allPermissionSlugs() []string {
	out := make([]string, 0, len(DefaultPermissions))
	for _, p := range DefaultPermissions {
		out = append(out, p.Slug)
	}
	return out
}
