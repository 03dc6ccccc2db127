package auth

import "context"

// Role names the coarse permission class of a principal.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleClerk   Role = "clerk"
)

// ElevatedPrivilege is the numeric privilege level at or above which a
// principal may edit items on a locked order.
const ElevatedPrivilege = 5

// Principal is the acting identity resolved from a validated API key.
type Principal struct {
	ID        string
	Name      string
	Role      Role
	Privilege int
}

// Elevated reports whether the principal may bypass the order edit lock:
// an explicit admin/manager designation, or a privilege level at or above
// ElevatedPrivilege.
func (p Principal) Elevated() bool {
	return p.Role == RoleAdmin || p.Role == RoleManager || p.Privilege >= ElevatedPrivilege
}

// APIKeyInfo holds the identity and permission data for a validated API key.
type APIKeyInfo struct {
	ID        string
	KeyHash   string
	Name      string
	Role      Role
	Privilege int
}

// Principal returns the acting principal this key authenticates.
func (k APIKeyInfo) Principal() Principal {
	return Principal{ID: k.ID, Name: k.Name, Role: k.Role, Privilege: k.Privilege}
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}
