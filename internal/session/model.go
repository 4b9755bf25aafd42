package session

import (
	"time"

	"presensictl/internal/authz"
)

// User is the authenticated admin identity. A user recovered from token
// claims alone (the degraded path) only carries ID, Username and a coarse
// role; the scoped sub-roles and unit references need the full profile.
type User struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Name      string     `json:"name,omitempty"`
	Email     string     `json:"email,omitempty"`
	Role      authz.Role `json:"role"`
	OrgUnitID string     `json:"org_unit_id,omitempty"`
	Status    string     `json:"status,omitempty"`
	CreatedAt time.Time  `json:"created_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at,omitempty"`

	// Scope records for the organizational admin roles. Opaque to the
	// session core; the domain layer interprets them.
	AdminOPD *UnitScope `json:"admin_opd,omitempty"`
	AdminUPT *UnitScope `json:"admin_upt,omitempty"`
}

// UnitScope narrows an admin-opd/admin-upt account to one organizational
// unit.
type UnitScope struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Account is the raw account record the server returns at login, before
// the level is mapped to a Role.
type Account struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Level     string    `json:"level"`
	Status    string    `json:"status"`
	OrgUnitID string    `json:"org_unit_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TokenPair is a freshly minted access/refresh token pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// LoginResult is what the login endpoint yields on success.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	Account      Account
	AdminOPD     *UnitScope
	AdminUPT     *UnitScope
}
