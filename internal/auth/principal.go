package auth

import "github.com/mrlokans/bookshelf/internal/entities"

// Principal is the verified identity of the caller of a request.
type Principal struct {
	UserID uint
	Email  string
	Role   entities.Role
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == entities.RoleAdmin
}
