package httpkit

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity is the caller resolved by AuthRequired.
type Identity struct {
	userID uuid.UUID
	roles  []string
}

// UserID is the token subject. Manual tasks default their assignee to it.
func (i Identity) UserID() uuid.UUID {
	return i.userID
}

// HasRole reports whether the token granted role.
func (i Identity) HasRole(role string) bool {
	for _, r := range i.roles {
		if r == role {
			return true
		}
	}
	return false
}

// GetIdentity reads the caller stored by AuthRequired. ok is false when the
// request was not authenticated.
func GetIdentity(c *gin.Context) (Identity, bool) {
	raw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return Identity{}, false
	}
	userID, ok := raw.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return Identity{}, false
	}

	id := Identity{userID: userID}
	if roles, exists := c.Get(ContextRolesKey); exists {
		id.roles, _ = roles.([]string)
	}
	return id, true
}

// MustGetIdentity returns the caller, or writes 401 and returns nil.
func MustGetIdentity(c *gin.Context) *Identity {
	id, ok := GetIdentity(c)
	if !ok {
		abortUnauthorized(c, "unauthorized")
		return nil
	}
	return &id
}
