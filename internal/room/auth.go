// internal/room/auth.go
package room

import (
	"github.com/google/uuid"

	"github.com/mpetras/castdraft/internal/auth"
	"github.com/mpetras/castdraft/internal/models"
)

// IsAdmin reports whether key matches the room's admin key. The key is held
// hashed on the room; verification never mutates state.
func IsAdmin(r *models.Room, key string) bool {
	if key == "" || r.AdminKeyHash == "" {
		return false
	}
	ok, err := auth.VerifyAdminKey(key, r.AdminKeyHash)
	if err != nil {
		return false
	}
	return ok
}

// IsNominator reports whether playerID currently holds nomination rights.
func IsNominator(r *models.Room, playerID uuid.UUID) bool {
	return r.NominatorPlayerID != nil && *r.NominatorPlayerID == playerID
}
