package security

import (
	"github.com/pocketbase/pocketbase/core"
	"golang.org/x/crypto/bcrypt"
)

const adminTokenHeader = "X-Admin-Token"

// IsAdmin reports whether the request may use admin endpoints: either an
// authenticated superuser, or a caller presenting the shared admin token
// whose bcrypt hash is configured via ADMIN_TOKEN_HASH.
func IsAdmin(e *core.RequestEvent, tokenHash string) bool {
	if e.Auth != nil && e.Auth.IsSuperuser() {
		return true
	}

	if tokenHash == "" {
		return false
	}
	token := e.Request.Header.Get(adminTokenHeader)
	if token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(token)) == nil
}

// VerifyAdminToken is the non-HTTP form of the token check, for tests and
// CLI tooling.
func VerifyAdminToken(tokenHash, token string) bool {
	if tokenHash == "" || token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(token)) == nil
}
