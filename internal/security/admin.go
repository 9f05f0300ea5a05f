// Package security holds HTTP middleware guarding the API surface.
package security

import (
	"net/http"
	"strings"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog"

	"github.com/noah-isme/supermarket/internal/common"
)

// AdminKeyHeader carries the operator key on admin requests.
const AdminKeyHeader = "X-Admin-Key"

// AdminKey admits requests whose X-Admin-Key matches an argon2id hash.
// With an empty Hash every admin request is rejected.
type AdminKey struct {
	Hash string
}

// Middleware enforces the admin key.
func (a AdminKey) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get(AdminKeyHeader))
		if a.Hash == "" || key == "" {
			common.JSONError(w, http.StatusUnauthorized, common.CodeUnauthorized, "admin key required", nil)
			return
		}
		ok, err := argon2id.ComparePasswordAndHash(key, a.Hash)
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("compare admin key")
			common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "internal error", nil)
			return
		}
		if !ok {
			common.JSONError(w, http.StatusUnauthorized, common.CodeUnauthorized, "invalid admin key", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HashAdminKey derives the hash stored in ADMIN_API_KEY_HASH.
func HashAdminKey(key string) (string, error) {
	return argon2id.CreateHash(key, argon2id.DefaultParams)
}
