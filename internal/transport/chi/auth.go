package chi

import (
	"crypto/sha256"
	"net/http"
	"strings"
)

// exemptPaths bypass authentication.
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/ready":   {},
	"/metrics": {},
}

const indexRoutePrefix = "/signals/"

// Keys are the accepted bearer tokens. Search keys unlock the read routes. Index keys
// unlock the /signals write routes; when none are configured, search keys do too.
type Keys struct {
	Search []string
	Index  []string
}

type scope uint8

const (
	scopeSearch scope = 1 << iota
	scopeIndex
)

// keyring maps token digests to scopes so lookups do not compare raw secrets.
type keyring map[[sha256.Size]byte]scope

func newKeyring(k Keys) keyring {
	ring := make(keyring)
	searchScope := scopeSearch
	if !hasKey(k.Index) {
		searchScope |= scopeIndex
	}
	for _, key := range k.Search {
		if key != "" {
			ring[sha256.Sum256([]byte(key))] |= searchScope
		}
	}
	for _, key := range k.Index {
		if key != "" {
			ring[sha256.Sum256([]byte(key))] |= scopeIndex
		}
	}
	return ring
}

func hasKey(keys []string) bool {
	for _, k := range keys {
		if k != "" {
			return true
		}
	}
	return false
}

// BearerAuthMiddleware validates Bearer tokens. With no keys configured it passes
// every request through.
func BearerAuthMiddleware(keys Keys) func(http.Handler) http.Handler {
	ring := newKeyring(keys)

	return func(next http.Handler) http.Handler {
		if len(ring) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "missing authorization header")
				return
			}
			token, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			granted, ok := ring[sha256.Sum256([]byte(token))]
			if !ok {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid api key")
				return
			}

			need := scopeSearch
			if strings.HasPrefix(r.URL.Path, indexRoutePrefix) {
				need = scopeIndex
			}
			if granted&need == 0 {
				writeError(w, http.StatusForbidden, CodeForbidden, "api key may not call this route")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
