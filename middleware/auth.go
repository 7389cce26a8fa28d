package middleware

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"krishilink/identity"
	"krishilink/logger"
	"krishilink/utils"
)

type Auth struct {
	log      *logger.Logger
	verifier identity.Verifier
}

func NewAuth(log *logger.Logger, verifier identity.Verifier) *Auth {
	return &Auth{log: log.With("middleware", "Auth"), verifier: verifier}
}

// Authenticate rejects requests without a valid bearer token with 401 and
// stores the verified email in the request context.
func (a *Auth) Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		token := identity.BearerToken(r.Header.Get("Authorization"))
		if token == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized access")
			return
		}
		email, err := a.verifier.Verify(r.Context(), token)
		if err != nil {
			a.log.Debug("token rejected", "error", err, "path", r.URL.Path)
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized access")
			return
		}
		next(w, r.WithContext(utils.WithUserEmail(r.Context(), email)), ps)
	}
}
