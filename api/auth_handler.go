package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rpupo63/rpgm-blog/errs"
	"github.com/rpupo63/rpgm-blog/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type authHandler struct {
	responder Responder
	logger    zerolog.Logger
	users     *services.UserService
	tokens    services.TokenIssuer
}

func newAuthHandler(users *services.UserService, tokens services.TokenIssuer) authHandler {
	logger := log.With().Str("handlerName", "authHandler").Logger()

	return authHandler{
		responder: NewResponder(logger),
		logger:    logger,
		users:     users,
		tokens:    tokens,
	}
}

// LoginRequest carries the credentials of a login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued access token
type LoginResponse struct {
	Token string `json:"token"`
}

// login exchanges credentials for an access token
// @Summary Log in
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Username and password"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse "Bad Request - Malformed body"
// @Failure 401 {object} ErrorResponse "Unauthorized - Wrong credentials"
// @Router /auth/login [post]
func (h authHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}

		user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.logger.Info().Str("username", req.Username).Msg("rejected login")
			h.responder.WriteError(w, errs.NewUnauthorizedError("invalid username or password"))
			return
		}
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "user", err))
			return
		}

		token, err := h.tokens.Issue(user)
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("could not issue token", err))
			return
		}

		h.responder.WriteJSON(w, LoginResponse{Token: token})
	}
}
