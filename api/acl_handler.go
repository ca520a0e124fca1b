package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rpupo63/rpgm-blog/errs"
	"github.com/rpupo63/rpgm-blog/models"
	"github.com/rpupo63/rpgm-blog/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type aclHandler struct {
	responder Responder
	logger    zerolog.Logger
	access    *services.AccessService
	users     *services.UserService
}

func newACLHandler(access *services.AccessService, users *services.UserService) aclHandler {
	logger := log.With().Str("handlerName", "aclHandler").Logger()

	return aclHandler{
		responder: NewResponder(logger),
		logger:    logger,
		access:    access,
		users:     users,
	}
}

// ACLResponse lists the groups and access entries
type ACLResponse struct {
	Groups  []models.UserGroup          `json:"groups"`
	Entries []models.AccessControlEntry `json:"entries"`
}

// getACL
// @Summary List groups and access entries
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} ACLResponse
// @Failure 403 {object} StatusResponse "Forbidden - Current user not authorized"
// @Router /admin/acl [get]
func (h aclHandler) getACL() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := currentAuthor(r, h.users); !ok {
			h.responder.WriteStatus(w, http.StatusForbidden, statusError, msgNotAuthorized)
			return
		}

		groups, err := h.access.ListGroups(r.Context())
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "user_groups", err))
			return
		}
		entries, err := h.access.ListEntries(r.Context())
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "access_control_entries", err))
			return
		}

		h.responder.WriteJSON(w, ACLResponse{Groups: groups, Entries: entries})
	}
}

// requireAdmin answers 403 unless the caller is an administrator.
func (h aclHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	userID, err := ctxGetUserID(r.Context())
	if err != nil || !h.users.IsAdmin(r.Context(), userID) {
		h.responder.WriteStatus(w, http.StatusForbidden, statusError, msgNotAuthorized)
		return false
	}
	return true
}

// getUsers
// @Summary List users and their groups
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Success 200 {array} services.UserView
// @Failure 403 {object} StatusResponse "Forbidden - Current user not authorized"
// @Router /admin/users [get]
func (h aclHandler) getUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.requireAdmin(w, r) {
			return
		}

		users, err := h.users.ListUsers(r.Context())
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "users", err))
			return
		}
		h.responder.WriteJSON(w, users)
	}
}

// createUser
// @Summary Create a user
// @Tags Admin
// @Security BearerAuth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "Username"
// @Param password formData string true "Password"
// @Param admin formData bool false "Make the user an administrator"
// @Success 201 {object} services.UserView
// @Failure 400 {object} ErrorResponse "Bad Request - Missing username or password"
// @Failure 403 {object} StatusResponse "Forbidden - Current user not authorized"
// @Failure 409 {object} ErrorResponse "Conflict - Username taken"
// @Router /admin/users [post]
func (h aclHandler) createUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.requireAdmin(w, r) {
			return
		}
		if err := parseForm(r); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}

		user, err := h.users.CreateUser(r.Context(), r.FormValue("username"), r.FormValue("password"), formFlag(r, "admin"))
		if err != nil {
			h.responder.WriteError(w, serviceError("create", "user", err))
			return
		}

		h.logger.Info().Str("username", user.Username).Bool("admin", user.IsAdmin).Msg("user created")
		h.responder.WriteJSONStatus(w, http.StatusCreated, services.UserView{
			ID:       user.ID,
			Username: user.Username,
			IsAdmin:  user.IsAdmin,
			Groups:   []string{},
		})
	}
}

// setMembership adds or removes a group member
// @Summary Add a user to a group, or remove them
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param groupID path string true "Group, e.g. authors"
// @Param userID path string true "User ID"
// @Success 200 {object} StatusResponse
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid user ID"
// @Failure 403 {object} StatusResponse "Forbidden - Current user not authorized"
// @Failure 404 {object} ErrorResponse "Not Found - Unknown user or group"
// @Router /admin/groups/{groupID}/members/{userID} [put]
// @Router /admin/groups/{groupID}/members/{userID} [delete]
func (h aclHandler) setMembership(member bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.requireAdmin(w, r) {
			return
		}

		userID, err := uuid.Parse(chi.URLParam(r, "userID"))
		if err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("invalid user id"))
			return
		}
		groupID := chi.URLParam(r, "groupID")

		message := msgMemberAdded
		if member {
			err = h.users.AddToGroup(r.Context(), userID, groupID)
		} else {
			err = h.users.RemoveFromGroup(r.Context(), userID, groupID)
			message = msgMemberRemoved
		}
		if err != nil {
			h.responder.WriteError(w, serviceError("update", "group_members", err))
			return
		}

		h.responder.WriteStatus(w, http.StatusOK, statusOK, message)
	}
}
