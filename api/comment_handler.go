package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rpupo63/rpgm-blog/errs"
	"github.com/rpupo63/rpgm-blog/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// commentHandler is the moderation side of comments.
type commentHandler struct {
	responder Responder
	logger    zerolog.Logger
	comments  *services.CommentService
	users     *services.UserService
}

func newCommentHandler(comments *services.CommentService, users *services.UserService) commentHandler {
	logger := log.With().Str("handlerName", "commentHandler").Logger()

	return commentHandler{
		responder: NewResponder(logger),
		logger:    logger,
		comments:  comments,
		users:     users,
	}
}

// AdminComment is a comment as listed for moderation
type AdminComment struct {
	ID         string `json:"id"`
	Path       string `json:"path"`
	Name       string `json:"name"`
	PostPath   string `json:"postPath"`
	PostTitle  string `json:"postTitle,omitempty"`
	Author     string `json:"author"`
	Comment    string `json:"comment"`
	Date       string `json:"date"`
	Edited     bool   `json:"edited"`
	SpamStatus string `json:"spamStatus,omitempty"`
	Replies    int64  `json:"replies"`
}

func (h commentHandler) forbidden(w http.ResponseWriter, r *http.Request) bool {
	if _, ok := currentAuthor(r, h.users); !ok {
		h.responder.WriteStatus(w, http.StatusForbidden, statusError, msgNotAuthorized)
		return true
	}
	return false
}

func commentID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "commentID"))
	if err != nil {
		return uuid.Nil, errs.NewBadRequestError("invalid commentID")
	}
	return id, nil
}

// getAllComments lists every displayed comment, newest first
// @Summary List comments
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Success 200 {array} AdminComment
// @Failure 403 {object} StatusResponse "Forbidden - Current user not authorized"
// @Router /admin/comments [get]
func (h commentHandler) getAllComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.forbidden(w, r) {
			return
		}

		comments, err := h.comments.ListComments(r.Context())
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "comments", err))
			return
		}

		response := make([]AdminComment, 0, len(comments))
		for _, c := range comments {
			item := AdminComment{
				ID:         c.ID.String(),
				Path:       c.Path,
				Name:       c.Name,
				PostPath:   c.PostPath,
				Author:     c.Author,
				Comment:    c.Text,
				Date:       c.CreatedAt.Format(services.CommentDateFormat),
				Edited:     c.Edited,
				SpamStatus: c.SpamStatus,
			}

			if replies, err := h.comments.NumberOfReplies(r.Context(), c); err != nil {
				h.logger.Warn().Err(err).Str("path", c.Path).Msg("could not count replies")
			} else {
				item.Replies = replies
			}
			if post, err := h.comments.GetParentPost(r.Context(), c); err != nil {
				h.logger.Warn().Err(err).Str("path", c.Path).Msg("could not find post of comment")
			} else {
				item.PostTitle = post.Title
			}

			response = append(response, item)
		}

		h.responder.WriteJSON(w, response)
	}
}

// editComment replaces the text of a comment
// @Summary Edit comment
// @Tags Admin
// @Security BearerAuth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param commentID path string true "Comment ID" format(uuid)
// @Param comment formData string true "New text"
// @Success 200 {object} StatusResponse
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid commentID or empty text"
// @Failure 403 {object} StatusResponse "Forbidden - Current user not authorized"
// @Failure 404 {object} ErrorResponse "Not Found - Comment not found"
// @Router /admin/comments/{commentID} [put]
func (h commentHandler) editComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.forbidden(w, r) {
			return
		}

		id, err := commentID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := parseForm(r); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}

		if err := h.comments.EditComment(r.Context(), id, r.FormValue("comment")); err != nil {
			h.responder.WriteError(w, serviceError("update", "comment", err))
			return
		}

		h.responder.WriteStatus(w, http.StatusOK, statusOK, "Comment updated.")
	}
}

// deleteComment hides a comment and its replies
// @Summary Delete comment
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param commentID path string true "Comment ID" format(uuid)
// @Success 200 {object} StatusResponse
// @Failure 403 {object} StatusResponse "Forbidden - Current user not authorized"
// @Failure 404 {object} ErrorResponse "Not Found - Comment not found"
// @Router /admin/comments/{commentID} [delete]
func (h commentHandler) deleteComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.forbidden(w, r) {
			return
		}

		id, err := commentID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.comments.DeleteComment(r.Context(), id); err != nil {
			h.responder.WriteError(w, serviceError("delete", "comment", err))
			return
		}

		h.responder.WriteStatus(w, http.StatusOK, statusOK, "Comment deleted.")
	}
}

// markComment reports a comment as spam or as legitimate
// @Summary Mark comment as spam or ham
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param commentID path string true "Comment ID" format(uuid)
// @Success 200 {object} StatusResponse
// @Failure 403 {object} StatusResponse "Forbidden - Current user not authorized"
// @Failure 500 {object} StatusResponse "Spam service unavailable or comment unknown"
// @Router /admin/comments/{commentID}/spam [post]
// @Router /admin/comments/{commentID}/ham [post]
func (h commentHandler) markComment(spam bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.forbidden(w, r) {
			return
		}

		id, err := commentID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var ok bool
		if spam {
			ok = h.comments.MarkAsSpam(r.Context(), id)
		} else {
			ok = h.comments.MarkAsHam(r.Context(), id)
		}
		if !ok {
			h.responder.WriteStatus(w, http.StatusInternalServerError, statusError, "Comment could not be reported.")
			return
		}

		h.responder.WriteStatus(w, http.StatusOK, statusOK, "Comment reported.")
	}
}
