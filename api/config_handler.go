package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/rpgm-blog/errs"
	"github.com/rpupo63/rpgm-blog/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// configHandler reads and writes the settings nodes under /admin/config.
type configHandler struct {
	responder Responder
	logger    zerolog.Logger
	settings  services.Settings
	users     *services.UserService
	akismet   services.KeyVerifier
}

// akismetKeyValid is added to the akismet values when a key is stored.
const akismetKeyValid = "akismet.keyValid"

func newConfigHandler(settings services.Settings, users *services.UserService, akismet services.KeyVerifier) configHandler {
	logger := log.With().Str("handlerName", "configHandler").Logger()

	return configHandler{
		responder: NewResponder(logger),
		logger:    logger,
		settings:  settings,
		users:     users,
		akismet:   akismet,
	}
}

func (h configHandler) store(name string) *services.SettingsStore {
	switch name {
	case "system":
		return h.settings.System.SettingsStore
	case "email":
		return h.settings.Email.SettingsStore
	case "recaptcha":
		return h.settings.Recaptcha.SettingsStore
	case "akismet":
		return h.settings.Akismet.SettingsStore
	}
	return nil
}

// formFlag reads a checkbox style boolean. Anything unrecognised is false.
func formFlag(r *http.Request, field string) bool {
	value := strings.TrimSpace(r.FormValue(field))
	if strings.EqualFold(value, "on") {
		return true
	}
	b, _ := strconv.ParseBool(value)
	return b
}

// getConfig returns the values of a settings node with secrets masked
// @Summary Get settings
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param name path string true "system, email, recaptcha or akismet"
// @Success 200 {object} map[string]string "Values; akismet also reports akismet.keyValid once a key is stored"
// @Failure 403 {object} StatusResponse "Forbidden - Current user not authorized"
// @Failure 404 {object} ErrorResponse "Not Found - Unknown settings node"
// @Router /admin/config/{name} [get]
func (h configHandler) getConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := currentAuthor(r, h.users); !ok {
			h.responder.WriteStatus(w, http.StatusForbidden, statusError, msgNotAuthorized)
			return
		}

		store := h.store(chi.URLParam(r, "name"))
		if store == nil {
			h.responder.WriteError(w, errs.NewNotFoundError("settings not found"))
			return
		}

		values := store.Values()
		if store == h.settings.Akismet.SettingsStore {
			h.verifyAkismetKey(r.Context(), values)
		}
		h.responder.WriteJSON(w, values)
	}
}

// verifyAkismetKey reports whether the stored key is accepted by Akismet.
// Nothing is added when no key is stored.
func (h configHandler) verifyAkismetKey(ctx context.Context, values map[string]string) {
	if h.akismet == nil || h.settings.Akismet.APIKey() == "" {
		return
	}

	valid, err := h.akismet.VerifyKey(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("could not verify akismet key")
	} else if !valid {
		h.logger.Warn().Msg("akismet key was rejected")
	}
	values[akismetKeyValid] = strconv.FormatBool(valid)
}

// update wraps a settings write with the authorization check and the
// {status, message} reply.
func (h configHandler) update(name string, apply func(r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := currentAuthor(r, h.users); !ok {
			h.responder.WriteStatus(w, http.StatusForbidden, statusError, msgNotAuthorized)
			return
		}

		if err := parseForm(r); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}

		if err := apply(r); err != nil {
			h.logger.Error().Err(err).Str("settings", name).Msg("could not update settings")
			h.responder.WriteStatus(w, http.StatusInternalServerError, statusError, msgSettingsFailed)
			return
		}

		h.logger.Info().Str("settings", name).Msg("settings updated")
		h.responder.WriteStatus(w, http.StatusOK, statusOK, msgSettingsUpdated)
	}
}

// updateSystem
// @Summary Update system settings
// @Tags Admin
// @Security BearerAuth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param blogName formData string false "Blog name"
// @Param extensionlessUrls formData bool false "Serve links without .html"
// @Param temporaryDirectory formData string false "Scratch directory"
// @Success 200 {object} StatusResponse
// @Failure 403 {object} StatusResponse
// @Failure 500 {object} StatusResponse
// @Router /admin/config/system [post]
func (h configHandler) updateSystem() http.HandlerFunc {
	return h.update("system", func(r *http.Request) error {
		tmp := strings.TrimSpace(r.FormValue("temporaryDirectory"))
		if tmp == "" {
			tmp = h.settings.System.TemporaryDirectory()
		}
		return h.settings.System.Update(r.Context(), services.SystemConfig{
			BlogName:           r.FormValue("blogName"),
			ExtensionlessURLs:  formFlag(r, "extensionlessUrls"),
			TemporaryDirectory: tmp,
		})
	})
}

// updateEmail
// @Summary Update email settings
// @Tags Admin
// @Security BearerAuth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param host formData string false "SMTP host"
// @Param port formData int false "SMTP port"
// @Param smtpUsername formData string false "SMTP username"
// @Param smtpPassword formData string false "SMTP password, ignored while masked"
// @Param sender formData string false "From address"
// @Param recipient formData string false "Notification address"
// @Success 200 {object} StatusResponse
// @Failure 403 {object} StatusResponse
// @Failure 500 {object} StatusResponse
// @Router /admin/config/email [post]
func (h configHandler) updateEmail() http.HandlerFunc {
	return h.update("email", func(r *http.Request) error {
		var port *int
		if p, err := strconv.Atoi(strings.TrimSpace(r.FormValue("port"))); err == nil {
			port = &p
		}
		return h.settings.Email.Update(r.Context(), services.EmailConfig{
			Host:      r.FormValue("host"),
			Port:      port,
			Username:  r.FormValue("smtpUsername"),
			Password:  r.FormValue("smtpPassword"),
			Sender:    r.FormValue("sender"),
			Recipient: r.FormValue("recipient"),
		})
	})
}

// updateRecaptcha
// @Summary Update reCAPTCHA settings
// @Tags Admin
// @Security BearerAuth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param siteKey formData string false "Site key"
// @Param secretKey formData string false "Secret key, ignored while masked"
// @Param enabled formData bool false "Check comments"
// @Success 200 {object} StatusResponse
// @Failure 403 {object} StatusResponse
// @Failure 500 {object} StatusResponse
// @Router /admin/config/recaptcha [post]
func (h configHandler) updateRecaptcha() http.HandlerFunc {
	return h.update("recaptcha", func(r *http.Request) error {
		return h.settings.Recaptcha.Update(r.Context(), r.FormValue("siteKey"), r.FormValue("secretKey"), formFlag(r, "enabled"))
	})
}

// updateAkismet
// @Summary Update Akismet settings
// @Tags Admin
// @Security BearerAuth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param apiKey formData string false "API key, ignored while masked"
// @Param domainName formData string false "Blog domain"
// @Param enabled formData bool false "Check comments"
// @Success 200 {object} StatusResponse
// @Failure 403 {object} StatusResponse
// @Failure 500 {object} StatusResponse
// @Router /admin/config/akismet [post]
func (h configHandler) updateAkismet() http.HandlerFunc {
	return h.update("akismet", func(r *http.Request) error {
		return h.settings.Akismet.Update(r.Context(), r.FormValue("apiKey"), r.FormValue("domainName"), formFlag(r, "enabled"))
	})
}
