package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/rpgm-blog/content"
	"github.com/rpupo63/rpgm-blog/errs"
	"github.com/rpupo63/rpgm-blog/models"
	"github.com/rpupo63/rpgm-blog/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type assetHandler struct {
	responder Responder
	logger    zerolog.Logger
	uploads   *services.FileUploadService
	users     *services.UserService
}

func newAssetHandler(uploads *services.FileUploadService, users *services.UserService) assetHandler {
	logger := log.With().Str("handlerName", "assetHandler").Logger()

	return assetHandler{
		responder: NewResponder(logger),
		logger:    logger,
		uploads:   uploads,
		users:     users,
	}
}

// AssetUploadResponse is where an upload was stored
type AssetUploadResponse struct {
	Path string `json:"path"`
}

// assetFolder reads a folder below /assets, defaulting to the image folder.
func assetFolder(raw string) (content.Location, error) {
	if strings.TrimSpace(raw) == "" {
		return content.MustLocation(content.ImagesPath), nil
	}
	loc, err := content.NewLocation(raw)
	if err != nil || !loc.Under(content.RootAssets) {
		return "", errs.NewBadRequestErrorWithField("invalid path", "path", "must be a folder under "+content.AssetsPath)
	}
	return loc, nil
}

// serveAsset streams a stored file
// @Summary Download asset
// @Tags Assets
// @Param path path string true "Path below /assets"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse "Not Found - Asset not found"
// @Router /assets/{path} [get]
func (h assetHandler) serveAsset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loc, err := content.NewLocation(content.AssetsPath + "/" + chi.URLParam(r, "*"))
		if err != nil || !loc.Under(content.RootAssets) || loc.Depth(content.RootAssets) == 0 {
			h.responder.WriteError(w, errs.NewNotFound("asset"))
			return
		}

		asset, body, err := h.uploads.Store().Open(r.Context(), loc)
		if err != nil {
			h.responder.WriteError(w, serviceError("find", "asset", err))
			return
		}
		defer body.Close()

		contentType := asset.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Length", strconv.FormatInt(asset.Size, 10))
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, body); err != nil {
			h.logger.Warn().Err(err).Str("path", loc.String()).Msg("asset download interrupted")
		}
	}
}

// listAssets lists the files of an asset folder
// @Summary List assets
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param path query string false "Folder, defaults to /assets/images"
// @Success 200 {array} models.Asset
// @Failure 400 {object} ErrorResponse "Bad Request - Folder outside /assets"
// @Failure 403 {object} StatusResponse "Forbidden - Current user not authorized"
// @Router /admin/assets [get]
func (h assetHandler) listAssets() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := currentAuthor(r, h.users); !ok {
			h.responder.WriteStatus(w, http.StatusForbidden, statusError, msgNotAuthorized)
			return
		}

		folder, err := assetFolder(r.URL.Query().Get("path"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		assets, err := h.uploads.Store().List(r.Context(), folder)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "assets", err))
			return
		}
		if assets == nil {
			assets = []models.Asset{}
		}

		h.responder.WriteJSON(w, assets)
	}
}

// uploadAsset stores the first file of a multipart form
// @Summary Upload asset
// @Tags Admin
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "The file"
// @Param path formData string false "Folder, defaults to /assets/images"
// @Success 201 {object} AssetUploadResponse
// @Failure 400 {object} ErrorResponse "Bad Request - No file or invalid folder"
// @Failure 403 {object} StatusResponse "Forbidden - Current user not authorized"
// @Router /admin/assets [post]
func (h assetHandler) uploadAsset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := currentAuthor(r, h.users); !ok {
			h.responder.WriteStatus(w, http.StatusForbidden, statusError, msgNotAuthorized)
			return
		}

		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			h.responder.WriteError(w, errs.NewBadRequestError("expected a multipart form"))
			return
		}

		folder, err := assetFolder(r.FormValue("path"))
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		loc, err := h.uploads.UploadFile(r.Context(), r.MultipartForm, folder)
		if err != nil {
			h.responder.WriteError(w, serviceError("upload", "asset", err))
			return
		}
		if loc == "" {
			h.responder.WriteError(w, errs.NewBadRequestErrorWithField("no file uploaded", "file", "the form carried no file"))
			return
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, AssetUploadResponse{Path: loc.String()})
	}
}
