package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/yongikim/photolio-lambda-functions/internal/api/respond"
	"github.com/yongikim/photolio-lambda-functions/internal/model"
	"github.com/yongikim/photolio-lambda-functions/internal/services"
)

const (
	maxDeleteBody = 1 << 20
	maxUploadBody = 32 << 20
)

// PhotoHandler is the HTTP transport of PhotoService.
type PhotoHandler struct {
	svc *services.PhotoService
}

func NewPhotoHandler(svc *services.PhotoService) *PhotoHandler { return &PhotoHandler{svc: svc} }

// DeletePhotos DELETE /photos and POST /photos/delete
func (h *PhotoHandler) DeletePhotos(w http.ResponseWriter, r *http.Request) {
	var req model.DeleteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDeleteBody)).Decode(&req); err != nil {
		respond.WriteBadRequest(w, r, "Invalid JSON")
		return
	}
	if req.AlbumID == "" {
		respond.WriteBadRequest(w, r, "albumId is required")
		return
	}
	if len(req.PhotoIDs) == 0 {
		respond.WriteBadRequest(w, r, "photoIds must not be empty")
		return
	}

	outcomes, err := h.svc.DeletePhotos(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, r, http.StatusOK, outcomes)
}

// UploadPhotos POST /photos
func (h *PhotoHandler) UploadPhotos(w http.ResponseWriter, r *http.Request) {
	var req model.UploadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBody)).Decode(&req); err != nil {
		respond.WriteBadRequest(w, r, "Invalid JSON")
		return
	}
	results, err := h.svc.UploadPhotos(r.Context(), req.Photos)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, r, http.StatusOK, map[string]interface{}{"photos": results})
}

// ListPhotos GET /photos?limit=&cursor=
func (h *PhotoHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		respond.WriteBadRequest(w, r, err.Error())
		return
	}
	page, err := h.svc.ListPhotos(r.Context(), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, r, http.StatusOK, page)
}

// GetPhoto GET /photos/{photoId}
func (h *PhotoHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		respond.WriteBadRequest(w, r, err.Error())
		return
	}
	page, err := h.svc.GetPhoto(r.Context(), mux.Vars(r)["photoId"], limit, r.URL.Query().Get("cursor"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respond.WriteJSON(w, r, http.StatusOK, page)
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New("limit must be a positive integer")
	}
	return n, nil
}

// writeServiceError maps service errors to responses. Store causes are logged, never returned.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var lerr *model.LookupError
	switch {
	case errors.Is(err, model.ErrValidation):
		respond.WriteBadRequest(w, r, err.Error())
	case errors.As(err, &lerr) && lerr.Kind == model.LookupEmptyResult:
		respond.WriteNotFound(w, r, lerr.Error())
	case errors.As(err, &lerr) && lerr.Kind == model.LookupMalformedRow:
		respond.WriteInternalError(w, r, "failed to look up photos: "+lerr.Error())
	case errors.As(err, &lerr):
		respond.WriteInternalError(w, r, "failed to look up photos")
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, r, "not found")
	default:
		zerolog.Ctx(r.Context()).Error().Stack().Err(err).Msg("request failed")
		respond.WriteInternalError(w, r, "internal error")
	}
}
