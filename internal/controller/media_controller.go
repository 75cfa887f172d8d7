package controller

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/ThisIsJeron/fluffyduck-sub000/internal/errors"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/service"
)

// multipart framing allowance on top of the file size limit
const formOverhead = 1 << 20

type MediaController struct {
	MediaService *service.MediaService
}

// Upload reads a multipart form with a single "file" field.
func (c *MediaController) Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, c.MediaService.MaxBytes+formOverhead)
	if err := r.ParseMultipartForm(formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			appErrors.WriteJSON(w, appErrors.Validation("file exceeds the %d byte limit", c.MediaService.MaxBytes))
			return
		}
		appErrors.WriteJSON(w, appErrors.Validation("invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		appErrors.WriteJSON(w, appErrors.Validation("file is required"))
		return
	}
	defer file.Close()

	asset, err := c.MediaService.Upload(r.Context(), user, service.Upload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		appErrors.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

func (c *MediaController) List(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	assets, err := c.MediaService.List(r.Context(), user)
	if err != nil {
		appErrors.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": assets})
}

func (c *MediaController) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	if err := c.MediaService.Delete(r.Context(), user, chi.URLParam(r, "id")); err != nil {
		appErrors.WriteJSON(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
