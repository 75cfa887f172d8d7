package controller

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/ThisIsJeron/fluffyduck-sub000/internal/errors"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/service"
)

type GenerationController struct {
	GenerationService *service.GenerationService
}

// Generate accepts an empty body, in which case the defaults apply.
func (c *GenerationController) Generate(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	var body service.GenerateRequest
	if err := decodeOptional(r, &body); err != nil {
		appErrors.WriteJSON(w, err)
		return
	}

	result, err := c.GenerationService.Generate(r.Context(), user, chi.URLParam(r, "id"), body)
	if err != nil {
		appErrors.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c *GenerationController) GetVariants(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	result, err := c.GenerationService.GetVariants(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		appErrors.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c *GenerationController) SelectVariant(w http.ResponseWriter, r *http.Request) {
	user, ok := userID(w, r)
	if !ok {
		return
	}
	campaign, err := c.GenerationService.SelectVariant(r.Context(), user, chi.URLParam(r, "id"), chi.URLParam(r, "variantID"))
	if err != nil {
		appErrors.WriteJSON(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func decodeOptional(r *http.Request, dst any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return appErrors.Validation("invalid body")
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return appErrors.Validation("invalid body")
	}
	return nil
}
