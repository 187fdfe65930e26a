package rest

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/recipebook/internal/common"
)

type attributeRequest struct {
	Name string `json:"name"`
}

func (h *Handler) listAttributes(svc AttributeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assignedOnly := false
		if raw := r.URL.Query().Get("assigned_only"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				h.writeError(w, r, common.NewValidationError("assigned_only", msgInvalidInteger))
				return
			}
			assignedOnly = n != 0
		}

		items, err := svc.List(r.Context(), callerFrom(r.Context()).ID, assignedOnly)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		respondWithJSON(w, http.StatusOK, items)
	}
}

func (h *Handler) createAttribute(svc AttributeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req attributeRequest
		if err := decodeJSON(r, &req); err != nil {
			h.writeDecodeError(w, r, err)
			return
		}

		attr, err := svc.Create(r.Context(), callerFrom(r.Context()).ID, req.Name)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		respondWithJSON(w, http.StatusCreated, attr)
	}
}
