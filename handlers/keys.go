// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"

	"github.com/PPLEThai/pple-today-sub002/apperr"
	"github.com/PPLEThai/pple-today-sub002/keys"
	"github.com/PPLEThai/pple-today-sub002/middleware"
	"github.com/PPLEThai/pple-today-sub002/models"
)

// KeyLifecycle creates, reads and retires election keys
type KeyLifecycle interface {
	Create(ctx context.Context, electionID string) (keys.ElectionKeys, error)
	Get(ctx context.Context, electionID string) (keys.ElectionKeys, error)
	Destroy(ctx context.Context, electionID string) error
}

type KeyHandler struct {
	keys KeyLifecycle
}

func NewKeyHandler(k KeyLifecycle) *KeyHandler {
	return &KeyHandler{keys: k}
}

// CreateKeys handles POST /keys
func (h *KeyHandler) CreateKeys(w http.ResponseWriter, r *http.Request) {
	var req models.CreateKeysRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	if req.ElectionID == "" {
		middleware.WriteError(w, apperr.New(apperr.BadRequest, "electionId is required"))
		return
	}

	k, err := h.keys.Create(r.Context(), req.ElectionID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CreateKeysResponse{
		Message:             "Election keys created",
		EncryptionPublicKey: k.EncryptionPublicKey,
		SigningPublicKey:    k.SigningPublicKey,
	})
}

// GetKeys handles GET /keys/{electionId}
func (h *KeyHandler) GetKeys(w http.ResponseWriter, r *http.Request) {
	k, err := h.keys.Get(r.Context(), r.PathValue("electionId"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ElectionKeysResponse{
		ElectionID:          k.ElectionID,
		EncryptionPublicKey: k.EncryptionPublicKey,
		SigningPublicKey:    k.SigningPublicKey,
	})
}

// DestroyKeys handles DELETE /keys/{electionId}
func (h *KeyHandler) DestroyKeys(w http.ResponseWriter, r *http.Request) {
	if err := h.keys.Destroy(r.Context(), r.PathValue("electionId")); err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
