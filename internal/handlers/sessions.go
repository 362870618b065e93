package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"weather-station-api/internal/models"
	"weather-station-api/internal/services"
	"weather-station-api/pkg/validate"
)

// CreateSession handles POST /users/{id}/sessions
func (h *APIHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ref, ok := userRef(r)
	if !ok {
		h.sendStatus(w, r, services.StatusInvalidParams, nil)
		return
	}

	var req models.CreateSessionRequest
	if !decodeBody(w, r, &req) {
		h.sendStatus(w, r, services.StatusInvalidParams, nil)
		return
	}

	session, token, code := h.sessions.Create(r.Context(), ref, req.Password,
		services.DefaultSessionMaxAge, authFromRequest(r))

	if code == services.StatusOK {
		w.Header().Set("Set-Cookie", fmt.Sprintf(
			"sessiontoken=%s; Path=/; HttpOnly; Secure; SameSite=Lax; Max-Age=%d",
			token, services.DefaultSessionMaxAge))
	}

	h.sendStatus(w, r, code, session)
}

// ListSessions handles GET /users/{id}/sessions
func (h *APIHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	ref, ok := userRef(r)
	if !ok {
		h.sendStatus(w, r, services.StatusInvalidParams, nil)
		return
	}

	sessions, code := h.sessions.List(r.Context(), ref, nil, authFromRequest(r))
	h.sendStatus(w, r, code, sessions)
}

// GetSession handles GET /users/{id}/sessions/{sessionUUID}
func (h *APIHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	ref, ok := userRef(r)
	sessionUUID := mux.Vars(r)["sessionUUID"]
	if !ok || !validate.UUID(sessionUUID) {
		h.sendStatus(w, r, services.StatusInvalidParams, nil)
		return
	}

	session, code := h.sessions.List(r.Context(), ref, &sessionUUID, authFromRequest(r))
	h.sendStatus(w, r, code, session)
}

// DeleteSession handles DELETE /users/{id}/sessions/{sessionUUID}
func (h *APIHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	ref, ok := userRef(r)
	sessionUUID := mux.Vars(r)["sessionUUID"]
	if !ok || !validate.UUID(sessionUUID) {
		h.sendStatus(w, r, services.StatusInvalidParams, nil)
		return
	}

	code := h.sessions.Delete(r.Context(), ref, sessionUUID, authFromRequest(r))
	h.sendStatus(w, r, code, nil)
}

// CreateAPIKey handles POST /users/{id}/api-keys
func (h *APIHandler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	ref, ok := userRef(r)
	if !ok {
		h.sendStatus(w, r, services.StatusInvalidParams, nil)
		return
	}

	var req models.CreateAPIKeyRequest
	if !decodeBody(w, r, &req) {
		h.sendStatus(w, r, services.StatusInvalidParams, nil)
		return
	}

	key, code := h.apiKeys.Create(r.Context(), ref, req.Name, req.APIKeyType,
		req.StationID, authFromRequest(r))
	h.sendStatus(w, r, code, key)
}

// ListAPIKeys handles GET /users/{id}/api-keys
func (h *APIHandler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	ref, ok := userRef(r)
	if !ok {
		h.sendStatus(w, r, services.StatusInvalidParams, nil)
		return
	}

	keys, code := h.apiKeys.List(r.Context(), ref, nil, authFromRequest(r))
	h.sendStatus(w, r, code, keys)
}

// GetAPIKey handles GET /users/{id}/api-keys/{keyId}
func (h *APIHandler) GetAPIKey(w http.ResponseWriter, r *http.Request) {
	ref, ok := userRef(r)
	keyID := mux.Vars(r)["keyId"]
	if !ok || !(validate.UUID(keyID) || validate.Name(keyID)) {
		h.sendStatus(w, r, services.StatusInvalidParams, nil)
		return
	}

	key, code := h.apiKeys.List(r.Context(), ref, &keyID, authFromRequest(r))
	h.sendStatus(w, r, code, key)
}

// DeleteAPIKey handles DELETE /users/{id}/api-keys/{keyId}
func (h *APIHandler) DeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	ref, ok := userRef(r)
	keyID := mux.Vars(r)["keyId"]
	if !ok || !(validate.UUID(keyID) || validate.Name(keyID)) {
		h.sendStatus(w, r, services.StatusInvalidParams, nil)
		return
	}

	code := h.apiKeys.Delete(r.Context(), ref, keyID, authFromRequest(r))
	h.sendStatus(w, r, code, nil)
}
