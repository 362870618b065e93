package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"weather-station-api/internal/models"
	"weather-station-api/internal/services"
	"weather-station-api/pkg/validate"
)

// userRef extracts and syntax-checks the {id} path parameter, which accepts
// a UUID or a username.
func userRef(r *http.Request) (string, bool) {
	id := mux.Vars(r)["id"]
	if validate.UUID(id) || validate.Name(id) {
		return id, true
	}
	return "", false
}

// CreateUser handles POST /users
func (h *APIHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if !decodeBody(w, r, &req) {
		h.sendStatus(w, r, services.StatusInvalidParams, nil)
		return
	}

	user, code := h.users.Create(r.Context(), req.Username, req.Email, req.Password)
	h.sendStatus(w, r, code, user)
}

// ListUsers handles GET /users (admin scope)
func (h *APIHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, code := h.users.List(r.Context(), nil, authFromRequest(r))
	h.sendStatus(w, r, code, users)
}

// GetUser handles GET /users/{id}
func (h *APIHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	ref, ok := userRef(r)
	if !ok {
		h.sendStatus(w, r, services.StatusInvalidParams, nil)
		return
	}

	user, code := h.users.List(r.Context(), &ref, authFromRequest(r))
	h.sendStatus(w, r, code, user)
}

// PatchUser handles PATCH /users/{id}
func (h *APIHandler) PatchUser(w http.ResponseWriter, r *http.Request) {
	ref, ok := userRef(r)
	if !ok {
		h.sendStatus(w, r, services.StatusInvalidParams, nil)
		return
	}

	var req models.PatchUserRequest
	if !decodeBody(w, r, &req) {
		h.sendStatus(w, r, services.StatusInvalidParams, nil)
		return
	}

	user, code := h.users.Patch(r.Context(), ref, &req, authFromRequest(r))
	h.sendStatus(w, r, code, user)
}

// DeleteUser handles DELETE /users/{id}
func (h *APIHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ref, ok := userRef(r)
	if !ok {
		h.sendStatus(w, r, services.StatusInvalidParams, nil)
		return
	}

	code := h.users.Delete(r.Context(), ref, authFromRequest(r))
	h.sendStatus(w, r, code, nil)
}
