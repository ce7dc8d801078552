package handlers

import (
	"net/http"

	"github.com/cloudemu/engine/internal/api/types"
	"github.com/cloudemu/engine/internal/services"
	"github.com/go-chi/chi/v5"
)

// DatabaseHandler serves /rds.
type DatabaseHandler struct {
	svc services.DatabaseService
}

func NewDatabaseHandler(svc services.DatabaseService) *DatabaseHandler {
	return &DatabaseHandler{svc: svc}
}

func (h *DatabaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req types.CreateDBInstanceRequest
	if !decode(w, r, &req) {
		return
	}
	inst, err := h.svc.Create(r.Context(), &services.CreateDatabaseInput{
		Identifier: req.Identifier,
		Username:   req.Username,
		Password:   req.Password,
		Engine:     req.Engine,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	ok(w, http.StatusOK, inst)
}

func (h *DatabaseHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items, Meta: &types.Meta{Total: int64(len(items))}})
}

func (h *DatabaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	inst, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	ok(w, http.StatusOK, inst)
}

func (h *DatabaseHandler) Start(w http.ResponseWriter, r *http.Request) {
	inst, err := h.svc.Start(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	ok(w, http.StatusOK, inst)
}

func (h *DatabaseHandler) Stop(w http.ResponseWriter, r *http.Request) {
	inst, err := h.svc.Stop(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	ok(w, http.StatusOK, inst)
}

func (h *DatabaseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeAppError(w, r, err)
		return
	}
	ok(w, http.StatusOK, types.MessageResponse{Msg: "Deleted"})
}
