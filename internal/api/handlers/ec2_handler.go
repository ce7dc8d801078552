package handlers

import (
	"net/http"

	"github.com/cloudemu/engine/internal/api/types"
	"github.com/cloudemu/engine/internal/console"
	"github.com/cloudemu/engine/internal/services"
	"github.com/go-chi/chi/v5"
)

// ComputeHandler serves /ec2/instances.
type ComputeHandler struct {
	svc    services.ComputeService
	bridge *console.Bridge
}

func NewComputeHandler(svc services.ComputeService, bridge *console.Bridge) *ComputeHandler {
	return &ComputeHandler{svc: svc, bridge: bridge}
}

func (h *ComputeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req types.CreateInstanceRequest
	if !decode(w, r, &req) {
		return
	}
	inst, err := h.svc.Create(r.Context(), &services.CreateComputeInput{
		Identifier:   req.Identifier,
		ImageRef:     req.AmiID,
		InstanceType: req.InstanceType,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	ok(w, http.StatusOK, inst)
}

func (h *ComputeHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items, Meta: &types.Meta{Total: int64(len(items))}})
}

func (h *ComputeHandler) Get(w http.ResponseWriter, r *http.Request) {
	inst, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	ok(w, http.StatusOK, inst)
}

func (h *ComputeHandler) Start(w http.ResponseWriter, r *http.Request) {
	inst, err := h.svc.Start(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	ok(w, http.StatusOK, inst)
}

func (h *ComputeHandler) Stop(w http.ResponseWriter, r *http.Request) {
	inst, err := h.svc.Stop(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	ok(w, http.StatusOK, inst)
}

func (h *ComputeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Console upgrades to a WebSocket console session. Credentials travel in the
// token query parameter because browsers cannot set headers on WebSocket requests.
func (h *ComputeHandler) Console(w http.ResponseWriter, r *http.Request) {
	h.bridge.Serve(w, r, chi.URLParam(r, "id"))
}
