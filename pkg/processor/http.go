package processor

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/zykor/platform/pkg/common/logger"
)

// ProcessRequest is the JSON body accepted by the processing endpoint.
type ProcessRequest struct {
	RawDataID uint   `json:"raw_data_id"`
	DataType  string `json:"data_type,omitempty"`
}

// Handler exposes the processor over HTTP.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/process", h.HandleProcess).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/results/{id}", h.HandleResult).Methods(http.MethodGet, http.MethodOptions)
	router.Use(corsMiddleware)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "authorization, content-type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HandleProcess triggers processing of one raw payload.
func (h *Handler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Result{Success: false, Error: "invalid request body"})
		return
	}
	if req.RawDataID == 0 {
		writeJSON(w, http.StatusBadRequest, Result{Success: false, Error: "raw_data_id is required"})
		return
	}

	result := h.service.Process(r.Context(), req.RawDataID, req.DataType)

	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, result)
}

// HandleResult serves the cached result for a payload, falling back to a
// fresh Process call on a cache miss.
func (h *Handler) HandleResult(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil || id == 0 {
		writeJSON(w, http.StatusBadRequest, Result{Success: false, Error: "invalid raw_data_id"})
		return
	}
	rawDataID := uint(id)

	if h.service.cache != nil {
		if result, ok := h.service.cache.Get(r.Context(), rawDataID); ok {
			writeJSON(w, http.StatusOK, result)
			return
		}
	}

	result := h.service.Process(r.Context(), rawDataID, "")
	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, result)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.WithError(err).Error("Failed to write response")
	}
}
