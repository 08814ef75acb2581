// Package requests exposes the dispatch engine over HTTP for the portal UI.
package requests

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/medisetu/dispatch/core/engine"
	"github.com/medisetu/dispatch/core/model"
)

type emergencyBody struct {
	PatientID   string          `json:"patient_id"`
	PatientName string          `json:"patient_name"`
	HealthID    string          `json:"health_id"`
	Location    *model.Location `json:"location,omitempty"`
	PinCode     string          `json:"pin_code,omitempty"`
}

type statusBody struct {
	Status model.RequestStatus `json:"status"`
}

type syncResult struct {
	Replayed int `json:"replayed"`
}

type errorBody struct {
	Error string `json:"error"`
}

// NewHandler returns the HTTP handler for the emergency endpoints.
func NewHandler(eng *engine.Engine) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/emergency", func(w http.ResponseWriter, r *http.Request) {
		var body emergencyBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
			return
		}
		if body.PatientID == "" {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "patient_id is required"})
			return
		}
		resp, err := eng.ProcessEmergencyRequest(r.Context(), engine.Request{
			PatientID:   body.PatientID,
			PatientName: body.PatientName,
			HealthID:    body.HealthID,
			Location:    body.Location,
			PinCode:     body.PinCode,
		})
		if err != nil {
			if errors.Is(err, engine.ErrLocationUnavailable) {
				// The UI prompts for a pin code on this status.
				writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
				return
			}
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})

	mux.HandleFunc("GET /api/emergency/{id}", func(w http.ResponseWriter, r *http.Request) {
		req, ok := eng.GetRequestStatus(r.PathValue("id"))
		if !ok {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "request not found"})
			return
		}
		writeJSON(w, http.StatusOK, req)
	})

	mux.HandleFunc("PATCH /api/emergency/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		var body statusBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || !body.Status.Valid() {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid status"})
			return
		}
		req, err := eng.UpdateRequestStatus(r.Context(), r.PathValue("id"), body.Status)
		if err != nil {
			var ite *model.InvalidTransitionError
			if errors.As(err, &ite) {
				writeJSON(w, http.StatusConflict, errorBody{Error: ite.Error()})
				return
			}
			writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, req)
	})

	mux.HandleFunc("POST /api/emergency/sync", func(w http.ResponseWriter, r *http.Request) {
		n, err := eng.SyncOfflineRequests(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, syncResult{Replayed: n})
	})

	mux.HandleFunc("PUT /api/connectivity", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Online bool `json:"online"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
			return
		}
		eng.SetOnlineStatus(body.Online)
		writeJSON(w, http.StatusOK, map[string]bool{"online": eng.Online()})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
