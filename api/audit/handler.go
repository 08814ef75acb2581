// Package audit exposes the dispatch audit log via GET /api/audit/dispatches.
package audit

import (
	"encoding/json"
	"net/http"
	"time"

	coreaudit "github.com/medisetu/dispatch/core/audit"
	"github.com/medisetu/dispatch/core/model"
)

// NewHandler returns an HTTP handler exposing audit records. Requests must
// include an Authorization header with "Bearer <token>" when token is
// non-empty.
func NewHandler(store coreaudit.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		q := coreaudit.Query{
			RequestID: r.URL.Query().Get("request_id"),
			PatientID: r.URL.Query().Get("patient_id"),
		}
		if s := r.URL.Query().Get("start"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.Start = t
			}
		}
		if s := r.URL.Query().Get("end"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.End = t
			}
		}
		if s := r.URL.Query().Get("tier"); s != "" {
			if tier, ok := model.TierFromString(s); ok {
				q.Tier = tier
			}
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
