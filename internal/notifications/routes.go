package notifications

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// UserIDFunc returns the signed-in user of a request.
type UserIDFunc func(r *http.Request) (int64, bool)

// RegisterRoutes mounts the live push socket and the unread counter. The
// caller is expected to have applied its login middleware to r.
func RegisterRoutes(r chi.Router, store *Store, hub *Hub, userID UserIDFunc) {
	r.Get("/ws/notifications", func(w http.ResponseWriter, r *http.Request) {
		id, ok := userID(r)
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		hub.ServeWS(w, r, id)
	})

	r.Get("/notifications/unread", func(w http.ResponseWriter, r *http.Request) {
		id, ok := userID(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		n, err := store.CountUnread(r.Context(), id)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"unread": n})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
