package api

import (
	"net/http"
)

// HandleSeed наполняет пустую базу демо-данными. Идемпотентен: если
// пользователи уже есть, ничего не делает
func (h *Handler) HandleSeed(w http.ResponseWriter, r *http.Request) {
	hash, err := h.authService.HashPassword("demo123")
	if err != nil {
		h.logger.Error("Failed to hash demo password", "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	seeded, err := h.storage.Seed(r.Context(), hash)
	if err != nil {
		h.logger.Error("Failed to seed database", "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	if !seeded {
		h.respondSuccess(w, "Database already seeded", nil)
		return
	}

	h.respondSuccess(w, "Database seeded", map[string]string{
		"email":    "demo@example.com",
		"password": "demo123",
	})
}
