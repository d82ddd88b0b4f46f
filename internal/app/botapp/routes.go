package botapp

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func (a *App) registerRoutes(r chi.Router) {
	r.Post(a.cfg.Webhook.Path, a.handleWebhook)
	r.Get("/health", a.handleHealth)
	r.Get("/", a.handleRoot)
}

// handleWebhook always answers HTTP 200 so the platform never retries a
// delivered update; failures are reported in the body only.
func (a *App) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		a.logger.Warn("webhook payload decode failed", zap.Error(err))
		writeJSON(w, map[string]any{"ok": false, "error": err.Error()})
		return
	}

	if err := a.handleUpdate(r.Context(), update); err != nil {
		a.logger.Error("update handling failed",
			zap.Int("update_id", update.UpdateID),
			zap.Error(err),
		)
		writeJSON(w, map[string]any{"ok": false, "error": err.Error()})
		return
	}

	writeJSON(w, map[string]any{"ok": true})
}

func (a *App) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"status":        "ok",
		"bot_token_set": strings.TrimSpace(a.cfg.Bot.Token) != "",
	})
}

func (a *App) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"name":         "FerPs Anonymous Bot",
		"mode":         "webhook",
		"webhook_path": a.cfg.Webhook.Path,
		"health":       "/health",
	})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(payload)
}
