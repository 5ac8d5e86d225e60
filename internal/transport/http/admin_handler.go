package http

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"weekly-quiz-service/internal/app"
	"weekly-quiz-service/internal/domain"
)

// AdminHandler exposes operator actions: window lifecycle, broadcast and standings.
type AdminHandler struct {
	service  *app.QuizService
	token    string
	validate *validator.Validate
}

func NewAdminHandler(service *app.QuizService, token string) *AdminHandler {
	return &AdminHandler{service: service, token: token, validate: validator.New()}
}

type broadcastRequest struct {
	Text string `json:"text" validate:"required,max=4096"`
}

type windowResponse struct {
	Window    domain.Window          `json:"window"`
	Announced domain.BroadcastReport `json:"announced"`
}

type closeResponse struct {
	Summary   domain.CloseSummary    `json:"summary"`
	Announced domain.BroadcastReport `json:"announced"`
}

// RequireToken rejects requests without the configured admin token. An empty
// token disables the admin surface.
func (h *AdminHandler) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token == "" {
			writeJSON(w, http.StatusForbidden, errorPayload{Kind: "forbidden", Message: "admin token not configured"})
			return
		}
		given := r.Header.Get("X-Admin-Token")
		if given == "" {
			given = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if subtle.ConstantTimeCompare([]byte(given), []byte(h.token)) != 1 {
			writeJSON(w, http.StatusUnauthorized, errorPayload{Kind: "unauthorized", Message: "invalid admin token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *AdminHandler) OpenWindow(w http.ResponseWriter, r *http.Request) {
	window, report, err := h.service.OpenAndAnnounce(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, windowResponse{Window: window, Announced: report})
}

func (h *AdminHandler) CloseWindow(w http.ResponseWriter, r *http.Request) {
	summary, report, err := h.service.CloseAndAnnounce(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, closeResponse{Summary: summary, Announced: report})
}

func (h *AdminHandler) ActiveWindow(w http.ResponseWriter, r *http.Request) {
	window, ok, err := h.service.ActiveWindow(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, domain.ErrNoActiveSession)
		return
	}
	writeJSON(w, http.StatusOK, window)
}

// Questions lists the active catalog as the next window would snapshot it.
func (h *AdminHandler) Questions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.service.ActiveQuestions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *AdminHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, "invalid json")
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if err := h.validate.Struct(req); err != nil {
		writeBadRequest(w, r, "text is required (max 4096 chars)")
		return
	}
	report, err := h.service.Broadcast(r.Context(), domain.Notice{Type: app.NoticeAnnouncement, Text: req.Text})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *AdminHandler) Standings(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			writeBadRequest(w, r, "limit must be between 1 and 100")
			return
		}
		limit = n
	}
	standings, err := h.service.Standings(r.Context(), chi.URLParam(r, "key"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, standings)
}
