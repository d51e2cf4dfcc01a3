package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/auth"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/genai"
)

// AdminHandler exposes the authoring and game-control REST surface.
type AdminHandler struct {
	service   *app.QuizService
	verifier  *auth.Verifier
	generator *genai.Generator
}

func NewAdminHandler(service *app.QuizService, verifier *auth.Verifier, generator *genai.Generator) *AdminHandler {
	return &AdminHandler{service: service, verifier: verifier, generator: generator}
}

// Register wires all routes onto mux. Leaderboard and game state are public;
// everything that mutates or exposes right answers requires an admin token.
func (h *AdminHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/leaderboard", h.getLeaderboard)
	mux.HandleFunc("GET /api/state", h.getState)
	mux.HandleFunc("GET /api/questions", h.requireAdmin(h.listQuestions))
	mux.HandleFunc("POST /api/admin/questions", h.requireAdmin(h.createQuestion))
	mux.HandleFunc("PUT /api/admin/questions/{id}", h.requireAdmin(h.updateQuestion))
	mux.HandleFunc("DELETE /api/admin/questions/{id}", h.requireAdmin(h.deleteQuestion))
	mux.HandleFunc("POST /api/admin/activate", h.requireAdmin(h.activate))
	mux.HandleFunc("POST /api/admin/clear", h.requireAdmin(h.clear))
	mux.HandleFunc("POST /api/admin/reveal", h.requireAdmin(h.toggleReveal))
	mux.HandleFunc("DELETE /api/admin/answers", h.requireAdmin(h.clearAnswers))
	mux.HandleFunc("POST /api/admin/generate", h.requireAdmin(h.generate))
}

type questionInput struct {
	Text           string          `json:"text"`
	Options        []domain.Option `json:"options"`
	RightAnswerKey int             `json:"rightAnswerKey"`
}

type activateInput struct {
	QuestionID string `json:"questionId"`
}

type generateInput struct {
	Topic string `json:"topic"`
}

func (h *AdminHandler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		identity, err := h.verifier.Identify(raw)
		if err != nil {
			writeError(w, domain.ErrAuthRequired)
			return
		}
		if !identity.Admin {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin access required"})
			return
		}
		next(w, r)
	}
}

func (h *AdminHandler) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.service.Leaderboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (h *AdminHandler) getState(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.GameState(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *AdminHandler) listQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.service.Questions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *AdminHandler) createQuestion(w http.ResponseWriter, r *http.Request) {
	var input questionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	q, err := h.service.CreateQuestion(r.Context(), input.Text, input.Options, input.RightAnswerKey)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (h *AdminHandler) updateQuestion(w http.ResponseWriter, r *http.Request) {
	var input questionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	q, err := h.service.UpdateQuestion(r.Context(), r.PathValue("id"), input.Text, input.Options, input.RightAnswerKey)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *AdminHandler) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteQuestion(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) activate(w http.ResponseWriter, r *http.Request) {
	var input activateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.QuestionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "questionId is required"})
		return
	}
	state, err := h.service.ActivateQuestion(r.Context(), input.QuestionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *AdminHandler) clear(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.ClearActiveQuestion(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *AdminHandler) toggleReveal(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.ToggleReveal(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *AdminHandler) clearAnswers(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearAnswers(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) generate(w http.ResponseWriter, r *http.Request) {
	var input generateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || strings.TrimSpace(input.Topic) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "topic is required"})
		return
	}
	if h.generator == nil || !h.generator.IsAvailable() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "question generation is not configured"})
		return
	}
	draft, err := h.generator.Draft(r.Context(), input.Topic)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrAuthRequired):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrQuestionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidOption):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNoActiveQuestion), errors.Is(err, domain.ErrAlreadyAnswered):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
