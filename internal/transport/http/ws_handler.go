package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/auth"
	"live-quiz-service/internal/domain"
)

// WSHandler pushes game-state and leaderboard snapshots to participants and
// accepts their answer submissions.
type WSHandler struct {
	service  *app.QuizService
	verifier *auth.Verifier
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, verifier *auth.Verifier) *WSHandler {
	return &WSHandler{
		service:  service,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	OptionKey  int    `json:"optionKey"`
}

type answerResult struct {
	QuestionID  string `json:"questionId"`
	OptionKey   int    `json:"optionKey"`
	SubmittedAt int64  `json:"submittedAt"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// questionView is the participant-facing question shape. The right answer key
// is only present while the admin has revealed it.
type questionView struct {
	ID             string          `json:"id"`
	Text           string          `json:"text"`
	Options        []domain.Option `json:"options"`
	RightAnswerKey int             `json:"rightAnswerKey,omitempty"`
}

type gameStateView struct {
	ActiveQuestionID string        `json:"activeQuestionId"`
	AnswerRevealed   bool          `json:"answerRevealed"`
	ActivatedAt      time.Time     `json:"activatedAt"`
	Question         *questionView `json:"question,omitempty"`
}

// ServeWS upgrades the connection and wires it into the quiz use cases.
// The participant identity comes from the token query parameter.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	identity, err := h.verifier.Identify(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	stateUpdates, cancelState, err := h.service.WatchGameState(r.Context())
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorFor(err)})
		return
	}
	defer cancelState()

	leaderboardUpdates, cancelLeaderboard, err := h.service.WatchLeaderboard(r.Context())
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorFor(err)})
		return
	}
	defer cancelLeaderboard()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case state, ok := <-stateUpdates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "gameState", Payload: h.stateView(r.Context(), state)}:
				case <-closeSignals:
					return
				}
			case lb, ok := <-leaderboardUpdates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "leaderboard", Payload: lb}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

readLoop:
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var reply outboundMessage[any]
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				reply = outboundMessage[any]{Type: "error", Payload: errorPayload{Code: "badPayload", Message: "invalid answer payload"}}
				break
			}
			rec, err := h.service.SubmitAnswer(r.Context(), identity, payload.QuestionID, payload.OptionKey)
			if err != nil {
				reply = outboundMessage[any]{Type: "error", Payload: errorFor(err)}
				break
			}
			reply = outboundMessage[any]{Type: "answerResult", Payload: answerResult{
				QuestionID:  rec.QuestionID,
				OptionKey:   rec.OptionKey,
				SubmittedAt: rec.SubmittedAt,
			}}
		default:
			reply = outboundMessage[any]{Type: "error", Payload: errorPayload{Code: "badPayload", Message: "unsupported message type"}}
		}
		// The writer exits on a write error; an unguarded send here would
		// park this goroutine forever once the buffer fills.
		select {
		case send <- reply:
		case <-writerDone:
			break readLoop
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// stateView resolves the active question for display. A stale reference (the
// question was deleted while active) degrades to an ID-only view.
func (h *WSHandler) stateView(ctx context.Context, state domain.GameState) gameStateView {
	view := gameStateView{
		ActiveQuestionID: state.ActiveQuestionID,
		AnswerRevealed:   state.AnswerRevealed,
		ActivatedAt:      state.ActivatedAt,
	}
	if !state.Active() {
		return view
	}
	question, err := h.service.Question(ctx, state.ActiveQuestionID)
	if err != nil {
		return view
	}
	qv := &questionView{
		ID:      question.ID,
		Text:    question.Text,
		Options: question.Options,
	}
	if state.AnswerRevealed {
		qv.RightAnswerKey = question.RightAnswerKey
	}
	view.Question = qv
	return view
}

func errorFor(err error) errorPayload {
	code := "internal"
	switch {
	case errors.Is(err, domain.ErrAuthRequired):
		code = "authRequired"
	case errors.Is(err, domain.ErrNoActiveQuestion):
		code = "noActiveQuestion"
	case errors.Is(err, domain.ErrInvalidOption):
		code = "invalidOption"
	case errors.Is(err, domain.ErrAlreadyAnswered):
		code = "alreadyAnswered"
	case errors.Is(err, domain.ErrQuestionNotFound):
		code = "questionNotFound"
	case errors.Is(err, domain.ErrStoreUnavailable):
		code = "storeUnavailable"
	}
	return errorPayload{Code: code, Message: err.Error()}
}
