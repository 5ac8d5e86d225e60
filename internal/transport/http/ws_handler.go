package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"weekly-quiz-service/internal/app"
	"weekly-quiz-service/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	hub      *Hub
	upgrader websocket.Upgrader
	validate *validator.Validate
}

func NewWSHandler(service *app.QuizService, hub *Hub) *WSHandler {
	return &WSHandler{
		service: service,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		validate: validator.New(),
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string `json:"questionId" validate:"required"`
	Choice     string `json:"choice" validate:"required"`
}

type categoryPayload struct {
	Category string `json:"category" validate:"required,oneof=student_6 student_9 parent teacher"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades the request, registers the participant and serves begin,
// answer and category messages until the socket closes.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	displayName := r.URL.Query().Get("name")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	c := newClient(userID)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range c.send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				_ = conn.Close()
				return
			}
		}
	}()

	// registered before Join so a first-time welcome reaches this socket
	h.hub.register(c)
	defer func() {
		h.hub.unregister(c)
		c.close()
		<-writerDone
	}()

	send := func(msg outboundMessage[any]) {
		select {
		case c.send <- msg:
		case <-writerDone:
		}
	}

	participant, err := h.service.Join(ctx, userID, displayName)
	if err != nil {
		send(errorMessage(err))
		return
	}
	send(outboundMessage[any]{Type: "joined", Payload: participant})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("ws read error: %v", err)
			}
			return
		}
		send(h.handle(ctx, participant.ID, inbound))
	}
}

func (h *WSHandler) handle(ctx context.Context, participantID string, inbound inboundMessage) outboundMessage[any] {
	switch inbound.Type {
	case "begin":
		view, err := h.service.Begin(ctx, participantID)
		if err != nil {
			return errorMessage(err)
		}
		return outboundMessage[any]{Type: "question", Payload: view}
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return invalidMessage("invalid answer payload")
		}
		if err := h.validate.Struct(payload); err != nil {
			return invalidMessage("questionId and choice are required")
		}
		outcome, err := h.service.SubmitAnswer(ctx, participantID, payload.QuestionID, payload.Choice)
		if err != nil {
			return errorMessage(err)
		}
		if outcome.Completed {
			return outboundMessage[any]{Type: "completed", Payload: outcome.Result}
		}
		return outboundMessage[any]{Type: "question", Payload: outcome.Next}
	case "category":
		var payload categoryPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return invalidMessage("invalid category payload")
		}
		payload.Category = strings.ToLower(strings.TrimSpace(payload.Category))
		if err := h.validate.Struct(payload); err != nil {
			return invalidMessage(domain.ErrInvalidCategory.Error())
		}
		participant, err := h.service.SetCategory(ctx, participantID, payload.Category)
		if err != nil {
			return errorMessage(err)
		}
		return outboundMessage[any]{Type: "profile", Payload: participant}
	}
	return invalidMessage("unsupported message type")
}

func errorMessage(err error) outboundMessage[any] {
	if domain.Classify(err) == domain.OutcomeFailure {
		log.Printf("ws request failed: %v", err)
	}
	kind := domain.Kind(err)
	if kind == "" {
		kind = "internal"
	}
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Kind: kind, Message: err.Error()}}
}

func invalidMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Kind: "validation", Message: msg}}
}
