package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"battle-quiz-service/internal/app"
	"battle-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

// EventSubscriber delivers the events published to a room channel.
type EventSubscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan domain.EventMessage, func(), error)
}

type WSHandler struct {
	service  *app.GameService
	events   EventSubscriber
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService, events EventSubscriber) *WSHandler {
	return &WSHandler{
		service: service,
		events:  events,
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
	QuizID int64  `json:"quizId"`
	Answer string `json:"answer"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type outboundError struct {
	Type    string       `json:"type"`
	Payload errorPayload `json:"payload"`
}

// ServeWS upgrades the connection, pipes the room's game events to the
// client, and feeds answer submissions into the engine.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomID, err := strconv.ParseInt(r.URL.Query().Get("roomId"), 10, 64)
	if err != nil {
		http.Error(w, "missing or invalid roomId", http.StatusBadRequest)
		return
	}
	memberID, err := strconv.ParseInt(r.URL.Query().Get("memberId"), 10, 64)
	if err != nil {
		http.Error(w, "missing or invalid memberId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	events, cancel, err := h.events.Subscribe(r.Context(), domain.GameChannel(roomID))
	if err != nil {
		_ = conn.WriteJSON(outboundError{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan any, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

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
		defer close(eventsDone)
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				select {
				case send <- event:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			if err := h.service.PublishNextQuiz(r.Context(), roomID); err != nil {
				send <- outboundError{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundError{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			if err := h.service.CheckAnswer(r.Context(), roomID, memberID, payload.QuizID, payload.Answer); err != nil {
				send <- outboundError{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		default:
			send <- outboundError{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}
