package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"video-training-service/internal/app"
	"video-training-service/internal/domain"
)

// WSHandler runs one quiz session per websocket connection.
type WSHandler struct {
	quiz     *app.QuizService
	sessions app.SessionRepository
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(quiz *app.QuizService, sessions app.SessionRepository, log *slog.Logger) *WSHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WSHandler{
		quiz:     quiz,
		sessions: sessions,
		log:      log,
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

type submitPayload struct {
	Text     string `json:"text"`
	AudioRef string `json:"audioRef"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type questionPayload struct {
	SessionID string `json:"sessionId"`
	app.QuestionView
}

type sessionPayload struct {
	SessionID string `json:"sessionId"`
}

type rejectedPayload struct {
	SessionID string `json:"sessionId"`
	Reason    string `json:"reason"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and drives a new or resumed session.
// A new session needs userId and videoId; sessionId resumes an existing one.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sessionID := q.Get("sessionId")
	userID := q.Get("userId")
	videoID := q.Get("videoId")
	if sessionID == "" && (userID == "" || videoID == "") {
		http.Error(w, "missing userId and videoId, or sessionId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	session, err := h.open(ctx, sessionID, userID, videoID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	log := h.log.With("session", session.ID())

	if err := conn.WriteJSON(render(session.View())); err != nil {
		log.Debug("ws write failed", "err", err)
		return
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		replies, done := h.handle(ctx, session, inbound)
		for _, msg := range replies {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug("ws write failed", "err", err)
				return
			}
		}
		if done {
			return
		}
	}
}

func (h *WSHandler) open(ctx context.Context, sessionID, userID, videoID string) (*app.Session, error) {
	if sessionID != "" {
		return h.sessions.Get(ctx, sessionID)
	}
	session, err := h.quiz.Start(ctx, userID, videoID)
	if err != nil {
		return nil, err
	}
	if err := h.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// handle applies one inbound event and returns the replies; done ends the connection.
func (h *WSHandler) handle(ctx context.Context, session *app.Session, in inboundMessage) ([]any, bool) {
	switch in.Type {
	case "submit":
		var payload submitPayload
		if err := json.Unmarshal(in.Payload, &payload); err != nil {
			return []any{errorMessage(errors.New("invalid submit payload"))}, false
		}
		err := h.quiz.Submit(ctx, session, domain.AnswerSubmission{Text: payload.Text, AudioRef: payload.AudioRef})
		return h.afterMove(session, err), false
	case "skip":
		return h.afterMove(session, h.quiz.Skip(ctx, session)), false
	case "result":
		if _, err := h.quiz.Result(ctx, session); err != nil {
			return []any{errorMessage(err)}, false
		}
		return []any{render(session.View())}, false
	case "abandon":
		h.quiz.Abandon(session)
		if err := h.sessions.Delete(ctx, session.ID()); err != nil {
			h.log.Warn("drop abandoned session", "session", session.ID(), "err", err)
		}
		return []any{render(session.View())}, true
	default:
		return []any{errorMessage(errors.New("unsupported message type"))}, false
	}
}

// afterMove renders the session after submit/skip. A failed ledger write
// still shows the completion view; the learner can ask for the result again.
func (h *WSHandler) afterMove(session *app.Session, err error) []any {
	switch {
	case err == nil:
		return []any{render(session.View())}
	case errors.Is(err, domain.ErrEmptyAnswer):
		return []any{outboundMessage[rejectedPayload]{
			Type:    "rejected",
			Payload: rejectedPayload{SessionID: session.ID(), Reason: err.Error()},
		}}
	case errors.Is(err, domain.ErrStorageUnavailable):
		return []any{errorMessage(err), render(session.View())}
	default:
		return []any{errorMessage(err)}
	}
}

// render maps a session snapshot to the message the collaborator shows next.
func render(view app.SessionView) any {
	switch view.Status {
	case domain.SessionInProgress:
		return outboundMessage[questionPayload]{
			Type:    "question",
			Payload: questionPayload{SessionID: view.SessionID, QuestionView: *view.Question},
		}
	case domain.SessionComplete:
		return outboundMessage[app.SessionView]{Type: "complete", Payload: view}
	case domain.SessionEmpty:
		return outboundMessage[sessionPayload]{Type: "noQuestions", Payload: sessionPayload{SessionID: view.SessionID}}
	default:
		return outboundMessage[sessionPayload]{Type: "abandoned", Payload: sessionPayload{SessionID: view.SessionID}}
	}
}

func errorMessage(err error) outboundMessage[errorPayload] {
	return outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}}
}
