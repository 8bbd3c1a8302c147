package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"gametree/searcher"
	"gametree/session"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

const (
	MessageStart = "start"
	MessageStep  = "step"
	MessageDone  = "done"
)

type StartPayload struct {
	ID        int    `json:"id"`
	Algorithm string `json:"algorithm"`
	Steps     int    `json:"steps"`
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// handleStream evaluates the tree, then replays the walk one step at a time so
// a client can animate it. The evaluation is complete before the first step is
// sent; pacing only affects delivery.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "websocket upgrade required"})
		return
	}
	alg, err := searcher.ParseAlgorithm(r.URL.Query().Get("algorithm"))
	if err != nil {
		writeError(w, err)
		return
	}
	speed := s.speed
	if raw := r.URL.Query().Get("speed"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "speed must be a non-negative number of milliseconds"})
			return
		}
		speed = time.Duration(ms) * time.Millisecond
	}

	res, err := s.session.Run(r.Context(), alg)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		// Reads only to notice the client going away
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := replay(ctx, conn, res, speed); err != nil {
		log.Debug().Err(err).Int("run", res.ID).Msg("stream stopped")
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(writeWait))
}

func replay(ctx context.Context, conn *websocket.Conn, res *session.Result, speed time.Duration) error {
	send := func(m Message) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(m)
	}

	err := send(Message{Type: MessageStart, Payload: StartPayload{
		ID:        res.ID,
		Algorithm: res.Report.Algorithm.String(),
		Steps:     len(res.Report.Steps),
	}})
	if err != nil {
		return err
	}

	for _, step := range res.Report.Steps {
		if speed > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(speed):
			}
		}
		if err := send(Message{Type: MessageStep, Payload: session.NewStepView(step)}); err != nil {
			return err
		}
	}

	report := session.NewReportView(res.Report)
	report.Steps = nil
	return send(Message{Type: MessageDone, Payload: EvaluateResponse{
		ID:     res.ID,
		Report: report,
		Tree:   res.View,
	}})
}
