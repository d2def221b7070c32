package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/robalobadob/pidro/internal/game"
)

// UpdateSnapshot is the first frame sent on a new stream.
const UpdateSnapshot game.UpdateKind = "snapshot"

const wsPingInterval = 15 * time.Second

// handleWS streams a table's updates to an observer. Client frames are ignored.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTable(w, r)
	if !ok {
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		log.Warn().Err(err).Msg("websocket accept")
		return
	}
	defer func() { _ = c.Close(websocket.StatusNormalClosure, "bye") }()

	updates, cancel := t.Hub().Subscribe()
	defer cancel()

	ctx := c.CloseRead(r.Context())
	log.Debug().Str("table", t.ID.String()).Msg("observer connected")

	if st, err := t.Snapshot(); err == nil {
		if err := writeUpdate(ctx, c, game.Update{Kind: UpdateSnapshot, State: st}); err != nil {
			return
		}
	}

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := writeUpdate(ctx, c, u); err != nil {
				log.Debug().Err(err).Str("table", t.ID.String()).Msg("observer write")
				return
			}
		case <-ping.C:
			if err := c.Ping(ctx); err != nil {
				return
			}
		}
	}
}

func writeUpdate(ctx context.Context, c *websocket.Conn, u game.Update) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return wsjson.Write(ctx, c, u)
}
