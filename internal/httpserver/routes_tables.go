// internal/httpserver/routes_tables.go
//
// HTTP routes for tables.
//   - POST /tables                          → create a table (seats, passcode)
//   - GET  /tables                          → table summaries
//   - GET  /tables/{id}                     → debug summary
//   - GET  /tables/{id}/state               → full GameState
//   - GET  /tables/{id}/log                 → ordered move log
//   - GET  /tables/{id}/history             → archived hands
//   - POST /tables/{id}/deal                → deal the next hand and start its turn loop
//   - POST /tables/{id}/resume              → restart a stalled turn loop
//   - POST /tables/{id}/seats/{seat}/claim  → seat token for a human seat
//   - GET  /tables/{id}/seats/{seat}/view   → seat view with legal moves (seat token)
//   - POST /tables/{id}/seats/{seat}/move   → submit a move (seat token)
//
// Seats are addressed by number (0-3) or position name (north, east, ...).

package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pidro/internal/archive"
	"github.com/robalobadob/pidro/internal/config"
	"github.com/robalobadob/pidro/internal/game"
	"github.com/robalobadob/pidro/internal/provider"
	"github.com/robalobadob/pidro/internal/store"
	"github.com/robalobadob/pidro/internal/table"
)

// mountTables registers all /tables routes.
func (s *Server) mountTables(r chi.Router) {
	r.Route("/tables", func(r chi.Router) {
		r.Post("/", s.handleCreateTable)
		r.Get("/", s.handleListTables)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleSummary)
			r.Get("/state", s.handleState)
			r.Get("/log", s.handleLog)
			r.Get("/history", s.handleHistory)
			r.Post("/deal", s.handleDeal)
			r.Post("/resume", s.handleResume)
			r.Route("/seats/{seat}", func(r chi.Router) {
				r.Post("/claim", s.handleClaim)
				r.With(s.requireSeat()).Get("/view", s.handleView)
				r.With(s.requireSeat()).Post("/move", s.handleMove)
			})
		})
	})
}

func tableID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

// seatParam reads {seat} as a number or a position name.
func seatParam(r *http.Request) (game.Seat, error) {
	raw := strings.ToLower(chi.URLParam(r, "seat"))
	if n, err := strconv.Atoi(raw); err == nil {
		if seat := game.Seat(n); seat.Valid() {
			return seat, nil
		}
		return game.NoSeat, fmt.Errorf("seat %d out of range", n)
	}
	for i := game.Seat(0); i < 4; i++ {
		if strings.ToLower(i.Position()) == raw {
			return i, nil
		}
	}
	return game.NoSeat, fmt.Errorf("unknown seat %q", raw)
}

// loadTable resolves {id}; it writes the error response itself.
func (s *Server) loadTable(w http.ResponseWriter, r *http.Request) (*table.Table, bool) {
	id, err := tableID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return nil, false
	}
	t, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_error")
		return nil, false
	}
	return t, true
}

// -----------------------------------------------------------------------------
// tables

type createTableReq struct {
	// Seats lists four entries: "human" or an AI backend, optionally with a
	// model ("openai:gpt-4o"). Empty uses the server default roster.
	Seats    []string `json:"seats"`
	Passcode string   `json:"passcode"`
}

type createTableRes struct {
	TableID uuid.UUID   `json:"tableId"`
	Seats   game.Roster `json:"seats"`
}

func (s *Server) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	var req createTableReq
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_json")
			return
		}
	}

	var seats *game.Roster
	if len(req.Seats) > 0 {
		roster, err := config.ParseSeats(strings.Join(req.Seats, ","), s.aiConfig)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		seats = &roster
	}

	t, err := s.factory.New(seats, req.Passcode)
	if err != nil {
		if errors.Is(err, provider.ErrUnknownBackend) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("create table")
		writeError(w, http.StatusInternalServerError, "create_failed")
		return
	}
	if err := s.store.Save(r.Context(), t); err != nil {
		t.Close()
		log.Error().Err(err).Msg("save table")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	log.Info().Str("table", t.ID.String()).Msg("table created")
	writeJSON(w, http.StatusCreated, createTableRes{TableID: t.ID, Seats: t.Roster()})
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list_failed")
		return
	}
	out := make([]table.Summary, 0, len(tables))
	for _, t := range tables {
		out = append(out, t.Summary())
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTable(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, t.Summary())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTable(w, r)
	if !ok {
		return
	}
	st, err := t.Snapshot()
	if errors.Is(err, game.ErrNoHand) {
		writeError(w, http.StatusConflict, "no_hand")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTable(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, t.Log())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTable(w, r)
	if !ok {
		return
	}
	if s.archive == nil {
		writeError(w, http.StatusServiceUnavailable, "archive_disabled")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	hands, err := s.archive.ListHands(r.Context(), t.ID, limit)
	if err != nil {
		log.Error().Err(err).Str("table", t.ID.String()).Msg("list hands")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if hands == nil {
		hands = []archive.Record{}
	}
	writeJSON(w, http.StatusOK, hands)
}

type dealRes struct {
	Hand int `json:"hand"`
}

func (s *Server) handleDeal(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTable(w, r)
	if !ok {
		return
	}
	hand, err := t.Deal()
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, dealRes{Hand: hand})
	case errors.Is(err, table.ErrHandInProgress):
		writeError(w, http.StatusConflict, "hand_in_progress")
	default:
		log.Error().Err(err).Str("table", t.ID.String()).Msg("deal")
		writeError(w, http.StatusInternalServerError, "deal_failed")
	}
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTable(w, r)
	if !ok {
		return
	}
	err := t.Resume()
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]bool{"ok": true})
	case errors.Is(err, table.ErrNoStalledHand), errors.Is(err, game.ErrNoHand):
		writeError(w, http.StatusConflict, "nothing_to_resume")
	default:
		writeError(w, http.StatusInternalServerError, "resume_failed")
	}
}

// -----------------------------------------------------------------------------
// seats

type claimReq struct {
	Passcode string `json:"passcode"`
}

type claimRes struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Seat      game.Seat `json:"seat"`
	Position  string    `json:"position"`
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTable(w, r)
	if !ok {
		return
	}
	seat, err := seatParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_seat")
		return
	}
	if t.Roster()[seat].Kind != game.KindHuman {
		writeError(w, http.StatusBadRequest, "not_human_seat")
		return
	}
	var req claimReq
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_json")
			return
		}
	}
	if !t.CheckPasscode(req.Passcode) {
		writeError(w, http.StatusUnauthorized, "bad_passcode")
		return
	}
	tok, exp, err := s.signSeatToken(t.ID, seat)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	writeJSON(w, http.StatusOK, claimRes{Token: tok, ExpiresAt: exp, Seat: seat, Position: seat.Position()})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTable(w, r)
	if !ok {
		return
	}
	seat, _ := authSeat(r)
	v, err := t.View(seat)
	if errors.Is(err, game.ErrNoHand) {
		writeError(w, http.StatusConflict, "no_hand")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type moveReq struct {
	Move game.Move `json:"move"`
}

type moveErrRes struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
	Move   string `json:"move"`
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	t, ok := s.loadTable(w, r)
	if !ok {
		return
	}
	seat, _ := authSeat(r)
	var req moveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_move")
		return
	}

	err := t.Submit(seat, req.Move)
	var ime *game.IllegalMoveError
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]string{"move": req.Move.String()})
	case errors.As(err, &ime):
		writeJSON(w, http.StatusConflict, moveErrRes{Error: "illegal_move", Reason: ime.Reason, Move: ime.Move.String()})
	case errors.Is(err, table.ErrNotHumanSeat):
		writeError(w, http.StatusBadRequest, "not_human_seat")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
