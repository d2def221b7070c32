package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/robalobadob/pidro/internal/game"
)

// seatClaims authorise one human seat at one table.
type seatClaims struct {
	Table string `json:"table"`
	Seat  int    `json:"seat"`
	jwt.RegisteredClaims
}

type ctxSeatKey struct{}

// signSeatToken creates an HS256 token for seat at table.
func (s *Server) signSeatToken(table uuid.UUID, seat game.Seat) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.tokenTTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, seatClaims{
		Table: table.String(),
		Seat:  int(seat),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	ss, err := t.SignedString(s.secret)
	return ss, exp, err
}

// bearer extracts a bearer token from the Authorization header.
func bearer(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	return ""
}

// requireSeat enforces a valid seat token matching the {id} and {seat}
// URL parameters.
func (s *Server) requireSeat() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearer(r)
			if tokenStr == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			claims := &seatClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				return s.secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			id, err := tableID(r)
			if err != nil {
				writeError(w, http.StatusNotFound, "not_found")
				return
			}
			seat, err := seatParam(r)
			if err != nil {
				writeError(w, http.StatusBadRequest, "bad_seat")
				return
			}
			if claims.Table != id.String() || game.Seat(claims.Seat) != seat {
				writeError(w, http.StatusForbidden, "wrong_seat")
				return
			}
			ctx := context.WithValue(r.Context(), ctxSeatKey{}, seat)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authSeat returns the seat placed in the context by requireSeat.
func authSeat(r *http.Request) (game.Seat, bool) {
	seat, ok := r.Context().Value(ctxSeatKey{}).(game.Seat)
	return seat, ok
}
