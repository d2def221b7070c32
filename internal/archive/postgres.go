package archive

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pidro/assets"
	"github.com/robalobadob/pidro/internal/cards"
	"github.com/robalobadob/pidro/internal/game"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects to connStr and applies the postgres schema.
// The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	var username, database string
	if err := pool.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to query database: %v", err)
	}
	log.Info().Str("database", database).Str("user", username).Msg("archive connected")

	migrations, err := assets.Migrations("postgres")
	if err != nil {
		pool.Close()
		return nil, err
	}
	sqlText, err := fs.ReadFile(migrations, "001_hands.sql")
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("read schema: %v", err)
	}
	if _, err := pool.Exec(ctx, string(sqlText)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %v", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) SaveHand(ctx context.Context, rec Record) error {
	data, err := encodePayload(rec)
	if err != nil {
		return err
	}
	q := `
	INSERT INTO hands (table_id, hand, dealer, bidder, bid, trump, points_ns, points_ew,
	                   total_ns, total_ew, made, payload, completed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (table_id, hand) DO NOTHING;
	`
	_, err = r.pool.Exec(ctx, q,
		rec.TableID, rec.Hand, int16(rec.Dealer), int16(rec.Round.Bidder), int16(rec.Round.Bid),
		rec.Trump.String(), rec.Round.Points[0], rec.Round.Points[1],
		rec.Totals[0], rec.Totals[1], rec.Round.Made, data, rec.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert hand: %v", err)
	}
	return nil
}

func (r *PostgresRepository) ListHands(ctx context.Context, tableID uuid.UUID, limit int) ([]Record, error) {
	rows, err := r.pool.Query(ctx, `
	SELECT hand, dealer, trump, total_ns, total_ew, payload, completed_at
	FROM hands WHERE table_id = $1 ORDER BY hand DESC LIMIT $2;
	`, tableID, defaultLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query hands: %v", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec := Record{TableID: tableID}
		var (
			dealer int16
			trump  string
			data   []byte
		)
		if err := rows.Scan(&rec.Hand, &dealer, &trump, &rec.Totals[0], &rec.Totals[1], &data, &rec.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan hand: %v", err)
		}
		rec.Dealer = game.Seat(dealer)
		if rec.Trump, err = cards.ParseSuit(trump); err != nil {
			return nil, err
		}
		if err := decodePayload(data, &rec); err != nil {
			return nil, fmt.Errorf("hand %d: %w", rec.Hand, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
