// internal/archive/sqlite.go
//
// SQLite archive backend (default).
// Responsibilities:
//   - Open the database file with WAL, busy timeout and foreign keys.
//   - Apply the embedded sqlite migrations once each, tracked in _migrations.
//   - Store and list completed hands.

package archive

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pidro/assets"
	"github.com/robalobadob/pidro/internal/cards"
	"github.com/robalobadob/pidro/internal/game"
)

type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the database at path and
// migrates it. path may be ":memory:".
func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	migrations, err := assets.Migrations("sqlite")
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrate(ctx, db, migrations); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteRepository{db: db}, nil
}

func openDB(dsn string) (*sql.DB, error) {
	// Ensure directory exists for ./data/pidro.db, etc.
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	// One connection: writes are serialised anyway and ":memory:" is per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

// migrate applies every *.sql file of migrations in lexical order, each in
// its own transaction, skipping files already recorded in _migrations.
func migrate(ctx context.Context, db *sql.DB, migrations fs.FS) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	var files []string
	if err := fs.WalkDir(migrations, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".sql") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("walk migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRowContext(ctx, `SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("query _migrations: %w", err)
		}

		sqlBytes, err := fs.ReadFile(migrations, f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

// SaveHand inserts r. Saving the same (table, hand) twice is a no-op.
func (r *SQLiteRepository) SaveHand(ctx context.Context, rec Record) error {
	data, err := encodePayload(rec)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO hands
            (table_id, hand, dealer, bidder, bid, trump, points_ns, points_ew,
             total_ns, total_ew, made, payload, completed_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TableID.String(), rec.Hand, int(rec.Dealer), int(rec.Round.Bidder), rec.Round.Bid,
		rec.Trump.String(), rec.Round.Points[0], rec.Round.Points[1],
		rec.Totals[0], rec.Totals[1], rec.Round.Made, data,
		rec.CompletedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert hand: %v", err)
	}
	return nil
}

func (r *SQLiteRepository) ListHands(ctx context.Context, tableID uuid.UUID, limit int) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT hand, dealer, trump, total_ns, total_ew, payload, completed_at
        FROM hands
        WHERE table_id=?
        ORDER BY hand DESC
        LIMIT ?`, tableID.String(), defaultLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query hands: %v", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec := Record{TableID: tableID}
		var (
			dealer    int
			trump     string
			data      []byte
			completed string
		)
		if err := rows.Scan(&rec.Hand, &dealer, &trump, &rec.Totals[0], &rec.Totals[1], &data, &completed); err != nil {
			return nil, fmt.Errorf("failed to scan hand: %v", err)
		}
		rec.Dealer = game.Seat(dealer)
		if rec.Trump, err = cards.ParseSuit(trump); err != nil {
			return nil, err
		}
		if rec.CompletedAt, err = time.Parse(time.RFC3339Nano, completed); err != nil {
			return nil, fmt.Errorf("hand %d: completed_at: %w", rec.Hand, err)
		}
		if err := decodePayload(data, &rec); err != nil {
			return nil, fmt.Errorf("hand %d: %w", rec.Hand, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
