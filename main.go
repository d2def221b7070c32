package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pidro/internal/archive"
	"github.com/robalobadob/pidro/internal/config"
	"github.com/robalobadob/pidro/internal/httpserver"
	"github.com/robalobadob/pidro/internal/provider"
	"github.com/robalobadob/pidro/internal/store"
	"github.com/robalobadob/pidro/internal/table"
	"github.com/robalobadob/pidro/internal/workers"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := archive.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open hand archive")
	}
	defer repo.Close(context.Background())

	records := make(chan archive.Record, 64)
	worker := workers.NewArchiveWorker(workers.NewArchiveWorkerOptions{
		Repository: repo,
		RecordChan: records,
		Interval:   30 * time.Second,
	})
	go worker.Start(ctx)

	backends, err := buildBackends(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up AI backends")
	}

	mem := store.NewMemoryStore()
	defer mem.Close()

	srv := httpserver.New(httpserver.Options{
		Store: mem,
		Factory: &table.Factory{
			DefaultSeats:     cfg.Seats,
			Backends:         backends,
			Policy:           cfg.AIPolicy,
			MatchTarget:      cfg.MatchTarget,
			DealSalt:         cfg.DealSalt,
			Archive:          records,
			StrictInvariants: cfg.StrictInvariants,
		},
		Archive:      repo,
		JWTSecret:    cfg.JWTSecret,
		ClientOrigin: cfg.ClientOrigin,
		AIDefault:    cfg.AIDefault,
	})

	hs := &http.Server{Addr: ":" + cfg.Port, Handler: srv.Router()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdownCtx)
	}()

	log.Info().Str("port", cfg.Port).Str("seats", seatsSummary(cfg)).Msg("starting pidro server")
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

// buildBackends registers every AI backend. Cloud backends without an API key
// are still registered; their seats play fallback moves.
func buildBackends(cfg config.Config) (map[string]provider.Backend, error) {
	script := ""
	if cfg.LuaBotScript != "" {
		b, err := os.ReadFile(cfg.LuaBotScript)
		if err != nil {
			return nil, err
		}
		script = string(b)
	}
	if cfg.OpenAIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY not set; openai seats will play fallback moves")
	}
	if cfg.AnthropicKey == "" {
		log.Warn().Msg("ANTHROPIC_API_KEY not set; anthropic seats will play fallback moves")
	}

	backends := []provider.Backend{
		provider.NewOpenAI(provider.OpenAIOptions{APIKey: cfg.OpenAIKey, BaseURL: cfg.OpenAIBaseURL, Model: cfg.OpenAIModel}),
		provider.NewAnthropic(provider.AnthropicOptions{APIKey: cfg.AnthropicKey, BaseURL: cfg.AnthropicBaseURL, Model: cfg.AnthropicModel}),
		provider.NewLua(script),
	}
	out := make(map[string]provider.Backend, len(backends))
	for _, b := range backends {
		out[b.Name()] = b
	}
	return out, nil
}

func seatsSummary(cfg config.Config) string {
	s := ""
	for i, p := range cfg.Seats {
		if i > 0 {
			s += ","
		}
		if p.AI != nil {
			s += p.AI.Provider
		} else {
			s += string(p.Kind)
		}
	}
	return s
}
