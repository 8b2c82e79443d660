// Command display runs the waiting-room display terminal. It polls the
// public display-status endpoint, renders the board to stdout and announces
// each newly called token exactly once, surviving restarts via the prefs
// file.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/spec-kit/token-queue-service/internal/announce"
	"github.com/spec-kit/token-queue-service/internal/api/dto"
	"github.com/spec-kit/token-queue-service/internal/client"
	"github.com/spec-kit/token-queue-service/internal/config"
	"github.com/spec-kit/token-queue-service/internal/observability"
	"github.com/spec-kit/token-queue-service/internal/prefs"
	"github.com/spec-kit/token-queue-service/internal/reconcile"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	store, err := prefs.Open(cfg.Terminal.PrefsPath)
	if err != nil {
		logger.Fatal("failed to open prefs file", zap.String("path", cfg.Terminal.PrefsPath), zap.Error(err))
	}

	api := client.New(cfg.Terminal.APIBaseURL, "", cfg.App.RequestTimeout())

	announcer := buildAnnouncer(cfg.Terminal.SpeechCommand, logger)
	dedup := announce.NewDeduplicator(store.Prefs().LastAnnouncedTokenID, announcer, func(tokenID string) {
		if err := store.SetLastAnnouncedTokenID(tokenID); err != nil {
			logger.Warn("failed to persist last announced token", zap.Error(err))
		}
	})

	loop := reconcile.NewLoop(cfg.Terminal.PollInterval(),
		func(ctx context.Context) (*dto.DisplayStatusResponse, error) {
			return api.DisplayStatus(ctx)
		},
		func(snapshot *dto.DisplayStatusResponse) {
			render(snapshot)
			dedup.MaybeAnnounce(toAnnouncement(snapshot.NowServing))
		},
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	logger.Info("display terminal started",
		zap.String("api", cfg.Terminal.APIBaseURL),
		zap.Duration("poll_interval", cfg.Terminal.PollInterval()),
	)
	loop.Run(ctx)
}

func buildAnnouncer(speechCommand string, logger *zap.Logger) announce.Announcer {
	logAnnouncer := announce.LogAnnouncer{Logger: logger}
	if speechCommand == "" {
		return logAnnouncer
	}
	return announce.MultiAnnouncer{
		logAnnouncer,
		announce.SpeechAnnouncer{Command: speechCommand, Logger: logger},
	}
}

func toAnnouncement(view *dto.TokenView) *announce.Announcement {
	if view == nil {
		return nil
	}
	return &announce.Announcement{
		TokenID:     view.TokenGuid,
		TokenNumber: view.TokenNumber,
		CounterName: view.CounterName,
	}
}

func render(snapshot *dto.DisplayStatusResponse) {
	var b strings.Builder

	b.WriteString("\n==== NOW SERVING ====\n")
	if snapshot.NowServing != nil {
		fmt.Fprintf(&b, "  Token %d", snapshot.NowServing.TokenNumber)
		if snapshot.NowServing.CounterName != "" {
			fmt.Fprintf(&b, "  ->  %s", snapshot.NowServing.CounterName)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("  -\n")
	}

	b.WriteString("==== UP NEXT ========\n")
	if len(snapshot.Queue) == 0 {
		b.WriteString("  queue is empty\n")
	}
	for _, token := range snapshot.Queue {
		fmt.Fprintf(&b, "  %4d  %s\n", token.TokenNumber, token.FullName)
	}

	fmt.Print(b.String())
}
