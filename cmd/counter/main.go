// Command counter runs the handler-side counter terminal. It polls the admin
// token listing for its own view of the queue and drives the call-next /
// update-status endpoints from simple stdin commands.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/token-queue-service/internal/api/dto"
	"github.com/spec-kit/token-queue-service/internal/client"
	"github.com/spec-kit/token-queue-service/internal/config"
	"github.com/spec-kit/token-queue-service/internal/domain"
	"github.com/spec-kit/token-queue-service/internal/observability"
	"github.com/spec-kit/token-queue-service/internal/prefs"
	"github.com/spec-kit/token-queue-service/internal/reconcile"
)

// counterView is what the terminal shows between commands: the token this
// counter is currently serving plus the length of the pending queue.
type counterView struct {
	current      *dto.TokenView
	pendingCount int
}

func main() {
	counterFlag := flag.String("counter", "", "counter name to serve from (persisted for next run)")
	flag.Parse()

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

	counterName := store.Prefs().CounterName
	if *counterFlag != "" {
		counterName = *counterFlag
		if err := store.SetCounterName(counterName); err != nil {
			logger.Warn("failed to persist counter name", zap.Error(err))
		}
	}
	if counterName == "" {
		log.Fatal("no counter name configured; pass -counter on the first run")
	}

	api := client.New(cfg.Terminal.APIBaseURL, cfg.Terminal.APIToken, cfg.App.RequestTimeout())

	term := &terminal{
		api:     api,
		counter: counterName,
		logger:  logger,
	}

	loop := reconcile.NewLoop(cfg.Terminal.PollInterval(), term.fetch, term.apply, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go loop.Run(ctx)

	fmt.Printf("counter terminal: %s\n", counterName)
	fmt.Println("commands: n = call next, s = mark served, x = mark no-show, q = quit")
	term.repl(ctx, cancel)
}

type terminal struct {
	api     *client.Client
	counter string
	logger  *zap.Logger

	mu   sync.Mutex
	view counterView
}

// fetch derives the counter view from the admin listing. Two pages: the
// called tokens (to find this counter's current one) and the pending count.
func (t *terminal) fetch(ctx context.Context) (counterView, error) {
	called, err := t.api.ListTokens(ctx, 1, 50, "", string(domain.StatusCalled))
	if err != nil {
		return counterView{}, err
	}
	pending, err := t.api.ListTokens(ctx, 1, 1, "", string(domain.StatusPending))
	if err != nil {
		return counterView{}, err
	}

	view := counterView{pendingCount: pending.TotalCount}
	for i := range called.Tokens {
		if called.Tokens[i].CounterName == t.counter {
			view.current = &called.Tokens[i]
			break
		}
	}
	return view, nil
}

func (t *terminal) apply(view counterView) {
	t.mu.Lock()
	changed := !sameView(t.view, view)
	t.view = view
	t.mu.Unlock()

	if changed {
		t.printView(view)
	}
}

func sameView(a, b counterView) bool {
	if a.pendingCount != b.pendingCount {
		return false
	}
	if (a.current == nil) != (b.current == nil) {
		return false
	}
	if a.current != nil && a.current.TokenGuid != b.current.TokenGuid {
		return false
	}
	return true
}

func (t *terminal) printView(view counterView) {
	if view.current != nil {
		fmt.Printf("\n[%s] serving token %d (%s), %d pending\n> ",
			t.counter, view.current.TokenNumber, view.current.FullName, view.pendingCount)
		return
	}
	fmt.Printf("\n[%s] idle, %d pending\n> ", t.counter, view.pendingCount)
}

func (t *terminal) repl(ctx context.Context, cancel context.CancelFunc) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		switch strings.TrimSpace(scanner.Text()) {
		case "n":
			t.callNext(ctx)
		case "s":
			t.resolve(ctx, domain.StatusServed)
		case "x":
			t.resolve(ctx, domain.StatusNoShow)
		case "q":
			cancel()
			return
		case "":
		default:
			fmt.Println("commands: n = call next, s = mark served, x = mark no-show, q = quit")
		}
		fmt.Print("> ")
	}
	cancel()
}

func (t *terminal) callNext(ctx context.Context) {
	t.mu.Lock()
	current := t.view.current
	t.mu.Unlock()
	if current != nil {
		fmt.Printf("token %d is still being served; mark it s or x first\n", current.TokenNumber)
		return
	}

	resp, err := t.api.CallNext(ctx, t.counter)
	if err != nil {
		fmt.Printf("call-next failed: %v\n", err)
		return
	}
	if !resp.Success {
		fmt.Println(resp.Message)
		return
	}

	fmt.Printf("called token %d: %s (%s)\n", resp.TokenNumber, resp.FullName, resp.Purpose)

	t.mu.Lock()
	t.view.current = &dto.TokenView{
		TokenGuid:   resp.TokenGuid,
		TokenNumber: resp.TokenNumber,
		FullName:    resp.FullName,
		Purpose:     resp.Purpose,
		CounterName: t.counter,
		Status:      string(domain.StatusCalled),
	}
	t.mu.Unlock()
}

func (t *terminal) resolve(ctx context.Context, status domain.Status) {
	t.mu.Lock()
	current := t.view.current
	t.mu.Unlock()

	if current == nil {
		fmt.Println("no token is being served at this counter")
		return
	}

	if err := t.api.UpdateStatus(ctx, current.TokenGuid, string(status), t.counter); err != nil {
		fmt.Printf("update-status failed: %v\n", err)
		return
	}
	fmt.Printf("token %d marked %s\n", current.TokenNumber, status)

	t.mu.Lock()
	t.view.current = nil
	t.mu.Unlock()
}
