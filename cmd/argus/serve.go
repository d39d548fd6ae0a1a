package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"argus/internal/agent"
	"argus/internal/casestore"
	"argus/internal/config"
	"argus/internal/domain"
	"argus/internal/gateway"
	"argus/internal/scheduler"
	"argus/internal/signals"
	"argus/internal/tooling"
)

// serveShutdownCh is set by tests to unblock runServe without signals.
var serveShutdownCh <-chan struct{}

// switchableAsker lets a config reload swap in a freshly wired service while
// gateway connections keep a stable handle.
type switchableAsker struct {
	current atomic.Pointer[agent.Service]
}

func (s *switchableAsker) Ask(ctx context.Context, caseName, input, imagePath string) domain.RunResult {
	return s.current.Load().Ask(ctx, caseName, input, imagePath)
}

func (s *switchableAsker) Abort(caseName string) {
	s.current.Load().Abort(caseName)
}

// closeStoreFunc is an injection point for tests observing reload cleanup.
var closeStoreFunc = func(store *casestore.Store) error { return store.Close() }

// appSwitcher owns the live app wiring. A reload swaps in the rebuilt app and
// closes the replaced store's cached sqlite handles once the asker points at
// the new service.
type appSwitcher struct {
	asker *switchableAsker

	mu   sync.Mutex
	live *app
}

func newAppSwitcher(a *app) *appSwitcher {
	s := &appSwitcher{asker: &switchableAsker{}, live: a}
	s.asker.current.Store(a.service)
	return s
}

func (s *appSwitcher) swap(next *app) {
	s.asker.current.Store(next.service)
	s.mu.Lock()
	old := s.live
	s.live = next
	s.mu.Unlock()
	if err := closeStoreFunc(old.store); err != nil {
		next.logger.Warn("closing replaced store failed", "error", err)
	}
}

func (s *appSwitcher) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return closeStoreFunc(s.live.store)
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the websocket gateway and watch scheduler",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfgPath := configPath(cmd)
	cfg := loadConfig(cfgPath)

	hub := gateway.NewHub(nil)
	a, err := buildApp(cfg, hub)
	if err != nil {
		return err
	}
	logger := a.logger

	switcher := newAppSwitcher(a)
	defer switcher.close()
	asker := switcher.asker

	// Config edits take effect without a restart; a reload that fails to wire
	// keeps the running service.
	watcher := config.NewWatcher(cfgPath, logger)
	if err := watcher.Start(func(next *domain.Config) {
		rebuilt, err := buildApp(next, hub)
		if err != nil {
			logger.Warn("reload wiring failed, keeping previous service", "error", err)
			return
		}
		switcher.swap(rebuilt)
	}); err != nil {
		logger.Warn("config watcher unavailable", "error", err)
	} else {
		defer watcher.Stop()
	}

	// Recurring lookups run against the lookup registry so watches may also
	// use the VirusTotal tool.
	lookupReg, err := tooling.LookupRegistry(cfg, a.store)
	if err != nil {
		return err
	}
	sched := scheduler.NewScheduler(
		scheduler.NewRobfigCronEngine(),
		scheduler.NewToolHandler(lookupReg, hub),
		scheduler.WithLogger(logger),
	)
	jobs, err := scheduler.LoadJobs(watchFilePath(cfg))
	if err != nil {
		logger.Warn("watch definitions unreadable", "error", err)
	}
	for _, job := range jobs {
		if err := sched.AddJob(job); err != nil {
			logger.Warn("watch registration failed", "job", job.ID, "error", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	srv, err := gateway.NewServer(&cfg.Gateway, hub, asker, logger)
	if err != nil {
		return err
	}
	gatewayShutdown := make(chan struct{})
	go func() {
		_ = srv.Run(gatewayShutdown)
	}()

	var bound string
	for i := 0; i < 50; i++ {
		if addr := srv.Addr(); addr != "" {
			bound = addr
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if bound == "" {
		close(gatewayShutdown)
		if err := srv.ListenErr(); err != nil {
			return fmt.Errorf("gateway failed to bind: %w", err)
		}
		return fmt.Errorf("gateway failed to bind (check port or permissions)")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", bound)

	if serveShutdownCh != nil {
		<-serveShutdownCh
	} else {
		waitForShutdownSignal()
	}
	close(gatewayShutdown)
	return nil
}

func waitForShutdownSignal() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals.ShutdownSignals()...)
	<-ch
}

func watchFilePath(cfg *domain.Config) string {
	return filepath.Join(cfg.DataDir, "watches.json")
}
