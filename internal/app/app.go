package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"award-seat-alerts/internal/alerting"
	"award-seat-alerts/internal/config"
	"award-seat-alerts/internal/history"
	"award-seat-alerts/internal/pipeline"
	"award-seat-alerts/internal/provider"
	"award-seat-alerts/internal/scheduler"
	"award-seat-alerts/internal/service"
	"award-seat-alerts/internal/state"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newClient() *provider.Client {
	return provider.NewClient(provider.Options{
		BaseURL:      a.Config.Provider.BaseURL,
		APIKey:       a.Config.Provider.APIKey,
		UserAgent:    a.Config.Provider.UserAgent,
		Timeout:      a.Config.Provider.RequestTimeout,
		MaxRetries:   a.Config.Provider.MaxRetries,
		RetryBackoff: a.Config.Provider.RetryBackoff,
		MinInterval:  a.Config.Provider.MinInterval,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Enabled && a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) newJournal() *history.Journal {
	if !a.Config.History.Enabled {
		return nil
	}
	return history.NewJournal(a.Config.History.Path, a.Logger)
}

func (a *App) openStore() (*state.Store, error) {
	return state.Open(a.Config.State.Path, a.Logger)
}

// newService wires the poll-cycle pipeline around the given searcher.
func (a *App) newService(sched *scheduler.Scheduler, searcher service.Searcher, store *state.Store, notifier alerting.Notifier) *service.Service {
	criteria := pipeline.BuildCriteria(a.Config.Watch.Filters)
	signer := pipeline.NewSigner(a.Config.State.Signature)
	return service.New(a.Config, sched, searcher, criteria, signer, store, notifier, a.newJournal(), a.Logger)
}

// Run executes the long-running watch service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := a.openStore()
	if err != nil {
		return err
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToStart: a.Config.Scheduler.AlignToBucket,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	notifier := a.newNotifier()
	if notifier == nil {
		a.Logger.Warn().Msg("alerting disabled; qualifying offers will only be recorded")
	}

	svc := a.newService(sched, a.newClient(), store, notifier)

	a.Logger.Info().
		Str("route", a.Config.Watch.Origin+"-"+a.Config.Watch.Destination).
		Str("cabin", a.Config.Watch.Cabin).
		Msg("starting watch service")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("watch service terminated with error")
		return err
	}

	a.Logger.Info().Msg("watch service stopped")
	return nil
}

// Check runs exactly one poll cycle and returns its result.
func (a *App) Check(ctx context.Context) (*service.CycleResult, error) {
	store, err := a.openStore()
	if err != nil {
		return nil, err
	}

	svc := a.newService(nil, a.newClient(), store, a.newNotifier())
	return svc.RunCycle(ctx, time.Now().UTC())
}

// ExportOptions hold parameters for exporting cycle history.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// StateShowOptions configure the state show command.
type StateShowOptions struct {
	Limit int
}
