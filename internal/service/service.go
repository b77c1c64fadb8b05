package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"award-seat-alerts/internal/alerting"
	"award-seat-alerts/internal/config"
	"award-seat-alerts/internal/history"
	"award-seat-alerts/internal/pipeline"
	"award-seat-alerts/internal/provider"
	"award-seat-alerts/internal/scheduler"
	"award-seat-alerts/internal/state"
)

// Outcome reports how a poll cycle ended.
type Outcome string

const (
	// OutcomeCompleted means the full dataset was fetched and processed.
	OutcomeCompleted Outcome = "completed"
	// OutcomeCompletedPartial means a transient failure truncated the
	// dataset; gathered records were still processed.
	OutcomeCompletedPartial Outcome = "completed_partial"
	// OutcomeAborted means a fatal error stopped the cycle before any
	// notification was considered.
	OutcomeAborted Outcome = "aborted"
)

// Searcher runs one full paginated availability search.
type Searcher interface {
	Search(ctx context.Context, q provider.SearchQuery) (*provider.SearchResult, error)
}

// CycleResult summarises one poll cycle for the operator.
type CycleResult struct {
	CycleID    string
	Outcome    Outcome
	Pages      int
	Fetched    int
	Candidates int
	Alerted    []alerting.Alert
	Errors     []string
}

// Service orchestrates one poll cycle: fetch, paginate, dedupe,
// filter, gate against cooldown, notify.
type Service struct {
	scheduler *scheduler.Scheduler
	searcher  Searcher
	criteria  pipeline.Criteria
	signer    *pipeline.Signer
	store     *state.Store
	notifier  alerting.Notifier
	journal   *history.Journal
	logger    zerolog.Logger

	query     provider.SearchQuery
	cooldown  time.Duration
	retention time.Duration
}

// New constructs the watch service.
func New(cfg *config.Config, sched *scheduler.Scheduler, searcher Searcher, criteria pipeline.Criteria, signer *pipeline.Signer, store *state.Store, notifier alerting.Notifier, journal *history.Journal, logger zerolog.Logger) *Service {
	return &Service{
		scheduler: sched,
		searcher:  searcher,
		criteria:  criteria,
		signer:    signer,
		store:     store,
		notifier:  notifier,
		journal:   journal,
		logger:    logger.With().Str("component", "service").Logger(),
		query: provider.SearchQuery{
			Origin:      cfg.Watch.Origin,
			Destination: cfg.Watch.Destination,
			StartDate:   cfg.Watch.StartDate,
			EndDate:     cfg.EffectiveEndDate(),
			Cabin:       cfg.Watch.Cabin,
			Sources:     cfg.Watch.Sources,
			PageSize:    cfg.Provider.PageSize,
		},
		cooldown:  cfg.State.Cooldown,
		retention: cfg.State.Retention,
	}
}

// Run begins the scheduled polling loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return errors.New("scheduler not configured")
	}
	return s.scheduler.Run(ctx, func(ctx context.Context, tick time.Time) error {
		_, err := s.RunCycle(ctx, tick)
		return err
	})
}

// RunCycle executes one poll cycle. The cooldown store is held
// exclusively for the whole cycle and released on every exit path. A
// summary is always produced, even on abort; the returned error is
// non-nil only for aborted cycles.
func (s *Service) RunCycle(ctx context.Context, now time.Time) (*CycleResult, error) {
	cycleID := uuid.NewString()
	logger := s.logger.With().Str("cycle_id", cycleID).Logger()

	result := &CycleResult{CycleID: cycleID, Outcome: OutcomeCompleted}

	release := s.store.Acquire()
	defer release()

	search, err := s.searcher.Search(ctx, s.query)
	if err != nil {
		result.Outcome = OutcomeAborted
		result.Errors = append(result.Errors, err.Error())
		s.finishCycle(logger, now, result)
		return result, err
	}
	if search.Partial {
		result.Outcome = OutcomeCompletedPartial
		if search.Err != nil {
			result.Errors = append(result.Errors, search.Err.Error())
		}
	}
	result.Pages = search.Pages
	result.Fetched = len(search.Records)

	deduped := pipeline.Dedupe(search.Records)
	logger.Debug().
		Int("fetched", result.Fetched).
		Int("deduped", len(deduped)).
		Msg("dedupe complete")

	candidates := deduped[:0:0]
	for _, rec := range deduped {
		if s.criteria(rec) {
			candidates = append(candidates, rec)
		}
	}
	result.Candidates = len(candidates)

	for _, rec := range candidates {
		sig := string(s.signer.Sign(rec))
		if s.store.InCooldown(sig, now, s.cooldown) {
			logger.Debug().Str("signature", sig).Msg("suppressed by cooldown")
			continue
		}

		alert := buildAlert(rec, sig, cycleID)

		// Dispatch before persisting: an occasional duplicate alert is
		// preferred over a missed one. A failed dispatch leaves the
		// signature unrecorded so the offer re-alerts next cycle.
		if s.notifier != nil {
			if err := s.notifier.Notify(ctx, alert); err != nil {
				logger.Error().Err(err).Str("signature", sig).Msg("failed to dispatch alert")
				result.Errors = append(result.Errors, "sink: "+err.Error())
				continue
			}
		}
		if err := s.store.RecordAlert(sig, now); err != nil {
			logger.Error().Err(err).Str("signature", sig).Msg("alert sent but cooldown record failed")
			result.Errors = append(result.Errors, "state: "+err.Error())
		}
		result.Alerted = append(result.Alerted, alert)
	}

	if removed, err := s.store.Prune(now, s.cooldown, s.retention); err != nil {
		logger.Error().Err(err).Msg("cooldown prune failed")
		result.Errors = append(result.Errors, "state: "+err.Error())
	} else if removed > 0 {
		logger.Debug().Int("removed", removed).Msg("pruned expired cooldown entries")
	}

	s.finishCycle(logger, now, result)
	return result, nil
}

// finishCycle emits the cycle summary and appends the history record.
func (s *Service) finishCycle(logger zerolog.Logger, now time.Time, result *CycleResult) {
	logger.Info().
		Str("outcome", string(result.Outcome)).
		Int("pages", result.Pages).
		Int("fetched", result.Fetched).
		Int("candidates", result.Candidates).
		Int("alerted", len(result.Alerted)).
		Strs("errors", result.Errors).
		Msg("poll cycle finished")

	if s.journal == nil {
		return
	}
	rec := history.CycleRecord{
		Time:          now.UTC(),
		CycleID:       result.CycleID,
		Outcome:       string(result.Outcome),
		Pages:         result.Pages,
		Fetched:       result.Fetched,
		Candidates:    result.Candidates,
		Alerted:       len(result.Alerted),
		LowestMileage: lowestMileage(result.Alerted),
		Errors:        result.Errors,
	}
	if err := s.journal.Append(rec); err != nil {
		logger.Warn().Err(err).Msg("failed to append cycle history")
	}
}

func buildAlert(rec provider.Availability, sig, cycleID string) alerting.Alert {
	return alerting.Alert{
		Origin:         rec.Origin,
		Destination:    rec.Destination,
		Date:           rec.Date,
		Cabin:          rec.Cabin,
		Source:         rec.Source,
		MileageCost:    rec.MileageCost,
		Taxes:          rec.Taxes,
		TaxesCurrency:  rec.TaxesCurrency,
		RemainingSeats: rec.RemainingSeats,
		Signature:      sig,
		CycleID:        cycleID,
	}
}

func lowestMileage(alerts []alerting.Alert) *int {
	var lowest *int
	for _, a := range alerts {
		if a.MileageCost == nil {
			continue
		}
		if lowest == nil || *a.MileageCost < *lowest {
			v := *a.MileageCost
			lowest = &v
		}
	}
	return lowest
}
