// Package blackout merges the configured blackout sources (fixed dates,
// RRULE strings and ICS feeds) into the day list the constraint validator
// checks against.
package blackout

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"tzpick/internal/config"
	"tzpick/internal/constraint"
	"tzpick/internal/ics"
	appLog "tzpick/internal/log"
	"tzpick/internal/model"
)

const defaultHorizonDays = 366

// Options configures a Store.
type Options struct {
	// Base is the static constraint set; its BlackoutDates are always kept.
	Base constraint.Constraints

	Rules []string
	Feeds []ics.Source

	// HorizonDays is how far before and after today rules and feeds are
	// expanded.
	HorizonDays int

	// Location decides "today" and the days timed feed events fall on.
	Location *time.Location

	// Fetcher is required when Feeds is non-empty.
	Fetcher *ics.Fetcher

	// Now defaults to time.Now.
	Now func() time.Time
}

// Store holds the expanded blackout days. It is safe for concurrent use;
// readers see the snapshot of the last Refresh.
type Store struct {
	opts Options

	mu        sync.RWMutex
	ruleDays  []model.Date
	feedDays  map[string][]model.Date // last good expansion per feed ID
	refreshed time.Time
}

// NewStore validates the rules and returns an empty store. Call Refresh
// to populate it.
func NewStore(opts Options) (*Store, error) {
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = defaultHorizonDays
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if len(opts.Feeds) > 0 && opts.Fetcher == nil {
		return nil, errors.New("blackout: feeds configured without a fetcher")
	}

	probe := ics.Window{From: model.NewDate(2000, time.January, 1), To: model.NewDate(2000, time.January, 1)}
	for _, rule := range opts.Rules {
		if _, err := ics.ExpandRule(rule, probe); err != nil {
			return nil, fmt.Errorf("blackout: %w", err)
		}
	}

	return &Store{
		opts:     opts,
		feedDays: make(map[string][]model.Date),
	}, nil
}

// FromConfig builds a Store from the constraints section of cfg.
func FromConfig(cfg *config.Config, loc *time.Location, fetcher *ics.Fetcher) (*Store, error) {
	base, err := cfg.PickerConstraints()
	if err != nil {
		return nil, err
	}
	feeds := make([]ics.Source, 0, len(cfg.Constraints.BlackoutFeeds))
	for _, f := range cfg.Constraints.BlackoutFeeds {
		if f.URL == "" {
			continue
		}
		feeds = append(feeds, ics.Source{ID: f.ID, URL: f.URL})
	}
	return NewStore(Options{
		Base:        base,
		Rules:       cfg.Constraints.BlackoutRules,
		Feeds:       feeds,
		HorizonDays: cfg.HorizonDays,
		Location:    loc,
		Fetcher:     fetcher,
	})
}

// Window is the span of days rules and feeds are expanded over.
func (s *Store) Window() ics.Window {
	today := model.DateOf(s.opts.Now().In(s.opts.Location))
	return ics.Window{
		From:     today.AddDays(-s.opts.HorizonDays),
		To:       today.AddDays(s.opts.HorizonDays),
		Location: s.opts.Location,
	}
}

// Refresh re-expands the rules and re-fetches every feed. A feed that
// fails keeps its previous days; the returned error joins all failures.
func (s *Store) Refresh(ctx context.Context) error {
	w := s.Window()
	var errs []error

	var ruleDays []model.Date
	for _, rule := range s.opts.Rules {
		days, err := ics.ExpandRule(rule, w)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ruleDays = append(ruleDays, days...)
	}

	fresh := make(map[string][]model.Date, len(s.opts.Feeds))
	if len(s.opts.Feeds) > 0 {
		results, fetchErrs := s.opts.Fetcher.FetchAll(ctx, s.opts.Feeds)
		errs = append(errs, fetchErrs...)
		for _, res := range results {
			events, err := ics.ParseICS(res.Source, res.Body)
			if err != nil {
				errs = append(errs, fmt.Errorf("blackout: parse %s: %w", res.Source.ID, err))
				continue
			}
			days, err := ics.ExpandDays(events, w)
			if err != nil {
				errs = append(errs, fmt.Errorf("blackout: expand %s: %w", res.Source.ID, err))
				continue
			}
			fresh[res.Source.ID] = days
		}
	}

	s.mu.Lock()
	s.ruleDays = sortDays(ruleDays)
	for id, days := range fresh {
		s.feedDays[id] = days
	}
	s.refreshed = s.opts.Now()
	total := len(s.ruleDays)
	for _, days := range s.feedDays {
		total += len(days)
	}
	s.mu.Unlock()

	err := errors.Join(errs...)
	if err != nil {
		appLog.Error("blackout refresh incomplete", err, "failures", len(errs))
	}
	appLog.Info("blackout refresh done",
		"rules", len(s.opts.Rules),
		"feeds", len(s.opts.Feeds),
		"feeds_ok", len(fresh),
		"days", total,
		"from", w.From.String(),
		"to", w.To.String(),
	)
	return err
}

// Dates returns every blackout day: the static list plus the expanded
// rules and feeds, sorted and de-duplicated.
func (s *Store) Dates() []model.Date {
	return s.Constraints().BlackoutDates
}

// Constraints returns the base constraints with the expanded days merged
// into BlackoutDates.
func (s *Store) Constraints() constraint.Constraints {
	s.mu.RLock()
	defer s.mu.RUnlock()
	extra := slices.Clone(s.ruleDays)
	for _, days := range s.feedDays {
		extra = append(extra, days...)
	}
	return s.opts.Base.WithBlackouts(extra...)
}

// LastRefresh reports when Refresh last ran; zero before the first run.
func (s *Store) LastRefresh() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshed
}

func sortDays(days []model.Date) []model.Date {
	slices.SortFunc(days, model.Date.Compare)
	return slices.Compact(days)
}
