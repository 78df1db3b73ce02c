package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/campusbid/stallbid/internal/auction"
	"github.com/campusbid/stallbid/internal/domain"
	"github.com/campusbid/stallbid/internal/feed"
	"github.com/campusbid/stallbid/internal/server"
	"github.com/campusbid/stallbid/internal/server/handler"
	"github.com/campusbid/stallbid/internal/server/ws"
	"github.com/campusbid/stallbid/internal/service"
)

// watchSet is the per-run registry of live-auction pipelines, one per
// watched stall. It doubles as the read surface for the HTTP handlers and
// the submission router for the bid endpoint.
type watchSet struct {
	order      []int64
	watchers   map[int64]*auction.Watcher
	submitters map[int64]*auction.Submitter
}

// StallIDs returns the watched stall IDs in configuration order.
func (s *watchSet) StallIDs() []int64 {
	out := make([]int64, len(s.order))
	copy(out, s.order)
	return out
}

// State returns the live view of one stall.
func (s *watchSet) State(stallID int64) (auction.ViewState, bool) {
	w, ok := s.watchers[stallID]
	if !ok {
		return auction.ViewState{}, false
	}
	return w.State(), true
}

// Place routes a bid to the stall's submitter.
func (s *watchSet) Place(ctx context.Context, stallID, amount int64) (domain.BidResult, error) {
	sub, ok := s.submitters[stallID]
	if !ok {
		return domain.BidResult{}, fmt.Errorf("stall %d: %w", stallID, domain.ErrNotFound)
	}
	return sub.Place(ctx, amount)
}

// ApplyPush overlays a pushed bid onto the owning stall's view. Bids for
// unwatched stalls are dropped.
func (s *watchSet) ApplyPush(bid domain.Bid) {
	if w, ok := s.watchers[bid.StallID]; ok {
		w.ApplyPush(bid)
	}
}

// WatchMode runs the headless watch pipeline: one watcher per configured
// stall with its alerter, recorder, and optional auto-bidder, plus the
// WebSocket push feed when enabled.
func (a *App) WatchMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting watch mode",
		slog.Any("stall_ids", a.cfg.Watch.StallIDs),
	)

	g, ctx := errgroup.WithContext(ctx)
	a.startWatchers(ctx, g, deps)
	return g.Wait()
}

// ServeMode runs the watch pipeline plus the local dashboard server.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode",
		slog.Any("stall_ids", a.cfg.Watch.StallIDs),
		slog.Int("port", a.cfg.Server.Port),
	)

	g, ctx := errgroup.WithContext(ctx)
	set := a.startWatchers(ctx, g, deps)
	a.startHTTPServer(ctx, g, deps, set)
	return g.Wait()
}

// FullMode runs everything: watch pipeline, push feed, and dashboard server.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode",
		slog.Any("stall_ids", a.cfg.Watch.StallIDs),
		slog.Int("port", a.cfg.Server.Port),
	)

	g, ctx := errgroup.WithContext(ctx)
	set := a.startWatchers(ctx, g, deps)
	if !a.cfg.Watch.UsePush {
		a.startBidFeed(ctx, g, set)
	}
	a.startHTTPServer(ctx, g, deps, set)
	return g.Wait()
}

// startWatchers builds and launches the per-stall pipelines on the given
// errgroup and returns their registry. The push feed is started here when
// the configuration asks for it, so every mode gets the same watch
// behavior.
func (a *App) startWatchers(ctx context.Context, g *errgroup.Group, deps *Dependencies) *watchSet {
	set := &watchSet{
		watchers:   make(map[int64]*auction.Watcher),
		submitters: make(map[int64]*auction.Submitter),
	}

	var bidderID int64
	if sess, ok := deps.Sessions.Current(); ok {
		bidderID = sess.User.ID
	}

	increment := a.cfg.Bidding.Increment
	if increment <= 0 {
		increment = auction.DefaultIncrement
	}
	historyLimit := a.cfg.Watch.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = auction.DefaultHistoryLimit
	}

	for _, stallID := range a.cfg.Watch.StallIDs {
		rec := auction.NewReconciler(increment, historyLimit)
		w := auction.NewWatcher(
			stallID, deps.Backend, rec,
			a.cfg.Watch.PollInterval.Duration,
			clockwork.NewRealClock(),
			a.logger,
		)
		sub := auction.NewSubmitter(w, deps.Backend, deps.RateLimiter, bidderID, a.logger).
			WithRatePolicy(a.cfg.Bidding.RateLimit, a.cfg.Bidding.RatePeriod.Duration)

		set.order = append(set.order, stallID)
		set.watchers[stallID] = w
		set.submitters[stallID] = sub

		// Alerts: outbid, ending soon, ended.
		alertUpdates, cancelAlerts := w.Subscribe()
		alerter := auction.NewAlerter(deps.Notifier, bidderID, a.logger)
		g.Go(func() error {
			defer cancelAlerts()
			return alerter.Run(ctx, alertUpdates)
		})

		// Recording: cache, bid archive, pub/sub, cold storage.
		recordUpdates, cancelRecord := w.Subscribe()
		recorder := service.NewRecorder(stallID, service.RecorderSinks{
			Cache:    deps.StallCache,
			Bids:     deps.BidStore,
			Results:  deps.ResultStore,
			Bus:      deps.SignalBus,
			Fetcher:  deps.Backend,
			Archiver: recorderArchiver(deps),
		}, a.logger)
		g.Go(func() error {
			defer cancelRecord()
			return recorder.Run(ctx, recordUpdates)
		})

		// Auto-bidding, guarded by an explicit cap.
		if a.cfg.Bidding.AutoBid && bidderID != 0 && a.cfg.Bidding.AutoBidCap > 0 {
			autoUpdates, cancelAuto := w.Subscribe()
			bidder := auction.NewAutoBidder(sub, bidderID, a.cfg.Bidding.AutoBidCap, a.logger)
			g.Go(func() error {
				defer cancelAuto()
				return bidder.Run(ctx, autoUpdates)
			})
		}

		g.Go(func() error {
			return w.Run(ctx)
		})
	}

	if a.cfg.Watch.UsePush {
		a.startBidFeed(ctx, g, set)
	}

	return set
}

// recorderArchiver adapts the optional S3 archiver to the recorder's sink
// interface without handing it a typed nil.
func recorderArchiver(deps *Dependencies) service.Archiver {
	if deps.Archiver == nil {
		return nil
	}
	return deps.Archiver
}

// startBidFeed launches the WebSocket push feed routing pushed bids into
// the watchers.
func (a *App) startBidFeed(ctx context.Context, g *errgroup.Group, set *watchSet) {
	if a.cfg.Backend.WsURL == "" {
		a.logger.WarnContext(ctx, "push feed requested but backend.ws_url is empty")
		return
	}
	bidFeed := feed.NewBidFeed(a.cfg.Backend.WsURL, set.StallIDs(), set.ApplyPush, a.logger)
	g.Go(func() error {
		defer bidFeed.Close()
		return bidFeed.Run(ctx)
	})
}

// startHTTPServer adds the dashboard server to the errgroup: REST handlers
// over the watch set and stores, and the WebSocket hub when the signal bus
// is wired. The server shuts down gracefully when the context is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, set *watchSet) {
	handlers := server.Handlers{
		Health: handler.NewHealthHandler(a.logger),
		Status: handler.NewStatusHandler(a.cfg.Mode, a.cfg.Watch.StallIDs),
		Stalls: handler.NewStallHandler(set, deps.BidStore, a.logger),
		Bids:   handler.NewBidHandler(set, a.logger),
	}
	if deps.ResultStore != nil {
		handlers.Results = handler.NewResultHandler(deps.ResultStore, a.logger)
	}
	if deps.Archiver != nil {
		handlers.Archives = handler.NewArchiveHandler(deps.Archiver, a.logger)
	}

	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, a.logger, ws.Config{
			Mode:      a.cfg.Mode,
			StallIDs:  a.cfg.Watch.StallIDs,
			StartedAt: time.Now().UTC(),
		})
		g.Go(func() error {
			return hub.Run(ctx)
		})
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		Limiter:     deps.RateLimiter,
		RateLimit:   a.cfg.Bidding.RateLimit,
		RatePeriod:  a.cfg.Bidding.RatePeriod.Duration,
	}, handlers, hub, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
