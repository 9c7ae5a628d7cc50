// app.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"matchcurve/internal/config"
	"matchcurve/internal/database"
	"matchcurve/internal/dispatch"
	"matchcurve/internal/store"
	"matchcurve/internal/watcher"
	"matchcurve/internal/websocket"
)

// App wires the store to its collaborators: session persistence, the
// track-directory watcher, and the websocket bridge UI surfaces connect
// to. The store itself never calls outward; the App subscribes to its
// notifications and fans them into the database and the websocket server.
type App struct {
	log    *logrus.Entry
	config *config.Config

	loop     *dispatch.Loop
	store    *store.Store
	db       *database.Database
	watcher  *watcher.Watcher
	wsServer *websocket.Server

	subs []*store.Subscription
}

// NewApp creates an empty App; Startup does the wiring.
func NewApp() *App {
	return &App{log: logrus.WithField("component", "app")}
}

// Startup loads config, restores the previous session, and starts the
// owner loop, watcher, and websocket server.
func (a *App) Startup(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.config = cfg

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open session database: %w", err)
	}
	a.db = db

	a.loop = dispatch.NewLoop()
	go a.loop.Run(ctx)

	a.wsServer = websocket.NewServer(a, cfg.ListenAddr)

	a.loop.Call(func() {
		a.store = store.New(a.loop)
		a.restoreSession()
		a.subscribePersistence()
		a.subscribeBroadcast()
	})

	if cfg.WatchTracks {
		if err := a.startWatcher(); err != nil {
			a.log.WithError(err).Warn("track watching disabled")
		}
	}

	if _, err := a.wsServer.Start(ctx); err != nil {
		return fmt.Errorf("start websocket server: %w", err)
	}
	return nil
}

// restoreSession loads the persisted session. Selection state is restored
// before any curve data on purpose: the store accepts selected names that
// have no data yet, so restore ordering never matters.
func (a *App) restoreSession() {
	a.store.Begin()
	defer a.store.End()

	if names, err := a.db.LoadSelectedCurves(); err == nil && names != nil {
		a.store.SetSelectedCurves(names)
	} else if err != nil {
		a.log.WithError(err).Warn("failed to restore selected curves")
	}

	if showAll, err := a.db.LoadShowAll(); err == nil {
		a.store.SetShowAll(showAll)
	} else {
		a.log.WithError(err).Warn("failed to restore show-all flag")
	}

	snapshots, err := a.db.LoadCurveSnapshots()
	if err != nil {
		a.log.WithError(err).Warn("failed to restore curves")
		snapshots = nil
	}
	for name, snap := range snapshots {
		a.store.SetCurveDataWithMetadata(name, snap.Points, snap.Metadata)
	}

	if frame, err := a.db.LoadCurrentFrame(); err == nil {
		a.store.SetFrame(frame)
	}
	if active, err := a.db.LoadActiveCurve(); err == nil && active != "" {
		if err := a.store.SetActiveCurve(active); err != nil {
			a.log.WithField("curve", active).Warn("persisted active curve has no data")
		}
	}
}

// subscribePersistence mirrors store changes back into the session
// database. Handlers run on the owner loop and only read store state.
func (a *App) subscribePersistence() {
	hub := a.store.Events()

	a.subs = append(a.subs,
		hub.SubscribeSelectionStateChanged(func(ev store.SelectionStateChangedEvent) {
			if err := a.db.SaveSelectedCurves(ev.SelectedCurves); err != nil {
				a.log.WithError(err).Warn("failed to persist selected curves")
			}
			if err := a.db.SaveShowAll(ev.ShowAll); err != nil {
				a.log.WithError(err).Warn("failed to persist show-all flag")
			}
		}),
		hub.SubscribeActiveCurveChanged(func(ev store.ActiveCurveChangedEvent) {
			if err := a.db.SaveActiveCurve(ev.Name); err != nil {
				a.log.WithError(err).Warn("failed to persist active curve")
			}
		}),
		hub.SubscribeFrameChanged(func(ev store.FrameChangedEvent) {
			if err := a.db.SaveCurrentFrame(ev.Frame); err != nil {
				a.log.WithError(err).Warn("failed to persist frame")
			}
		}),
		hub.SubscribeCurvesChanged(func(ev store.CurvesChangedEvent) {
			a.persistCurve(ev.Curve)
		}),
		hub.SubscribeVisibilityChanged(func(ev store.VisibilityChangedEvent) {
			a.persistCurve(ev.Curve)
		}),
	)
}

func (a *App) persistCurve(name string) {
	if !a.store.HasCurve(name) {
		if err := a.db.DeleteCurveSnapshot(name); err != nil {
			a.log.WithError(err).Warn("failed to delete curve snapshot")
		}
		return
	}
	meta, _ := a.store.GetMetadata(name)
	if err := a.db.SaveCurveSnapshot(name, meta, a.store.GetCurveData(name)); err != nil {
		a.log.WithError(err).Warn("failed to persist curve snapshot")
	}
}

// subscribeBroadcast forwards every store notification to connected UI
// surfaces.
func (a *App) subscribeBroadcast() {
	hub := a.store.Events()

	a.subs = append(a.subs,
		hub.SubscribeCurvesChanged(func(ev store.CurvesChangedEvent) {
			a.wsServer.BroadcastEvent("curves:changed", ev)
		}),
		hub.SubscribeSelectionStateChanged(func(ev store.SelectionStateChangedEvent) {
			a.wsServer.BroadcastEvent("selection:changed", ev)
		}),
		hub.SubscribeActiveCurveChanged(func(ev store.ActiveCurveChangedEvent) {
			a.wsServer.BroadcastEvent("active:changed", ev)
		}),
		hub.SubscribeFrameChanged(func(ev store.FrameChangedEvent) {
			a.wsServer.BroadcastEvent("frame:changed", ev)
		}),
		hub.SubscribePointSelectionChanged(func(ev store.PointSelectionChangedEvent) {
			a.wsServer.BroadcastEvent("points:selection-changed", ev)
		}),
		hub.SubscribeVisibilityChanged(func(ev store.VisibilityChangedEvent) {
			a.wsServer.BroadcastEvent("visibility:changed", ev)
		}),
		hub.SubscribeViewChanged(func(ev store.ViewChangedEvent) {
			a.wsServer.BroadcastEvent("view:changed", ev)
		}),
	)
}

// startWatcher hot-reloads track files. The callback runs on the watcher
// goroutine, so every store mutation is posted onto the owner loop.
func (a *App) startWatcher() error {
	w, err := watcher.New(a.config.TracksDir, 200*time.Millisecond, func(e watcher.Event) {
		a.loop.Post(func() { a.applyTrackEvent(e) })
	})
	if err != nil {
		return err
	}
	a.watcher = w
	return w.Start()
}

func (a *App) applyTrackEvent(e watcher.Event) {
	name := watcher.CurveName(e.Path)

	if e.Type == watcher.EventDelete || e.Type == watcher.EventRename {
		a.store.RemoveCurve(name)
		return
	}

	points, err := watcher.LoadTrackFile(e.Path)
	if err != nil {
		a.log.WithError(err).WithField("path", e.Path).Warn("skipping unreadable track file")
		return
	}
	a.store.SetCurveData(name, points)
	a.log.WithFields(logrus.Fields{"curve": name, "points": len(points)}).Info("track file loaded")
}

// Shutdown stops collaborators and releases the store.
func (a *App) Shutdown(ctx context.Context) {
	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.wsServer != nil {
		if err := a.wsServer.Stop(ctx); err != nil {
			a.log.WithError(err).Warn("websocket shutdown failed")
		}
	}
	if a.store != nil {
		a.loop.Call(func() {
			for _, sub := range a.subs {
				sub.Unsubscribe()
			}
			a.subs = nil
			a.store.Close()
		})
	}
	if a.db != nil {
		a.db.Close()
	}
}
