// Package bot wires the conversation flow, undo coordinator, and views
// to the messaging transport and routes inbound updates between them.
package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/brewbeat/baristabot/internal/flow"
	"github.com/brewbeat/baristabot/internal/messaging"
	"github.com/brewbeat/baristabot/internal/models"
	"github.com/brewbeat/baristabot/internal/store"
	"github.com/brewbeat/baristabot/internal/undo"
	"github.com/brewbeat/baristabot/internal/views"
)

// Opts holds configuration options for the bot.
type Opts struct {
	AdminIDs map[int64]struct{}
	Version  string
}

// Option defines a configuration option for the bot.
type Option func(*Opts)

// WithAdminIDs restricts the health/version commands to the given user ids.
// An empty set leaves them open.
func WithAdminIDs(ids map[int64]struct{}) Option {
	return func(o *Opts) {
		o.AdminIDs = ids
	}
}

// WithVersion sets the version string reported by health/version.
func WithVersion(v string) Option {
	return func(o *Opts) {
		o.Version = v
	}
}

// exportKey guards one export interaction.
type exportKey struct {
	userID    int64
	messageID int
}

// Bot routes inbound updates to the order flow, the undo coordinator,
// or a view, and delivers their replies.
type Bot struct {
	msg     messaging.Service
	st      store.Store
	flow    *flow.OrderFlow
	undo    *undo.Coordinator
	history *views.HistoryView
	export  *views.ExportView
	stats   *views.StatsView

	admins    map[int64]struct{}
	version   string
	startedAt time.Time

	exportMu       sync.Mutex
	exportInFlight map[exportKey]struct{}

	workersMu sync.Mutex
	workers   map[int64]chan models.Update
	workerWG  sync.WaitGroup
}

// userQueueSize bounds how many updates from one user may be queued
// ahead of their worker before the dispatcher blocks.
const userQueueSize = 32

// New creates a fully wired Bot over the given transport and store.
func New(msg messaging.Service, st store.Store, opts ...Option) *Bot {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.AdminIDs == nil {
		cfg.AdminIDs = make(map[int64]struct{})
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	sessions := flow.NewInMemorySessionStore()
	return &Bot{
		msg:            msg,
		st:             st,
		flow:           flow.NewOrderFlow(sessions, st),
		undo:           undo.NewCoordinator(st, msg),
		history:        views.NewHistoryView(st, msg),
		export:         views.NewExportView(st, msg),
		stats:          views.NewStatsView(st),
		admins:         cfg.AdminIDs,
		version:        cfg.Version,
		exportInFlight: make(map[exportKey]struct{}),
		workers:        make(map[int64]chan models.Update),
	}
}

// UndoCoordinator exposes the undo coordinator for shared consumers
// such as the ops server.
func (b *Bot) UndoCoordinator() *undo.Coordinator {
	return b.undo
}

// Run starts the transport and processes updates until the context is
// cancelled or the update channel closes. Each user gets a dedicated
// worker goroutine, so conversation transitions stay ordered per user
// while one user's slow store or transport call never stalls another's.
func (b *Bot) Run(ctx context.Context) error {
	b.startedAt = time.Now()
	if err := b.msg.Start(ctx); err != nil {
		return err
	}
	slog.Info("Bot running")

	for {
		select {
		case <-ctx.Done():
			slog.Info("Bot stopping: context done")
			b.stopWorkers()
			return nil
		case upd, ok := <-b.msg.Updates():
			if !ok {
				slog.Info("Bot stopping: update channel closed")
				b.stopWorkers()
				return nil
			}
			b.dispatch(ctx, upd)
		}
	}
}

// dispatch hands the update to its user's worker, starting one on the
// user's first contact. Workers live until Run stops.
func (b *Bot) dispatch(ctx context.Context, upd models.Update) {
	b.workersMu.Lock()
	ch, ok := b.workers[upd.UserID]
	if !ok {
		ch = make(chan models.Update, userQueueSize)
		b.workers[upd.UserID] = ch
		b.workerWG.Add(1)
		go b.runWorker(ctx, ch)
	}
	b.workersMu.Unlock()
	ch <- upd
}

func (b *Bot) runWorker(ctx context.Context, ch <-chan models.Update) {
	defer b.workerWG.Done()
	for upd := range ch {
		b.handleUpdate(ctx, upd)
	}
}

// stopWorkers closes every user queue and waits for in-flight updates
// to finish.
func (b *Bot) stopWorkers() {
	b.workersMu.Lock()
	for _, ch := range b.workers {
		close(ch)
	}
	b.workers = make(map[int64]chan models.Update)
	b.workersMu.Unlock()
	b.workerWG.Wait()
}

// handleUpdate dispatches one update; infrastructure faults are logged
// and reported to the user as transient, never crash the loop.
func (b *Bot) handleUpdate(ctx context.Context, upd models.Update) {
	var err error
	if upd.IsCallback() {
		err = b.handleCallback(ctx, upd)
	} else {
		err = b.handleMessage(ctx, upd)
	}
	if err != nil {
		slog.Error("Update handling failed", "update_id", upd.ID, "user_id", upd.UserID, "error", err)
		if _, sendErr := b.msg.SendMessage(ctx, upd.ChatID, "Something went wrong, please try again 🙏", nil); sendErr != nil {
			slog.Error("Failed to deliver error notice", "update_id", upd.ID, "error", sendErr)
		}
	}
}

// sendReplies delivers a flow result's replies in order.
func (b *Bot) sendReplies(ctx context.Context, chatID int64, replies []flow.Reply) error {
	for _, r := range replies {
		if _, err := b.msg.SendMessage(ctx, chatID, r.Text, r.Markup); err != nil {
			return err
		}
	}
	return nil
}

// tryLockExport marks an export interaction in flight; it reports false
// when one is already running for the same key.
func (b *Bot) tryLockExport(k exportKey) bool {
	b.exportMu.Lock()
	defer b.exportMu.Unlock()
	if _, busy := b.exportInFlight[k]; busy {
		return false
	}
	b.exportInFlight[k] = struct{}{}
	return true
}

func (b *Bot) unlockExport(k exportKey) {
	b.exportMu.Lock()
	defer b.exportMu.Unlock()
	delete(b.exportInFlight, k)
}
