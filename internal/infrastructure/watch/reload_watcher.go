// Package watch keeps in-memory schemas synchronized across instances.
package watch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/mizuhara/dyntraits/internal/infrastructure/logger"
)

// ReloadFunc reloads the schema for a contract. An empty contractID
// requests a refresh of every contract currently held in memory.
type ReloadFunc func(ctx context.Context, contractID string) error

// ReloadWatcher reloads schemas when a peer instance commits a metadata
// update. It uses PostgreSQL LISTEN/NOTIFY for instant propagation with
// a periodic full refresh as fallback when notifications are missed.
type ReloadWatcher struct {
	mu         sync.Mutex
	connStr    string
	channel    string
	reload     ReloadFunc
	refreshTTL time.Duration
	listener   *pq.Listener
	log        *logger.Logger
	stopCh     chan struct{}
	stopped    bool
}

// NewReloadWatcher creates a new ReloadWatcher.
// connStr is the PostgreSQL connection string for LISTEN/NOTIFY.
// refreshTTL is the fallback interval for a full schema refresh.
func NewReloadWatcher(connStr, channel string, refreshTTL time.Duration, reload ReloadFunc, log *logger.Logger) *ReloadWatcher {
	return &ReloadWatcher{
		connStr:    connStr,
		channel:    channel,
		reload:     reload,
		refreshTTL: refreshTTL,
		log:        log.WithComponent("reload_watcher"),
		stopCh:     make(chan struct{}),
	}
}

// Start begins listening for schema change notifications.
func (w *ReloadWatcher) Start(ctx context.Context) error {
	reportProblem := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			// Fallback refresh still runs, so log and carry on.
			w.log.Warn().Err(err).Msg("listener connection problem")
		}
	}

	w.listener = pq.NewListener(w.connStr, 10*time.Second, time.Minute, reportProblem)

	if err := w.listener.Listen(w.channel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", w.channel, err)
	}

	go w.handleNotifications()

	return nil
}

// Stop stops the watcher and cleans up resources.
func (w *ReloadWatcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.mu.Unlock()

	if w.listener != nil {
		return w.listener.Close()
	}
	return nil
}

// handleNotifications processes incoming NOTIFY events.
func (w *ReloadWatcher) handleNotifications() {
	refresh := time.NewTicker(w.refreshTTL)
	defer refresh.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case notification := <-w.listener.Notify:
			if notification == nil {
				// Connection lost, listener will reconnect automatically
				continue
			}
			w.runReload(notification.Extra)
		case <-refresh.C:
			w.runReload("")
		case <-time.After(90 * time.Second):
			// Periodic ping to keep connection alive
			go func() {
				if err := w.listener.Ping(); err != nil {
					w.log.Warn().Err(err).Msg("listener ping failed")
				}
			}()
		}
	}
}

func (w *ReloadWatcher) runReload(contractID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := w.reload(ctx, contractID); err != nil {
		w.log.Error().Err(err).Str("contract_id", contractID).Msg("schema reload failed")
		return
	}
	w.log.Debug().Str("contract_id", contractID).Msg("schema reloaded")
}
