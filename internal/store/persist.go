package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultDebounce = 200 * time.Millisecond
	saveTimeout     = 10 * time.Second
)

// Persister coalesces bursts of mutations into one write of the whole world.
// At most one timer is outstanding; ScheduleSave while it is pending is a
// no-op. The world is read when the timer fires, so every mutation made
// during the window is captured by that single write.
type Persister struct {
	store   *Store
	backend Backend
	delay   time.Duration

	mu    sync.Mutex
	timer *time.Timer

	// saveMu keeps the timer write and FlushNow from interleaving.
	saveMu sync.Mutex
}

// NewPersister attaches itself to store as its Saver.
func NewPersister(store *Store, backend Backend, delay time.Duration) *Persister {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	p := &Persister{store: store, backend: backend, delay: delay}
	store.AttachSaver(p)
	return p
}

func (p *Persister) ScheduleSave() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer != nil {
		return
	}
	p.timer = time.AfterFunc(p.delay, p.fire)
}

// Pending reports whether a debounced save is armed.
func (p *Persister) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timer != nil
}

func (p *Persister) fire() {
	p.mu.Lock()
	p.timer = nil
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	_ = p.save(ctx)
}

// FlushNow cancels any pending save and writes synchronously. Errors are
// logged and returned; callers at shutdown proceed regardless.
func (p *Persister) FlushNow(ctx context.Context) error {
	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.mu.Unlock()
	return p.save(ctx)
}

func (p *Persister) save(ctx context.Context) error {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()

	data, err := p.store.Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "store.persist").Msg("encode world")
		return err
	}
	if err := p.backend.Save(ctx, data); err != nil {
		log.Error().Err(err).Str("module", "store.persist").Str("backend", p.backend.Name()).Msg("save world")
		return err
	}
	log.Debug().Str("module", "store.persist").Str("backend", p.backend.Name()).Int("bytes", len(data)).Msg("world saved")
	return nil
}

// Load restores the world from backend. Absent or unreadable state leaves
// the store empty; it never fails startup.
func (s *Store) Load(ctx context.Context, backend Backend) {
	data, err := backend.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Info().Str("module", "store").Str("backend", backend.Name()).Msg("no saved state, starting empty")
			return
		}
		log.Error().Err(err).Str("module", "store").Str("backend", backend.Name()).Msg("load state, starting empty")
		return
	}
	if err := s.Restore(data); err != nil {
		log.Error().Err(err).Str("module", "store").Str("backend", backend.Name()).Msg("corrupt state, starting empty")
		return
	}
	log.Info().Str("module", "store").Str("backend", backend.Name()).Int("rooms", len(s.Stats())).Msg("state loaded")
}
