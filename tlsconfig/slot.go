package tlsconfig

import (
	"fmt"
	"sync"

	"github.com/opd-ai/streamcore/aio"
	"github.com/opd-ai/streamcore/options"
)

// Slot holds the Config attached to a dialer or listener. It starts with
// a default Config of the slot's mode.
type Slot struct {
	mu     sync.Mutex
	mode   Mode
	cfg    *Config
	frozen bool
}

// NewSlot creates a Slot for mode.
func NewSlot(mode Mode) *Slot {
	return &Slot{mode: mode, cfg: New(mode)}
}

// Get returns the attached Config.
func (s *Slot) Get() (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg, nil
}

// Set attaches cfg. The Config must have the slot's mode. Once the slot
// is frozen Set fails with aio.ErrBusy.
func (s *Slot) Set(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil tls configuration", options.ErrInvalidArgument)
	}
	if cfg.Mode() != s.mode {
		return fmt.Errorf("%w: %s tls configuration used for %s", options.ErrInvalidArgument, cfg.Mode(), s.mode)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return fmt.Errorf("%w: tls configuration cannot change while listening", aio.ErrBusy)
	}
	s.cfg = cfg
	return nil
}

// Current returns the attached Config for use by a new connection.
func (s *Slot) Current() *Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Freeze rejects later calls to Set and returns the attached Config.
func (s *Slot) Freeze() *Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frozen = true
	return s.cfg
}
