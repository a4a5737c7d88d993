package config

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrNotReloading is returned by Commit without a preceding BeginReload.
var ErrNotReloading = errors.New("no reload in progress")

// Store holds the active model and radio settings. Readers on the real-time
// paths load a pointer once per cycle; writers replace the whole value.
//
// While a reload is in progress Reloading reports true and consumers must
// not regenerate output from the store.
type Store struct {
	model     atomic.Pointer[Model]
	radio     atomic.Pointer[Radio]
	reloading atomic.Bool

	mu sync.Mutex // serializes writers
}

// NewStore creates a store holding the given model and radio settings.
func NewStore(model *Model, radio Radio) *Store {
	s := &Store{}
	s.model.Store(model)
	s.radio.Store(&radio)
	return s
}

// Model returns the active model. The returned value must not be modified.
func (s *Store) Model() *Model { return s.model.Load() }

// Radio returns the active radio settings. The returned value must not be modified.
func (s *Store) Radio() *Radio { return s.radio.Load() }

// Reloading reports whether a reload is in progress.
func (s *Store) Reloading() bool { return s.reloading.Load() }

// BeginReload marks the configuration as being replaced.
func (s *Store) BeginReload() {
	s.mu.Lock()
	s.reloading.Store(true)
	s.mu.Unlock()
}

// Commit validates m and makes it the active model, ending the reload. An
// invalid model is rejected and the previous model stays active.
func (s *Store) Commit(m *Model) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.reloading.Load() {
		return ErrNotReloading
	}
	defer s.reloading.Store(false)

	if err := m.Validate(); err != nil {
		return err
	}
	s.model.Store(m)
	return nil
}

// Abort ends a reload without changing the model.
func (s *Store) Abort() {
	s.mu.Lock()
	s.reloading.Store(false)
	s.mu.Unlock()
}

// SetRadio validates r and makes it the active radio settings.
func (s *Store) SetRadio(r Radio) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.radio.Store(&r)
	s.mu.Unlock()
	return nil
}

// SetTrainerCalib replaces the trainer calibration snapshot.
func (s *Store) SetTrainerCalib(calib [NumTrainerInputs]int16) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := *s.radio.Load()
	r.Trainer.Calib = calib
	s.radio.Store(&r)
}

// UpdateModel applies fn to a copy of the active model and stores the result
// if it validates.
func (s *Store) UpdateModel(fn func(m *Model) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.model.Load().Clone()
	if err := fn(m); err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}
	s.model.Store(m)
	return nil
}
