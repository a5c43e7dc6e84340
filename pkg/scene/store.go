// Zaparoo LCD
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo LCD.
//
// Zaparoo LCD is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo LCD is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo LCD.  If not, see <http://www.gnu.org/licenses/>.

// Package scene holds the display scene: text and icon elements, the
// per-orientation backgrounds and the persisted last orientation. Every
// successful mutation is written to disk before the call returns and then
// announced on the Changes channel.
package scene

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ZaparooProject/zaparoo-lcd/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

var (
	ErrDuplicateID = errors.New("element already exists")
	ErrNotFound    = errors.New("not found")
	// ErrPersist means the mutation was rolled back because the scene file
	// could not be written.
	ErrPersist = errors.New("failed to persist scene")
)

type snapshot struct {
	backgrounds map[Orientation]Background
	elements    []Element
	orientation Orientation
}

// Store is the element store. It is safe for concurrent use; mutation,
// persistence and the change signal happen under one lock.
type Store struct {
	fs          afero.Fs
	backgrounds map[Orientation]Background
	changes     chan struct{}
	path        string
	elements    []Element
	orientation Orientation
	mu          syncutil.RWMutex
}

// NewStore returns an empty store persisting to path on fs.
func NewStore(fs afero.Fs, path string) *Store {
	return &Store{
		fs:          fs,
		path:        path,
		backgrounds: make(map[Orientation]Background),
		changes:     make(chan struct{}, 1),
	}
}

// Open creates a store and rehydrates it from path.
func Open(fs afero.Fs, path string) (*Store, error) {
	s := NewStore(fs, path)
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	st, err := readState(s.fs, s.path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.elements = s.elements[:0]
	for i := range st.Elements {
		el := st.Elements[i]
		if err := el.Compile(); err != nil {
			log.Error().Err(err).Int("index", i).Msg("skipping invalid saved element")
			continue
		}
		if s.indexOf(el.ID) >= 0 {
			log.Error().Str("id", el.ID).Msg("skipping duplicate saved element")
			continue
		}
		s.elements = append(s.elements, el)
	}

	s.backgrounds = make(map[Orientation]Background, len(st.Backgrounds))
	for key, bg := range st.Backgrounds {
		o, err := ParseOrientation(key)
		if err != nil {
			log.Warn().Str("key", key).Msg("ignoring background for unknown orientation")
			continue
		}
		s.backgrounds[o] = bg
	}

	if st.Orientation.Valid() {
		s.orientation = st.Orientation
	}

	log.Info().
		Int("elements", len(s.elements)).
		Int("backgrounds", len(s.backgrounds)).
		Int("orientation", int(s.orientation)).
		Msg("loaded scene")

	return nil
}

// Changes delivers a signal after every successful mutation. Signals
// coalesce: a receiver that falls behind sees one pending signal.
func (s *Store) Changes() <-chan struct{} {
	return s.changes
}

// Add inserts el at the top of the z-order.
func (s *Store) Add(el Element) (string, error) {
	if err := el.Compile(); err != nil {
		return "", err
	}

	err := s.mutate(func() (bool, error) {
		if s.indexOf(el.ID) >= 0 {
			return false, fmt.Errorf("%w: %s", ErrDuplicateID, el.ID)
		}
		s.elements = append(s.elements, el.clone())
		return true, nil
	})
	if err != nil {
		return "", err
	}

	log.Info().
		Str("id", el.ID).
		Int("x", el.Position.X).
		Int("y", el.Position.Y).
		Msg("added element")
	return el.ID, nil
}

// Update applies patch to element id. It reports false, without writing or
// signalling, when no field would change.
func (s *Store) Update(id string, patch Patch) (bool, error) {
	changed := false
	err := s.mutate(func() (bool, error) {
		i := s.indexOf(id)
		if i < 0 {
			return false, fmt.Errorf("%w: element %s", ErrNotFound, id)
		}

		cur := s.elements[i]
		next := patch.apply(cur.clone())
		if err := next.Compile(); err != nil {
			return false, err
		}
		if sameFields(&cur, &next) {
			return false, nil
		}

		s.elements[i] = next
		changed = true
		return true, nil
	})
	if err != nil {
		return false, err
	}

	if changed {
		log.Info().Str("id", id).Msg("updated element")
	} else {
		log.Debug().Str("id", id).Msg("element update was a no-op")
	}
	return changed, nil
}

// Remove deletes element id.
func (s *Store) Remove(id string) error {
	err := s.mutate(func() (bool, error) {
		i := s.indexOf(id)
		if i < 0 {
			return false, fmt.Errorf("%w: element %s", ErrNotFound, id)
		}
		s.elements = slices.Delete(s.elements, i, i+1)
		return true, nil
	})
	if err != nil {
		return err
	}

	log.Info().Str("id", id).Msg("removed element")
	return nil
}

// ClearAll removes every element. Backgrounds are kept.
func (s *Store) ClearAll() error {
	err := s.mutate(func() (bool, error) {
		s.elements = nil
		return true, nil
	})
	if err != nil {
		return err
	}

	log.Info().Msg("cleared all elements")
	return nil
}

// List returns copies of the elements in insertion order.
func (s *Store) List() []Element {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Element, len(s.elements))
	for i := range s.elements {
		out[i] = s.elements[i].clone()
	}
	return out
}

// Len returns the number of elements.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.elements)
}

// Get returns a copy of element id.
func (s *Store) Get(id string) (Element, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return Element{}, false
	}
	return s.elements[i].clone(), true
}

// SetBackground sets the background of one orientation. An image path must
// exist on the store's filesystem.
func (s *Store) SetBackground(o Orientation, bg Background) error {
	if !o.Valid() {
		return fmt.Errorf("%w: orientation %d", ErrInvalidElement, o)
	}
	if bg.Image != "" {
		if ok, err := afero.Exists(s.fs, bg.Image); err != nil || !ok {
			return fmt.Errorf("%w: background image %s", ErrNotFound, bg.Image)
		}
	}

	err := s.mutate(func() (bool, error) {
		if bg.IsZero() {
			delete(s.backgrounds, o)
		} else {
			s.backgrounds[o] = bg
		}
		return true, nil
	})
	if err != nil {
		return err
	}

	log.Info().
		Int("orientation", int(o)).
		Str("image", bg.Image).
		Msg("set background")
	return nil
}

// ClearBackground removes the background of one orientation so it renders
// black.
func (s *Store) ClearBackground(o Orientation) error {
	return s.SetBackground(o, Background{})
}

// Background returns the background of one orientation.
func (s *Store) Background(o Orientation) Background {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backgrounds[o]
}

// Backgrounds returns every configured background.
func (s *Store) Backgrounds() map[Orientation]Background {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[Orientation]Background, len(s.backgrounds))
	for k, v := range s.backgrounds {
		out[k] = v
	}
	return out
}

// SetOrientation persists the last used orientation.
func (s *Store) SetOrientation(o Orientation) error {
	if !o.Valid() {
		return fmt.Errorf("%w: orientation %d", ErrInvalidElement, o)
	}
	return s.mutate(func() (bool, error) {
		if s.orientation == o {
			return false, nil
		}
		s.orientation = o
		return true, nil
	})
}

// Orientation returns the persisted orientation.
func (s *Store) Orientation() Orientation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orientation
}

// mutate runs fn under the write lock. When fn reports a change the state is
// written to disk; a failed write restores the previous state.
func (s *Store) mutate(fn func() (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.snapshotLocked()
	changed, err := fn()
	if err != nil {
		s.restoreLocked(prev)
		return err
	}
	if !changed {
		return nil
	}

	st := s.stateLocked()
	if err := writeState(s.fs, s.path, &st); err != nil {
		s.restoreLocked(prev)
		log.Error().Err(err).Str("path", s.path).Msg("scene write failed, mutation rolled back")
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	select {
	case s.changes <- struct{}{}:
	default:
	}
	return nil
}

func (s *Store) snapshotLocked() snapshot {
	bgs := make(map[Orientation]Background, len(s.backgrounds))
	for k, v := range s.backgrounds {
		bgs[k] = v
	}
	els := make([]Element, len(s.elements))
	for i := range s.elements {
		els[i] = s.elements[i].clone()
	}
	return snapshot{
		backgrounds: bgs,
		elements:    els,
		orientation: s.orientation,
	}
}

func (s *Store) restoreLocked(snap snapshot) {
	s.backgrounds = snap.backgrounds
	s.elements = snap.elements
	s.orientation = snap.orientation
}

func (s *Store) stateLocked() State {
	st := State{
		Schema:      StateSchemaVersion,
		Orientation: s.orientation,
		Elements:    make([]Element, len(s.elements)),
	}
	copy(st.Elements, s.elements)
	if len(s.backgrounds) > 0 {
		st.Backgrounds = make(map[string]Background, len(s.backgrounds))
		for o, bg := range s.backgrounds {
			st.Backgrounds[o.String()] = bg
		}
	}
	return st
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.elements, func(e Element) bool {
		return e.ID == id
	})
}
