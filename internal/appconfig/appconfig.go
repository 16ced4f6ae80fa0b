// Package appconfig persists the user-edited application state: enabled
// stopovers, recipient mappings, message templates and last-sent times.
//
// The state lives in one file, JSON by default or YAML when the path ends
// in .yaml/.yml. Every mutation is written through immediately with an
// atomic replace, keeping the previous content as <file>.bak.
package appconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/stopoverdispatch/internal/mapping"
	"github.com/local/stopoverdispatch/internal/render"
)

// CurrentVersion is written into every saved file.
const CurrentVersion = 1

// ErrNotFound is returned when a code has no entry to remove.
var ErrNotFound = errors.New("not found")

// State is the persisted document.
type State struct {
	Version   int               `json:"version" yaml:"version"`
	Stopovers []string          `json:"stopovers" yaml:"stopovers"`
	Mappings  mapping.Table     `json:"mappings" yaml:"mappings"`
	Templates render.Template   `json:"templates" yaml:"templates"`
	LastSent  map[string]string `json:"last_sent" yaml:"last_sent"`
}

func defaultState() State {
	return State{
		Version:   CurrentVersion,
		Stopovers: []string{},
		Mappings:  mapping.Table{},
		LastSent:  map[string]string{},
	}
}

func (s State) clone() State {
	out := State{
		Version:   s.Version,
		Stopovers: append([]string{}, s.Stopovers...),
		Mappings:  s.Mappings.Clone(),
		Templates: s.Templates,
		LastSent:  make(map[string]string, len(s.LastSent)),
	}
	for k, v := range s.LastSent {
		out.LastSent[k] = v
	}
	return out
}

// Store owns the state file. It is safe for concurrent use.
type Store struct {
	path  string
	codec codec

	mu        sync.RWMutex
	state     State
	listeners []func(State)
	now       func() time.Time
}

// Open loads path, falling back to its .bak copy when the main file is
// unreadable. A missing file yields the default state; nothing is written
// until the first mutation.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("app config path is empty")
	}
	s := &Store{path: path, codec: codecFor(path), now: time.Now}

	st, err := s.read(path)
	switch {
	case err == nil:
		s.state = st
	case errors.Is(err, os.ErrNotExist):
		s.state = defaultState()
	default:
		bak, berr := s.read(path + ".bak")
		if berr != nil {
			return nil, fmt.Errorf("load app config %s: %w", path, err)
		}
		log.Warn().Err(err).Str("file", path).Msg("app config unreadable, restored from backup")
		s.state = bak
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

func (s *Store) read(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}, err
	}
	var raw map[string]interface{}
	if err := s.codec.unmarshal(data, &raw); err != nil {
		return State{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return sanitize(raw), nil
}

// OnChange registers fn to receive a snapshot after every saved mutation.
func (s *Store) OnChange(fn func(State)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Snapshot returns a copy of the whole state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Mappings returns a copy of the mapping table.
func (s *Store) Mappings() mapping.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Mappings.Clone()
}

// Template returns the stored template, possibly with empty fields.
func (s *Store) Template() render.Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Templates
}

// EffectiveTemplate returns the stored template with defaults applied.
func (s *Store) EffectiveTemplate() render.Template {
	return render.Effective(s.Template())
}

// Stopovers returns the enabled stopover codes.
func (s *Store) Stopovers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.state.Stopovers...)
}

// IsEnabled reports whether code is in the enabled list.
func (s *Store) IsEnabled(code string) bool {
	c := strings.ToUpper(strings.TrimSpace(code))
	s.mu.RLock()
	defer s.mu.RUnlock()
	return contains(s.state.Stopovers, c)
}

// LastSent returns when a message was last sent for code.
func (s *Store) LastSent(code string) (time.Time, bool) {
	s.mu.RLock()
	v, ok := s.state.LastSent[strings.ToUpper(code)]
	s.mu.RUnlock()
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// AddStopover enables code.
func (s *Store) AddStopover(code string) error {
	c, err := mapping.NormalizeCode(code)
	if err != nil {
		return err
	}
	return s.update(func(st *State) bool {
		if contains(st.Stopovers, c) {
			return false
		}
		st.Stopovers = append(st.Stopovers, c)
		return true
	})
}

// RemoveStopover disables code and drops its mapping and last-sent time.
func (s *Store) RemoveStopover(code string) error {
	c := strings.ToUpper(strings.TrimSpace(code))
	return s.update(func(st *State) bool {
		changed := false
		if i := indexOf(st.Stopovers, c); i >= 0 {
			st.Stopovers = append(st.Stopovers[:i], st.Stopovers[i+1:]...)
			changed = true
		}
		if _, ok := st.Mappings[c]; ok {
			delete(st.Mappings, c)
			changed = true
		}
		if _, ok := st.LastSent[c]; ok {
			delete(st.LastSent, c)
			changed = true
		}
		return changed
	})
}

// SetStopovers replaces the enabled list and prunes mappings and last-sent
// times of codes no longer listed.
func (s *Store) SetStopovers(codes []string) error {
	desired := make([]string, 0, len(codes))
	for _, code := range codes {
		c, err := mapping.NormalizeCode(code)
		if err != nil {
			return err
		}
		if !contains(desired, c) {
			desired = append(desired, c)
		}
	}
	return s.update(func(st *State) bool {
		st.Stopovers = desired
		for k := range st.Mappings {
			if !contains(desired, k) {
				delete(st.Mappings, k)
			}
		}
		for k := range st.LastSent {
			if !contains(desired, k) {
				delete(st.LastSent, k)
			}
		}
		return true
	})
}

// SetMapping replaces the recipient entries of code and enables it. An
// empty list removes the mapping.
func (s *Store) SetMapping(code string, entries []string) error {
	c, err := mapping.NormalizeCode(code)
	if err != nil {
		return err
	}
	clean := mapping.NormalizeAddresses(entries)
	if len(clean) == 0 {
		if err := s.RemoveMapping(c); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		return nil
	}
	return s.update(func(st *State) bool {
		st.Mappings[c] = clean
		if !contains(st.Stopovers, c) {
			st.Stopovers = append(st.Stopovers, c)
		}
		return true
	})
}

// SetRecipients stores r for code using the tagged entry encoding.
func (s *Store) SetRecipients(code string, r mapping.Recipients) error {
	return s.SetMapping(code, mapping.Join(r))
}

// AddRecipient appends entry to code unless already present. It reports
// whether the mapping changed.
func (s *Store) AddRecipient(code, entry string) (bool, error) {
	c, err := mapping.NormalizeCode(code)
	if err != nil {
		return false, err
	}
	e := strings.TrimSpace(entry)
	if e == "" {
		return false, nil
	}
	added := false
	err = s.update(func(st *State) bool {
		if contains(st.Mappings[c], e) {
			return false
		}
		st.Mappings[c] = append(st.Mappings[c], e)
		if !contains(st.Stopovers, c) {
			st.Stopovers = append(st.Stopovers, c)
		}
		added = true
		return true
	})
	return added, err
}

// RemoveRecipient drops entry from code. The mapping disappears with its
// last entry.
func (s *Store) RemoveRecipient(code, entry string) error {
	c := strings.ToUpper(strings.TrimSpace(code))
	e := strings.TrimSpace(entry)
	found := false
	err := s.update(func(st *State) bool {
		i := indexOf(st.Mappings[c], e)
		if i < 0 {
			return false
		}
		found = true
		rest := append(append([]string{}, st.Mappings[c][:i]...), st.Mappings[c][i+1:]...)
		if len(rest) == 0 {
			delete(st.Mappings, c)
		} else {
			st.Mappings[c] = rest
		}
		return true
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("recipient %q for %s: %w", e, c, ErrNotFound)
	}
	return nil
}

// RemoveMapping deletes the mapping of code.
func (s *Store) RemoveMapping(code string) error {
	c := strings.ToUpper(strings.TrimSpace(code))
	found := false
	err := s.update(func(st *State) bool {
		if _, ok := st.Mappings[c]; !ok {
			return false
		}
		delete(st.Mappings, c)
		found = true
		return true
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("mapping %s: %w", c, ErrNotFound)
	}
	return nil
}

// SetTemplate stores t verbatim.
func (s *Store) SetTemplate(t render.Template) error {
	return s.update(func(st *State) bool {
		st.Templates = t
		return true
	})
}

// SetLastSent records at (UTC, second precision) for code. A zero time
// means now.
func (s *Store) SetLastSent(code string, at time.Time) error {
	c := strings.ToUpper(strings.TrimSpace(code))
	if at.IsZero() {
		at = s.now()
	}
	ts := at.UTC().Truncate(time.Second).Format(time.RFC3339)
	return s.update(func(st *State) bool {
		st.LastSent[c] = ts
		return true
	})
}

// ClearLastSent forgets the last-sent time of code.
func (s *Store) ClearLastSent(code string) error {
	c := strings.ToUpper(strings.TrimSpace(code))
	return s.update(func(st *State) bool {
		if _, ok := st.LastSent[c]; !ok {
			return false
		}
		delete(st.LastSent, c)
		return true
	})
}

// Reset restores the default state.
func (s *Store) Reset() error {
	return s.update(func(st *State) bool {
		*st = defaultState()
		return true
	})
}

// update applies fn to a copy of the state and persists it when fn
// reports a change. The in-memory state only moves forward on a
// successful write.
func (s *Store) update(fn func(*State) bool) error {
	s.mu.Lock()
	next := s.state.clone()
	if !fn(&next) {
		s.mu.Unlock()
		return nil
	}
	next.Version = CurrentVersion
	if err := s.write(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.state = next
	listeners := append([]func(State){}, s.listeners...)
	snap := next.clone()
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
	return nil
}

func contains(list []string, v string) bool { return indexOf(list, v) >= 0 }

func indexOf(list []string, v string) int {
	for i, e := range list {
		if e == v {
			return i
		}
	}
	return -1
}
