package moderation

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
)

type Participant struct {
	GuildID string
	UserID  string
	Name    string
}

// MuteRecord remembers the last completed mute of a participant.
type MuteRecord struct {
	Duration time.Duration
	LastMute time.Time
}

// MutedEntry is a participant currently muted by this process.
type MutedEntry struct {
	Participant
	Duration time.Duration
	Since    time.Time
}

// Until is when the scheduled unmute is due.
func (e MutedEntry) Until() time.Time {
	return e.Since.Add(e.Duration)
}

// State is the moderator's bookkeeping, keyed by user ID.
// It is safe for concurrent use.
type State struct {
	mu        sync.Mutex
	monitored map[string]Participant
	extended  map[string]struct{}
	talkStart map[string]time.Time
	records   map[string]MuteRecord
	muted     map[string]MutedEntry
}

func NewState() *State {
	return &State{
		monitored: make(map[string]Participant),
		extended:  make(map[string]struct{}),
		talkStart: make(map[string]time.Time),
		records:   make(map[string]MuteRecord),
		muted:     make(map[string]MutedEntry),
	}
}

// Monitor adds p to the monitored set. It returns false if p was already there.
func (s *State) Monitor(p Participant) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.monitored[p.UserID]; ok {
		return false
	}
	s.monitored[p.UserID] = p
	return true
}

func (s *State) Unmonitor(userID string) (Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.monitored[userID]
	if !ok {
		return Participant{}, false
	}
	delete(s.monitored, userID)
	delete(s.talkStart, userID)
	return p, true
}

// Participant returns the monitored participant with the given user ID.
func (s *State) Participant(userID string) (Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.monitored[userID]
	return p, ok
}

func (s *State) IsMonitored(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.monitored[userID]
	return ok
}

// Monitored returns the monitored participants ordered by name.
func (s *State) Monitored() []Participant {
	s.mu.Lock()
	participants := lo.Values(s.monitored)
	s.mu.Unlock()

	slices.SortFunc(participants, func(a, b Participant) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.UserID, b.UserID))
	})
	return participants
}

// SetExtended flags or unflags a participant for a doubled allowance and
// reports whether anything changed.
func (s *State) SetExtended(userID string, extended bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, was := s.extended[userID]
	if extended {
		s.extended[userID] = struct{}{}
	} else {
		delete(s.extended, userID)
	}
	return was != extended
}

func (s *State) IsExtended(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.extended[userID]
	return ok
}

// StartTalking overwrites the start of the participant's talk interval.
func (s *State) StartTalking(userID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.talkStart[userID] = at
}

func (s *State) TalkStart(userID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.talkStart[userID]
	return at, ok
}

// MarkMuted adds the entry to the muted set. It returns false, leaving the
// set untouched, if the participant is already muted.
func (s *State) MarkMuted(entry MutedEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.muted[entry.UserID]; ok {
		return false
	}
	s.muted[entry.UserID] = entry
	return true
}

func (s *State) ClearMuted(userID string) (MutedEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.muted[userID]
	if ok {
		delete(s.muted, userID)
	}
	return entry, ok
}

// ReleaseMuted removes entry from the muted set if it is still the current
// mute of its participant. The caller that gets true owns the unmute.
func (s *State) ReleaseMuted(entry MutedEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.muted[entry.UserID]
	if !ok || !current.Since.Equal(entry.Since) {
		return false
	}
	delete(s.muted, entry.UserID)
	return true
}

func (s *State) IsMuted(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.muted[userID]
	return ok
}

// Muted returns the muted participants, soonest unmute first.
func (s *State) Muted() []MutedEntry {
	s.mu.Lock()
	entries := lo.Values(s.muted)
	s.mu.Unlock()

	slices.SortFunc(entries, func(a, b MutedEntry) int {
		return cmp.Or(a.Until().Compare(b.Until()), cmp.Compare(a.UserID, b.UserID))
	})
	return entries
}

func (s *State) Record(userID string) (MuteRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	return rec, ok
}

func (s *State) SetRecord(userID string, rec MuteRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[userID] = rec
}

// PruneRecords drops mute records last written before cutoff, keeping those of
// participants that are muted right now. It returns how many were dropped.
func (s *State) PruneRecords(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for userID, rec := range s.records {
		if _, muted := s.muted[userID]; muted {
			continue
		}
		if rec.LastMute.Before(cutoff) {
			delete(s.records, userID)
			pruned++
		}
	}
	return pruned
}
