package ledger

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

var ErrInvalidAmount = errors.New("donation amount must be positive")

type Entry struct {
	UserId string
	Total  int
}

type Store interface {
	Load() (Donations, error)
	Save(Donations) error
}

// The ledger owns the donations of every user and persists
// the whole of them after each change
type Ledger struct {
	mu        sync.Mutex
	store     Store
	donations Donations
}

func NewLedger(store Store) (*Ledger, error) {
	donations, err := store.Load()
	if err != nil {
		return nil, err
	}
	log.Info().Int("users", len(donations)).Msg("Ledger loaded")
	return &Ledger{store: store, donations: donations}, nil
}

// Append a donation and return the new total of the user
func (l *Ledger) RecordDonation(userId string, amount int) (int, error) {

	if amount <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidAmount, amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	previous, existed := l.donations[userId]
	l.donations[userId] = append(previous[:len(previous):len(previous)], amount)
	if err := l.store.Save(l.donations); err != nil {
		// Keep memory in line with what is on disk
		if existed {
			l.donations[userId] = previous
		} else {
			delete(l.donations, userId)
		}
		return 0, err
	}

	total := sum(l.donations[userId])
	log.Info().Str("user", userId).Int("amount", amount).Int("total", total).Msg("Donation recorded")
	return total, nil
}

// Full donation history of the user, oldest first
func (l *Ledger) History(userId string) ([]int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	amounts, ok := l.donations[userId]
	if !ok {
		return nil, false
	}
	return append([]int(nil), amounts...), true
}

// The n most recent donations of the user, oldest first
func (l *Ledger) Recent(userId string, n int) ([]int, bool) {
	amounts, ok := l.History(userId)
	if !ok {
		return nil, false
	}
	if n >= 0 && len(amounts) > n {
		amounts = amounts[len(amounts)-n:]
	}
	return amounts, true
}

func (l *Ledger) Total(userId string) int {
	amounts, _ := l.History(userId)
	return sum(amounts)
}

// Whether the user has donated at least once
func (l *Ledger) HasDonated(userId string) bool {
	amounts, ok := l.History(userId)
	return ok && len(amounts) > 0
}

// Users ordered by total donated, highest first, at most limit of them.
// Ties are ordered by user id
func (l *Ledger) Leaderboard(limit int) []Entry {
	l.mu.Lock()
	entries := make([]Entry, 0, len(l.donations))
	for userId, amounts := range l.donations {
		if len(amounts) == 0 {
			continue
		}
		entries = append(entries, Entry{userId, sum(amounts)})
	}
	l.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Total != entries[j].Total {
			return entries[i].Total > entries[j].Total
		}
		return entries[i].UserId < entries[j].UserId
	})
	if limit >= 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func sum(amounts []int) int {
	total := 0
	for _, amount := range amounts {
		total += amount
	}
	return total
}
