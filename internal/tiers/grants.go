package tiers

import (
	"sort"
	"sync"
	"time"
)

type Store interface {
	Load() (Expirations, error)
	Save(Expirations) error
}

// Grants owns the expirations of every user and persists
// the whole of them after each change
type Grants struct {
	mu          sync.Mutex
	store       Store
	expirations Expirations
}

func NewGrants(store Store) (*Grants, error) {
	expirations, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &Grants{store: store, expirations: expirations}, nil
}

// Set the provided tiers for the user, keeping the ones not mentioned
func (g *Grants) Set(userId string, tiers map[Tier]Expiration) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	previous, existed := g.expirations[userId]
	updated := make(map[Tier]Expiration, len(previous)+len(tiers))
	for tier, expiration := range previous {
		updated[tier] = expiration
	}
	for tier, expiration := range tiers {
		updated[tier] = expiration
	}
	g.expirations[userId] = updated

	if err := g.store.Save(g.expirations); err != nil {
		if existed {
			g.expirations[userId] = previous
		} else {
			delete(g.expirations, userId)
		}
		return err
	}
	return nil
}

// Copy of the tiers currently held by the user
func (g *Grants) Of(userId string) map[Tier]Expiration {
	g.mu.Lock()
	defer g.mu.Unlock()

	tiers := make(map[Tier]Expiration, len(g.expirations[userId]))
	for tier, expiration := range g.expirations[userId] {
		tiers[tier] = expiration
	}
	return tiers
}

// Number of users holding at least one tier
func (g *Grants) Users() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.expirations)
}

// Every grant that is over at the provided time, ordered by user and tier
func (g *Grants) Expired(now time.Time) []Grant {
	g.mu.Lock()
	defer g.mu.Unlock()

	expired := []Grant{}
	for userId, tiers := range g.expirations {
		for tier, expiration := range tiers {
			if expiration.Expired(now) {
				expired = append(expired, Grant{userId, tier, expiration})
			}
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		if expired[i].UserId != expired[j].UserId {
			return expired[i].UserId < expired[j].UserId
		}
		return expired[i].Tier < expired[j].Tier
	})
	return expired
}

// Remove the provided grants and persist if anything changed.
// A grant whose expiration changed in the meantime is kept.
// Users left without tiers disappear.
// Returns the number of grants removed
func (g *Grants) Remove(grants []Grant) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for _, grant := range grants {
		tiers, ok := g.expirations[grant.UserId]
		if !ok {
			continue
		}
		current, ok := tiers[grant.Tier]
		if !ok || !current.Equal(grant.Expiration) {
			continue
		}
		delete(tiers, grant.Tier)
		removed++
		if len(tiers) == 0 {
			delete(g.expirations, grant.UserId)
		}
	}

	if removed == 0 {
		return 0, nil
	}
	return removed, g.store.Save(g.expirations)
}
