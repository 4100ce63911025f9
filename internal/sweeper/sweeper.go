package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"donorbot/internal/common"
	"donorbot/internal/tiers"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrPlatformUnavailable = errors.New("platform unavailable")
	ErrRevocationDenied    = errors.New("revocation denied")
)

type State int

const (
	Idle State = iota
	Sweeping
)

func (s State) String() string {
	if s == Sweeping {
		return "sweeping"
	}
	return "idle"
}

// The platform that holds the members of the community and their roles
type Platform interface {
	// Ids of the current members of the community
	Members(ctx context.Context) (map[string]struct{}, error)
	// Remove the role with the provided label from the user.
	// A role the user does not hold counts as removed
	RemoveRole(ctx context.Context, userId string, label string) error
}

// Outcome of a single pass
type Report struct {
	Pass     uuid.UUID
	Skipped  bool
	Expired  int
	Revoked  int
	Deferred int
	Removed  int
}

type Sweeper struct {
	grants   *tiers.Grants
	platform Platform
	clock    common.Clock

	mu    sync.Mutex
	state State
}

func NewSweeper(grants *tiers.Grants, platform Platform, clock common.Clock) *Sweeper {
	return &Sweeper{grants: grants, platform: platform, clock: clock}
}

func (s *Sweeper) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Sweeper) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Revoke every expired tier the platform allows to revoke.
// Nothing that happens during a pass stops the caller
func (s *Sweeper) Sweep(ctx context.Context) (report Report) {

	report.Pass = uuid.New()
	logger := log.With().Str("pass", report.Pass.String()).Logger()

	s.setState(Sweeping)
	defer s.setState(Idle)
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Msg(fmt.Sprintf("Sweep pass panicked: %v", r))
		}
	}()

	now := s.clock.Now()
	expired := s.grants.Expired(now)
	report.Expired = len(expired)
	if len(expired) == 0 {
		logger.Debug().Msg("No expired tiers")
		return report
	}

	members, err := s.platform.Members(ctx)
	if err != nil {
		logger.Warn().Err(fmt.Errorf("%w: %w", ErrPlatformUnavailable, err)).Msg("Skipping sweep pass")
		report.Skipped = true
		return report
	}

	revoked := []tiers.Grant{}
	for _, grant := range expired {
		if _, ok := members[grant.UserId]; !ok {
			logger.Debug().Str("user", grant.UserId).Msg("User is not a member, leaving tier for a later pass")
			report.Deferred++
			continue
		}

		err := s.platform.RemoveRole(ctx, grant.UserId, grant.Tier.Label())
		switch {
		case err == nil:
			revoked = append(revoked, grant)
		case errors.Is(err, ErrRevocationDenied):
			logger.Warn().Str("user", grant.UserId).Str("tier", string(grant.Tier)).Msg("Not allowed to remove role, will retry")
			report.Deferred++
		default:
			logger.Error().Err(err).Str("user", grant.UserId).Str("tier", string(grant.Tier)).Msg("Could not remove role")
			report.Deferred++
		}
	}
	report.Revoked = len(revoked)

	removed, err := s.grants.Remove(revoked)
	report.Removed = removed
	if err != nil {
		logger.Error().Err(err).Msg("Could not save expirations after sweep")
	}

	logger.Info().
		Int("expired", report.Expired).
		Int("revoked", report.Revoked).
		Int("deferred", report.Deferred).
		Msg("Sweep pass finished")
	return report
}
