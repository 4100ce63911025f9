package tiers

import (
	"context"
	"fmt"

	"donorbot/internal/common"

	"github.com/rs/zerolog/log"
)

// Anything that knows who has donated
type Donors interface {
	HasDonated(userId string) bool
}

// Gives the user the platform privileges of a tier
type Activator interface {
	ActivateTier(ctx context.Context, userId string, label string, color int) error
}

type Assigner struct {
	donors    Donors
	grants    *Grants
	activator Activator
	clock     common.Clock
}

func NewAssigner(donors Donors, grants *Grants, activator Activator, clock common.Clock) *Assigner {
	return &Assigner{donors, grants, activator, clock}
}

// Grant an elevated tier to a donor. The donor tier is granted
// alongside with the same expiration. Returns that expiration
func (a *Assigner) Grant(ctx context.Context, userId string, tierName string) (Expiration, error) {

	if !a.donors.HasDonated(userId) {
		return Expiration{}, fmt.Errorf("%w: %s", ErrNotEligible, userId)
	}

	tier, err := ParseTier(tierName)
	if err != nil {
		return Expiration{}, err
	}
	if !tier.IsElevated() {
		return Expiration{}, fmt.Errorf("%w: %q cannot be granted directly", ErrInvalidTier, tierName)
	}

	expiration := tier.ExpirationFrom(a.clock.Now())

	if err := a.activator.ActivateTier(ctx, userId, tier.Label(), tier.Color()); err != nil {
		return Expiration{}, fmt.Errorf("could not activate tier %s for user %s: %w", tier, userId, err)
	}

	if err := a.grants.Set(userId, map[Tier]Expiration{Donor: expiration, tier: expiration}); err != nil {
		return Expiration{}, err
	}

	log.Info().Str("user", userId).Str("tier", string(tier)).Str("expires", expiration.String()).Msg("Tier granted")
	return expiration, nil
}

// Tiers currently held by the user
func (a *Assigner) Tiers(userId string) map[Tier]Expiration {
	return a.grants.Of(userId)
}
