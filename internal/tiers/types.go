package tiers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidTier = errors.New("invalid tier")
	ErrNotEligible = errors.New("user has no recorded donations")
)

type Tier string

const (
	Donor    Tier = "donor"
	Orbital  Tier = "orbital"
	Galactic Tier = "galactic"
	Cosmic   Tier = "cosmic"
)

const day = 24 * time.Hour

type policy struct {
	label     string
	duration  time.Duration
	permanent bool
	color     int
}

var policies = map[Tier]policy{
	Donor:    {label: "Donor", color: 0xF5CB7A},
	Orbital:  {label: "Orbital", duration: 30 * day, color: 0x5DADE2},
	Galactic: {label: "Galactic", duration: 90 * day, color: 0x9B59B6},
	Cosmic:   {label: "Cosmic", permanent: true, color: 0xF1C40F},
}

// Tiers that can be granted, lowest first. The donor tier
// comes with any of them
var Elevated = []Tier{Orbital, Galactic, Cosmic}

func ParseTier(name string) (Tier, error) {
	tier := Tier(name)
	if _, ok := policies[tier]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidTier, name)
	}
	return tier, nil
}

func (tier Tier) Label() string {
	return policies[tier].label
}

func (tier Tier) Color() int {
	return policies[tier].color
}

func (tier Tier) IsElevated() bool {
	_, ok := policies[tier]
	return ok && tier != Donor
}

// Expiration of a grant made at the provided time
func (tier Tier) ExpirationFrom(now time.Time) Expiration {
	p := policies[tier]
	if p.permanent {
		return Never
	}
	return ExpiresAt(now.Add(p.duration))
}

// Expiration is either a concrete instant or never.
// It is encoded as an RFC 3339 string or as null
type Expiration struct {
	at    time.Time
	never bool
}

var Never = Expiration{never: true}

func ExpiresAt(at time.Time) Expiration {
	return Expiration{at: at}
}

func (e Expiration) IsNever() bool {
	return e.never
}

func (e Expiration) At() time.Time {
	return e.at
}

// Whether the grant is over at the provided time
func (e Expiration) Expired(now time.Time) bool {
	return !e.never && !e.at.After(now)
}

func (e Expiration) Equal(other Expiration) bool {
	if e.never || other.never {
		return e.never == other.never
	}
	return e.at.Equal(other.at)
}

func (e Expiration) String() string {
	if e.never {
		return "never"
	}
	return e.at.Format(time.RFC3339)
}

func (e Expiration) MarshalJSON() ([]byte, error) {
	if e.never {
		return []byte("null"), nil
	}
	return json.Marshal(e.at)
}

func (e *Expiration) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*e = Never
		return nil
	}
	var at time.Time
	if err := json.Unmarshal(data, &at); err != nil {
		return err
	}
	*e = ExpiresAt(at)
	return nil
}

// Expirations of every tier held by every user
type Expirations map[string]map[Tier]Expiration

// A single tier held by a user
type Grant struct {
	UserId     string
	Tier       Tier
	Expiration Expiration
}
