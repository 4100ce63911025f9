package tiers

import (
	"donorbot/internal/common"
	"fmt"
)

type DatabaseTiers struct {
	common.Database
}

func NewDatabaseTiers(filename string) DatabaseTiers {
	return DatabaseTiers{common.NewDatabase(filename)}
}

// Load the snapshot, or no grants at all if it was never written
func (db *DatabaseTiers) Load() (Expirations, error) {
	expirations := Expirations{}
	if _, err := db.Database.Load(&expirations); err != nil {
		return nil, err
	}
	if expirations == nil {
		expirations = Expirations{}
	}
	for userId, tiers := range expirations {
		for tier := range tiers {
			if _, err := ParseTier(string(tier)); err != nil {
				return nil, &common.StorageError{Op: "decode", Filename: db.Filename(), Err: fmt.Errorf("user %s: %w", userId, err)}
			}
		}
		if len(tiers) == 0 {
			delete(expirations, userId)
		}
	}
	return expirations, nil
}

func (db *DatabaseTiers) Save(expirations Expirations) error {
	return db.Database.Save(expirations)
}
