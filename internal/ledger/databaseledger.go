package ledger

import (
	"donorbot/internal/common"
)

// Donations maps a user id to the amounts donated, oldest first
type Donations map[string][]int

type DatabaseLedger struct {
	common.Database
}

func NewDatabaseLedger(filename string) DatabaseLedger {
	return DatabaseLedger{common.NewDatabase(filename)}
}

// Load the snapshot, or an empty ledger if it was never written
func (db *DatabaseLedger) Load() (Donations, error) {
	donations := Donations{}
	if _, err := db.Database.Load(&donations); err != nil {
		return nil, err
	}
	if donations == nil {
		donations = Donations{}
	}
	return donations, nil
}

func (db *DatabaseLedger) Save(donations Donations) error {
	return db.Database.Save(donations)
}
