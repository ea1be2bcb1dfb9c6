package audit

import (
	"log"

	"github.com/zabora/subscription-service/app/models"
	"github.com/zabora/subscription-service/app/repository"
)

// Entry is one lifecycle event to append to the audit trail.
type Entry struct {
	SubscriptionID string
	UserID         string
	Action         string
	StateBefore    string
	StateAfter     string
	Description    string
	Actor          string
}

// Record appends an entry through the given store. Pass the transactional
// store when the entry must commit atomically with the transition it
// describes.
func Record(store repository.Store, e Entry) error {
	return store.Logs().Append(&models.SubscriptionLog{
		SubscriptionID: e.SubscriptionID,
		UserID:         e.UserID,
		Action:         e.Action,
		StateBefore:    e.StateBefore,
		StateAfter:     e.StateAfter,
		Description:    e.Description,
		Actor:          e.Actor,
	})
}

// RecordBestEffort appends an entry outside any transactional guarantee and
// only logs failures. Used on paths where losing the audit row must not fail
// the user-facing operation that already committed.
func RecordBestEffort(store repository.Store, e Entry) {
	if err := Record(store, e); err != nil {
		log.Printf("audit append failed for subscription %s (%s): %v", e.SubscriptionID, e.Action, err)
	}
}
