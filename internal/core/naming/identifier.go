package naming

import (
	"fmt"
	"time"
)

// InputIdentifier mints the idempotency key for a physical input. It folds
// the modification time in so re-uploading the same filename produces a new
// key and the item is reprocessed; a stable provider file id is deliberately
// not used.
func InputIdentifier(sourceID, filename string, modifiedAt time.Time) string {
	if sourceID == "" {
		sourceID = "local"
	}
	return fmt.Sprintf("%s:%s@%d", sourceID, filename, modifiedAt.UTC().Unix())
}
