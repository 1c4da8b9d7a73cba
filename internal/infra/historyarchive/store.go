package historyarchive

import (
	"context"
	"time"

	"github.com/yanqian/air-quality-advisor/internal/domain/historical"
	"github.com/yanqian/air-quality-advisor/pkg/util"
)

const dayLayout = "2006-01-02"

// Store is a historical.Archive that can drop old days.
type Store interface {
	historical.Archive
	// Prune deletes days strictly before cutoff and reports how many were removed.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
	// Close releases connections held by the store.
	Close()
}

func dayOf(t time.Time) time.Time {
	return util.StartOfDay(t)
}
