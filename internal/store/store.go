// Package store provides focused, single-concern data access stores
// for the recoup backend.
//
// Each store owns one domain (debts, contacts, change log, snapshots,
// reports) and embeds shared helpers (Pool, logger) via the Base struct.
// Stores never import each other; shared logic lives in this file.
package store

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/recoupio/recoup/internal/dbpool"
)

const defaultQueryTimeout = 30 * time.Second

// Base contains shared dependencies for all stores.
// Embed this in each store struct.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// filterBuilder accumulates WHERE conditions with positional args.
type filterBuilder struct {
	conditions []string
	args       []any
}

// add appends a condition; the placeholder $N is substituted for "$?".
func (f *filterBuilder) add(condition string, arg any) {
	f.args = append(f.args, arg)
	f.conditions = append(f.conditions, strings.Replace(condition, "$?", "$"+strconv.Itoa(len(f.args)), 1))
}

// where renders the accumulated conditions joined by AND, prefixed by the
// given keyword ("WHERE" or "AND"), or an empty string if none.
func (f *filterBuilder) where(keyword string) string {
	if len(f.conditions) == 0 {
		return ""
	}

	return " " + keyword + " " + strings.Join(f.conditions, " AND ")
}

// next returns the next positional placeholder index.
func (f *filterBuilder) next() int { return len(f.args) + 1 }
