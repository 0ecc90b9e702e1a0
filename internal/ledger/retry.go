package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/thivyan-jeyamohan/pearlora-travel-webapp-sub001/internal/model"
)

type storeOp func(ctx context.Context) (model.SeatLedgerEntry, error)

// run executes op with the configured retry policy.  Each attempt gets its
// own deadline on a context detached from the caller, so a request that is
// abandoned mid-write cannot interrupt a write that already left the
// process.  Retries stop as soon as the caller is gone; since only
// Transient failures are retried, nothing has landed at that point.
func (l *Ledger) run(ctx context.Context, name string, op storeOp) (model.SeatLedgerEntry, error) {
	delay := l.cfg.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= l.cfg.Attempts; attempt++ {
		entry, err := l.attempt(ctx, op)
		if err == nil {
			return entry, nil
		}
		if isDomain(err) {
			return model.SeatLedgerEntry{}, err
		}
		if !IsTransient(err) {
			l.log.Errorf("ledger: %s failed: %v", name, err)
			return model.SeatLedgerEntry{}, fmt.Errorf("%w: %s", ErrStorageUnavailable, name)
		}
		lastErr = err
		if attempt == l.cfg.Attempts {
			break
		}
		l.log.Warnf("ledger: %s attempt %d/%d failed: %v; retrying in %s", name, attempt, l.cfg.Attempts, err, delay)
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return model.SeatLedgerEntry{}, fmt.Errorf("%w: %s abandoned: %v", ErrStorageUnavailable, name, ctx.Err())
		case <-t.C:
		}
		delay *= 2
		if delay > l.cfg.MaxDelay {
			delay = l.cfg.MaxDelay
		}
	}
	l.log.Errorf("ledger: %s gave up after %d attempts: %v", name, l.cfg.Attempts, lastErr)
	return model.SeatLedgerEntry{}, fmt.Errorf("%w: %s after %d attempts", ErrStorageUnavailable, name, l.cfg.Attempts)
}

func (l *Ledger) attempt(ctx context.Context, op storeOp) (model.SeatLedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		// Nothing was sent yet; report it like any pre-send failure.
		return model.SeatLedgerEntry{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.cfg.OpTimeout)
	defer cancel()
	return op(opCtx)
}
