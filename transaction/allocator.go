package transaction

import (
	"context"
	"errors"
	"fmt"
	"math"
	mathrand "math/rand/v2"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/rutvik18Verticals/ally-xs-transactions/telemetry"
)

// Rand is the source of candidate transaction ids. Implementations must be
// safe for concurrent use.
type Rand interface {
	// Int32N returns a uniform random int32 in [0, n).
	Int32N(n int32) int32
}

// SystemRand adapts the shared math/rand/v2 generator, which is safe for
// concurrent use.
type SystemRand struct{}

func (SystemRand) Int32N(n int32) int32 { return mathrand.Int32N(n) }

// IDAllocator hands out transaction ids that are free in the backing store
// at allocation time. An in-process claimed-id set closes the window between
// two concurrent local allocations picking the same candidate; allocations
// from other processes can still race the store check and are resolved by
// the store's primary key.
type IDAllocator struct {
	checker Checker
	rand    Rand
	claimed *xsync.MapOf[int32, struct{}]
}

// NewIDAllocator creates an allocator over the given existence checker. A
// nil rnd selects SystemRand.
func NewIDAllocator(checker Checker, rnd Rand) (*IDAllocator, error) {
	if checker == nil {
		return nil, errors.New("transaction: id allocator requires an existence checker")
	}
	if rnd == nil {
		rnd = SystemRand{}
	}
	return &IDAllocator{
		checker: checker,
		rand:    rnd,
		claimed: xsync.NewMapOf[int32, struct{}](),
	}, nil
}

// Allocate picks a random upper bound in [1, MaxInt32] and then candidates
// in [1, bound) until the store reports one free. There is no retry cap; the
// id space is sparse enough that the loop terminates quickly in practice.
func (a *IDAllocator) Allocate(ctx context.Context, correlationID string) (int32, error) {
	bound := a.rand.Int32N(math.MaxInt32) + 1
	if bound < 2 {
		// Keep [1, bound) non-empty.
		bound = 2
	}

	for {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("allocate transaction id: %w", err)
		}

		candidate := a.rand.Int32N(bound-1) + 1
		if _, loaded := a.claimed.LoadOrStore(candidate, struct{}{}); loaded {
			telemetry.AllocatorRetriesTotal.Inc()
			continue
		}

		exists, err := a.checker.TransactionIDExists(ctx, candidate, correlationID)
		if err != nil {
			a.claimed.Delete(candidate)
			return 0, fmt.Errorf("check transaction id %d: %w", candidate, err)
		}
		if exists {
			// The store already owns this id; the local claim is moot.
			a.claimed.Delete(candidate)
			telemetry.AllocatorRetriesTotal.Inc()
			continue
		}

		telemetry.LiveTransactions.Inc()
		return candidate, nil
	}
}

// Release discards the in-process claim for an id whose transaction is
// either durably stored or was never composed. Safe to call twice.
func (a *IDAllocator) Release(id int32) {
	if _, loaded := a.claimed.LoadAndDelete(id); loaded {
		telemetry.LiveTransactions.Dec()
	}
}
