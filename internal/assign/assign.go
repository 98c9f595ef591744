// Package assign selects the mechanic a new service request is bound to.
package assign

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ukydev/service-center/internal/apperr"
	"github.com/ukydev/service-center/internal/models"
)

// Strategy names a configurable assignment policy.
type Strategy string

const (
	StrategyLeastLoaded Strategy = "least_loaded"
	StrategyRandom      Strategy = "random"
)

// Policy picks one mechanic from the roster. An empty roster yields
// apperr.ErrNoMechanicAvailable.
type Policy interface {
	Assign(ctx context.Context, roster []models.User) (string, error)
}

// Workload counts the requests currently assigned to a mechanic.
type Workload interface {
	CountAssigned(ctx context.Context, mechanicID string) (int64, error)
}

// New builds the policy for strategy.
func New(strategy Strategy, workload Workload) (Policy, error) {
	switch strategy {
	case StrategyLeastLoaded, "":
		if workload == nil {
			return nil, fmt.Errorf("least loaded assignment needs a workload counter")
		}
		return &LeastLoaded{Workload: workload}, nil
	case StrategyRandom:
		return NewRandom(time.Now().UnixNano()), nil
	default:
		return nil, fmt.Errorf("unknown assignment strategy %q", strategy)
	}
}

// LeastLoaded picks the mechanic with the fewest assigned requests. Ties go
// to the mechanic that comes first in the roster. Counting and inserting are
// separate steps, so concurrent creations may pick the same mechanic.
type LeastLoaded struct {
	Workload Workload
}

// Assign implements Policy.
func (p *LeastLoaded) Assign(ctx context.Context, roster []models.User) (string, error) {
	if len(roster) == 0 {
		return "", apperr.ErrNoMechanicAvailable
	}
	best := ""
	var bestCount int64
	for _, m := range roster {
		id := m.ID.Hex()
		n, err := p.Workload.CountAssigned(ctx, id)
		if err != nil {
			return "", fmt.Errorf("count workload of mechanic %s: %w", id, err)
		}
		if best == "" || n < bestCount {
			best, bestCount = id, n
		}
	}
	return best, nil
}

// Random picks uniformly at random from the roster.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom creates a random policy with a fixed seed.
func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

// Assign implements Policy.
func (p *Random) Assign(ctx context.Context, roster []models.User) (string, error) {
	if len(roster) == 0 {
		return "", apperr.ErrNoMechanicAvailable
	}
	p.mu.Lock()
	i := p.rng.Intn(len(roster))
	p.mu.Unlock()
	return roster[i].ID.Hex(), nil
}
