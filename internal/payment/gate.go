// Package payment models the external payment dependency as a pass/fail gate.
package payment

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/Domenick1991/ticketbooking/internal/domain"
)

// DefaultFailureRate matches the reference behaviour of failing one charge in ten.
const DefaultFailureRate = 0.1

type Charge struct {
	UserID   string
	Tier     domain.TierName
	Quantity int
}

// Gate authorizes a charge. A non-nil error means the booking must not proceed.
type Gate interface {
	Authorize(ctx context.Context, charge Charge) error
}

// RandomGate declines charges independently of inventory with a fixed probability.
type RandomGate struct {
	mu          sync.Mutex
	rnd         *rand.Rand
	failureRate float64
}

func NewRandomGate(failureRate float64, src rand.Source) (*RandomGate, error) {
	if failureRate < 0 || failureRate > 1 {
		return nil, fmt.Errorf("failure rate %v outside [0,1]", failureRate)
	}
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &RandomGate{rnd: rand.New(src), failureRate: failureRate}, nil
}

func (g *RandomGate) Authorize(ctx context.Context, _ Charge) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	roll := g.rnd.Float64()
	g.mu.Unlock()
	if roll < g.failureRate {
		return domain.ErrPaymentFailed
	}
	return nil
}

// StaticGate always returns the same outcome.
type StaticGate struct {
	Decline bool
}

func Approve() StaticGate { return StaticGate{} }

func Decline() StaticGate { return StaticGate{Decline: true} }

func (g StaticGate) Authorize(ctx context.Context, _ Charge) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if g.Decline {
		return domain.ErrPaymentFailed
	}
	return nil
}
