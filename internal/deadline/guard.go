// Package deadline enforces per-location wall clock budgets through
// cooperative checkpoints. Работа, вышедшая за бюджет, бросается между
// чекпоинтами; частичный результат никуда не записывается.
package deadline

import (
	"errors"
	"time"
)

// DefaultBudget is the per-location resolution budget.
const DefaultBudget = 60 * time.Second

// ErrExpired is returned by every Check call after the budget ran out.
var ErrExpired = errors.New("resolution deadline expired")

// checkMask: часы опрашиваем раз в 64 шага, остальные чекпоинты бесплатные.
const checkMask = 63

// Guard is one armed budget. A nil Guard never expires, so callers can pass
// it through unconditionally.
type Guard struct {
	deadline time.Time
	steps    uint64
	err      error
}

// Start arms a guard with the given budget. budget <= 0 expires immediately.
func Start(budget time.Duration) *Guard {
	return &Guard{deadline: time.Now().Add(budget)}
}

// Check is the cooperative checkpoint. Cheap on most calls; consults the
// clock every checkMask+1 steps. Expiry is sticky.
func (g *Guard) Check() error {
	if g == nil {
		return nil
	}
	if g.err != nil {
		return g.err
	}
	if g.steps&checkMask == 0 && !time.Now().Before(g.deadline) {
		g.err = ErrExpired
	}
	g.steps++
	return g.err
}

// Expired reports whether the guard has tripped.
func (g *Guard) Expired() bool {
	return g != nil && g.err != nil
}
