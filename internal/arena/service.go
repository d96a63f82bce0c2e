package arena

import (
	"context"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/chain"
	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/config"
	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/guard"
	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/reject"
	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/retry"
)

// Reader is the no-signer slice of the ledger the engine reconciles against.
type Reader interface {
	MatchCount(ctx context.Context) (uint64, error)
	MatchAt(ctx context.Context, index uint64) (chain.RawMatch, error)
	PendingBalance(ctx context.Context, addr common.Address) (*big.Int, error)
}

// Notifier fans a topic event out to whoever is listening. May be nil.
type Notifier interface {
	Publish(topic string, event any)
}

const (
	TopicMatches = "matches"
	TopicBalance = "balance"
	TopicActions = "actions"
)

type SyncStatus struct {
	LastSync    time.Time       `json:"lastSync"`
	LastError   *reject.Problem `json:"lastError,omitempty"`
	Reconciling bool            `json:"reconciling"`
	ShowHistory bool            `json:"showHistory"`
}

// Engine keeps the local match view eventually consistent with the ledger.
// The view only ever changes as a whole, after a pass completes; a failed
// pass leaves the previous view intact.
type Engine struct {
	reader  Reader
	account common.Address
	hub     Notifier

	window     uint64
	visibility time.Duration
	throttle   *retry.Throttle
	policy     retry.Policy
	now        func() time.Time

	inflight guard.Slot

	mu          sync.RWMutex
	fetched     []Match
	balance     *big.Int
	showHistory bool
	lastSync    time.Time
	lastErr     *reject.Problem
}

func NewEngine(cfg *config.Config, reader Reader, account common.Address, hub Notifier) *Engine {
	return &Engine{
		reader:      reader,
		account:     account,
		hub:         hub,
		window:      cfg.FetchWindow,
		visibility:  cfg.VisibilityWindow,
		throttle:    retry.NewThrottle(cfg.FetchThrottle),
		policy:      retry.Policy{Attempts: cfg.RetryAttempts, Backoff: cfg.RetryBackoff},
		now:         time.Now,
		showHistory: cfg.ShowHistory,
		balance:     new(big.Int),
	}
}

// Reconcile re-fetches the recent record window and swaps the view. Safe to
// call concurrently: a pass already in flight makes the call a no-op that
// returns the current view without issuing a single read.
func (e *Engine) Reconcile(ctx context.Context) ([]Match, *reject.ProblemWithTrace) {
	if !e.inflight.TryAcquire() {
		return e.Matches(), nil
	}
	defer e.inflight.Release()

	var count uint64
	err := e.policy.Do(ctx, func() error {
		var err error
		count, err = e.reader.MatchCount(ctx)
		return err
	})
	if err != nil {
		return nil, e.failPass(reject.FetchFailedProblem(err))
	}

	from := uint64(0)
	if count > e.window {
		from = count - e.window
	}

	fetched := make([]Match, 0, count-from)
	for i := from; i < count; i++ {
		if err := e.throttle.Wait(ctx); err != nil {
			return nil, e.failPass(reject.FetchFailedProblem(err))
		}

		var raw chain.RawMatch
		err := e.policy.Do(ctx, func() error {
			var err error
			raw, err = e.reader.MatchAt(ctx, i)
			return err
		})
		if err != nil {
			return nil, e.failPass(reject.FetchFailedProblem(err))
		}

		m, problem := decodeMatch(raw)
		if problem != nil {
			return nil, e.failPass(problem)
		}
		fetched = append(fetched, m)
	}

	sort.Slice(fetched, func(i, j int) bool { return fetched[i].Id > fetched[j].Id })

	e.mu.Lock()
	e.fetched = fetched
	e.lastSync = e.now()
	e.lastErr = nil
	view := e.visibleLocked()
	e.mu.Unlock()

	log.Debug().Int("fetched", len(fetched)).Int("visible", len(view)).Msg("Reconciliation pass complete")
	if e.hub != nil {
		e.hub.Publish(TopicMatches, view)
	}
	return view, nil
}

// RefreshBalance re-reads the session account's pending withdrawal amount.
// A read-only session (no account) is a no-op.
func (e *Engine) RefreshBalance(ctx context.Context) (*big.Int, *reject.ProblemWithTrace) {
	if e.account == chain.ZeroAddress {
		return new(big.Int), nil
	}

	var amount *big.Int
	err := e.policy.Do(ctx, func() error {
		var err error
		amount, err = e.reader.PendingBalance(ctx, e.account)
		return err
	})
	if err != nil {
		return nil, e.failPass(reject.FetchFailedProblem(err))
	}

	e.mu.Lock()
	e.balance = new(big.Int).Set(amount)
	e.mu.Unlock()

	if e.hub != nil {
		e.hub.Publish(TopicBalance, FormatStake(amount))
	}
	return new(big.Int).Set(amount), nil
}

// Matches returns the current visible view, newest id first.
func (e *Engine) Matches() []Match {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.visibleLocked()
}

// Balance returns the last refreshed pending-withdrawal amount in wei.
func (e *Engine) Balance() *big.Int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return new(big.Int).Set(e.balance)
}

func (e *Engine) Account() common.Address {
	return e.account
}

// SetShowHistory re-filters the already-fetched window; no ledger reads.
func (e *Engine) SetShowHistory(enabled bool) []Match {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.showHistory = enabled
	return e.visibleLocked()
}

func (e *Engine) Status() SyncStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return SyncStatus{
		LastSync:    e.lastSync,
		LastError:   e.lastErr,
		Reconciling: e.inflight.Busy(),
		ShowHistory: e.showHistory,
	}
}

// visibleLocked applies the visibility policy: with history off, terminal
// matches stay visible only while their last update is within the recency
// window, so just-finished matches do not vanish instantly.
func (e *Engine) visibleLocked() []Match {
	cutoff := e.now().Unix() - int64(e.visibility.Seconds())

	view := make([]Match, 0, len(e.fetched))
	for _, m := range e.fetched {
		if !e.showHistory && m.Status.Terminal() && m.LastUpdate < cutoff {
			continue
		}
		view = append(view, m)
	}
	return view
}

func (e *Engine) failPass(problem *reject.ProblemWithTrace) *reject.ProblemWithTrace {
	log.Warn().Err(problem.Cause).Str("category", string(problem.Problem.Category)).Msg("Reconciliation pass aborted, previous view retained")
	e.mu.Lock()
	e.lastErr = &problem.Problem
	e.mu.Unlock()
	return problem
}
