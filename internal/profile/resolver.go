package profile

import (
	"context"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/kollektive-hackathon/arbiter-agent/internal/arena"
	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/chain"
	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/config"
	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/reject"
	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/retry"
)

// NameReader is the identity-registry read interface. An empty name with a
// nil error means "registry reachable, no name set".
type NameReader interface {
	ResolvedName(ctx context.Context, addr common.Address) (string, error)
}

// Resolver memoizes address-to-name lookups for the process lifetime.
// Registry failures fall back to the deterministic pseudo-name without
// caching, so a later call can retry the registry.
type Resolver struct {
	reader    NameReader
	pipeline  *arena.Pipeline
	account   common.Address
	batchSize int
	pacer     *retry.Throttle

	mu    sync.RWMutex
	names map[common.Address]string
}

func NewResolver(cfg *config.Config, reader NameReader, pipeline *arena.Pipeline, account common.Address) *Resolver {
	batchSize := cfg.NameBatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	return &Resolver{
		reader:    reader,
		pipeline:  pipeline,
		account:   account,
		batchSize: batchSize,
		pacer:     retry.NewThrottle(cfg.NameBatchPause),
		names:     make(map[common.Address]string),
	}
}

// ResolveName never fails: any registry trouble degrades to the deterministic
// fallback. The sentinel address resolves locally with no call at all.
func (r *Resolver) ResolveName(ctx context.Context, addr common.Address) string {
	if addr == chain.ZeroAddress {
		return UnknownLabel
	}

	r.mu.RLock()
	cached, ok := r.names[addr]
	r.mu.RUnlock()
	if ok {
		return cached
	}

	name, err := r.reader.ResolvedName(ctx, addr)
	if err != nil {
		log.Warn().Err(err).Str("address", addr.Hex()).Msg("Name lookup failed, using fallback")
		return DeterministicName(addr)
	}

	if name == "" {
		name = DeterministicName(addr)
	}

	r.mu.Lock()
	r.names[addr] = name
	r.mu.Unlock()
	return name
}

// ResolveAll resolves a set of addresses in small paced batches to stay under
// the request-rate ceiling. Cached and sentinel addresses are answered before
// any batching happens.
func (r *Resolver) ResolveAll(ctx context.Context, addrs []common.Address) map[common.Address]string {
	resolved := make(map[common.Address]string, len(addrs))
	pending := make([]common.Address, 0, len(addrs))

	r.mu.RLock()
	for _, addr := range addrs {
		if _, seen := resolved[addr]; seen {
			continue
		}
		if addr == chain.ZeroAddress {
			resolved[addr] = UnknownLabel
			continue
		}
		if cached, ok := r.names[addr]; ok {
			resolved[addr] = cached
			continue
		}
		resolved[addr] = "" // placeholder marks it as scheduled
		pending = append(pending, addr)
	}
	r.mu.RUnlock()

	for start := 0; start < len(pending); start += r.batchSize {
		if err := r.pacer.Wait(ctx); err != nil {
			break
		}

		end := start + r.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		for _, addr := range pending[start:end] {
			resolved[addr] = r.ResolveName(ctx, addr)
		}
	}

	// Anything skipped by cancellation still gets a deterministic answer.
	for addr, name := range resolved {
		if name == "" {
			resolved[addr] = DeterministicName(addr)
		}
	}
	return resolved
}

// SetName submits the self-declared name through the mutating pipeline. The
// local cache for the session's own address updates only after the write has
// confirmed; this is the single permitted local cache write.
func (r *Resolver) SetName(ctx context.Context, name string) (*arena.Receipt, *reject.ProblemWithTrace) {
	trimmed := strings.TrimSpace(name)

	receipt, problem := r.pipeline.SetName(ctx, trimmed)
	if problem != nil {
		return nil, problem
	}

	if r.account != chain.ZeroAddress {
		r.mu.Lock()
		r.names[r.account] = trimmed
		r.mu.Unlock()
	}
	return receipt, nil
}
