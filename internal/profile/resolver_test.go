package profile

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kollektive-hackathon/arbiter-agent/internal/arena"
	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/chain"
	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/config"
	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/reject"
)

var (
	selfAddr  = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	otherAddr = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

type fakeRegistry struct {
	mu    sync.Mutex
	names map[common.Address]string
	err   error
	reads int
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{names: map[common.Address]string{}}
}

func (f *fakeRegistry) ResolvedName(ctx context.Context, addr common.Address) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.err != nil {
		return "", f.err
	}
	return f.names[addr], nil
}

func (f *fakeRegistry) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

func testResolver(registry *fakeRegistry, batchSize int) *Resolver {
	cfg := &config.Config{NameBatchSize: batchSize, NameBatchPause: 0}
	return NewResolver(cfg, registry, nil, selfAddr)
}

func TestResolveSentinelNeedsNoCall(t *testing.T) {
	registry := newFakeRegistry()
	r := testResolver(registry, 5)

	for i := 0; i < 3; i++ {
		assert.Equal(t, UnknownLabel, r.ResolveName(context.Background(), chain.ZeroAddress))
	}
	assert.Equal(t, 0, registry.readCount())
}

func TestResolveCachesRegisteredName(t *testing.T) {
	registry := newFakeRegistry()
	registry.names[otherAddr] = "Neon Wolf"
	r := testResolver(registry, 5)

	assert.Equal(t, "Neon Wolf", r.ResolveName(context.Background(), otherAddr))
	assert.Equal(t, "Neon Wolf", r.ResolveName(context.Background(), otherAddr))
	assert.Equal(t, 1, registry.readCount())
}

func TestResolveUnregisteredFallsBackDeterministically(t *testing.T) {
	registry := newFakeRegistry()
	r := testResolver(registry, 5)

	want := DeterministicName(otherAddr)
	assert.Equal(t, want, r.ResolveName(context.Background(), otherAddr))

	// The fallback for a reachable-but-empty registry is cached.
	assert.Equal(t, want, r.ResolveName(context.Background(), otherAddr))
	assert.Equal(t, 1, registry.readCount())
}

func TestResolveFailureFallsBackWithoutCaching(t *testing.T) {
	registry := newFakeRegistry()
	registry.err = errors.New("request limit reached")
	r := testResolver(registry, 5)

	want := DeterministicName(otherAddr)
	assert.Equal(t, want, r.ResolveName(context.Background(), otherAddr))
	assert.Equal(t, want, r.ResolveName(context.Background(), otherAddr))

	// Not cached: every call retried the registry.
	assert.Equal(t, 2, registry.readCount())

	// Once the registry recovers, the real name wins.
	registry.mu.Lock()
	registry.err = nil
	registry.names[otherAddr] = "Iron Titan"
	registry.mu.Unlock()
	assert.Equal(t, "Iron Titan", r.ResolveName(context.Background(), otherAddr))
}

func TestResolveAllSkipsCachedBeforeBatching(t *testing.T) {
	registry := newFakeRegistry()
	r := testResolver(registry, 2)

	addrs := make([]common.Address, 0, 7)
	for i := 1; i <= 7; i++ {
		addrs = append(addrs, common.HexToAddress(fmt.Sprintf("0x%040x", i)))
	}

	// Pre-warm two entries.
	r.ResolveName(context.Background(), addrs[0])
	r.ResolveName(context.Background(), addrs[1])
	require.Equal(t, 2, registry.readCount())

	resolved := r.ResolveAll(context.Background(), addrs)
	assert.Len(t, resolved, 7)
	for _, addr := range addrs {
		assert.NotEmpty(t, resolved[addr])
	}

	// Only the five uncached addresses hit the registry.
	assert.Equal(t, 7, registry.readCount())
}

func TestResolveAllDeduplicatesInput(t *testing.T) {
	registry := newFakeRegistry()
	r := testResolver(registry, 5)

	resolved := r.ResolveAll(context.Background(), []common.Address{otherAddr, otherAddr, chain.ZeroAddress})
	assert.Len(t, resolved, 2)
	assert.Equal(t, UnknownLabel, resolved[chain.ZeroAddress])
	assert.Equal(t, 1, registry.readCount())
}

// --- SetName through the pipeline ---

type scriptedTx struct {
	hash    string
	waitErr error
}

func (s *scriptedTx) Hash() string                   { return s.hash }
func (s *scriptedTx) Wait(ctx context.Context) error { return s.waitErr }

type scriptedWriter struct {
	account common.Address
	waitErr error
	names   []string
}

func (w *scriptedWriter) Account() common.Address { return w.account }

func (w *scriptedWriter) SubmitCreate(ctx context.Context, guess uint8, stake *big.Int) (chain.PendingTx, error) {
	return &scriptedTx{hash: "0x0"}, nil
}

func (w *scriptedWriter) SubmitJoin(ctx context.Context, id uint64, guess uint8, stake *big.Int) (chain.PendingTx, error) {
	return &scriptedTx{hash: "0x0"}, nil
}

func (w *scriptedWriter) SubmitCancel(ctx context.Context, id uint64) (chain.PendingTx, error) {
	return &scriptedTx{hash: "0x0"}, nil
}

func (w *scriptedWriter) SubmitWithdraw(ctx context.Context) (chain.PendingTx, error) {
	return &scriptedTx{hash: "0x0"}, nil
}

func (w *scriptedWriter) SubmitEmergencyClaim(ctx context.Context, id uint64) (chain.PendingTx, error) {
	return &scriptedTx{hash: "0x0"}, nil
}

func (w *scriptedWriter) SubmitSetName(ctx context.Context, name string) (chain.PendingTx, error) {
	w.names = append(w.names, name)
	return &scriptedTx{hash: "0xsetname", waitErr: w.waitErr}, nil
}

type emptyReader struct{}

func (emptyReader) MatchCount(ctx context.Context) (uint64, error) { return 0, nil }

func (emptyReader) MatchAt(ctx context.Context, index uint64) (chain.RawMatch, error) {
	return chain.RawMatch{}, errors.New("no records")
}

func (emptyReader) PendingBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	return new(big.Int), nil
}

func namePipeline(writer *scriptedWriter) *arena.Pipeline {
	cfg := &config.Config{FetchWindow: 25, RetryAttempts: 1, VisibilityWindow: 300 * time.Second}
	engine := arena.NewEngine(cfg, emptyReader{}, writer.account, nil)
	return arena.NewPipeline(func(ctx context.Context) (arena.Writer, error) {
		return writer, nil
	}, engine, nil, 24*time.Hour)
}

func TestSetNameUpdatesOwnCacheAfterConfirmation(t *testing.T) {
	registry := newFakeRegistry()
	writer := &scriptedWriter{account: selfAddr}

	cfg := &config.Config{NameBatchSize: 5}
	r := NewResolver(cfg, registry, namePipeline(writer), selfAddr)

	receipt, problem := r.SetName(context.Background(), "  Azure Oracle ")
	require.Nil(t, problem)
	require.NotNil(t, receipt)
	assert.Equal(t, []string{"Azure Oracle"}, writer.names)

	// Own name now answered from cache, no registry read.
	assert.Equal(t, "Azure Oracle", r.ResolveName(context.Background(), selfAddr))
	assert.Equal(t, 0, registry.readCount())
}

func TestSetNameFailureLeavesCacheUntouched(t *testing.T) {
	registry := newFakeRegistry()
	writer := &scriptedWriter{account: selfAddr, waitErr: errors.New("execution reverted: NAME_ALREADY_TAKEN")}

	cfg := &config.Config{NameBatchSize: 5}
	r := NewResolver(cfg, registry, namePipeline(writer), selfAddr)

	_, problem := r.SetName(context.Background(), "Taken Name")
	require.NotNil(t, problem)
	assert.Equal(t, reject.CategoryNameTaken, problem.Problem.Category)

	// Unconfirmed name must not be visible locally.
	assert.Equal(t, DeterministicName(selfAddr), r.ResolveName(context.Background(), selfAddr))
	assert.Equal(t, 1, registry.readCount())
}
