package arena

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/chain"
	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/config"
)

var (
	testAccount  = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testOpponent = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

func testConfig() *config.Config {
	return &config.Config{
		FetchWindow:      25,
		FetchThrottle:    0,
		RetryBackoff:     0,
		RetryAttempts:    2,
		VisibilityWindow: 300 * time.Second,
	}
}

func rawPending(id uint64, creator common.Address, stakeWei int64, guess uint8, lastUpdate int64) chain.RawMatch {
	return chain.RawMatch{
		Id:           id,
		Creator:      creator,
		Stake:        big.NewInt(stakeWei),
		Status:       uint8(StatusPending),
		LastUpdate:   lastUpdate,
		CreatorGuess: guess,
	}
}

type fakeReader struct {
	mu           sync.Mutex
	matches      []chain.RawMatch
	balance      *big.Int
	countCalls   int
	readCalls    int
	balanceCalls int
	failReads    map[uint64]int
	countGate    chan struct{}
}

func newFakeReader(matches ...chain.RawMatch) *fakeReader {
	return &fakeReader{
		matches:   matches,
		balance:   big.NewInt(0),
		failReads: map[uint64]int{},
	}
}

func (f *fakeReader) MatchCount(ctx context.Context) (uint64, error) {
	f.mu.Lock()
	f.countCalls++
	gate := f.countGate
	count := uint64(len(f.matches))
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return count, nil
}

func (f *fakeReader) MatchAt(ctx context.Context, index uint64) (chain.RawMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.readCalls++
	if remaining := f.failReads[index]; remaining != 0 {
		if remaining > 0 {
			f.failReads[index] = remaining - 1
		}
		return chain.RawMatch{}, fmt.Errorf("request limit reached at index %d", index)
	}
	if index >= uint64(len(f.matches)) {
		return chain.RawMatch{}, fmt.Errorf("index %d out of range", index)
	}
	return f.matches[index], nil
}

func (f *fakeReader) PendingBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceCalls++
	return new(big.Int).Set(f.balance), nil
}

func (f *fakeReader) append(raw chain.RawMatch) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matches = append(f.matches, raw)
}

func (f *fakeReader) replace(index uint64, raw chain.RawMatch) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matches[index] = raw
}

func (f *fakeReader) calls() (count, reads, balances int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countCalls, f.readCalls, f.balanceCalls
}

type fakeTx struct {
	hash    string
	waitErr error
	onWait  func()
}

func (t *fakeTx) Hash() string {
	return t.hash
}

func (t *fakeTx) Wait(ctx context.Context) error {
	if t.onWait != nil {
		t.onWait()
	}
	return t.waitErr
}

type fakeWriter struct {
	account   common.Address
	submitErr error
	waitErr   error
	onSubmit  func(op string)
	onConfirm func(op string)
	submits   []string
}

func (w *fakeWriter) Account() common.Address {
	return w.account
}

func (w *fakeWriter) submit(op string) (chain.PendingTx, error) {
	w.submits = append(w.submits, op)
	if w.onSubmit != nil {
		w.onSubmit(op)
	}
	if w.submitErr != nil {
		return nil, w.submitErr
	}

	tx := &fakeTx{hash: "0xtx-" + op, waitErr: w.waitErr}
	if w.onConfirm != nil {
		tx.onWait = func() { w.onConfirm(op) }
	}
	return tx, nil
}

func (w *fakeWriter) SubmitCreate(ctx context.Context, guess uint8, stake *big.Int) (chain.PendingTx, error) {
	return w.submit("createMatch")
}

func (w *fakeWriter) SubmitJoin(ctx context.Context, id uint64, guess uint8, stake *big.Int) (chain.PendingTx, error) {
	return w.submit("joinMatch")
}

func (w *fakeWriter) SubmitCancel(ctx context.Context, id uint64) (chain.PendingTx, error) {
	return w.submit("cancelMatch")
}

func (w *fakeWriter) SubmitWithdraw(ctx context.Context) (chain.PendingTx, error) {
	return w.submit("withdraw")
}

func (w *fakeWriter) SubmitEmergencyClaim(ctx context.Context, id uint64) (chain.PendingTx, error) {
	return w.submit("emergencyClaim")
}

func (w *fakeWriter) SubmitSetName(ctx context.Context, name string) (chain.PendingTx, error) {
	return w.submit("setName")
}

func staticWriter(w *fakeWriter) WriterFactory {
	return func(ctx context.Context) (Writer, error) { return w, nil }
}

type fakeHub struct {
	mu     sync.Mutex
	events map[string][]any
}

func newFakeHub() *fakeHub {
	return &fakeHub{events: map[string][]any{}}
}

func (h *fakeHub) Publish(topic string, event any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events[topic] = append(h.events[topic], event)
}

func (h *fakeHub) count(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events[topic])
}
