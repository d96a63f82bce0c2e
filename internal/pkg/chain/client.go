package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"

	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/config"
)

var (
	ErrHandleUnavailable = errors.New("network handle unavailable")
	ErrNoSigner          = errors.New("no signer configured")
)

// PendingTx is a submitted write that must be awaited for confirmation
// before it can be treated as durable.
type PendingTx interface {
	Hash() string
	Wait(ctx context.Context) error
}

type handleKey struct {
	chainId  uint64
	endpoint string
}

// Resolver turns network configuration into call interfaces. Read handles are
// cached by (chain id, endpoint) for the process lifetime; a changed transport
// produces a new cache key, never an update. Write handles are signer-bound
// and built fresh on every request.
type Resolver struct {
	mu      sync.Mutex
	callers map[handleKey]*Caller
}

func NewResolver() *Resolver {
	return &Resolver{callers: make(map[handleKey]*Caller)}
}

func (r *Resolver) ReadHandle(cfg *config.Config) (*Caller, error) {
	if cfg == nil || strings.TrimSpace(cfg.RpcUrl) == "" {
		return nil, ErrHandleUnavailable
	}

	key := handleKey{chainId: cfg.ChainId, endpoint: cfg.RpcUrl}

	r.mu.Lock()
	defer r.mu.Unlock()

	if caller, ok := r.callers[key]; ok {
		return caller, nil
	}

	client, err := ethclient.Dial(cfg.RpcUrl)
	if err != nil {
		log.Warn().Err(err).Str("endpoint", cfg.RpcUrl).Msg("Failed to dial RPC endpoint")
		return nil, fmt.Errorf("%w: %v", ErrHandleUnavailable, err)
	}

	caller := &Caller{
		client: client,
		arena:  bind.NewBoundContract(cfg.ArenaAddress, parsedArenaABI, client, client, client),
	}
	if cfg.ProfilesAddress != ZeroAddress {
		caller.profiles = bind.NewBoundContract(cfg.ProfilesAddress, parsedProfilesABI, client, client, client)
	}

	r.callers[key] = caller
	return caller, nil
}

func (r *Resolver) WriteHandle(cfg *config.Config) (*Transactor, error) {
	caller, err := r.ReadHandle(cfg)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.PrivateKey) == "" {
		return nil, ErrNoSigner
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSigner, err)
	}

	transactor := &Transactor{
		client:  caller.client,
		arena:   bind.NewBoundContract(cfg.ArenaAddress, parsedArenaABI, caller.client, caller.client, caller.client),
		key:     key,
		chainId: new(big.Int).SetUint64(cfg.ChainId),
		account: crypto.PubkeyToAddress(key.PublicKey),
	}
	if cfg.ProfilesAddress != ZeroAddress {
		transactor.profiles = bind.NewBoundContract(cfg.ProfilesAddress, parsedProfilesABI, caller.client, caller.client, caller.client)
	}

	return transactor, nil
}

// Caller is the read-capable arena interface, no signer required.
type Caller struct {
	client   *ethclient.Client
	arena    *bind.BoundContract
	profiles *bind.BoundContract
}

func (c *Caller) MatchCount(ctx context.Context) (uint64, error) {
	var out []interface{}
	if err := c.arena.Call(&bind.CallOpts{Context: ctx}, &out, "nextMatchId"); err != nil {
		return 0, err
	}

	count, ok := out[0].(*big.Int)
	if !ok {
		return 0, errors.New("nextMatchId: unexpected return type")
	}
	return count.Uint64(), nil
}

func (c *Caller) MatchAt(ctx context.Context, index uint64) (RawMatch, error) {
	var out []interface{}
	err := c.arena.Call(&bind.CallOpts{Context: ctx}, &out, "matches", new(big.Int).SetUint64(index))
	if err != nil {
		return RawMatch{}, err
	}
	if len(out) != 10 {
		return RawMatch{}, fmt.Errorf("matches(%d): expected 10 fields, got %d", index, len(out))
	}

	id, ok1 := out[0].(*big.Int)
	creator, ok2 := out[1].(common.Address)
	opponent, ok3 := out[2].(common.Address)
	stake, ok4 := out[3].(*big.Int)
	status, ok5 := out[4].(uint8)
	winner, ok6 := out[5].(common.Address)
	lastUpdate, ok7 := out[6].(*big.Int)
	creatorGuess, ok8 := out[7].(uint8)
	opponentGuess, ok9 := out[8].(uint8)
	targetNumber, ok10 := out[9].(uint8)
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6 && ok7 && ok8 && ok9 && ok10) {
		return RawMatch{}, fmt.Errorf("matches(%d): unexpected field types", index)
	}

	return RawMatch{
		Id:            id.Uint64(),
		Creator:       creator,
		Opponent:      opponent,
		Stake:         stake,
		Status:        status,
		Winner:        winner,
		LastUpdate:    lastUpdate.Int64(),
		CreatorGuess:  creatorGuess,
		OpponentGuess: opponentGuess,
		TargetNumber:  targetNumber,
	}, nil
}

func (c *Caller) PendingBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	var out []interface{}
	if err := c.arena.Call(&bind.CallOpts{Context: ctx}, &out, "pendingWithdrawals", addr); err != nil {
		return nil, err
	}

	amount, ok := out[0].(*big.Int)
	if !ok {
		return nil, errors.New("pendingWithdrawals: unexpected return type")
	}
	return amount, nil
}

// ResolvedName reads the identity registry. An empty string means the registry
// is reachable but holds no name for the address; callers fall back locally.
func (c *Caller) ResolvedName(ctx context.Context, addr common.Address) (string, error) {
	if c.profiles == nil {
		return "", nil
	}

	var out []interface{}
	if err := c.profiles.Call(&bind.CallOpts{Context: ctx}, &out, "getName", addr); err != nil {
		return "", err
	}

	name, ok := out[0].(string)
	if !ok {
		return "", errors.New("getName: unexpected return type")
	}
	return name, nil
}

// Transactor is the write-capable interface, bound to one signing account.
type Transactor struct {
	client   *ethclient.Client
	arena    *bind.BoundContract
	profiles *bind.BoundContract
	key      *ecdsa.PrivateKey
	chainId  *big.Int
	account  common.Address
}

func (t *Transactor) Account() common.Address {
	return t.account
}

func (t *Transactor) SubmitCreate(ctx context.Context, guess uint8, stake *big.Int) (PendingTx, error) {
	return t.submit(ctx, t.arena, stake, "createMatch", guess)
}

func (t *Transactor) SubmitJoin(ctx context.Context, id uint64, guess uint8, stake *big.Int) (PendingTx, error) {
	return t.submit(ctx, t.arena, stake, "joinMatch", new(big.Int).SetUint64(id), guess)
}

func (t *Transactor) SubmitCancel(ctx context.Context, id uint64) (PendingTx, error) {
	return t.submit(ctx, t.arena, nil, "cancelMatch", new(big.Int).SetUint64(id))
}

func (t *Transactor) SubmitWithdraw(ctx context.Context) (PendingTx, error) {
	return t.submit(ctx, t.arena, nil, "withdraw")
}

func (t *Transactor) SubmitEmergencyClaim(ctx context.Context, id uint64) (PendingTx, error) {
	return t.submit(ctx, t.arena, nil, "emergencyClaim", new(big.Int).SetUint64(id))
}

func (t *Transactor) SubmitSetName(ctx context.Context, name string) (PendingTx, error) {
	if t.profiles == nil {
		return nil, errors.New("profiles contract not deployed")
	}
	return t.submit(ctx, t.profiles, nil, "setName", name)
}

func (t *Transactor) submit(ctx context.Context, contract *bind.BoundContract, value *big.Int, method string, args ...interface{}) (PendingTx, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(t.key, t.chainId)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	opts.Value = value

	tx, err := contract.Transact(opts, method, args...)
	if err != nil {
		return nil, err
	}

	log.Info().Str("method", method).Str("tx", tx.Hash().Hex()).Msg("Transaction submitted")
	return &pendingTx{tx: tx, client: t.client}, nil
}

type pendingTx struct {
	tx     *types.Transaction
	client *ethclient.Client
}

func (p *pendingTx) Hash() string {
	return p.tx.Hash().Hex()
}

func (p *pendingTx) Wait(ctx context.Context) error {
	receipt, err := bind.WaitMined(ctx, p.client, p.tx)
	if err != nil {
		return err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("execution reverted: transaction %s failed", p.tx.Hash().Hex())
	}
	return nil
}
