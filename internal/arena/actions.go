package arena

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/chain"
	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/guard"
	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/reject"
)

const (
	MinGuess = 1
	MaxGuess = 100

	maxNameLength = 32
)

// Writer is the signer-bound slice of the ledger. Every submit returns a
// pending transaction that must be awaited before it is durable.
type Writer interface {
	Account() common.Address
	SubmitCreate(ctx context.Context, guess uint8, stake *big.Int) (chain.PendingTx, error)
	SubmitJoin(ctx context.Context, id uint64, guess uint8, stake *big.Int) (chain.PendingTx, error)
	SubmitCancel(ctx context.Context, id uint64) (chain.PendingTx, error)
	SubmitWithdraw(ctx context.Context) (chain.PendingTx, error)
	SubmitEmergencyClaim(ctx context.Context, id uint64) (chain.PendingTx, error)
	SubmitSetName(ctx context.Context, name string) (chain.PendingTx, error)
}

// WriterFactory builds a fresh signer-bound handle per action.
type WriterFactory func(ctx context.Context) (Writer, error)

type Receipt struct {
	IntentId  string `json:"intentId"`
	Operation string `json:"operation"`
	TxHash    string `json:"txHash"`
}

// Pipeline is the uniform wrapper around every state-changing operation:
// acquire the global busy slot, submit, await confirmation, refresh the view,
// classify any failure, release. One action in flight across the whole client;
// a second request is rejected, never queued.
type Pipeline struct {
	writer     WriterFactory
	engine     *Engine
	hub        Notifier
	claimAfter time.Duration
	busy       guard.Slot
}

func NewPipeline(writer WriterFactory, engine *Engine, hub Notifier, claimAfter time.Duration) *Pipeline {
	return &Pipeline{
		writer:     writer,
		engine:     engine,
		hub:        hub,
		claimAfter: claimAfter,
	}
}

func (p *Pipeline) Busy() bool {
	return p.busy.Busy()
}

func (p *Pipeline) CreateMatch(ctx context.Context, stake string, guess int) (*Receipt, *reject.ProblemWithTrace) {
	wei, problem := validateStakeAndGuess(stake, guess)
	if problem != nil {
		return nil, problem
	}

	return p.run(ctx, "createMatch", func(w Writer) (chain.PendingTx, error) {
		return w.SubmitCreate(ctx, uint8(guess), wei)
	})
}

func (p *Pipeline) JoinMatch(ctx context.Context, id uint64, stake string, guess int) (*Receipt, *reject.ProblemWithTrace) {
	wei, problem := validateStakeAndGuess(stake, guess)
	if problem != nil {
		return nil, problem
	}

	return p.run(ctx, "joinMatch", func(w Writer) (chain.PendingTx, error) {
		return w.SubmitJoin(ctx, id, uint8(guess), wei)
	})
}

func (p *Pipeline) CancelMatch(ctx context.Context, id uint64) (*Receipt, *reject.ProblemWithTrace) {
	return p.run(ctx, "cancelMatch", func(w Writer) (chain.PendingTx, error) {
		return w.SubmitCancel(ctx, id)
	})
}

func (p *Pipeline) Withdraw(ctx context.Context) (*Receipt, *reject.ProblemWithTrace) {
	return p.run(ctx, "withdraw", func(w Writer) (chain.PendingTx, error) {
		return w.SubmitWithdraw(ctx)
	})
}

// EmergencyClaim pre-checks eligibility against the local view to avoid a
// doomed-to-revert transaction; the ledger still arbitrates the claim.
// A match outside the fetched window skips the pre-check.
func (p *Pipeline) EmergencyClaim(ctx context.Context, id uint64) (*Receipt, *reject.ProblemWithTrace) {
	for _, m := range p.engine.Matches() {
		if m.Id != id {
			continue
		}
		if m.Status != StatusActive {
			return nil, trace(reject.Classify(errors.New("execution reverted: MATCH_NOT_ACTIVE")), nil)
		}
		if !m.EmergencyClaimEligible(time.Now(), p.claimAfter) {
			return nil, trace(reject.Classify(errors.New("execution reverted: TIMEOUT_NOT_REACHED")), nil)
		}
		break
	}

	return p.run(ctx, "emergencyClaim", func(w Writer) (chain.PendingTx, error) {
		return w.SubmitEmergencyClaim(ctx, id)
	})
}

func (p *Pipeline) SetName(ctx context.Context, name string) (*Receipt, *reject.ProblemWithTrace) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, trace(reject.BodyParseProblem(), nil)
	}
	if len(trimmed) > maxNameLength {
		return nil, trace(reject.Classify(errors.New("execution reverted: NAME_TOO_LONG")), nil)
	}

	return p.run(ctx, "setName", func(w Writer) (chain.PendingTx, error) {
		return w.SubmitSetName(ctx, trimmed)
	})
}

func (p *Pipeline) run(ctx context.Context, op string, submit func(Writer) (chain.PendingTx, error)) (*Receipt, *reject.ProblemWithTrace) {
	writer, err := p.writer(ctx)
	if err != nil {
		if errors.Is(err, chain.ErrNoSigner) {
			return nil, reject.NotConnectedProblem()
		}
		return nil, reject.HandleUnavailableProblem(err)
	}
	if writer.Account() == chain.ZeroAddress {
		return nil, reject.NotConnectedProblem()
	}

	if !p.busy.TryAcquire() {
		return nil, reject.ActionInFlightProblem()
	}
	defer p.busy.Release()

	intentId := uuid.New().String()

	tx, err := submit(writer)
	if err != nil {
		return nil, classified(op, intentId, err)
	}

	if err := tx.Wait(ctx); err != nil {
		return nil, classified(op, intentId, err)
	}

	receipt := &Receipt{IntentId: intentId, Operation: op, TxHash: tx.Hash()}
	log.Info().Str("op", op).Str("intent", intentId).Str("tx", receipt.TxHash).Msg("Action confirmed")

	if _, problem := p.engine.Reconcile(ctx); problem != nil {
		log.Warn().Err(problem).Str("op", op).Msg("Post-action reconciliation failed, next poll will catch up")
	}
	if _, problem := p.engine.RefreshBalance(ctx); problem != nil {
		log.Warn().Err(problem).Str("op", op).Msg("Post-action balance refresh failed")
	}

	if p.hub != nil {
		p.hub.Publish(TopicActions, receipt)
	}
	return receipt, nil
}

func validateStakeAndGuess(stake string, guess int) (*big.Int, *reject.ProblemWithTrace) {
	if guess < MinGuess || guess > MaxGuess {
		return nil, trace(reject.Classify(errors.New("execution reverted: INVALID_GUESS")), nil)
	}

	wei, err := ParseStake(stake)
	if err != nil {
		return nil, trace(reject.NewProblem().
			WithTitle("Stake must be a positive decimal amount.").
			WithStatus(http.StatusBadRequest).
			WithCode("error.request.invalid-stake").
			Build(), err)
	}
	return wei, nil
}

func classified(op, intentId string, err error) *reject.ProblemWithTrace {
	problem := reject.Classify(err)
	log.Warn().Err(err).Str("op", op).Str("intent", intentId).Str("category", string(problem.Category)).Msg("Action failed")
	return &reject.ProblemWithTrace{Problem: problem, Cause: err}
}

func trace(problem reject.Problem, cause error) *reject.ProblemWithTrace {
	return &reject.ProblemWithTrace{Problem: problem, Cause: cause}
}
