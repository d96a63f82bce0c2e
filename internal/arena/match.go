package arena

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"

	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/chain"
	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/reject"
)

type Status uint8

const (
	StatusPending Status = iota
	StatusActive
	StatusSettled
	StatusCancelled
	StatusDraw
)

var statusNames = [...]string{"Pending", "Active", "Settled", "Cancelled", "Draw"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *Status) UnmarshalJSON(data []byte) error {
	name := strings.Trim(string(data), `"`)
	for i, candidate := range statusNames {
		if candidate == name {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", name)
}

// Terminal reports whether the status can never transition again.
func (s Status) Terminal() bool {
	return s == StatusSettled || s == StatusCancelled || s == StatusDraw
}

// Match is a read-only projection of one ledger record. It is created by
// decoding and dropped by the visibility policy, never mutated field by field.
type Match struct {
	Id            uint64         `json:"id"`
	Creator       common.Address `json:"creator"`
	Opponent      common.Address `json:"opponent"`
	Stake         *big.Int       `json:"-"`
	Status        Status         `json:"status"`
	Winner        common.Address `json:"winner"`
	LastUpdate    int64          `json:"lastUpdate"`
	CreatorGuess  uint8          `json:"creatorGuess"`
	OpponentGuess uint8          `json:"opponentGuess"`
	TargetNumber  uint8          `json:"targetNumber"`
}

func (m Match) HasOpponent() bool {
	return m.Opponent != chain.ZeroAddress
}

func (m Match) StakeDecimal() string {
	return FormatStake(m.Stake)
}

// CanCancel: only the creator, only while Pending with no opponent.
func (m Match) CanCancel(account common.Address) bool {
	return m.Status == StatusPending && !m.HasOpponent() && m.Creator == account
}

// EmergencyClaimEligible reports whether the escape transition may be
// attempted. The ledger arbitrates the claim itself; this gate only avoids
// submitting a transaction doomed to revert.
func (m Match) EmergencyClaimEligible(now time.Time, claimAfter time.Duration) bool {
	return m.Status == StatusActive && now.Unix()-m.LastUpdate > int64(claimAfter.Seconds())
}

func decodeMatch(raw chain.RawMatch) (Match, *reject.ProblemWithTrace) {
	if raw.Status > uint8(StatusDraw) {
		return Match{}, reject.DecodeProblem(fmt.Sprintf("status code %d for match %d", raw.Status, raw.Id))
	}

	stake := raw.Stake
	if stake == nil {
		stake = new(big.Int)
	}

	return Match{
		Id:            raw.Id,
		Creator:       raw.Creator,
		Opponent:      raw.Opponent,
		Stake:         new(big.Int).Set(stake),
		Status:        Status(raw.Status),
		Winner:        raw.Winner,
		LastUpdate:    raw.LastUpdate,
		CreatorGuess:  raw.CreatorGuess,
		OpponentGuess: raw.OpponentGuess,
		TargetNumber:  raw.TargetNumber,
	}, nil
}

var etherInWei = big.NewInt(params.Ether)

// ParseStake converts a decimal native-token amount ("0.1") to wei.
func ParseStake(amount string) (*big.Int, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(amount))
	if !ok {
		return nil, fmt.Errorf("not a decimal amount: %q", amount)
	}
	if r.Sign() <= 0 {
		return nil, errors.New("stake must be positive")
	}

	scaled := new(big.Int).Mul(r.Num(), etherInWei)
	wei, rem := new(big.Int).QuoRem(scaled, r.Denom(), new(big.Int))
	if rem.Sign() != 0 {
		return nil, fmt.Errorf("amount %q is below wei precision", amount)
	}
	return wei, nil
}

// FormatStake renders wei as a decimal native-token amount with trailing
// zeros trimmed, so a stake written as "0.1" reads back as "0.1".
func FormatStake(wei *big.Int) string {
	if wei == nil || wei.Sign() == 0 {
		return "0"
	}

	s := new(big.Rat).SetFrac(wei, etherInWei).FloatString(18)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s
}
