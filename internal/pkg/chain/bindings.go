package chain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ZeroAddress is the ledger's sentinel for "absent/unset", never "invalid".
var ZeroAddress = common.Address{}

// RawMatch is the wire shape of a single arena record, field order fixed by
// the contract tuple.
type RawMatch struct {
	Id            uint64
	Creator       common.Address
	Opponent      common.Address
	Stake         *big.Int
	Status        uint8
	Winner        common.Address
	LastUpdate    int64
	CreatorGuess  uint8
	OpponentGuess uint8
	TargetNumber  uint8
}

const arenaABI = `[
	{"type":"function","name":"nextMatchId","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"matches","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],"outputs":[
		{"name":"id","type":"uint256"},
		{"name":"creator","type":"address"},
		{"name":"opponent","type":"address"},
		{"name":"stake","type":"uint256"},
		{"name":"status","type":"uint8"},
		{"name":"winner","type":"address"},
		{"name":"lastUpdate","type":"uint256"},
		{"name":"creatorGuess","type":"uint8"},
		{"name":"opponentGuess","type":"uint8"},
		{"name":"targetNumber","type":"uint8"}]},
	{"type":"function","name":"pendingWithdrawals","stateMutability":"view","inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"createMatch","stateMutability":"payable","inputs":[{"name":"guess","type":"uint8"}],"outputs":[]},
	{"type":"function","name":"joinMatch","stateMutability":"payable","inputs":[{"name":"matchId","type":"uint256"},{"name":"guess","type":"uint8"}],"outputs":[]},
	{"type":"function","name":"cancelMatch","stateMutability":"nonpayable","inputs":[{"name":"matchId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"emergencyClaim","stateMutability":"nonpayable","inputs":[{"name":"matchId","type":"uint256"}],"outputs":[]}
]`

const profilesABI = `[
	{"type":"function","name":"getName","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"setName","stateMutability":"nonpayable","inputs":[{"name":"name","type":"string"}],"outputs":[]}
]`

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

var (
	parsedArenaABI    = mustParseABI(arenaABI)
	parsedProfilesABI = mustParseABI(profilesABI)
)
