package reject

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		category Category
	}{
		{
			name:     "user rejection code",
			err:      errors.New("Error: user rejected action (action=\"sendTransaction\", code=ACTION_REJECTED)"),
			category: CategoryUserRejected,
		},
		{
			name:     "denied signature",
			err:      errors.New("User denied transaction signature"),
			category: CategoryUserRejected,
		},
		{
			name:     "insufficient funds",
			err:      errors.New("err: insufficient funds for gas * price + value"),
			category: CategoryInsufficientFunds,
		},
		{
			name:     "timeout custom error beats generic revert",
			err:      errors.New("execution reverted: TIMEOUT_NOT_REACHED"),
			category: CategoryTimeoutNotReached,
		},
		{
			name:     "not active custom error beats generic revert",
			err:      errors.New("execution reverted: MATCH_NOT_ACTIVE"),
			category: CategoryNotActive,
		},
		{
			name:     "invalid guess",
			err:      errors.New("execution reverted: INVALID_GUESS"),
			category: CategoryInvalidGuess,
		},
		{
			name:     "name taken",
			err:      errors.New("execution reverted: NAME_ALREADY_TAKEN"),
			category: CategoryNameTaken,
		},
		{
			name:     "name too long",
			err:      errors.New("execution reverted: NAME_TOO_LONG"),
			category: CategoryNameTooLong,
		},
		{
			name:     "bare revert",
			err:      errors.New("execution reverted"),
			category: CategoryContractReverted,
		},
		{
			name:     "call exception",
			err:      errors.New("missing required argument (CALL_EXCEPTION)"),
			category: CategoryContractReverted,
		},
		{
			name:     "rate limited",
			err:      errors.New("request limit reached - reduce calls per second"),
			category: CategoryNetworkRateLimited,
		},
		{
			name:     "node lagging",
			err:      errors.New("could not coalesce error"),
			category: CategoryNetworkRateLimited,
		},
		{
			name:     "connection refused",
			err:      errors.New("dial tcp 127.0.0.1:8545: connect: connection refused"),
			category: CategoryNetworkRateLimited,
		},
		{
			name:     "unknown fallback",
			err:      errors.New("something odd happened"),
			category: CategoryUnknown,
		},
		{
			name:     "nil error",
			err:      nil,
			category: CategoryUnknown,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			problem := Classify(tc.err)
			assert.Equal(t, tc.category, problem.Category)
			assert.NotEmpty(t, problem.Title)
		})
	}
}

func TestClassifyExtractsRevertReason(t *testing.T) {
	err := errors.New(`execution reverted with reason string 'stake mismatch'`)

	problem := Classify(err)

	assert.Equal(t, CategoryContractReverted, problem.Category)
	assert.Equal(t, "stake mismatch", problem.Reason)
	assert.Equal(t, "Contract error: stake mismatch", problem.Title)
}

func TestClassifyUnknownKeepsEmbeddedMessage(t *testing.T) {
	problem := Classify(errors.New("something odd happened"))

	assert.Equal(t, "something odd happened", problem.Title)
}
