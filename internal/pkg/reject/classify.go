package reject

import (
	"net/http"
	"regexp"
	"strings"
)

const (
	userRejectedError      = "error.tx.user-rejected"
	insufficientFundsError = "error.tx.insufficient-funds"
	invalidGuessError      = "error.contract.invalid-guess"
	notActiveError         = "error.contract.not-active"
	timeoutNotReachedError = "error.contract.timeout-not-reached"
	nameTakenError         = "error.contract.name-taken"
	nameTooLongError       = "error.contract.name-too-long"
	contractRevertedError  = "error.contract.reverted"
	networkRateLimitError  = "error.network.rate-limited"
	unknownError           = "error.generic.unknown"
)

var revertReasonPattern = regexp.MustCompile(`reverted with reason string ["'](.+?)["']`)

// Classify maps an arbitrary failure to exactly one category. Matching order
// matters: specific custom errors are checked before the generic revert
// markers, since a custom error message also contains "execution reverted".
func Classify(err error) Problem {
	if err == nil {
		return NewProblem().
			WithCategory(CategoryUnknown).
			WithTitle("An unknown error occurred").
			WithStatus(http.StatusInternalServerError).
			WithCode(unknownError).
			Build()
	}

	text := err.Error()

	if containsAny(text,
		"ACTION_REJECTED",
		"user rejected action",
		"User denied transaction signature") {
		return NewProblem().
			WithCategory(CategoryUserRejected).
			WithTitle("Transaction rejected by user.").
			WithStatus(http.StatusBadRequest).
			WithCode(userRejectedError).
			Build()
	}

	if containsAny(text, "INSUFFICIENT_FUNDS", "insufficient funds") {
		return NewProblem().
			WithCategory(CategoryInsufficientFunds).
			WithTitle("Insufficient funds for transaction.").
			WithStatus(http.StatusPaymentRequired).
			WithCode(insufficientFundsError).
			Build()
	}

	if strings.Contains(text, "TIMEOUT_NOT_REACHED") {
		return NewProblem().
			WithCategory(CategoryTimeoutNotReached).
			WithTitle("The 24-hour timeout has not been reached yet. Please wait a few more minutes.").
			WithStatus(http.StatusConflict).
			WithCode(timeoutNotReachedError).
			Build()
	}

	if strings.Contains(text, "MATCH_NOT_ACTIVE") {
		return NewProblem().
			WithCategory(CategoryNotActive).
			WithTitle("This match is not in an active state and cannot be claimed.").
			WithStatus(http.StatusConflict).
			WithCode(notActiveError).
			Build()
	}

	if strings.Contains(text, "INVALID_GUESS") {
		return NewProblem().
			WithCategory(CategoryInvalidGuess).
			WithTitle("Invalid guess. Must be between 1 and 100.").
			WithStatus(http.StatusBadRequest).
			WithCode(invalidGuessError).
			Build()
	}

	if strings.Contains(text, "NAME_ALREADY_TAKEN") {
		return NewProblem().
			WithCategory(CategoryNameTaken).
			WithTitle("This username is already taken. Please try another.").
			WithStatus(http.StatusConflict).
			WithCode(nameTakenError).
			Build()
	}

	if strings.Contains(text, "NAME_TOO_LONG") {
		return NewProblem().
			WithCategory(CategoryNameTooLong).
			WithTitle("Username is too long (max 32 characters).").
			WithStatus(http.StatusBadRequest).
			WithCode(nameTooLongError).
			Build()
	}

	if containsAny(text, "execution reverted", "CALL_EXCEPTION") {
		problem := NewProblem().
			WithCategory(CategoryContractReverted).
			WithStatus(http.StatusUnprocessableEntity).
			WithCode(contractRevertedError)

		if match := revertReasonPattern.FindStringSubmatch(text); match != nil {
			return problem.
				WithTitle("Contract error: " + match[1]).
				WithReason(match[1]).
				Build()
		}

		return problem.
			WithTitle("Transaction failed or was rejected by the smart contract.").
			Build()
	}

	if containsAny(text,
		"network-error",
		"could not coalesce error",
		"request limit reached",
		"missing revert data",
		"connection refused",
		"i/o timeout",
		"context deadline exceeded") {
		return NewProblem().
			WithCategory(CategoryNetworkRateLimited).
			WithTitle("Network/RPC error. The request limit may have been reached or the node is lagging. Please try again in a few seconds.").
			WithStatus(http.StatusServiceUnavailable).
			WithCode(networkRateLimitError).
			Build()
	}

	title := text
	if title == "" {
		title = "An unexpected error occurred during the transaction."
	}

	return NewProblem().
		WithCategory(CategoryUnknown).
		WithTitle(title).
		WithStatus(http.StatusInternalServerError).
		WithCode(unknownError).
		Build()
}

func containsAny(text string, markers ...string) bool {
	for _, marker := range markers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
