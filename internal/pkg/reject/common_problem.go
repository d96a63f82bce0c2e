package reject

import (
	"net/http"
)

const (
	handleUnavailableError = "error.chain.handle-unavailable"
	notConnectedError      = "error.chain.not-connected"
	fetchFailedError       = "error.sync.fetch-failed"
	decodeError            = "error.sync.decode"
	actionInFlightError    = "error.action.in-flight"
	cannotParseParams      = "error.generic.cannot-parse-params"
	cannotParseBody        = "error.generic.cannot-parse-payload"
)

func HandleUnavailableProblem(cause error) *ProblemWithTrace {
	return &ProblemWithTrace{
		Problem: NewProblem().
			WithCategory(CategoryHandleUnavailable).
			WithTitle("Network handle is not available").
			WithStatus(http.StatusServiceUnavailable).
			WithCode(handleUnavailableError).
			Build(),
		Cause: cause,
	}
}

func NotConnectedProblem() *ProblemWithTrace {
	return &ProblemWithTrace{
		Problem: NewProblem().
			WithCategory(CategoryNotConnected).
			WithTitle("No account or signer is configured").
			WithStatus(http.StatusUnauthorized).
			WithCode(notConnectedError).
			Build(),
	}
}

func FetchFailedProblem(cause error) *ProblemWithTrace {
	return &ProblemWithTrace{
		Problem: NewProblem().
			WithCategory(CategoryFetchFailed).
			WithTitle("Failed to fetch records from the ledger").
			WithStatus(http.StatusBadGateway).
			WithCode(fetchFailedError).
			Build(),
		Cause: cause,
	}
}

func DecodeProblem(detail string) *ProblemWithTrace {
	return &ProblemWithTrace{
		Problem: NewProblem().
			WithCategory(CategoryDecodeError).
			WithTitle("Unrecognized record shape: " + detail).
			WithStatus(http.StatusBadGateway).
			WithCode(decodeError).
			Build(),
	}
}

func ActionInFlightProblem() *ProblemWithTrace {
	return &ProblemWithTrace{
		Problem: NewProblem().
			WithCategory(CategoryActionInFlight).
			WithTitle("Another action is still awaiting confirmation").
			WithStatus(http.StatusConflict).
			WithCode(actionInFlightError).
			Build(),
	}
}

func RequestParamsProblem() Problem {
	return NewProblem().
		WithTitle("Invalid request parameters").
		WithStatus(http.StatusBadRequest).
		WithCode(cannotParseParams).
		Build()
}

func BodyParseProblem() Problem {
	return NewProblem().
		WithTitle("Cannot read payload").
		WithStatus(http.StatusBadRequest).
		WithCode(cannotParseBody).
		Build()
}
