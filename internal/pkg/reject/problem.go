package reject

// Category is the stable, user-facing classification of a failure. Every
// error that crosses a service boundary carries exactly one of these.
type Category string

const (
	CategoryUserRejected       Category = "USER_REJECTED"
	CategoryInsufficientFunds  Category = "INSUFFICIENT_FUNDS"
	CategoryInvalidGuess       Category = "INVALID_GUESS"
	CategoryNotActive          Category = "NOT_ACTIVE"
	CategoryTimeoutNotReached  Category = "TIMEOUT_NOT_REACHED"
	CategoryNameTaken          Category = "NAME_TAKEN"
	CategoryNameTooLong        Category = "NAME_TOO_LONG"
	CategoryContractReverted   Category = "CONTRACT_REVERTED"
	CategoryNetworkRateLimited Category = "NETWORK_OR_RATE_LIMITED"
	CategoryUnknown            Category = "UNKNOWN"

	CategoryHandleUnavailable Category = "HANDLE_UNAVAILABLE"
	CategoryNotConnected      Category = "NOT_CONNECTED"
	CategoryFetchFailed       Category = "FETCH_FAILED"
	CategoryDecodeError       Category = "DECODE_ERROR"
	CategoryActionInFlight    Category = "ACTION_IN_FLIGHT"
)

type Problem struct {
	Category Category `json:"category"`
	Title    string   `json:"title,omitempty"`
	Code     string   `json:"message,omitempty"`
	Status   int      `json:"status,omitempty"`
	Reason   string   `json:"reason,omitempty"`
}

func (p Problem) Error() string {
	if p.Title != "" {
		return p.Title
	}
	return string(p.Category)
}

type ProblemWithTrace struct {
	Problem Problem
	Cause   error
}

func (p *ProblemWithTrace) Error() string {
	return p.Problem.Error()
}

func (p *ProblemWithTrace) Unwrap() error {
	return p.Cause
}

func NewProblem() *Problem {
	return &Problem{Category: CategoryUnknown}
}

func (p *Problem) WithCategory(category Category) *Problem {
	p.Category = category
	return p
}

func (p *Problem) WithTitle(title string) *Problem {
	p.Title = title
	return p
}

func (p *Problem) WithCode(code string) *Problem {
	p.Code = code
	return p
}

func (p *Problem) WithStatus(status int) *Problem {
	p.Status = status
	return p
}

func (p *Problem) WithReason(reason string) *Problem {
	p.Reason = reason
	return p
}

func (p *Problem) Build() Problem {
	return *p
}
