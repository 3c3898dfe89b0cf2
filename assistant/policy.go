package assistant

import (
	"fmt"
	"time"
)

const (
	RateLimitNotice = "⏳ **Rate limit reached.**\n\nThe AI service is receiving too many requests. Please wait a moment and try again."

	WarmingUpNotice = "⏳ **Model is loading.**\n\nThe AI model is warming up. Please wait 20-30 seconds and try again."

	InvalidKeyNotice = "⚠️ **Invalid API Key.**\n\nYour Qubrid API key appears to be invalid or expired.\n\nPlease:\n1. Check your API key at [Qubrid Platform](https://platform.qubrid.com/)\n2. Update the API key in your environment\n3. Restart the service"

	QuotaNotice = "💳 **Qubrid API Free Limit Reached**\n\nYour Qubrid API Key has exhausted its free inference quota.\n\nTo continue chatting with LearnSphere AI:\n1. Log into your [Qubrid Platform](https://platform.qubrid.com/)\n2. Add credits to your account.\n3. Come back and continue chatting!"

	FallbackNotice = "I'm experiencing high demand right now. Please wait a moment and try again. 🎓\n\n_If this keeps happening, please check your API key configuration and try again._"
)

// UnexpectedNotice is returned when a call fails outside the attempt loop.
func UnexpectedNotice(err error) string {
	msg := "Unknown error"
	if err != nil {
		msg = err.Error()
	}
	return fmt.Sprintf("I'm having trouble connecting right now. Error: %s. Please check your API key configuration and try again.", msg)
}

type Action int

const (
	ActionReturn Action = iota
	ActionRetry
)

func (a Action) String() string {
	if a == ActionRetry {
		return "retry"
	}
	return "return"
}

// Decision is what the attempt loop does next. Text is only set for ActionReturn
// on failure outcomes; on success the caller returns the reply text.
type Decision struct {
	Action Action
	Delay  time.Duration
	Text   string
}

// Policy is the retry state machine. The only state is the zero-based attempt index.
type Policy struct {
	MaxRetries int
	RetryDelay time.Duration
}

func (p Policy) Attempts() int {
	return p.MaxRetries + 1
}

// Decide maps the outcome of attempt (zero based) to the next step.
func (p Policy) Decide(o Outcome, attempt int) Decision {
	remaining := attempt < p.MaxRetries
	switch o {
	case OutcomeSuccess:
		return Decision{Action: ActionReturn}
	case OutcomeRateLimited:
		if remaining {
			return Decision{Action: ActionRetry, Delay: p.backoff(attempt)}
		}
		return Decision{Action: ActionReturn, Text: RateLimitNotice}
	case OutcomeServiceUnavailable:
		if remaining {
			return Decision{Action: ActionRetry, Delay: p.backoff(attempt)}
		}
		return Decision{Action: ActionReturn, Text: WarmingUpNotice}
	case OutcomeUnauthorized:
		return Decision{Action: ActionReturn, Text: InvalidKeyNotice}
	case OutcomeQuotaExhausted:
		return Decision{Action: ActionReturn, Text: QuotaNotice}
	case OutcomeTimeout, OutcomeNetworkError, OutcomeEmptyResponse:
		if remaining {
			return Decision{Action: ActionRetry}
		}
		return Decision{Action: ActionReturn, Text: FallbackNotice}
	default:
		return Decision{Action: ActionReturn, Text: FallbackNotice}
	}
}

// backoff is linear: RetryDelay, 2*RetryDelay, ...
func (p Policy) backoff(attempt int) time.Duration {
	return p.RetryDelay * time.Duration(attempt+1)
}
