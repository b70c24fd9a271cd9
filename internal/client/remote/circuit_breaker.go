package remote

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

type circuitState int

const (
	stateClosed circuitState = iota
	stateOpen
	stateHalfOpen
)

func (s circuitState) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// circuitBreaker counts consecutive network failures per endpoint group and
// refuses requests to a group for openDuration once failureThreshold is reached
type circuitBreaker struct {
	failures         map[string]int
	lastFailure      map[string]time.Time
	state            map[string]circuitState
	logger           *zap.SugaredLogger
	now              func() time.Time
	failureThreshold int
	openDuration     time.Duration
	mu               sync.Mutex
}

func newCircuitBreaker(threshold int, openDuration time.Duration, logger *zap.SugaredLogger) *circuitBreaker {
	return &circuitBreaker{
		failureThreshold: threshold,
		openDuration:     openDuration,
		failures:         make(map[string]int),
		lastFailure:      make(map[string]time.Time),
		state:            make(map[string]circuitState),
		logger:           logger,
		now:              time.Now,
	}
}

// canAttempt returns ErrCircuitOpen while group is open. After openDuration
// the group goes half-open and one request is let through.
func (cb *circuitBreaker) canAttempt(group string) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state[group] {
	case stateOpen:
		nextRetry := cb.lastFailure[group].Add(cb.openDuration)
		if cb.now().Before(nextRetry) {
			return fmt.Errorf("%w for %s (failures: %d, next retry: %s)",
				ErrCircuitOpen, group, cb.failures[group], nextRetry.Format("15:04:05"))
		}
		cb.setState(group, stateHalfOpen)
	case stateHalfOpen:
		// one probe at a time
		return fmt.Errorf("%w for %s (probe in flight)", ErrCircuitOpen, group)
	}
	return nil
}

func (cb *circuitBreaker) recordSuccess(group string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	delete(cb.failures, group)
	delete(cb.lastFailure, group)
	if cb.state[group] != stateClosed {
		cb.setState(group, stateClosed)
	}
}

func (cb *circuitBreaker) recordFailure(group string, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures[group]++
	cb.lastFailure[group] = cb.now()
	failCount := cb.failures[group]

	if cb.state[group] == stateHalfOpen || failCount >= cb.failureThreshold {
		if cb.state[group] != stateOpen {
			cb.logger.Warnw("opening circuit",
				"group", group,
				"failures", failCount,
				"error", err)
			cb.setState(group, stateOpen)
		}
		return
	}
	cb.logger.Debugw("request failed",
		"group", group,
		"failures", failCount,
		"threshold", cb.failureThreshold,
		"error", err)
}

// setState must be called with the lock held
func (cb *circuitBreaker) setState(group string, s circuitState) {
	cb.state[group] = s
	cb.logger.Infow("circuit state changed", "group", group, "state", s.String())
}

// abandon returns a half-open group to open when its probe ended without a verdict,
// so the next attempt probes again
func (cb *circuitBreaker) abandon(group string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state[group] == stateHalfOpen {
		cb.state[group] = stateOpen
	}
}
