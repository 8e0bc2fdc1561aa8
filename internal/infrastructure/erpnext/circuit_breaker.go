package erpnext

import (
	"errors"
	"sync"
	"time"
)

// ── Circuit Breaker ───────────────────────────────────────────────────────────
// Closed → Open → Half-Open sobre las llamadas a ERPNext.
//
//   - Closed:    las llamadas pasan
//   - Open:      todas fallan de inmediato
//   - Half-Open: pasa una sola llamada de prueba a la vez; el resto falla de inmediato

// CBState estado del breaker.
type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen lo devuelve Execute mientras el breaker está abierto.
var ErrCircuitOpen = errors.New("circuit breaker abierto")

// CircuitBreakerConfig parámetros del breaker.
type CircuitBreakerConfig struct {
	FailureThreshold int           // fallos consecutivos para abrir (default 5)
	SuccessThreshold int           // éxitos en half-open para cerrar (default 2)
	OpenTimeout      time.Duration // tiempo abierto antes de probar (default 60s)
	Now              func() time.Time
}

// CircuitBreaker thread-safe. Sólo cuentan como fallo los errores que isFailure acepta;
// un rechazo de negocio del ERP no abre el circuito.
type CircuitBreaker struct {
	mu               sync.Mutex
	state            CBState
	failureCount     int
	successCount     int
	lastFailureTime  time.Time
	failureThreshold int
	successThreshold int
	openTimeout      time.Duration
	now              func() time.Time
	isFailure        func(error) bool
	probing          bool // hay una llamada de prueba en curso (half-open)
}

// NewCircuitBreaker crea el breaker cerrado. isFailure nil = todo error cuenta.
func NewCircuitBreaker(cfg CircuitBreakerConfig, isFailure func(error) bool) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 60 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if isFailure == nil {
		isFailure = func(error) bool { return true }
	}
	return &CircuitBreaker{
		state:            CBClosed,
		failureThreshold: cfg.FailureThreshold,
		successThreshold: cfg.SuccessThreshold,
		openTimeout:      cfg.OpenTimeout,
		now:              cfg.Now,
		isFailure:        isFailure,
	}
}

// State estado actual; pasa de open a half-open cuando venció el timeout.
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.current()
}

// current bajo lock.
func (cb *CircuitBreaker) current() CBState {
	if cb.state == CBOpen && cb.now().Sub(cb.lastFailureTime) >= cb.openTimeout {
		cb.state = CBHalfOpen
		cb.successCount = 0
		cb.probing = false
	}
	return cb.state
}

// Execute corre fn a través del breaker. Con el circuito abierto, o con la prueba de
// half-open ya en curso, devuelve ErrCircuitOpen sin llamar a fn.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	state := cb.current()
	if state == CBOpen || (state == CBHalfOpen && cb.probing) {
		cb.mu.Unlock()
		return ErrCircuitOpen
	}
	probe := state == CBHalfOpen
	if probe {
		cb.probing = true
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if probe {
		cb.probing = false
	}
	if err != nil && cb.isFailure(err) {
		cb.onFailure()
		return err
	}
	cb.onSuccess()
	return err
}

// onFailure bajo lock.
func (cb *CircuitBreaker) onFailure() {
	cb.failureCount++
	cb.lastFailureTime = cb.now()

	switch cb.state {
	case CBClosed:
		if cb.failureCount >= cb.failureThreshold {
			cb.state = CBOpen
			cb.successCount = 0
		}
	case CBHalfOpen:
		cb.state = CBOpen
		cb.failureCount = 0
	}
}

// onSuccess bajo lock.
func (cb *CircuitBreaker) onSuccess() {
	switch cb.state {
	case CBClosed:
		cb.failureCount = 0
	case CBHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.successThreshold {
			cb.state = CBClosed
			cb.failureCount = 0
			cb.successCount = 0
		}
	}
}
