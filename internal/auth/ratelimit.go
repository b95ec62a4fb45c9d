package auth

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// LoginLimiter tracks failed logins per client IP and email. Implementations
// normalise the email themselves, so callers may pass it as typed.
type LoginLimiter interface {
	// Allow reports whether another attempt may be made and, if not, how
	// long the caller has to wait.
	Allow(ip, email string) (bool, time.Duration)
	// RecordFailure counts a failed attempt and reports whether it caused a lockout.
	RecordFailure(ip, email string) (bool, time.Duration)
	// RecordSuccess clears the failure record.
	RecordSuccess(ip, email string)
}

// LockoutPolicy locks a subject out for Lockout once MaxAttempts failures
// happen within Window of the first one.
type LockoutPolicy struct {
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration
}

// defaultLockoutPolicy matches the AUTH_* configuration defaults.
func defaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		MaxAttempts: 5,
		Window:      15 * time.Minute,
		Lockout:     30 * time.Minute,
	}
}

func (p LockoutPolicy) validate() error {
	if p.MaxAttempts <= 0 || p.Window <= 0 || p.Lockout <= 0 {
		return errors.New("lockout policy requires positive attempts, window and lockout")
	}
	return nil
}

// afterFailure decides what the count-th failure inside a window means.
func (p LockoutPolicy) afterFailure(count int64) (bool, time.Duration) {
	if count >= int64(p.MaxAttempts) {
		return true, p.Lockout
	}
	return false, 0
}

// lockoutSubject is the key a lockout applies to. Emails are compared case
// insensitively so "A@x.io" and "a@x.io" share one counter.
func lockoutSubject(ip, email string) string {
	return strings.TrimSpace(ip) + "|" + strings.ToLower(strings.TrimSpace(email))
}

// RateLimiter is the in-process LoginLimiter used when no Redis is configured.
// Expired subjects are swept while recording failures, at most once per window.
type RateLimiter struct {
	policy LockoutPolicy
	now    func() time.Time

	mu        sync.Mutex
	subjects  map[string]*failureWindow
	nextSweep time.Time
}

type failureWindow struct {
	count       int64
	resetAt     time.Time
	lockedUntil time.Time
}

func (w *failureWindow) expired(now time.Time) bool {
	return !now.Before(w.resetAt) && !now.Before(w.lockedUntil)
}

// NewRateLimiter creates an in-process limiter enforcing policy.
func NewRateLimiter(policy LockoutPolicy) (*RateLimiter, error) {
	if err := policy.validate(); err != nil {
		return nil, err
	}
	return &RateLimiter{
		policy:   policy,
		now:      time.Now,
		subjects: make(map[string]*failureWindow),
	}, nil
}

func (l *RateLimiter) Allow(ip, email string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.subjects[lockoutSubject(ip, email)]
	if !ok {
		return true, 0
	}
	if wait := w.lockedUntil.Sub(l.now()); wait > 0 {
		return false, wait
	}
	return true, 0
}

func (l *RateLimiter) RecordFailure(ip, email string) (bool, time.Duration) {
	now := l.now()
	key := lockoutSubject(ip, email)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	w, ok := l.subjects[key]
	if !ok {
		w = &failureWindow{}
		l.subjects[key] = w
	}
	if !now.Before(w.resetAt) {
		w.count = 0
		w.resetAt = now.Add(l.policy.Window)
	}
	w.count++

	locked, retryAfter := l.policy.afterFailure(w.count)
	if locked {
		w.lockedUntil = now.Add(retryAfter)
	}
	return locked, retryAfter
}

func (l *RateLimiter) RecordSuccess(ip, email string) {
	l.mu.Lock()
	delete(l.subjects, lockoutSubject(ip, email))
	l.mu.Unlock()
}

func (l *RateLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subjects)
}

func (l *RateLimiter) sweep(now time.Time) {
	if now.Before(l.nextSweep) {
		return
	}
	for key, w := range l.subjects {
		if w.expired(now) {
			delete(l.subjects, key)
		}
	}
	l.nextSweep = now.Add(l.policy.Window)
}
