package console

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	attemptSweepInterval = 5 * time.Minute
	attemptIdleTimeout   = 10 * time.Minute
)

// AttemptLimiter throttles credential submissions per client with a token
// bucket: burst attempts at once, then rate attempts per second.
type AttemptLimiter struct {
	buckets sync.Map // client IP -> *attemptBucket
	rate    float64
	burst   int

	sweep *time.Ticker
	stop  chan struct{}
	once  sync.Once
}

type attemptBucket struct {
	mu       sync.Mutex
	tokens   float64
	lastSeen time.Time
}

func NewAttemptLimiter(rate float64, burst int) *AttemptLimiter {
	if burst < 1 {
		burst = 1
	}

	limiter := &AttemptLimiter{
		rate:  rate,
		burst: burst,
		sweep: time.NewTicker(attemptSweepInterval),
		stop:  make(chan struct{}),
	}
	go limiter.sweepIdle()

	logrus.WithFields(logrus.Fields{
		"rate":  rate,
		"burst": burst,
	}).Debugln("Sign-in attempt limiter started")

	return limiter
}

// Allow takes one attempt from client's bucket.
func (l *AttemptLimiter) Allow(client string) bool {
	now := time.Now()

	value, _ := l.buckets.LoadOrStore(client, &attemptBucket{
		tokens:   float64(l.burst),
		lastSeen: now,
	})

	b := value.(*attemptBucket)
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens += now.Sub(b.lastSeen).Seconds() * l.rate
	if b.tokens > float64(l.burst) {
		b.tokens = float64(l.burst)
	}
	b.lastSeen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Clients returns the number of tracked clients.
func (l *AttemptLimiter) Clients() int {
	count := 0
	l.buckets.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

func (l *AttemptLimiter) Stop() {
	l.once.Do(func() {
		close(l.stop)
	})
}

func (l *AttemptLimiter) sweepIdle() {
	defer l.sweep.Stop()

	for {
		select {
		case <-l.sweep.C:
			cutoff := time.Now().Add(-attemptIdleTimeout)
			l.buckets.Range(func(key, value any) bool {
				b := value.(*attemptBucket)
				b.mu.Lock()
				idle := b.lastSeen.Before(cutoff)
				b.mu.Unlock()

				if idle {
					l.buckets.Delete(key)
				}
				return true
			})
		case <-l.stop:
			return
		}
	}
}

// LimitAttempts rejects sign-in submissions from a client that has used up
// its attempts. Form posts go back to the form with a flash message.
func (s *Server) LimitAttempts() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.attempts == nil || s.attempts.Allow(c.ClientIP()) {
			c.Next()
			return
		}

		LogWithCorrelation(c).WithFields(logrus.Fields{
			"ip":   c.ClientIP(),
			"path": c.Request.URL.Path,
		}).Warnln("Too many sign-in attempts")

		if canAcceptHtml(c) || isFormPost(c) {
			s.setFlash(c, "Too many attempts, wait a moment and try again")
			c.Redirect(http.StatusFound, c.Request.URL.Path)
		} else {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "too many attempts",
			})
		}
		c.Abort()
	}
}
