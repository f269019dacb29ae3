package ratelimiter

import "time"

// Limiter decides whether a request from the given source is allowed, and if
// not, how long the source should wait before retrying.
type Limiter interface {
	Allow(source string) (bool, time.Duration)
	Close()
}
