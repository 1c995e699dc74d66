package retry

import (
	"time"

	"github.com/wb-go/wbf/retry"
)

// DefaultStrategy is the shared strategy for database and broker calls.
var DefaultStrategy = retry.Strategy{
	Attempts: 3,
	Delay:    2 * time.Second,
	Backoff:  2.0,
}
