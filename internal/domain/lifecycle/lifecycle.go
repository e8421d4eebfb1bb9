// Package lifecycle holds shared timing constants for start and stop hooks.
package lifecycle

import "time"

// DefaultTimeout bounds each start/stop hook (DB ping, HTTP shutdown, publisher close).
const DefaultTimeout = 10 * time.Second
