package delivery

import "context"

// Delivery is a long-running entry point (HTTP server, worker) started by the application.
type Delivery interface {
	Serve(ctx context.Context) error
}
