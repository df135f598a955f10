package health

import "context"

// Pinger checks availability of a backend.
type Pinger interface {
	Ping(ctx context.Context) error
}
