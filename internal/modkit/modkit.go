package modkit

import (
	"context"

	phttp "rollcall/internal/platform/net/http"
)

// Module is what a command needs from a long-running module: a name for
// logs, ops routes, and a blocking Run that returns when ctx ends
type Module interface {
	Name() string
	MountRoutes(r phttp.Router)
	Run(ctx context.Context) error
}
