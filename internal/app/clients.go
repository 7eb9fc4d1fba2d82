package app

import (
	"context"

	"github.com/blackwell-systems/libraryctl/internal/api"
	"github.com/blackwell-systems/libraryctl/internal/query"
	"github.com/spf13/cobra"
)

func newAPIClient() *api.Client {
	return api.New(cfg.API.BaseURL, cfg.API.Timeout, api.WithLogger(logger))
}

func newQueryClient() *query.Client {
	return query.New(newAPIClient(), cfg.Cache.KeepUnused, logger)
}

// requestContext bounds a command's network work by the configured timeout.
func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.API.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, cfg.API.Timeout)
}
