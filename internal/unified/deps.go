package unified

import (
	"context"
	"time"

	"github.com/blackwell-systems/libraryctl/internal/listing"
	"github.com/blackwell-systems/libraryctl/internal/mutation"
	"github.com/blackwell-systems/libraryctl/internal/query"
	"go.uber.org/zap"
)

// Deps are the services shared by every view.
type Deps struct {
	Query   *query.Client
	List    listing.Config
	Timeout time.Duration
	Now     func() time.Time
	Logger  *zap.Logger

	deleter *mutation.Deleter
}

func (d Deps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// ctx returns a context bounded by the request timeout.
func (d Deps) ctx() (context.Context, context.CancelFunc) {
	if d.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), d.Timeout)
}
