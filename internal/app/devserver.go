package app

import (
	"fmt"
	"net"
	"time"

	"github.com/blackwell-systems/libraryctl/internal/devserver"
	"github.com/blackwell-systems/libraryctl/internal/logging"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newDevServerCmd() *cobra.Command {
	var (
		addr        string
		seed        int
		latency     time.Duration
		failDeletes bool
	)

	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run an in-memory library backend",
		Long: `Serve the books and borrow endpoints from memory so the CLI and the
interactive table can be tried without a real backend. Data is lost on
exit. Request logs go to stderr unless log.file is set.`,
		Example: `  libraryctl devserver --seed 40
  libraryctl devserver --latency 800ms --fail-deletes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = cfg.DevServer.Addr
			}
			if !cmd.Flags().Changed("seed") {
				seed = cfg.DevServer.Seed
			}

			log := logger
			if cfg.Log.File == "" {
				l, err := logging.New(logging.Options{File: "stderr", Level: cfg.Log.Level, Verbose: flagVerbose})
				if err != nil {
					return err
				}
				defer func() { _ = l.Sync() }()
				log = l
			}

			store := devserver.NewStore(time.Now)
			store.Seed(seed)
			srv := devserver.New(store, log,
				devserver.WithLatency(latency),
				devserver.WithFailingDeletes(failDeletes))

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listening on %s: %w", addr, err)
			}
			ok("Serving %d books on %s", store.Len(), color.CyanString("http://%s", ln.Addr()))
			return srv.Serve(cmd.Context(), ln)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: devserver.addr)")
	cmd.Flags().IntVar(&seed, "seed", 0, "Number of generated books (default: devserver.seed)")
	cmd.Flags().DurationVar(&latency, "latency", 0, "Delay every response")
	cmd.Flags().BoolVar(&failDeletes, "fail-deletes", false, "Answer every delete with a server error")
	return cmd
}
