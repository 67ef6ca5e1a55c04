package cli

import (
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/forPelevin/capburn/internal/deps"
	"github.com/forPelevin/capburn/internal/httpapi"
)

func newServeCommand(configPath *string) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the captioning HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if b := strings.TrimSpace(bind); b != "" {
				rt.cfg.Server.Bind = b
			}

			if err := rt.store.Lock(); err != nil {
				return err
			}
			defer rt.store.Unlock()

			for _, s := range deps.Check(rt.svc.Requirements()) {
				if !s.Available {
					rt.logger.Warn("dependency unavailable",
						slog.String("name", s.Name),
						slog.String("detail", s.Detail),
					)
				}
			}
			rt.logger.Info("serving",
				slog.String("storage", rt.store.Dir()),
				slog.String("max_upload", humanize.Bytes(uint64(rt.cfg.Server.MaxUploadBytes))),
			)

			ctx, stop := signalContext()
			defer stop()
			return httpapi.New(rt.svc, rt.cfg.Server, rt.logger).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides server.bind)")
	return cmd
}
