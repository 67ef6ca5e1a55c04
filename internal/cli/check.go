package cli

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/forPelevin/capburn/internal/deps"
	"github.com/forPelevin/capburn/internal/logging"
)

const (
	ansiReset = "\033[0m"
	ansiGreen = "\033[32m"
	ansiRed   = "\033[31m"
)

func newCheckCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report whether ffmpeg, whisper.cpp and the model are available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(*configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			statuses := deps.Check(rt.svc.Requirements())
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderStatuses(statuses, logging.IsTerminal(out)))
			if !deps.Ready(statuses) {
				return errors.New("required dependencies are missing")
			}
			return nil
		},
	}
}

func renderStatuses(statuses []deps.Status, colorize bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Dependency", "Status", "Detail", "Used for"})
	for _, s := range statuses {
		tw.AppendRow(table.Row{s.Name, statusLabel(s, colorize), s.Detail, s.Description})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func statusLabel(s deps.Status, colorize bool) string {
	label, colour := "ok", ansiGreen
	switch {
	case !s.Available && s.Optional:
		label, colour = "optional", ""
	case !s.Available:
		label, colour = "missing", ansiRed
	}
	if !colorize || colour == "" {
		return label
	}
	return colour + label + ansiReset
}
