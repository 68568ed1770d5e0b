package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"steno/internal/logging"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "export <id> <format>",
		Short: "Export a transcript with speaker names applied",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			format := strings.ToLower(strings.TrimSpace(args[1]))
			return ctx.withSession(cmd, func(runCtx context.Context, s *session) error {
				job, err := s.client.GetJob(runCtx, id)
				if err != nil {
					return err
				}
				available := job.ExportFormats()
				if len(available) > 0 && !slices.Contains(available, format) {
					return fmt.Errorf("format %q not generated for job %s (available: %s)", format, id, strings.Join(available, ", "))
				}
				overrides := s.speakers.Committed(id)
				data, err := s.client.Export(runCtx, id, format, overrides)
				if err != nil {
					return err
				}
				s.logger.Info("transcript exported", logging.Args(
					logging.JobID(id),
					logging.String(logging.FieldFormat, format),
					logging.Int("overrides", len(overrides)),
				)...)
				path := strings.TrimSpace(target)
				if path == "" {
					path = exportBaseName(job.Filename) + "." + format
				}
				return writeOutputFile(cmd, path, data)
			})
		},
	}
	cmd.Flags().StringVarP(&target, "out", "O", "", "Destination file (- for stdout)")
	return cmd
}
