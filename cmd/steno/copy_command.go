package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"steno/internal/transcript"
)

func newCopyCommand(ctx *commandContext) *cobra.Command {
	copyCmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy a transcript or summary to the clipboard",
	}

	copyCmd.AddCommand(&cobra.Command{
		Use:   "transcript <id>",
		Short: "Copy the transcript, with speaker names when diarized",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(runCtx context.Context, s *session) error {
				job, err := s.client.GetJob(runCtx, args[0])
				if err != nil {
					return err
				}
				text := transcript.WithSpeakers(job.Segments(), s.displayName(job.ID))
				if text == "" {
					text = s.resolver().Resolve(runCtx, job)
				}
				return copyText(cmd, ctx, "transcript", text)
			})
		},
	})

	copyCmd.AddCommand(&cobra.Command{
		Use:   "summary <id>",
		Short: "Copy the summary text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(runCtx context.Context, s *session) error {
				job, err := s.client.GetJob(runCtx, args[0])
				if err != nil {
					return err
				}
				return copyText(cmd, ctx, "summary", strings.TrimSpace(job.Summary()))
			})
		},
	})

	return copyCmd
}

// copyText writes text to the clipboard. A clipboard failure is reported
// and the text is printed instead.
func copyText(cmd *cobra.Command, ctx *commandContext, what, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no %s available to copy", what)
	}
	if err := ctx.clipboardWriter().Write(text); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), renderStatusLine("Clipboard", statusWarn, err.Error(), shouldColorize(cmd.ErrOrStderr())))
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Copied %s to clipboard (%d characters)\n", what, len([]rune(text)))
	return nil
}
