package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"steno/internal/fileutil"
	"steno/internal/jobclient"
	"steno/internal/jobs"
	"steno/internal/jobsync"
	"steno/internal/language"
	"steno/internal/logging"
	"steno/internal/view"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage transcription jobs",
	}
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsSubmitCommand(ctx))
	jobsCmd.AddCommand(newJobsDeleteCommand(ctx))
	jobsCmd.AddCommand(newJobsOptionsCommand(ctx))
	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var queueOnly bool
	var history bool
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs (history by default, --queue for active jobs)",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
			}
			return ctx.withSession(cmd, func(runCtx context.Context, s *session) error {
				list, err := s.client.ListJobs(runCtx)
				if err != nil {
					return err
				}
				selected := jobs.ViewHistory
				if queueOnly && !history {
					selected = jobs.ViewQueue
				}
				visible := jobs.Filter(list, selected)
				if visible == nil {
					visible = []jobs.Job{}
				}
				if done, err := writeStructured(cmd, format, visible); done || err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				tally := jobs.Count(list)
				if len(visible) == 0 {
					fmt.Fprintln(out, "No jobs")
				} else {
					fmt.Fprintln(out, renderJobTable(visible))
				}
				fmt.Fprintf(out, "Completed: %d  In queue: %d\n", tally.Completed, tally.Queued)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&queueOnly, "queue", false, "Only show queued and processing jobs")
	cmd.Flags().BoolVar(&history, "history", false, "Show every job (default)")
	cmd.MarkFlagsMutuallyExclusive("queue", "history")
	addOutputFlag(cmd, &output)
	return cmd
}

func renderJobTable(list []jobs.Job) string {
	rows := make([][]string, 0, len(list))
	for _, job := range list {
		rows = append(rows, []string{
			job.ID,
			job.Filename,
			string(job.Status),
			fmt.Sprintf("%d%%", min(max(job.Progress, 0), 100)),
			job.Step,
			job.UpdatedAt,
		})
	}
	return renderTable(
		[]string{"ID", "File", "Status", "Progress", "Step", "Updated"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
		48,
	)
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var html bool
	var output string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a job's progress, transcript and summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
			}
			return ctx.withSession(cmd, func(runCtx context.Context, s *session) error {
				state, job, err := followJob(runCtx, cmd, s, args[0], follow)
				if err != nil {
					return err
				}
				if done, err := writeStructured(cmd, format, state); done || err != nil {
					return err
				}
				return printJobState(cmd, s, state, job, html)
			})
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep polling until the job finishes")
	cmd.Flags().BoolVar(&html, "html", false, "Print the HTML transcript and summary fragments")
	addOutputFlag(cmd, &output)
	return cmd
}

// followJob selects id on a sync engine and, when follow is set, prints a
// progress line per update until the job settles.
func followJob(ctx context.Context, cmd *cobra.Command, s *session, id string, follow bool) (view.RenderState, jobs.Job, error) {
	errOut := cmd.ErrOrStderr()
	colorize := shouldColorize(errOut)
	var lastProgress string
	hooks := jobsync.Hooks{
		OnRender: func(state view.RenderState) {
			if !follow || state.JobID == "" || state.ProgressText == lastProgress {
				return
			}
			lastProgress = state.ProgressText
			fmt.Fprintln(errOut, renderStatusLine("Progress", jobStatusKind(state.Status), state.ProgressText, colorize))
		},
		OnError: func(jobID string, err error) {
			if !follow {
				return
			}
			fmt.Fprintln(errOut, renderStatusLine("Poll", statusWarn, jobclient.DetailMessage(err, "request failed"), colorize))
		},
	}
	engine := s.newEngine(ctx, hooks)
	defer engine.Close()

	state, err := engine.SelectJob(ctx, id)
	if err != nil {
		return view.RenderState{}, jobs.Job{}, err
	}
	if follow {
		state, err = engine.WaitSettled(ctx)
		if err != nil {
			return view.RenderState{}, jobs.Job{}, err
		}
	}
	engine.CancelPolling()
	job, _ := engine.CurrentJob()
	return state, job, nil
}

func printJobState(cmd *cobra.Command, s *session, state view.RenderState, job jobs.Job, html bool) error {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	title := state.Filename
	if title == "" {
		title = state.JobID
	}
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Job", statusInfo, state.JobID, colorize))
	fmt.Fprintln(out, renderStatusLine("Status", jobStatusKind(state.Status), state.ProgressText, colorize))
	if state.Error != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, state.Error, colorize))
	}
	if job.Result != nil && job.Result.Language != "" {
		fmt.Fprintln(out, renderStatusLine("Language", statusInfo, fmt.Sprintf("%s (%s)", language.DisplayName(job.Result.Language), job.Result.Language), colorize))
	}
	if len(state.ExportFormats) > 0 {
		fmt.Fprintln(out, renderStatusLine("Exports", statusInfo, strings.Join(state.ExportFormats, ", "), colorize))
	}
	fmt.Fprintln(out)

	if html {
		fmt.Fprintln(out, state.TranscriptHTML)
		fmt.Fprintln(out, state.SummaryHTML)
		return nil
	}

	opts := s.displayOptions(cmd.Context())
	for _, line := range renderSectionHeader("Transcript", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, view.PlainTranscript(job.Segments(), state.Transcript, s.displayName(state.JobID), opts.PreviewMode))
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Summary", colorize) {
		fmt.Fprintln(out, line)
	}
	if strings.TrimSpace(state.Summary) == "" {
		fmt.Fprintln(out, view.SummaryPending)
	} else {
		fmt.Fprintln(out, strings.TrimSpace(state.Summary))
	}

	if len(state.Legend) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderLegendTable(state.Legend))
	}
	return nil
}

func newJobsSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		model        string
		spokenLang   string
		batchSize    int
		device       string
		computeType  string
		diarize      bool
		summarize    bool
		summaryStyle string
		formats      []string
		follow       bool
	)

	cmd := &cobra.Command{
		Use:   "submit <file>",
		Short: "Upload an audio or video file for transcription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			lang, err := language.Normalize(spokenLang)
			if err != nil {
				return err
			}
			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open upload: %w", err)
			}
			defer file.Close()

			return ctx.withSession(cmd, func(runCtx context.Context, s *session) error {
				if err := checkServerOptions(runCtx, s, model, formats); err != nil {
					return err
				}
				style := ""
				if summarize || summaryStyle != "" {
					style = s.templates.Resolve(summaryStyle)
				}
				id, err := s.client.Submit(runCtx, jobclient.SubmitRequest{
					FileName:       filepath.Base(path),
					File:           file,
					ModelName:      model,
					Language:       lang,
					BatchSize:      batchSize,
					Device:         device,
					ComputeType:    computeType,
					Diarization:    diarize,
					SummaryEnabled: summarize,
					SummaryStyle:   style,
					OutputFormats:  normalizeFormats(formats),
				})
				if err != nil {
					return err
				}
				s.logger.Info("job submitted", logging.Args(logging.JobID(id), logging.String("file", filepath.Base(path)))...)
				fmt.Fprintf(cmd.OutOrStdout(), "Submitted job %s\n", id)
				if !follow {
					return nil
				}
				state, job, err := followJob(runCtx, cmd, s, id, true)
				if err != nil {
					return err
				}
				return printJobState(cmd, s, state, job, false)
			})
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "Transcription model (server default when empty)")
	cmd.Flags().StringVar(&spokenLang, "language", "", "Spoken language (code or English name), or auto")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Inference batch size")
	cmd.Flags().StringVar(&device, "device", "", "Inference device (cpu, cuda)")
	cmd.Flags().StringVar(&computeType, "compute-type", "", "Compute type (int8, float16, ...)")
	cmd.Flags().BoolVar(&diarize, "diarize", false, "Attribute segments to speakers")
	cmd.Flags().BoolVar(&summarize, "summary", false, "Generate an AI summary when transcription finishes")
	cmd.Flags().StringVar(&summaryStyle, "summary-style", "", "Summary style key (see `steno summary styles list`)")
	cmd.Flags().StringSliceVar(&formats, "format", nil, "Output formats to generate, e.g. txt,srt")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Wait for the job to finish and print the result")
	return cmd
}

// checkServerOptions validates the model and formats against the backend's
// catalogue. A backend without /api/config is not treated as an error.
func checkServerOptions(ctx context.Context, s *session, model string, formats []string) error {
	if model == "" && len(formats) == 0 {
		return nil
	}
	catalogue, err := s.client.ServerConfig(ctx)
	if err != nil {
		s.logger.Debug("server config unavailable; skipping option checks", logging.Args(logging.Error(err))...)
		return nil
	}
	if model != "" && len(catalogue.Models) > 0 && !slices.Contains(catalogue.Models, model) {
		return fmt.Errorf("unknown model %q (available: %s)", model, strings.Join(catalogue.Models, ", "))
	}
	if len(catalogue.Formats) > 0 {
		for _, format := range normalizeFormats(formats) {
			if !slices.Contains(catalogue.Formats, format) {
				return fmt.Errorf("unsupported output format %q (available: %s)", format, strings.Join(catalogue.Formats, ", "))
			}
		}
	}
	return nil
}

func normalizeFormats(formats []string) []string {
	var out []string
	for _, format := range formats {
		format = strings.ToLower(strings.TrimSpace(format))
		if format != "" && !slices.Contains(out, format) {
			out = append(out, format)
		}
	}
	return out
}

func newJobsDeleteCommand(ctx *commandContext) *cobra.Command {
	var confirmText string

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Permanently delete a finished job and its outputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return ctx.withSession(cmd, func(runCtx context.Context, s *session) error {
				job, err := s.client.GetJob(runCtx, id)
				if err != nil {
					return err
				}
				if !jobs.CanDelete(job) {
					return fmt.Errorf("job %s is still %s; only finished jobs can be deleted", id, job.Status)
				}
				if strings.TrimSpace(confirmText) != job.Filename {
					return fmt.Errorf("--confirm-text must match the job filename %q", job.Filename)
				}
				if err := s.client.Delete(runCtx, id, confirmText); err != nil {
					return err
				}
				if err := s.speakers.Clear(runCtx, id); err != nil {
					s.logger.Warn("speaker names not cleared", logging.Args(logging.JobID(id), logging.Error(err))...)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted job %s (%s)\n", id, job.Filename)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&confirmText, "confirm-text", "", "The job's filename, typed to confirm deletion")
	return cmd
}

func newJobsOptionsCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "options",
		Short: "Show the models, formats and defaults the backend offers",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
			}
			return ctx.withSession(cmd, func(runCtx context.Context, s *session) error {
				catalogue, err := s.client.ServerConfig(runCtx)
				if err != nil {
					return err
				}
				if done, err := writeStructured(cmd, format, catalogue); done || err != nil {
					return err
				}
				rows := [][]string{
					{"Models", strings.Join(catalogue.Models, ", ")},
					{"Formats", strings.Join(catalogue.Formats, ", ")},
					{"Devices", strings.Join(catalogue.Devices, ", ")},
					{"Default model", catalogue.Defaults.Model},
					{"Default language", language.DisplayName(catalogue.Defaults.Language)},
					{"Default batch size", strconv.Itoa(catalogue.Defaults.BatchSize)},
					{"Default device", catalogue.Defaults.Device},
					{"Default compute type", catalogue.Defaults.ComputeType},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Option", "Value"}, rows, nil, 60))
				return nil
			})
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

// writeOutputFile writes data to path, or to stdout when path is "-".
func writeOutputFile(cmd *cobra.Command, path string, data []byte) error {
	if path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory %q: %w", dir, err)
		}
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", path, len(data))
	return nil
}

var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// exportBaseName strips the extension from a job filename and replaces
// characters that are unsafe in local file names, falling back to
// "transcript".
func exportBaseName(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	base = strings.TrimSpace(fileNameReplacer.Replace(base))
	if base == "" {
		return "transcript"
	}
	return base
}
