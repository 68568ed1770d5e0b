package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"steno/internal/prefs"
)

func newPrefsCommand(ctx *commandContext) *cobra.Command {
	prefsCmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change display preferences",
	}

	var output string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show display preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
			}
			return ctx.withSession(cmd, func(runCtx context.Context, s *session) error {
				values := make(map[string]string, len(prefs.Names()))
				rows := make([][]string, 0, len(prefs.Names()))
				for _, name := range prefs.Names() {
					value, err := s.prefs.Get(runCtx, name)
					if err != nil {
						return err
					}
					values[name] = value
					rows = append(rows, []string{name, value, strings.Join(prefs.Allowed(name), ", ")})
				}
				if done, err := writeStructured(cmd, format, values); done || err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Preference", "Value", "Allowed"}, rows, nil, 0))
				return nil
			})
		},
	}
	addOutputFlag(showCmd, &output)

	setCmd := &cobra.Command{
		Use:   "set <name> <value>",
		Short: "Change a display preference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(runCtx context.Context, s *session) error {
				value, err := s.prefs.Set(runCtx, args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], value)
				return nil
			})
		},
	}

	prefsCmd.AddCommand(showCmd, setCmd)
	return prefsCmd
}
