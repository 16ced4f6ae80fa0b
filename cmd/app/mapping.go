package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/local/stopoverdispatch/internal/mapping"
)

func newMappingCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mapping",
		Short: "Manage the recipients of each stopover",
	}
	cmd.AddCommand(
		newMappingListCmd(a),
		newMappingSetCmd(a),
		newMappingAddCmd(a),
		newMappingRemoveCmd(a),
	)
	return cmd
}

func newMappingListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the configured stopovers and their recipients",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table := a.state.Mappings()
			codes := a.state.Stopovers()
			// Mapped codes missing from the stopover list still show up.
			known := make(map[string]bool, len(codes))
			for _, c := range codes {
				known[c] = true
			}
			var extra []string
			for c := range table {
				if !known[c] {
					extra = append(extra, c)
				}
			}
			sort.Strings(extra)
			codes = append(codes, extra...)

			if len(codes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No stopovers configured.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tTO\tCC\tBCC\tENABLED\tLAST SENT")
			for _, c := range codes {
				r := mapping.ResolveRecipients(c, table)
				last := "-"
				if t, ok := a.state.LastSent(c); ok {
					last = t.Local().Format("2006-01-02 15:04")
				}
				enabled := "yes"
				if !a.state.IsEnabled(c) {
					enabled = "no"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", c, listOrDash(r.To), listOrDash(r.CC), listOrDash(r.BCC), enabled, last)
			}
			return tw.Flush()
		},
	}
}

func newMappingSetCmd(a *app) *cobra.Command {
	var r mapping.Recipients
	cmd := &cobra.Command{
		Use:   "set CODE",
		Short: "Replace the recipients of a stopover",
		Long:  "Replaces every recipient of CODE. Setting no address at all removes the mapping.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := mapping.NormalizeCode(args[0])
			if err != nil {
				return err
			}
			if err := a.state.SetRecipients(code, r); err != nil {
				return err
			}
			if r.Empty() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s mapping removed\n", codeColor.Sprint(code))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", codeColor.Sprint(code), okColor.Sprint("updated"))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&r.To, "to", nil, "primary recipients")
	cmd.Flags().StringSliceVar(&r.CC, "cc", nil, "carbon-copy recipients")
	cmd.Flags().StringSliceVar(&r.BCC, "bcc", nil, "blind-copy recipients")
	return cmd
}

func newMappingAddCmd(a *app) *cobra.Command {
	var cc, bcc bool
	cmd := &cobra.Command{
		Use:   "add CODE ADDRESS",
		Short: "Add one recipient to a stopover",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry := strings.TrimSpace(args[1])
			switch {
			case cc:
				entry = mapping.CCTag + entry
			case bcc:
				entry = mapping.BCCTag + entry
			}
			added, err := a.state.AddRecipient(args[0], entry)
			if err != nil {
				return err
			}
			code := strings.ToUpper(strings.TrimSpace(args[0]))
			if !added {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already has %s\n", codeColor.Sprint(code), args[1])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", codeColor.Sprint(code), okColor.Sprint("added"), args[1])
			return nil
		},
	}
	cmd.Flags().BoolVar(&cc, "cc", false, "add as carbon-copy recipient")
	cmd.Flags().BoolVar(&bcc, "bcc", false, "add as blind-copy recipient")
	cmd.MarkFlagsMutuallyExclusive("cc", "bcc")
	return cmd
}

func newMappingRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove CODE [ADDRESS]",
		Aliases: []string{"rm"},
		Short:   "Remove a recipient, or the whole mapping without ADDRESS",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := strings.ToUpper(strings.TrimSpace(args[0]))
			if len(args) == 1 {
				if err := a.state.RemoveMapping(code); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s mapping removed\n", codeColor.Sprint(code))
				return nil
			}
			// The address may be stored under any header.
			addr := strings.TrimSpace(args[1])
			var err error
			for _, entry := range []string{addr, mapping.CCTag + addr, mapping.BCCTag + addr} {
				if err = a.state.RemoveRecipient(code, entry); err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s removed %s\n", codeColor.Sprint(code), addr)
					return nil
				}
			}
			return err
		},
	}
}

func listOrDash(list []string) string {
	if len(list) == 0 {
		return "-"
	}
	return strings.Join(list, ", ")
}
