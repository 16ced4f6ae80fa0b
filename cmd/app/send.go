package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/local/stopoverdispatch/internal/dispatch"
	"github.com/local/stopoverdispatch/internal/mapping"
)

func newSendCmd(a *app) *cobra.Command {
	var (
		code   string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "send <report.pdf>",
		Short: "Send the page of each detected stopover to its recipients",
		Long: `Analyses the report, then writes one message per stopover page into the
outbox. With --code only that stopover is sent. Unmapped or disabled
stopovers are skipped and reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if code != "" {
				c, err := mapping.NormalizeCode(code)
				if err != nil {
					return err
				}
				code = c
			}
			c, err := a.buildService(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			job, drafts, err := analyze(cmd, c.svc, args[0], true)
			if err != nil {
				return err
			}
			if dryRun {
				printDryRun(cmd, drafts, code)
				return nil
			}

			sp := newSpinner("Sending")
			sp.Start()
			var results []dispatch.SendResult
			if code == "" {
				results, err = c.svc.SendAll(cmd.Context(), job.ID)
			} else {
				results, err = sendCode(cmd, c.svc, job.ID, drafts, code)
			}
			sp.Stop()
			printResults(cmd, results)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nOutbox: %s\n", c.outbox.Dir())
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "only send the stopover with this code")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "show the messages without sending")
	return cmd
}

func sendCode(cmd *cobra.Command, svc *dispatch.Service, jobID string, drafts []dispatch.Draft, code string) ([]dispatch.SendResult, error) {
	var results []dispatch.SendResult
	for _, d := range drafts {
		if d.Code != code {
			continue
		}
		res, err := svc.Send(cmd.Context(), jobID, d.PageIndex)
		if err != nil {
			status := dispatch.StatusFailed
			if dispatch.IsUnmapped(err) {
				status = dispatch.StatusSkipped
			}
			results = append(results, dispatch.SendResult{Code: d.Code, PageIndex: d.PageIndex, Status: status, Reason: err.Error()})
			continue
		}
		results = append(results, *res)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("stopover %s not found in the report", code)
	}
	return results, nil
}

func printDryRun(cmd *cobra.Command, drafts []dispatch.Draft, code string) {
	out := cmd.OutOrStdout()
	for _, d := range drafts {
		if code != "" && d.Code != code {
			continue
		}
		fmt.Fprintf(out, "%s page %d  %s\n", codeColor.Sprint(d.Code), d.PageNumber, draftStatus(d))
		fmt.Fprintf(out, "  To:      %s\n", strings.Join(d.Recipients.To, ", "))
		if len(d.Recipients.CC) > 0 {
			fmt.Fprintf(out, "  Cc:      %s\n", strings.Join(d.Recipients.CC, ", "))
		}
		if len(d.Recipients.BCC) > 0 {
			fmt.Fprintf(out, "  Bcc:     %s\n", strings.Join(d.Recipients.BCC, ", "))
		}
		fmt.Fprintf(out, "  Subject: %s\n", d.Subject)
		fmt.Fprintf(out, "  Attach:  %s\n\n", d.AttachmentName)
	}
}

func printResults(cmd *cobra.Command, results []dispatch.SendResult) {
	out := cmd.OutOrStdout()
	for _, r := range results {
		var status string
		switch r.Status {
		case dispatch.StatusSuccess:
			status = okColor.Sprint(string(r.Status))
		case dispatch.StatusSkipped:
			status = warnColor.Sprint(string(r.Status))
		default:
			status = errColor.Sprint(string(r.Status))
		}
		line := fmt.Sprintf("%-8s %s page %d", status, codeColor.Sprint(r.Code), r.PageIndex+1)
		if r.Reason != "" {
			line += "  (" + r.Reason + ")"
		}
		fmt.Fprintln(out, line)
	}
}
