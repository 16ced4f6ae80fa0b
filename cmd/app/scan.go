package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/local/stopoverdispatch/internal/dispatch"
	"github.com/local/stopoverdispatch/internal/store"
)

type scanOutput struct {
	Job    *store.Job       `json:"job"`
	Drafts []dispatch.Draft `json:"drafts"`
}

func newScanCmd(a *app) *cobra.Command {
	var (
		asJSON  bool
		workers int
	)
	cmd := &cobra.Command{
		Use:   "scan <report.pdf>",
		Short: "Detect stopover pages and show who would receive them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if workers > 0 {
				a.cfg.Scan.Workers = workers
			}
			c, err := a.buildService(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			job, drafts, err := analyze(cmd, c.svc, args[0], !asJSON)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(scanOutput{Job: job, Drafts: drafts})
			}
			printDrafts(cmd, job, drafts)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "pages matched in parallel (default $SCAN_WORKERS)")
	return cmd
}

// analyze runs the analysis with a progress bar and prepares drafts.
func analyze(cmd *cobra.Command, svc *dispatch.Service, path string, progress bool) (*store.Job, []dispatch.Draft, error) {
	var bar *progressbar.ProgressBar
	report := func(done, total int) {
		if bar == nil {
			bar = newPageBar(total, "Reading pages")
		}
		_ = bar.Set(done)
	}
	if !progress {
		report = nil
	}

	job, err := svc.AnalyzeWithProgress(cmd.Context(), path, report)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return nil, nil, err
	}
	drafts, err := svc.Drafts(cmd.Context(), job.ID)
	if err != nil {
		return nil, nil, err
	}
	return job, drafts, nil
}

func printDrafts(cmd *cobra.Command, job *store.Job, drafts []dispatch.Draft) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d pages, %d stopover pages\n\n", job.FileName, job.TotalPages, len(job.Stopovers))
	if len(drafts) == 0 {
		warnColor.Fprintln(out, "No stopover page found.")
	} else {
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PAGE\tCODE\tRECIPIENTS\tLAST SENT\tSTATUS")
		for _, d := range drafts {
			last := "-"
			if d.LastSent != nil {
				last = d.LastSent.Local().Format("2006-01-02 15:04")
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
				d.PageNumber, codeColor.Sprint(d.Code), recipientsLine(d), last, draftStatus(d))
		}
		_ = tw.Flush()
	}
	for _, w := range job.Warnings {
		warnColor.Fprintln(out, "warning: "+w)
	}
}

func recipientsLine(d dispatch.Draft) string {
	if d.Recipients.Empty() {
		return "(none)"
	}
	parts := append([]string{}, d.Recipients.To...)
	for _, cc := range d.Recipients.CC {
		parts = append(parts, "cc:"+cc)
	}
	for _, bcc := range d.Recipients.BCC {
		parts = append(parts, "bcc:"+bcc)
	}
	return strings.Join(parts, ", ")
}

func draftStatus(d dispatch.Draft) string {
	switch {
	case !d.Sendable():
		return warnColor.Sprint("unmapped")
	case !d.Enabled:
		return warnColor.Sprint("disabled")
	default:
		return okColor.Sprint("ready")
	}
}
