package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/local/stopoverdispatch/internal/render"
)

func newTemplateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Show or change the message template",
	}
	cmd.AddCommand(newTemplateShowCmd(a), newTemplateSetCmd(a))
	return cmd
}

func newTemplateShowCmd(a *app) *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective subject and body",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := a.state.EffectiveTemplate()
			if code != "" {
				t.Subject, t.Body = render.Render(t, strings.ToUpper(code))
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Subject: %s\n\n%s\n", t.Subject, t.Body)
			if stored := a.state.Template(); strings.TrimSpace(stored.Subject) == "" || strings.TrimSpace(stored.Body) == "" {
				fmt.Fprintln(out, warnColor.Sprint("(built-in defaults fill the empty fields)"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "render the template for this stopover code")
	return cmd
}

func newTemplateSetCmd(a *app) *cobra.Command {
	var subject, body, bodyFile string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change the subject and/or body",
		Long: `Stores a new subject and/or body. Both ` + render.CodePlaceholder + ` and ` + render.LegacyPlaceholder + `
expand to the stopover code. An empty value falls back to the built-in default.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("subject") && !flags.Changed("body") && bodyFile == "" {
				return fmt.Errorf("nothing to change: use --subject, --body or --body-file")
			}
			if bodyFile != "" {
				raw, err := os.ReadFile(bodyFile)
				if err != nil {
					return err
				}
				body = string(raw)
			}

			t := a.state.Template()
			if flags.Changed("subject") {
				t.Subject = subject
			}
			if flags.Changed("body") || bodyFile != "" {
				t.Body = body
			}
			if err := a.state.SetTemplate(t); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, okColor.Sprint("template saved"))
			if unknown := render.Unknown(t); len(unknown) > 0 {
				fmt.Fprintf(out, "%s %s will be sent as written\n", warnColor.Sprint("warning:"), strings.Join(unknown, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "message subject")
	cmd.Flags().StringVar(&body, "body", "", "message body")
	cmd.Flags().StringVar(&bodyFile, "body-file", "", "read the message body from a file")
	cmd.MarkFlagsMutuallyExclusive("body", "body-file")
	return cmd
}
