package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/veupathdb/redmine-client/core/model"
)

var (
	issueID    int
	issueBuild int
	issueEmail string
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Check a single issue",
	Long: `Fetch one issue, parse it as a genome or an RNA-Seq dataset depending on
its datatype, and list its errors and warnings. The issue must be handed over
to the configured team and, with --build, target that build.`,
	Example: `  veupath-redmine issue --id 51234 --build 68 --email me@example.org`,
	Args:    cobra.NoArgs,
	RunE:    runIssue,
}

func init() {
	f := issueCmd.Flags()
	f.IntVar(&issueID, "id", 0, "ID of the issue to check")
	f.IntVar(&issueBuild, "build", 0, "Build the issue must target")
	f.StringVar(&issueEmail, "email", "", "Email used to query Entrez for the INSDC records")
	_ = issueCmd.MarkFlagRequired("id")
}

func runIssue(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	client, err := newRedmineClient()
	if err != nil {
		return err
	}
	lookup := newAssemblyLookup(issueEmail)
	if lookup == nil {
		fmt.Fprintln(out, "Tips: provide an email to also check if there is an annotation in INSDC")
	}

	issue, err := client.Issue(ctx, issueID)
	if err != nil {
		return fmt.Errorf("failed to fetch issue %d: %w", issueID, err)
	}

	m, err := model.Parse(ctx, issue, model.Options{Lookup: lookup})
	var dtErr *model.DatatypeError
	if errors.As(err, &dtErr) {
		fmt.Fprintf(out, "Unsupported datatype %s for issue %d\n", dtErr.Datatype, issueID)
		return nil
	}
	if err != nil {
		return err
	}

	switch m.(type) {
	case *model.Genome:
		fmt.Fprintln(out, "Genome issue identified")
	case *model.RNASeq:
		fmt.Fprintln(out, "RNA-Seq dataset issue identified")
	}

	build := ""
	if issueBuild > 0 {
		build = strconv.Itoa(issueBuild)
	}
	model.CheckHandover(m, cfg.Team, build)

	b := m.Common()
	if len(b.Errors) > 0 {
		fmt.Fprintf(out, "This issue has %d errors:\n", len(b.Errors))
		for _, e := range b.Errors {
			fmt.Fprintf(out, "- %s\n", e)
		}
	}
	if len(b.Warnings) > 0 {
		fmt.Fprintf(out, "This issue has %d warnings:\n", len(b.Warnings))
		for _, w := range b.Warnings {
			fmt.Fprintf(out, "- %s\n", w)
		}
	}
	if b.Valid() && len(b.Warnings) == 0 {
		fmt.Fprintln(out, "No error found")
	}
	return nil
}
