package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/veupathdb/redmine-client/core/category"
	"github.com/veupathdb/redmine-client/core/model"
	"github.com/veupathdb/redmine-client/core/report"
)

var (
	genomesBuild     int
	genomesComponent string
	genomesAnyTeam   bool
	genomesEmail     string

	genomesCheck   bool
	genomesSummary bool
	genomesReport  string
	genomesStore   string
)

var genomesCmd = &cobra.Command{
	Use:   "genomes",
	Short: "Check the genome handover issues",
	Long: `Fetch the genome issues (annotated genomes, assemblies without annotation
and gene models) and sort them by operation.

Give an Entrez email (--email or entrez_email in the config) to also check
the accessions against the INSDC assembly records.`,
	Example: `  veupath-redmine genomes --build 68 --check
  veupath-redmine genomes --build 68 --report genomes_68.html
  veupath-redmine genomes --build 68 --store genomes_68/`,
	Args: cobra.NoArgs,
	RunE: runGenomes,
}

func init() {
	f := genomesCmd.Flags()
	f.IntVar(&genomesBuild, "build", 0, "Restrict to a given build")
	f.StringVar(&genomesComponent, "component", "", "Restrict to a given component")
	f.BoolVar(&genomesAnyTeam, "any-team", false, "Do not filter by the processing team")
	f.StringVar(&genomesEmail, "email", "", "Email used to query Entrez for the INSDC records")

	f.BoolVar(&genomesCheck, "check", false, "Parse issues and list them per category")
	f.BoolVar(&genomesSummary, "summary", false, "Count the issues of each category")
	f.StringVar(&genomesReport, "report", "", "Write an HTML report to this file")
	f.StringVar(&genomesStore, "store", "", "Write a JSON file per genome under this directory")
	genomesCmd.MarkFlagsMutuallyExclusive("check", "summary", "report", "store")
	genomesCmd.MarkFlagsOneRequired("check", "summary", "report", "store")
}

func runGenomes(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	client, err := newRedmineClient()
	if err != nil {
		return err
	}

	filter, err := handoverFilter(ctx, client, genomesBuild, genomesAnyTeam)
	if err != nil {
		return err
	}
	if genomesComponent != "" {
		filter.Set("component", genomesComponent)
	}

	issues, err := fetchDatatypes(ctx, client, filter, model.GenomeDatatypes)
	if err != nil {
		return err
	}
	slog.Info("Fetched genome issues", "count", len(issues))

	lookup := newAssemblyLookup(genomesEmail)
	if lookup == nil {
		slog.Info("No Entrez email, INSDC checks are skipped")
	}
	cats := category.Genomes(model.ParseGenomes(ctx, issues, model.Options{Lookup: lookup}))

	out := cmd.OutOrStdout()
	switch {
	case genomesCheck:
		return report.Check(out, cats)
	case genomesSummary:
		return report.Summary(out, cats)
	case genomesReport != "":
		return writeReport(ctx, genomesReport, func(w io.Writer) error {
			return report.GenomeHTML(w, cats, report.HTMLOptions{Build: genomesBuild, RedmineURL: client.BaseURL()})
		})
	default:
		if err := report.StoreGenomes(ctx, genomesStore, cats); err != nil {
			return err
		}
		slog.Info("Stored genomes", "dir", genomesStore, "valid", cats.Len(category.Valid))
		return nil
	}
}
