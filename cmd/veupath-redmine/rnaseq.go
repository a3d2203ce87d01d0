package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/veupathdb/redmine-client/core/category"
	"github.com/veupathdb/redmine-client/core/model"
	"github.com/veupathdb/redmine-client/core/orgs"
	"github.com/veupathdb/redmine-client/core/report"
)

var (
	rnaseqBuild     int
	rnaseqComponent string
	rnaseqSpecies   string
	rnaseqAnyTeam   bool
	rnaseqAnytime   bool
	rnaseqAbbrevs   string

	rnaseqCheck   bool
	rnaseqSummary bool
	rnaseqReport  string
	rnaseqStore   string
)

var rnaseqCmd = &cobra.Command{
	Use:   "rnaseq",
	Short: "Check the RNA-Seq dataset handover issues",
	Long: `Fetch the RNA-Seq issues, keep those in a handover status and check their
dataset name and samples.

With --current-abbrevs, datasets whose organism is not in the list are
marked as datasets for a new genome.`,
	Args: cobra.NoArgs,
	RunE: runRNASeq,
}

func init() {
	f := rnaseqCmd.Flags()
	f.IntVar(&rnaseqBuild, "build", 0, "Restrict to a given build")
	f.StringVar(&rnaseqComponent, "component", "", "Restrict to a given component")
	f.StringVar(&rnaseqSpecies, "species", "", "Restrict to a given organism abbreviation")
	f.BoolVar(&rnaseqAnyTeam, "any-team", false, "Do not filter by the processing team")
	f.BoolVar(&rnaseqAnytime, "anytime", false, "Accept every active status, not only the handover ones")
	f.StringVar(&rnaseqAbbrevs, "current-abbrevs", "", "File listing the organism abbreviations of the current release")

	f.BoolVar(&rnaseqCheck, "check", false, "Parse issues and list them per category")
	f.BoolVar(&rnaseqSummary, "summary", false, "Count the issues of each category")
	f.StringVar(&rnaseqReport, "report", "", "Write an HTML report to this file")
	f.StringVar(&rnaseqStore, "store", "", "Write the JSON dataset files under this directory")
	rnaseqCmd.MarkFlagsMutuallyExclusive("check", "summary", "report", "store")
	rnaseqCmd.MarkFlagsOneRequired("check", "summary", "report", "store")
}

func runRNASeq(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	known, err := orgs.LoadAbbrevs(rnaseqAbbrevs)
	if err != nil {
		return err
	}

	client, err := newRedmineClient()
	if err != nil {
		return err
	}
	filter, err := handoverFilter(ctx, client, rnaseqBuild, rnaseqAnyTeam)
	if err != nil {
		return err
	}
	if rnaseqComponent != "" {
		filter.Set("component", rnaseqComponent)
	}
	if rnaseqSpecies != "" {
		filter.Set("organism_abbrev", rnaseqSpecies)
	}

	issues, err := fetchDatatypes(ctx, client, filter, model.RNASeqDatatypes)
	if err != nil {
		return err
	}
	datasets := model.ParseDatasets(issues)

	statuses := model.HandoverStatuses
	if rnaseqAnytime {
		statuses = model.AnytimeStatuses
	}
	datasets, excluded := model.FilterStatus(datasets, statuses)
	for _, d := range excluded {
		slog.Info("Excluded dataset", "issue", d.ID(), "status", d.Issue.Status.Name, "dataset", d.DatasetName)
	}
	slog.Info("Fetched RNA-Seq issues", "count", len(issues), "kept", len(datasets), "anytime", rnaseqAnytime)

	if rnaseqAbbrevs != "" {
		model.MarkNewGenomes(datasets, known)
		for _, d := range datasets {
			if d.NewGenome {
				slog.Info("Dataset for a new genome", "issue", d.ID(), "organism", d.OrganismAbbrev)
			}
		}
	}
	cats := category.Datasets(datasets)

	out := cmd.OutOrStdout()
	switch {
	case rnaseqCheck:
		return report.Check(out, cats)
	case rnaseqSummary:
		return report.Summary(out, cats)
	case rnaseqReport != "":
		return writeReport(ctx, rnaseqReport, func(w io.Writer) error {
			return report.DatasetHTML(w, cats, report.HTMLOptions{Build: rnaseqBuild, RedmineURL: client.BaseURL()})
		})
	default:
		if err := report.StoreDatasets(ctx, rnaseqStore, cats); err != nil {
			return notEmpty(err)
		}
		slog.Info("Stored datasets", "dir", rnaseqStore, "valid", cats.Len(category.DatasetValid))
		return nil
	}
}
