package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/veupathdb/redmine-client/core/category"
	"github.com/veupathdb/redmine-client/core/model"
	"github.com/veupathdb/redmine-client/core/orgs"
	"github.com/veupathdb/redmine-client/core/redmine"
	"github.com/veupathdb/redmine-client/core/report"
)

var (
	abbrevsBuild   int
	abbrevsCurrent string

	abbrevsValidate string
	abbrevsGenerate string
	abbrevsCheck    bool
	abbrevsUpdate   bool
)

var abbrevsCmd = &cobra.Command{
	Use:   "abbrevs",
	Short: "Check and generate organism abbreviations",
	Long: `Validate or generate a single organism abbreviation, or check the
abbreviations of the genome issues against the list of the current release.

--update writes the generated abbreviations back to the issues that have
none. --validate and --generate do not need a Redmine key.`,
	Example: `  veupath-redmine abbrevs --validate pfal3D7
  veupath-redmine abbrevs --generate "Plasmodium falciparum 3D7"
  veupath-redmine abbrevs --build 68 --current-abbrevs abbrevs_67.txt --check`,
	Args: cobra.NoArgs,
	RunE: runAbbrevs,
}

func init() {
	f := abbrevsCmd.Flags()
	f.IntVar(&abbrevsBuild, "build", 0, "Restrict to a given build")
	f.StringVar(&abbrevsCurrent, "current-abbrevs", "", "File listing the organism abbreviations of the current release")

	f.StringVar(&abbrevsValidate, "validate", "", "Check the format of one abbreviation")
	f.StringVar(&abbrevsGenerate, "generate", "", "Generate an abbreviation from a full organism name")
	f.BoolVar(&abbrevsCheck, "check", false, "Show the abbreviation status of the genome issues")
	f.BoolVar(&abbrevsUpdate, "update", false, "Set the generated abbreviations in Redmine")
	abbrevsCmd.MarkFlagsMutuallyExclusive("validate", "generate", "check", "update")
	abbrevsCmd.MarkFlagsOneRequired("validate", "generate", "check", "update")
}

func runAbbrevs(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	switch {
	case abbrevsValidate != "":
		if err := orgs.ValidateAbbrev(abbrevsValidate); err != nil {
			fmt.Fprintln(out, err)
			return nil
		}
		fmt.Fprintln(out, "Abbrev is valid")
		return nil
	case abbrevsGenerate != "":
		abbrev, err := orgs.GenerateAbbrev(abbrevsGenerate)
		if err != nil {
			fmt.Fprintln(out, err)
			return nil
		}
		fmt.Fprintf(out, "Abbrev for '%s' is '%s'\n", abbrevsGenerate, abbrev)
		return nil
	}

	ctx := commandContext(cmd)
	known, err := orgs.LoadAbbrevs(abbrevsCurrent)
	if err != nil {
		return err
	}
	client, err := newRedmineClient()
	if err != nil {
		return err
	}
	filter, err := handoverFilter(ctx, client, abbrevsBuild, false)
	if err != nil {
		return err
	}
	issues, err := fetchDatatypes(ctx, client, filter, model.GenomeDatatypes)
	if err != nil {
		return err
	}
	slog.Info("Fetched genome issues", "count", len(issues), "known_abbrevs", len(known))

	genomes := model.ParseGenomes(ctx, issues, model.Options{})
	model.GenerateAbbrevs(genomes)
	cats := category.Abbrevs(genomes, known)
	if abbrevsCheck {
		return report.AbbrevCheck(out, cats)
	}
	return updateAbbrevs(cmd, client, cats.Get(category.AbbrevToUpdate), out)
}

// updateAbbrevs sets the generated abbreviation of each genome. A failed
// update is reported and the next genome is tried.
func updateAbbrevs(cmd *cobra.Command, client *redmine.Client, genomes []*model.Genome, out io.Writer) error {
	ctx := commandContext(cmd)
	fmt.Fprintf(out, "\n%d new organism abbrevs to update:\n", len(genomes))
	for _, g := range genomes {
		result := "UPDATED"
		if err := client.UpdateCustomValue(ctx, g.Issue, model.FieldOrganismAbbrev, g.OrganismAbbrev); err != nil {
			slog.Error("Failed to update organism abbreviation", "issue", g.ID(), "error", err)
			result = "UPDATE FAILED"
		}
		fmt.Fprintf(out, "%-20s\t%d\t%s\n", g.OrganismAbbrev, g.ID(), result)
	}
	return nil
}
