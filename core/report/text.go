// Package report renders categorized handover issues as text listings, HTML
// build reports and JSON extracts.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/veupathdb/redmine-client/core/category"
	"github.com/veupathdb/redmine-client/core/model"
	"github.com/veupathdb/redmine-client/core/redmine"
)

const detailIndent = "             "

func truncate(s string, limit, keep int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:keep]) + "..."
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func status(b *model.Base) string {
	if b.Valid() {
		return "ok"
	}
	return "BAD"
}

func appendDetails(line string, b *model.Base) string {
	var sb strings.Builder
	sb.WriteString(line)
	for _, e := range b.Errors {
		sb.WriteString("\n" + detailIndent + "ERROR: " + e)
	}
	for _, w := range b.Warnings {
		sb.WriteString("\n" + detailIndent + "WARNING: " + w)
	}
	return sb.String()
}

// GenomeLine is the fixed width listing of a genome, followed by one line per
// error and warning.
func GenomeLine(g *model.Genome) string {
	desc := g.Operations.String()
	if g.GFF != "" {
		desc += " +GFF"
	}
	if g.Replacement {
		desc += " +REPLACE"
	}
	component := orDefault(g.Component, "no component")
	if r := []rune(component); len(r) > 12 {
		component = string(r[:12])
	}
	line := fmt.Sprintf("%-3s  %6d  %-12s  %-24s    %-32s    %s",
		status(&g.Base),
		g.ID(),
		component,
		orDefault(g.OrganismAbbrev, "no organism_abbrev"),
		desc,
		truncate(g.Subject(), 64, 64),
	)
	return appendDetails(line, &g.Base)
}

// DatasetLine is the fixed width listing of an RNA-Seq dataset.
func DatasetLine(d *model.RNASeq) string {
	descriptions := d.Operations
	if d.NewGenome {
		descriptions = append(model.Operations{}, descriptions...)
		descriptions = append(descriptions, "New genome")
	}
	dataset := "no dataset_name"
	if d.DatasetName != "" {
		dataset = truncate(d.DatasetName, 24, 24)
	}
	line := fmt.Sprintf("%-3s  %6d  %-12s  %-24s  %-24s  %-22s  %s",
		status(&d.Base),
		d.ID(),
		truncate(orDefault(d.Component, "no component"), 12, 9),
		orDefault(d.OrganismAbbrev, "no organism_abbrev"),
		dataset,
		descriptions.String(),
		truncate(d.Subject(), 40, 37),
	)
	return appendDetails(line, &d.Base)
}

type listable interface {
	comparable
	model.Model
}

// Line dispatches to GenomeLine or DatasetLine.
func Line(m model.Model) string {
	switch m := m.(type) {
	case *model.Genome:
		return GenomeLine(m)
	case *model.RNASeq:
		return DatasetLine(m)
	}
	return ""
}

// Check writes every category with the listing of its items.
func Check[T listable](w io.Writer, cats *category.Categories[T]) error {
	for _, label := range cats.Labels() {
		items := cats.Get(label)
		if _, err := fmt.Fprintf(w, "\n%d %s:\n", len(items), label); err != nil {
			return err
		}
		for _, m := range items {
			if _, err := fmt.Fprintln(w, Line(m)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Summary writes the size of every category.
func Summary[T listable](w io.Writer, cats *category.Categories[T]) error {
	for _, label := range cats.Labels() {
		if _, err := fmt.Fprintf(w, "%d %s\n", cats.Len(label), label); err != nil {
			return err
		}
	}
	return nil
}

var abbrevDescriptions = []struct {
	label string
	desc  string
}{
	{category.AbbrevInvalid, "WARNING: the format of the abbrev is not valid"},
	{category.AbbrevDuplicate, "WARNING: several tickets use the same abbrev"},
	{category.AbbrevUsed, "WARNING: abbrev is set in the ticket and known, check that the operation needs a known abbrev"},
	{category.AbbrevUnknownReplacement, "WARNING: abbrev is set in the ticket and new, not expected for a replacement"},
	{category.AbbrevSetNew, "OK: abbrev is already set in the ticket and is new"},
	{category.AbbrevSetReplacement, "OK: abbrev is set in the ticket and is known, expected for a replacement"},
	{category.AbbrevToUpdate, "TODO: add --update to generate the organism_abbrev and update the tickets"},
}

// AbbrevLine lists a genome by its organism abbreviation.
func AbbrevLine(g *model.Genome) string {
	return strings.Join([]string{
		fmt.Sprintf("%-20s", g.OrganismAbbrev),
		fmt.Sprint(g.ID()),
		"(" + strings.Join(g.Operations, ", ") + ")",
		"From " + g.ExperimentalOrganism,
	}, "\t")
}

// AbbrevCheck writes the non empty abbreviation categories, problems first.
func AbbrevCheck(w io.Writer, cats *category.Categories[*model.Genome]) error {
	for _, d := range abbrevDescriptions {
		genomes := cats.Get(d.label)
		if len(genomes) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "\n%d %s organism abbrevs\n\t%s:\n", len(genomes), strings.ToUpper(d.label), d.desc); err != nil {
			return err
		}
		for _, g := range genomes {
			if _, err := fmt.Fprintln(w, AbbrevLine(g)); err != nil {
				return err
			}
		}
	}
	return nil
}

// IssueLine is a tab separated listing of a raw issue: assignee, team, build,
// components, datatype, id and subject.
func IssueLine(issue *redmine.Issue) string {
	fields := redmine.CustomFields(issue)

	build := orDefault(issue.FixedVersionName(), "(no build)")
	assignee := orDefault(issue.AssigneeName(), "(no assignee)")
	component := "(no component)"
	if fields.Has(model.FieldComponent) {
		component = strings.Join(fields.List(model.FieldComponent), ",")
	}

	return fmt.Sprintf("%s\t%s\t%s\t%s\t'%s'\t%d\t(%s)",
		assignee,
		orDefault(fields.String(model.FieldTeam), "(no team)"),
		build,
		component,
		orDefault(fields.String(model.FieldDatatype), "(no datatype)"),
		issue.ID,
		truncate(issue.Subject, 100, 100),
	)
}

// Issues writes a titled listing of raw issues.
func Issues(w io.Writer, issues []redmine.Issue, description string) error {
	if _, err := fmt.Fprintf(w, "%d issues for %s\n", len(issues), description); err != nil {
		return err
	}
	for i := range issues {
		if _, err := fmt.Fprintln(w, IssueLine(&issues[i])); err != nil {
			return err
		}
	}
	return nil
}
