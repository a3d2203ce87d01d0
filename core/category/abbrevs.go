package category

import (
	"strings"

	"github.com/veupathdb/redmine-client/core/model"
	"github.com/veupathdb/redmine-client/core/orgs"
)

// Organism abbreviation buckets.
const (
	AbbrevSetNew             = "set_new"
	AbbrevSetReplacement     = "set_replacement"
	AbbrevToUpdate           = "to_update"
	AbbrevInvalid            = "invalid"
	AbbrevDuplicate          = "duplicate"
	AbbrevUsed               = "used_abbrev"
	AbbrevUnknownReplacement = "unknown_replacement"
)

// Abbrevs sorts genomes by the state of their organism abbreviation,
// compared with the known (lowercase) abbreviations of the current release.
// The genomes are not modified: run model.GenerateAbbrevs first to fill in
// the missing abbreviations, which then land in to_update unless they are
// invalid, duplicated or already used by a non replacement genome. A genome
// still without abbreviation is invalid.
func Abbrevs(genomes []*model.Genome, known map[string]struct{}) *Categories[*model.Genome] {
	cats := New[*model.Genome](
		AbbrevSetNew,
		AbbrevSetReplacement,
		AbbrevToUpdate,
		AbbrevInvalid,
		AbbrevDuplicate,
		AbbrevUsed,
		AbbrevUnknownReplacement,
	)

	seen := map[string]bool{}
	for _, g := range genomes {
		if g.OrganismAbbrev == "" || orgs.ValidateAbbrev(g.OrganismAbbrev) != nil {
			cats.Add(AbbrevInvalid, g)
			continue
		}
		if seen[g.OrganismAbbrev] {
			cats.Add(AbbrevDuplicate, g)
			continue
		}
		seen[g.OrganismAbbrev] = true

		_, used := known[strings.ToLower(g.OrganismAbbrev)]
		switch {
		case used && !g.Replacement:
			cats.Add(AbbrevUsed, g)
		case !used && g.Replacement:
			cats.Add(AbbrevUnknownReplacement, g)
		case g.AbbrevGenerated:
			cats.Add(AbbrevToUpdate, g)
		case used:
			cats.Add(AbbrevSetReplacement, g)
		default:
			cats.Add(AbbrevSetNew, g)
		}
	}
	return cats
}
