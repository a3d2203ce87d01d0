package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/veupathdb/redmine-client/core"
	"github.com/veupathdb/redmine-client/core/category"
	"github.com/veupathdb/redmine-client/core/model"
)

var genomeGroups = map[string]string{
	model.OpReferenceChange: "reference_change",
	model.OpLoadRefSeq:      "new_genomes",
	model.OpLoadINSDC:       "new_genomes",
	model.OpStableIDs:       "stable_ids",
	model.OpLoadEnsEMBL:     "copy_ensembl",
	model.OpPatchBuild:      "patch_build",
	model.OpLoadGFF:         "load_gff",
	model.OpOther:           "other",
	model.OpReplacement:     "replacement",
}

// GroupName returns the directory used to store the genomes of a category.
func GroupName(label string) string {
	if name, ok := genomeGroups[label]; ok {
		return name
	}
	return strings.ToLower(strings.ReplaceAll(label, " ", "_"))
}

func marshal(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", " ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// loadedFromGFF lists the categories whose genomes are loaded with their
// GFF file instead when they have one.
var loadedFromGFF = map[string]bool{
	model.OpLoadINSDC:  true,
	model.OpLoadRefSeq: true,
}

// StoreGenomes writes one JSON extract per valid genome and category under
// dir, as <group>/<organism_abbrev>.json. The valid and invalid categories
// are not stored, and a genome with a GFF file is only stored in load_gff,
// not in new_genomes.
func StoreGenomes(ctx context.Context, dir string, cats *category.Categories[model.Model]) error {
	var entries []core.Entry
	for _, label := range cats.Labels() {
		if label == category.Valid || label == category.Invalid {
			continue
		}
		items := cats.Get(label)
		if len(items) == 0 {
			continue
		}
		group := GroupName(label)
		entries = append(entries, core.DirEntry(group))
		for _, m := range items {
			g, ok := m.(*model.Genome)
			if !ok || !g.Valid() {
				continue
			}
			if g.GFF != "" && loadedFromGFF[label] {
				continue
			}
			data, err := marshal(g.Extract())
			if err != nil {
				return fmt.Errorf("failed to marshal genome %d: %w", g.ID(), err)
			}
			entries = append(entries, core.FileEntry(path.Join(group, g.OrganismAbbrev+".json"), data))
		}
	}
	return core.PersistFiles(ctx, dir, entries)
}

// Dataset store directories.
const (
	StoreCurGenome = "cur_genome"
	StoreNewGenome = "new_genome"
	StoreOther     = "other"
)

type aggregate struct {
	name     string
	extracts []model.DatasetExtract
}

// DatasetDir returns the directory of a valid dataset extract, or "" when
// the dataset is not stored (reference changes and patch builds).
func DatasetDir(d *model.RNASeq) string {
	switch {
	case d.ReferenceChange || d.Operations.HasAny(model.OpPatchBuild, model.OpReferenceChange):
		return ""
	case d.Operations.Has(model.OpOther):
		return StoreOther
	case d.NewGenome:
		return StoreNewGenome
	}
	return StoreCurGenome
}

// StoreDatasets writes the valid datasets under dir as
// <cur_genome|new_genome|other>/<component>/<abbrev>_<dataset>.json, each a
// one element list, plus the aggregates all.json (every stored dataset),
// all_cur.json (datasets of current genomes) and all_new.json (datasets of
// new genomes, only when there are some).
func StoreDatasets(ctx context.Context, dir string, cats *category.Categories[*model.RNASeq]) error {
	valid := cats.Get(category.DatasetValid)
	if len(valid) == 0 {
		return ErrNothingToReport
	}

	all := []model.DatasetExtract{}
	cur := []model.DatasetExtract{}
	var news []model.DatasetExtract
	var entries []core.Entry
	for _, d := range valid {
		sub := DatasetDir(d)
		if sub == "" {
			slog.Debug("Dataset not stored", "issue", d.ID(), "operations", d.Operations.String())
			continue
		}

		extract := d.Extract()
		data, err := marshal([]model.DatasetExtract{extract})
		if err != nil {
			return fmt.Errorf("failed to marshal dataset %d: %w", d.ID(), err)
		}
		name := fmt.Sprintf("%s_%s.json", d.OrganismAbbrev, d.DatasetName)
		entries = append(entries, core.FileEntry(path.Join(sub, d.Component, name), data))

		all = append(all, extract)
		switch sub {
		case StoreNewGenome:
			news = append(news, extract)
		case StoreCurGenome:
			cur = append(cur, extract)
		}
	}

	aggregates := []aggregate{{"all.json", all}, {"all_cur.json", cur}}
	if len(news) > 0 {
		aggregates = append(aggregates, aggregate{"all_new.json", news})
	}
	for _, a := range aggregates {
		data, err := marshal(a.extracts)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", a.name, err)
		}
		entries = append(entries, core.FileEntry(a.name, data))
	}

	return core.PersistFiles(ctx, dir, entries)
}
