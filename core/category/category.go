// Package category groups parsed handover issues into named buckets for
// listings, reports and JSON extracts.
package category

import (
	"slices"

	"github.com/veupathdb/redmine-client/core/model"
)

// Bucket labels used by Categorize besides the operation names.
const (
	Valid        = "valid"
	Invalid      = "invalid"
	WithWarnings = "with warnings"
)

// Categories is an ordered map of label to items. Labels keep the order in
// which they were first added; an item is stored at most once per label.
type Categories[T comparable] struct {
	labels  []string
	buckets map[string][]T
	seen    map[string]map[T]struct{}
}

// New returns a Categories with the given labels already present, in order.
func New[T comparable](labels ...string) *Categories[T] {
	c := &Categories[T]{buckets: map[string][]T{}, seen: map[string]map[T]struct{}{}}
	for _, label := range labels {
		c.ensure(label)
	}
	return c
}

func (c *Categories[T]) ensure(label string) {
	if _, ok := c.buckets[label]; !ok {
		c.labels = append(c.labels, label)
		c.buckets[label] = nil
		c.seen[label] = map[T]struct{}{}
	}
}

// Add appends item to the bucket label, creating it if needed.
func (c *Categories[T]) Add(label string, item T) {
	c.ensure(label)
	if _, ok := c.seen[label][item]; ok {
		return
	}
	c.seen[label][item] = struct{}{}
	c.buckets[label] = append(c.buckets[label], item)
}

// Labels returns the bucket labels in insertion order.
func (c *Categories[T]) Labels() []string {
	return slices.Clone(c.labels)
}

// Get returns the items of a bucket, nil if the bucket does not exist.
func (c *Categories[T]) Get(label string) []T {
	return c.buckets[label]
}

// Len returns the number of items in a bucket.
func (c *Categories[T]) Len(label string) int {
	return len(c.buckets[label])
}

// Categorize sorts models into "valid" or "invalid", every operation they
// declare, "Load from GFF" and "Replacement" for genomes with a GFF file or
// replacement flag, and "with warnings". The listing starts with "with
// warnings", "valid" and "invalid", even when empty.
func Categorize(models []model.Model) *Categories[model.Model] {
	cats := New[model.Model](WithWarnings, Valid, Invalid)
	for _, m := range models {
		base := m.Common()
		if base.Valid() {
			cats.Add(Valid, m)
		} else {
			cats.Add(Invalid, m)
		}
		if len(base.Warnings) > 0 {
			cats.Add(WithWarnings, m)
		}
		if g, ok := m.(*model.Genome); ok {
			if g.GFF != "" {
				cats.Add(model.OpLoadGFF, m)
			}
			if g.Replacement {
				cats.Add(model.OpReplacement, m)
			}
		}
		for _, op := range base.Operations {
			cats.Add(op, m)
		}
	}
	return cats
}

// Genomes is Categorize for a batch of genomes.
func Genomes(genomes []*model.Genome) *Categories[model.Model] {
	models := make([]model.Model, 0, len(genomes))
	for _, g := range genomes {
		models = append(models, g)
	}
	return Categorize(models)
}

// RNA-Seq dataset buckets.
const (
	DatasetValid           = "valid"
	DatasetInvalid         = "invalid"
	DatasetReferenceChange = "reference_change"
	DatasetPatchBuild      = "patch_build"
	DatasetNew             = "new"
	DatasetNewGenome       = "new_genome"
	DatasetOther           = "other"
)

// Datasets puts every RNA-Seq dataset in "invalid" or "valid"; a valid
// dataset also goes to exactly one of reference_change, patch_build, other,
// new_genome or new, checked in that order.
func Datasets(datasets []*model.RNASeq) *Categories[*model.RNASeq] {
	cats := New[*model.RNASeq](
		DatasetValid,
		DatasetInvalid,
		DatasetReferenceChange,
		DatasetPatchBuild,
		DatasetNew,
		DatasetNewGenome,
		DatasetOther,
	)
	for _, d := range datasets {
		if !d.Valid() {
			cats.Add(DatasetInvalid, d)
			continue
		}
		switch {
		case d.ReferenceChange:
			cats.Add(DatasetReferenceChange, d)
		case d.Operations.Has(model.OpPatchBuild):
			cats.Add(DatasetPatchBuild, d)
		case d.Operations.Has(model.OpOther):
			cats.Add(DatasetOther, d)
		case d.NewGenome:
			cats.Add(DatasetNewGenome, d)
		default:
			cats.Add(DatasetNew, d)
		}
		cats.Add(DatasetValid, d)
	}
	return cats
}
