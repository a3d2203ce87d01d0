package model

import (
	"fmt"
	"slices"
	"strings"

	"github.com/veupathdb/redmine-client/core/redmine"
)

// RNASeqDatatypes are the datatypes handled by RNASeq.
var RNASeqDatatypes = []string{"RNA-seq"}

// NoSplicedComponents are the components whose RNA-Seq data is aligned without splicing.
var NoSplicedComponents = []string{"TriTrypDB", "MicrosporidiaDB"}

// Statuses accepted for RNA-Seq datasets.
var (
	HandoverStatuses = []string{"New", "Data Processing (EBI)"}
	AnytimeStatuses  = []string{
		"New",
		"Data Processing (EBI)",
		"Ready for Release",
		"Post Loading Config and QA",
		"Pre-loading data preparation",
		"Assessment for Loading",
		"Outreach QA",
	}
)

// RNASeq is an RNA-Seq dataset handover issue.
type RNASeq struct {
	Base

	DatasetName     string
	Samples         []Sample
	ReferenceChange bool
	NoSpliced       bool
	// NewGenome is set when the organism is not part of the current release.
	NewGenome bool
}

func (*RNASeq) isModel() {}

// ParseRNASeq extracts the dataset name and samples of issue.
//
// Reference changes, patch builds and "Other" tickets do not describe a new
// dataset: their dataset problems are not recorded.
func ParseRNASeq(issue *redmine.Issue) (*RNASeq, error) {
	base := NewBase(issue)
	if !slices.Contains(RNASeqDatatypes, base.Datatype) {
		return nil, &DatatypeError{Datatype: base.Datatype}
	}

	r := &RNASeq{Base: base}
	r.Operations = r.Operations.Only(OpOther, OpReferenceChange, OpPatchBuild)
	r.ReferenceChange = r.Operations.Has(OpReferenceChange)
	r.NoSpliced = slices.Contains(NoSplicedComponents, r.Component)

	sink := &r.Diagnostics
	if r.ReferenceChange || r.Operations.HasAny(OpOther, OpPatchBuild) {
		sink = &Diagnostics{}
	}
	r.extractDatasetName(sink)
	r.extractSamples(sink)
	return r, nil
}

func (r *RNASeq) extractDatasetName(d *Diagnostics) {
	name := strings.TrimSpace(r.Fields.String(FieldDatasetName))
	if name == "" {
		d.AddError("Missing dataset name")
		return
	}
	r.DatasetName = name
	if nonASCIIRe.MatchString(name) {
		d.AddError(fmt.Sprintf("Bad chars in dataset name: '%s'", name))
	}
}

func (r *RNASeq) extractSamples(d *Diagnostics) {
	text := r.Fields.String(FieldSamples)
	if strings.TrimSpace(text) == "" {
		d.AddError("Missing samples")
		return
	}
	samples, err := ParseSamples(text)
	if err != nil {
		d.AddError(err.Error())
	}
	if len(samples) == 0 {
		d.AddError("Wrong sample format")
		return
	}
	r.Samples = samples
}

// DatasetExtract is the JSON document stored for an RNA-Seq dataset.
// Fields are in alphabetical order.
type DatasetExtract struct {
	Component string   `json:"component"`
	Name      string   `json:"name"`
	NoSpliced bool     `json:"no_spliced,omitempty"`
	Runs      []Sample `json:"runs"`
	Species   string   `json:"species"`
}

// Extract returns the JSON document for r.
func (r *RNASeq) Extract() DatasetExtract {
	runs := r.Samples
	if runs == nil {
		runs = []Sample{}
	}
	return DatasetExtract{
		Component: r.Component,
		Name:      r.DatasetName,
		NoSpliced: r.NoSpliced,
		Runs:      runs,
		Species:   r.OrganismAbbrev,
	}
}

// ParseDatasets parses a batch of RNA-Seq issues. An issue that cannot be
// parsed is kept as a dataset carrying the parse failure as an error.
func ParseDatasets(issues []redmine.Issue) []*RNASeq {
	datasets := make([]*RNASeq, 0, len(issues))
	for i := range issues {
		r, err := ParseRNASeq(&issues[i])
		if err != nil {
			r = &RNASeq{Base: NewBase(&issues[i])}
			r.AddError(err.Error())
		}
		datasets = append(datasets, r)
	}
	return datasets
}

// FilterStatus splits datasets by whether their issue status is in statuses.
func FilterStatus(datasets []*RNASeq, statuses []string) (kept, excluded []*RNASeq) {
	for _, d := range datasets {
		if d.Issue != nil && slices.Contains(statuses, d.Issue.Status.Name) {
			kept = append(kept, d)
		} else {
			excluded = append(excluded, d)
		}
	}
	return kept, excluded
}

// MarkNewGenomes flags the datasets whose organism is not in known (lowercase abbreviations).
func MarkNewGenomes(datasets []*RNASeq, known map[string]struct{}) {
	for _, d := range datasets {
		if _, ok := known[strings.ToLower(d.OrganismAbbrev)]; !ok {
			d.NewGenome = true
		}
	}
}
