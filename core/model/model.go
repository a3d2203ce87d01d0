// Package model turns raw Redmine issues into validated genome and RNA-Seq
// handover records.
//
// Each issue is parsed exactly once into a Model, which is either a *Genome or
// an *RNASeq. Structural problems (unsupported datatype) are returned as errors;
// content problems are accumulated on the model as error and warning strings.
package model

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/veupathdb/redmine-client/core/orgs"
	"github.com/veupathdb/redmine-client/core/redmine"
)

// EBI operations. OpLoadGFF and OpReplacement never appear in a ticket,
// they are derived from the GFF path and the replacement flag.
const (
	OpLoadINSDC       = "Load from INSDC"
	OpLoadRefSeq      = "Load from RefSeq"
	OpLoadEnsEMBL     = "Load from EnsEMBL"
	OpPatchBuild      = "Patch build"
	OpReferenceChange = "Reference change"
	OpStableIDs       = "Allocate stable ids"
	OpOther           = "Other"
	OpLoadGFF         = "Load from GFF"
	OpReplacement     = "Replacement"
)

// Custom field names.
const (
	FieldComponent            = "Component DB"
	FieldOrganismAbbrev       = "Organism Abbreviation"
	FieldExperimentalOrganism = "Experimental Organisms"
	FieldOperations           = "EBI operations"
	FieldDatatype             = "DataType"
	FieldTeam                 = "VEuPathDB Team"
	FieldAccession            = "GCA number"
	FieldGFF                  = "GFF 2 Load"
	FieldReplacement          = "Replacement genome?"
	FieldDatasetName          = "Internal dataset name"
	FieldSamples              = "Sample Names"
)

// FieldSpec declares a custom field read by a model.
type FieldSpec struct {
	Name      string
	Mandatory bool
}

var (
	BaseFields = []FieldSpec{
		{Name: FieldComponent, Mandatory: true},
		{Name: FieldOrganismAbbrev, Mandatory: true},
		{Name: FieldDatatype, Mandatory: true},
		{Name: FieldTeam},
		{Name: FieldOperations},
		{Name: FieldExperimentalOrganism},
	}
	GenomeFields = []FieldSpec{
		{Name: FieldAccession, Mandatory: true},
		{Name: FieldGFF},
		{Name: FieldReplacement},
	}
	RNASeqFields = []FieldSpec{
		{Name: FieldDatasetName, Mandatory: true},
		{Name: FieldSamples, Mandatory: true},
	}
)

// MissingFields lists the mandatory fields of specs that are absent or empty.
func MissingFields(fields redmine.Fields, specs ...[]FieldSpec) []string {
	var missing []string
	for _, list := range specs {
		for _, spec := range list {
			if spec.Mandatory && len(fields.List(spec.Name)) == 0 {
				missing = append(missing, spec.Name)
			}
		}
	}
	return missing
}

// DatatypeError is returned when an issue is parsed with a model that does
// not support its datatype.
type DatatypeError struct {
	Datatype string
}

func (e *DatatypeError) Error() string {
	return fmt.Sprintf("Datatype not supported: '%s'", e.Datatype)
}

// Diagnostics accumulates the content errors and advisory warnings of one issue.
type Diagnostics struct {
	Errors   []string
	Warnings []string
}

func (d *Diagnostics) AddError(msg string) {
	d.Errors = append(d.Errors, msg)
}

func (d *Diagnostics) AddWarning(msg string) {
	d.Warnings = append(d.Warnings, msg)
}

// Valid reports whether no error was recorded.
func (d *Diagnostics) Valid() bool {
	return len(d.Errors) == 0
}

// Operations is an ordered set of operation names.
type Operations []string

// NewOperations builds a set, keeping the first occurrence of each name.
func NewOperations(ops ...string) Operations {
	out := Operations{}
	for _, op := range ops {
		if op != "" && !out.Has(op) {
			out = append(out, op)
		}
	}
	return out
}

func (o Operations) Has(op string) bool {
	return slices.Contains(o, op)
}

// HasAny reports whether at least one of ops is in the set.
func (o Operations) HasAny(ops ...string) bool {
	for _, op := range ops {
		if o.Has(op) {
			return true
		}
	}
	return false
}

// Only returns the operations that are in keep, in the original order.
func (o Operations) Only(keep ...string) Operations {
	out := Operations{}
	for _, op := range o {
		if slices.Contains(keep, op) {
			out = append(out, op)
		}
	}
	return out
}

func (o Operations) String() string {
	return strings.Join(o, ",")
}

var buildRe = regexp.MustCompile(`^Build (\d+)$`)

// Base holds what every VEuPathDB handover issue has in common.
type Base struct {
	Issue  *redmine.Issue
	Fields redmine.Fields

	Component            string
	OrganismAbbrev       string
	ExperimentalOrganism string
	Datatype             string
	Team                 string
	Build                string
	Operations           Operations

	Diagnostics
}

// NewBase extracts the common fields of issue. Problems with the component
// or the organism abbreviation are recorded as errors.
func NewBase(issue *redmine.Issue) Base {
	fields := redmine.CustomFields(issue)
	b := Base{
		Issue:                issue,
		Fields:               fields,
		ExperimentalOrganism: strings.TrimSpace(fields.String(FieldExperimentalOrganism)),
		Datatype:             fields.String(FieldDatatype),
		Team:                 fields.String(FieldTeam),
		Operations:           NewOperations(fields.List(FieldOperations)...),
		Build:                ParseBuild(issue.FixedVersionName()),
	}
	b.extractComponent()
	b.extractOrganismAbbrev()
	return b
}

// Common gives access to the shared record of any Model.
func (b *Base) Common() *Base { return b }

// ID returns the Redmine issue id, or 0 for a detached record.
func (b *Base) ID() int {
	if b.Issue == nil {
		return 0
	}
	return b.Issue.ID
}

// Subject returns the issue subject.
func (b *Base) Subject() string {
	if b.Issue == nil {
		return ""
	}
	return b.Issue.Subject
}

// RedmineLink returns an HTML anchor to the issue on the given server.
func (b *Base) RedmineLink(baseURL string) string {
	id := b.ID()
	return fmt.Sprintf(`<a href="%s/issues/%d">%d</a>`, strings.TrimRight(baseURL, "/"), id, id)
}

func (b *Base) extractComponent() {
	components := b.Fields.List(FieldComponent)
	switch len(components) {
	case 0:
		b.AddError("No component")
	case 1:
		b.Component = components[0]
	default:
		b.AddError("Several components")
	}
}

func (b *Base) extractOrganismAbbrev() {
	abbrev := strings.TrimSpace(b.Fields.String(FieldOrganismAbbrev))
	if abbrev == "" {
		b.AddError("Missing organism_abbrev")
		return
	}
	b.OrganismAbbrev = abbrev
	if err := orgs.ValidateAbbrev(abbrev); err != nil {
		b.AddError(fmt.Sprintf("Invalid organism_abbrev: %s", abbrev))
	}
}

// ParseBuild returns the number of a "Build N" version name, or "".
func ParseBuild(version string) string {
	if m := buildRe.FindStringSubmatch(version); m != nil {
		return m[1]
	}
	return ""
}

// Model is a parsed handover issue: a *Genome or an *RNASeq.
type Model interface {
	Common() *Base
	isModel()
}

// Options tune parsing.
type Options struct {
	// Lookup enables the assembly metadata checks of genome issues.
	Lookup AssemblyLookup
}

// Parse picks the model matching the datatype of issue and parses it.
func Parse(ctx context.Context, issue *redmine.Issue, opts Options) (Model, error) {
	datatype := redmine.CustomFields(issue).String(FieldDatatype)
	switch {
	case slices.Contains(GenomeDatatypes, datatype):
		return ParseGenome(ctx, issue, opts)
	case slices.Contains(RNASeqDatatypes, datatype):
		return ParseRNASeq(issue)
	}
	return nil, &DatatypeError{Datatype: datatype}
}

// CheckHandover records an error when a model is not handed over to team or,
// if build is set, not targeted at that build.
func CheckHandover(m Model, team, build string) {
	b := m.Common()
	if b.Team != team {
		b.AddError(fmt.Sprintf("team is not %s", team))
	}
	if build != "" && b.Build != build {
		b.AddError(fmt.Sprintf("Wrong build: issue has %s", b.Build))
	}
}
