package model

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/veupathdb/redmine-client/core/insdc"
	"github.com/veupathdb/redmine-client/core/orgs"
	"github.com/veupathdb/redmine-client/core/redmine"
)

// DatatypeAnnotated is the only genome datatype expected to come with an annotation.
const DatatypeAnnotated = "Genome sequence and Annotation"

// GenomeDatatypes are the datatypes handled by Genome.
var GenomeDatatypes = []string{
	DatatypeAnnotated,
	"Assembled genome sequence without annotation",
	"Gene Models",
}

var (
	insdcRe     = regexp.MustCompile(`^GC[AF]_\d{9}(\.\d+)?$`)
	refseqRe    = regexp.MustCompile(`^GCF_\d{9}(\.\d+)?$`)
	urlPrefixRe = regexp.MustCompile(`^.+/([^/]+)/?$`)
)

// AssemblyLookup fetches the archive metadata of an assembly accession.
type AssemblyLookup interface {
	Lookup(ctx context.Context, accession string) (*insdc.AssemblySummary, error)
}

// Genome is a genome handover issue.
type Genome struct {
	Base

	Accession   string
	GFF         string
	Annotated   bool
	Replacement bool
	Assembly    *insdc.AssemblySummary

	// AbbrevGenerated is set when OrganismAbbrev comes from GenerateAbbrevs.
	AbbrevGenerated bool
}

func (*Genome) isModel() {}

// ParseGenome extracts and checks the genome metadata of issue.
// It fails with a *DatatypeError when the issue is not a genome issue.
func ParseGenome(ctx context.Context, issue *redmine.Issue, opts Options) (*Genome, error) {
	base := NewBase(issue)
	if !slices.Contains(GenomeDatatypes, base.Datatype) {
		return nil, &DatatypeError{Datatype: base.Datatype}
	}

	g := &Genome{Base: base, Annotated: base.Datatype == DatatypeAnnotated}

	// Patch builds only touch an existing genome, they carry no assembly data.
	if g.Operations.Has(OpPatchBuild) {
		g.Replacement = true
		return g, nil
	}

	g.Replacement = strings.HasPrefix(g.Fields.String(FieldReplacement), "Yes")
	g.GFF = strings.TrimSpace(g.Fields.String(FieldGFF))
	g.extractAccession()
	g.fetchAssembly(ctx, opts.Lookup)
	g.checkRefSeq()
	g.checkDatatype()
	g.checkLatest()
	return g, nil
}

func (g *Genome) extractAccession() {
	if g.Replacement && !g.Operations.HasAny(OpLoadINSDC, OpLoadRefSeq, OpLoadEnsEMBL) {
		return
	}

	raw := g.Fields.String(FieldAccession)
	if strings.TrimSpace(raw) == "" {
		g.AddError("INSDC accession missing")
		return
	}
	g.Accession = g.CheckAccession(raw)
}

// CheckAccession returns the accession found in raw (possibly given as a URL)
// if it is a well formed, versioned INSDC accession consistent with the load
// operations of the issue. Otherwise it records one error and returns "".
func (g *Genome) CheckAccession(raw string) string {
	full := strings.TrimSpace(raw)
	accession := urlPrefixRe.ReplaceAllString(full, "$1")

	switch {
	case !insdcRe.MatchString(accession):
		g.AddError(fmt.Sprintf("Wrong INSDC accession format: %s", full))
	case g.Operations.Has(OpLoadRefSeq) && !refseqRe.MatchString(accession):
		g.AddError(fmt.Sprintf("Accession %s is not a RefSeq accession", accession))
	case g.Operations.Has(OpLoadINSDC) && refseqRe.MatchString(accession):
		g.AddError(fmt.Sprintf("Accession %s is a RefSeq accession, not INSDC", accession))
	case !strings.Contains(accession, "."):
		g.AddError(fmt.Sprintf("Accession %s doesn't have a version number", accession))
	default:
		return accession
	}
	return ""
}

func (g *Genome) fetchAssembly(ctx context.Context, lookup AssemblyLookup) {
	if lookup == nil || g.Accession == "" {
		return
	}
	summary, err := lookup.Lookup(ctx, g.Accession)
	switch {
	case errors.Is(err, insdc.ErrNotFound):
		g.AddError("Assembly not found in INSDC")
	case err != nil:
		g.AddError(fmt.Sprintf("Assembly lookup failed: %v", err))
	default:
		g.Assembly = summary
	}
}

func (g *Genome) checkRefSeq() {
	if g.Assembly == nil || !strings.HasPrefix(g.Accession, "GCF") {
		return
	}
	if reasons := g.Assembly.ExclFromRefSeq; len(reasons) > 0 {
		g.AddError(fmt.Sprintf("Suppressed (%s)", strings.Join(reasons, ", ")))
	}
}

// checkDatatype compares the declared datatype with the annotation actually
// available. EnsEMBL copies are not checked.
func (g *Genome) checkDatatype() {
	if g.Assembly == nil || g.Operations.Has(OpLoadEnsEMBL) {
		return
	}
	hasAnnotation := g.GFF != "" || g.Assembly.Annotated(g.Accession)
	if hasAnnotation && !g.Annotated {
		g.AddError("Got a gff but not expected to be annotated")
	}
	if !hasAnnotation && g.Annotated {
		g.AddError("Got no gff but expected to be annotated")
	}
}

func (g *Genome) checkLatest() {
	if g.Assembly == nil {
		return
	}
	if latest := g.Assembly.LatestAccession; latest != "" && latest != g.Accession {
		g.AddWarning(fmt.Sprintf("Not the latest accession: %s -> %s", g.Accession, latest))
	}
	for _, anomaly := range g.Assembly.AnomalousList {
		g.AddWarning(fmt.Sprintf("Anomaly: %s", anomaly.Property))
	}
}

// GenomeExtract is the JSON document stored for a genome issue.
type GenomeExtract struct {
	BRC4      GenomeBRC4     `json:"BRC4"`
	Species   map[string]any `json:"species"`
	Assembly  GenomeAssembly `json:"assembly"`
	Genebuild map[string]any `json:"genebuild"`
}

type GenomeBRC4 struct {
	Component      string `json:"component"`
	OrganismAbbrev string `json:"organism_abbrev"`
}

type GenomeAssembly struct {
	Accession string `json:"accession"`
}

// Extract returns the JSON document for g.
func (g *Genome) Extract() GenomeExtract {
	return GenomeExtract{
		BRC4:      GenomeBRC4{Component: g.Component, OrganismAbbrev: g.OrganismAbbrev},
		Species:   map[string]any{},
		Assembly:  GenomeAssembly{Accession: g.Accession},
		Genebuild: map[string]any{},
	}
}

// ParseGenomes parses a batch of issues. An issue that cannot be parsed is
// kept as a genome carrying the parse failure as an error.
func ParseGenomes(ctx context.Context, issues []redmine.Issue, opts Options) []*Genome {
	genomes := make([]*Genome, 0, len(issues))
	for i := range issues {
		g, err := ParseGenome(ctx, &issues[i], opts)
		if err != nil {
			g = &Genome{Base: NewBase(&issues[i])}
			g.AddError(err.Error())
		}
		genomes = append(genomes, g)
	}
	return genomes
}

// GenerateAbbrevs gives each genome without organism abbreviation one built
// from its experimental organism name. When the name cannot be turned into an
// abbreviation the genome gets an error instead.
func GenerateAbbrevs(genomes []*Genome) {
	for _, g := range genomes {
		if g.OrganismAbbrev != "" {
			continue
		}
		abbrev, err := orgs.GenerateAbbrev(g.ExperimentalOrganism)
		if err != nil {
			g.AddError(err.Error())
			continue
		}
		g.OrganismAbbrev = abbrev
		g.AbbrevGenerated = true
	}
}
