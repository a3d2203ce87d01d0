package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veupathdb/redmine-client/core/category"
	"github.com/veupathdb/redmine-client/core/model"
	"github.com/veupathdb/redmine-client/core/redmine"
)

func testGenome(id int, component, abbrev string, ops ...string) *model.Genome {
	return &model.Genome{Base: model.Base{
		Issue:          &redmine.Issue{ID: id, Subject: "Genome " + abbrev, FixedVersion: &redmine.Ref{Name: "Build 68"}},
		Component:      component,
		OrganismAbbrev: abbrev,
		Build:          "68",
		Operations:     model.NewOperations(ops...),
	}}
}

func testDataset(id int, component, abbrev, name string, ops ...string) *model.RNASeq {
	return &model.RNASeq{
		Base: model.Base{
			Issue:          &redmine.Issue{ID: id, Subject: "RNA-Seq " + name},
			Component:      component,
			OrganismAbbrev: abbrev,
			Build:          "68",
			Operations:     model.NewOperations(ops...),
		},
		DatasetName: name,
		Samples:     []model.Sample{{Name: "s1", Accessions: []string{"SRR0000001"}}},
	}
}

func TestGenomeLine(t *testing.T) {
	t.Parallel()
	g := testGenome(12345, "PlasmoDB", "pfal3D7", model.OpLoadINSDC, model.OpStableIDs)
	g.GFF = "/data/pfal.gff"
	g.Replacement = true
	g.AddError("INSDC accession missing")
	g.AddWarning("Anomaly: fragmented assembly")

	want := "BAD   12345  PlasmoDB      pfal3D7                     Load from INSDC,Allocate stable ids +GFF +REPLACE    Genome pfal3D7\n" +
		"             ERROR: INSDC accession missing\n" +
		"             WARNING: Anomaly: fragmented assembly"
	assert.Equal(t, want, GenomeLine(g))
}

func TestGenomeLine_Defaults(t *testing.T) {
	t.Parallel()
	g := testGenome(7, "MicrosporidiaDB", "")
	g.Issue.Subject = strings.Repeat("x", 70)

	line := GenomeLine(g)
	assert.True(t, strings.HasPrefix(line, "ok        7  Microsporidi  no organism_abbrev"), line)
	assert.True(t, strings.HasSuffix(line, strings.Repeat("x", 64)+"..."), line)
}

func TestDatasetLine(t *testing.T) {
	t.Parallel()
	d := testDataset(42, "MicrosporidiaDB", "ecun", "A_very_long_dataset_name_indeed", model.OpOther)
	d.NewGenome = true
	d.Issue.Subject = strings.Repeat("s", 45)

	want := "ok       42  Microspor...  ecun                      A_very_long_dataset_name...  Other,New genome        " +
		strings.Repeat("s", 37) + "..."
	assert.Equal(t, want, DatasetLine(d))
	assert.Equal(t, model.Operations{model.OpOther}, d.Operations)
}

func TestCheckAndSummary(t *testing.T) {
	t.Parallel()
	valid := testGenome(1, "PlasmoDB", "pfal3D7", model.OpLoadINSDC)
	invalid := testGenome(2, "ToxoDB", "tgonME49", model.OpLoadINSDC)
	invalid.AddError("INSDC accession missing")
	cats := category.Genomes([]*model.Genome{valid, invalid})

	var summary bytes.Buffer
	require.NoError(t, Summary(&summary, cats))
	assert.Equal(t, "0 with warnings\n1 valid\n1 invalid\n2 Load from INSDC\n", summary.String())

	var check bytes.Buffer
	require.NoError(t, Check(&check, cats))
	out := check.String()
	assert.True(t, strings.HasPrefix(out, "\n0 with warnings:\n\n1 valid:\n"+GenomeLine(valid)+"\n\n1 invalid:\n"), out)
	assert.Contains(t, out, "\n2 Load from INSDC:\n")

	var datasets bytes.Buffer
	require.NoError(t, Summary(&datasets, category.Datasets([]*model.RNASeq{testDataset(3, "PlasmoDB", "pfal3D7", "x")})))
	assert.Equal(t, "1 valid\n0 invalid\n0 reference_change\n0 patch_build\n1 new\n0 new_genome\n0 other\n", datasets.String())
}

func TestAbbrevCheck(t *testing.T) {
	t.Parallel()
	g := testGenome(5, "FungiDB", "", model.OpLoadINSDC)
	g.ExperimentalOrganism = "Candida auris B8441"
	genomes := []*model.Genome{g}
	model.GenerateAbbrevs(genomes)
	cats := category.Abbrevs(genomes, nil)

	var buf bytes.Buffer
	require.NoError(t, AbbrevCheck(&buf, cats))
	assert.Equal(t, "\n1 TO_UPDATE organism abbrevs\n"+
		"\tTODO: add --update to generate the organism_abbrev and update the tickets:\n"+
		"caurB8441           \t5\t(Load from INSDC)\tFrom Candida auris B8441\n", buf.String())
}

func TestIssueLine(t *testing.T) {
	t.Parallel()
	issue := &redmine.Issue{
		ID:           99,
		Subject:      "New genome",
		FixedVersion: &redmine.Ref{Name: "Build 68"},
		AssignedTo:   &redmine.Ref{Name: "Jane Doe"},
		CustomFields: []redmine.CustomField{
			redmine.StringField(17, model.FieldTeam, "Outreach"),
			redmine.ListField(92, model.FieldComponent, "PlasmoDB", "ToxoDB"),
			redmine.StringField(94, model.FieldDatatype, "Phenotype"),
		},
	}
	assert.Equal(t, "Jane Doe\tOutreach\tBuild 68\tPlasmoDB,ToxoDB\t'Phenotype'\t99\t(New genome)", IssueLine(issue))

	bare := &redmine.Issue{ID: 100, Subject: "Empty"}
	assert.Equal(t, "(no assignee)\t(no team)\t(no build)\t(no component)\t'(no datatype)'\t100\t(Empty)", IssueLine(bare))

	var buf bytes.Buffer
	require.NoError(t, Issues(&buf, []redmine.Issue{*bare}, "missed tracker"))
	assert.Equal(t, "1 issues for missed tracker\n"+IssueLine(bare)+"\n", buf.String())
}
