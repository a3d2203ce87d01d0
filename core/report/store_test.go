package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veupathdb/redmine-client/core/category"
	"github.com/veupathdb/redmine-client/core/model"
)

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func TestGroupName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		label string
		want  string
	}{
		{label: model.OpLoadINSDC, want: "new_genomes"},
		{label: model.OpLoadRefSeq, want: "new_genomes"},
		{label: model.OpLoadEnsEMBL, want: "copy_ensembl"},
		{label: model.OpLoadGFF, want: "load_gff"},
		{label: category.WithWarnings, want: "with_warnings"},
		{label: "Something New", want: "something_new"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, GroupName(tt.label))
		})
	}
}

func TestStoreGenomes(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, StoreGenomes(context.Background(), dir, genomeBatch()))

	var extract model.GenomeExtract
	readJSON(t, filepath.Join(dir, "load_gff", "pfal3D7.json"), &extract)
	assert.Equal(t, "PlasmoDB", extract.BRC4.Component)
	assert.Equal(t, "GCA_000002765.3", extract.Assembly.Accession)

	for _, p := range []string{
		filepath.Join("new_genomes", "pberANKA.json"),
		filepath.Join("new_genomes", "tgonME49.json"),
		filepath.Join("load_gff", "pfal3D7.json"),
		filepath.Join("replacement", "pfal3D7.json"),
		filepath.Join("stable_ids", "caurB8441.json"),
	} {
		assert.FileExists(t, filepath.Join(dir, p))
	}
	assert.NoFileExists(t, filepath.Join(dir, "new_genomes", "pfal3D7.json"))
	assert.NoFileExists(t, filepath.Join(dir, "new_genomes", "pvivP01.json"))
	assert.NoDirExists(t, filepath.Join(dir, "valid"))
	assert.NoDirExists(t, filepath.Join(dir, "invalid"))
}

func TestStoreGenomes_GFFOnlyInLoadGFF(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		op   string
	}{
		{name: "insdc", op: model.OpLoadINSDC},
		{name: "refseq", op: model.OpLoadRefSeq},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := testGenome(1, "PlasmoDB", "pfal3D7", tt.op)
			g.GFF = "/nfs/x.gff"
			dir := t.TempDir()
			require.NoError(t, StoreGenomes(context.Background(), dir, category.Genomes([]*model.Genome{g})))

			assert.FileExists(t, filepath.Join(dir, "load_gff", "pfal3D7.json"))
			assert.NoFileExists(t, filepath.Join(dir, "new_genomes", "pfal3D7.json"))
		})
	}
}

func TestStoreDatasets(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, StoreDatasets(context.Background(), dir, datasetBatch()))

	var one []model.DatasetExtract
	readJSON(t, filepath.Join(dir, "cur_genome", "PlasmoDB", "pfal3D7_Otto_Stages.json"), &one)
	require.Len(t, one, 1)
	assert.Equal(t, "Otto_Stages", one[0].Name)
	assert.True(t, one[0].NoSpliced)

	assert.FileExists(t, filepath.Join(dir, "cur_genome", "ToxoDB", "tgonME49_Lee_Tachyzoites.json"))
	assert.FileExists(t, filepath.Join(dir, "new_genome", "PlasmoDB", "pknoH_Smith_Liver.json"))
	assert.FileExists(t, filepath.Join(dir, "other", "FungiDB", "afumAf293_Other_Things.json"))
	assert.NoDirExists(t, filepath.Join(dir, "cur_genome", "FungiDB"))

	var all, cur, news []model.DatasetExtract
	readJSON(t, filepath.Join(dir, "all.json"), &all)
	readJSON(t, filepath.Join(dir, "all_cur.json"), &cur)
	readJSON(t, filepath.Join(dir, "all_new.json"), &news)
	assert.Len(t, all, 5)
	assert.Len(t, cur, 3)
	require.Len(t, news, 1)
	assert.Equal(t, "Smith_Liver", news[0].Name)
}

func TestStoreDatasets_NoNewGenome(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cats := category.Datasets([]*model.RNASeq{testDataset(1, "PlasmoDB", "pfal3D7", "Otto_Stages")})
	require.NoError(t, StoreDatasets(context.Background(), dir, cats))

	assert.FileExists(t, filepath.Join(dir, "all_cur.json"))
	assert.NoFileExists(t, filepath.Join(dir, "all_new.json"))
}

func TestStoreDatasets_Rerun(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cats := datasetBatch()
	require.NoError(t, StoreDatasets(context.Background(), dir, cats))
	first, err := os.ReadFile(filepath.Join(dir, "all.json"))
	require.NoError(t, err)

	require.NoError(t, StoreDatasets(context.Background(), dir, cats))
	second, err := os.ReadFile(filepath.Join(dir, "all.json"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStoreDatasets_NothingToReport(t *testing.T) {
	t.Parallel()
	err := StoreDatasets(context.Background(), t.TempDir(), category.Datasets(nil))
	assert.ErrorIs(t, err, ErrNothingToReport)
}
