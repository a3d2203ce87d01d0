package orgs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAbbrev(t *testing.T) {
	t.Parallel()
	tests := []struct {
		abbrev string
		valid  bool
	}{
		{abbrev: "pfal3D7", valid: true},
		{abbrev: "tbrugamSTIB927", valid: true},
		{abbrev: "pspX-1.2_a", valid: true},
		{abbrev: "Pfal3D7"},
		{abbrev: "pfal"},
		{abbrev: "pf3D7"},
		{abbrev: "pfal 3D7"},
		{abbrev: "pfal3D7!"},
		{abbrev: ""},
	}
	for _, tt := range tests {
		t.Run(tt.abbrev, func(t *testing.T) {
			err := ValidateAbbrev(tt.abbrev)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			var abbrevErr *InvalidAbbrevError
			require.ErrorAs(t, err, &abbrevErr)
			assert.Equal(t, tt.abbrev, abbrevErr.Abbrev)
			assert.Contains(t, err.Error(), "Invalid organism abbrev")
		})
	}
}

func TestGenerateAbbrev(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr string
	}{
		{name: "simple strain", input: "Plasmodium falciparum 3D7", want: "pfal3D7"},
		{name: "variety", input: "Trypanosoma brucei var. gambiense STIB927", want: "tbrugamSTIB927"},
		{name: "forma", input: "Fusarium oxysporum f. lycopersici 4287", want: "foxylyc4287"},
		{name: "strain qualifier", input: "Toxoplasma gondii strain ME49", want: "tgonME49"},
		{name: "isolate and punctuation", input: "Cryptosporidium parvum isolate Iowa-II", want: "cparIowaII"},
		{name: "unknown species", input: "Leishmania sp. MAR/LEM2494", want: "lspMARLEM2494"},
		{name: "bracketed genus", input: "[Candida] auris B8441", want: "caurB8441"},
		{name: "extra spaces", input: "  Plasmodium   vivax  P01 ", want: "pvivP01"},
		{name: "too short", input: "X", wantErr: "name is too short"},
		{name: "two words", input: "Plasmodium falciparum", wantErr: "name is too short"},
		{name: "empty", input: "   ", wantErr: "field is empty"},
		{name: "variety without value", input: "Trypanosoma brucei var.", wantErr: "variety is missing"},
		{name: "invalid result", input: "Plasmodium f 3D7", wantErr: "Invalid organism abbrev"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateAbbrev(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, ValidateAbbrev(got))
		})
	}
}

func TestGenerateAbbrev_ErrorTypes(t *testing.T) {
	t.Parallel()
	_, err := GenerateAbbrev("X")
	var orgErr *InvalidOrganismError
	require.True(t, errors.As(err, &orgErr))
	assert.Equal(t, "X", orgErr.Name)

	_, err = GenerateAbbrev("Plasmodium f 3D7")
	var abbrevErr *InvalidAbbrevError
	require.True(t, errors.As(err, &abbrevErr))
	assert.Equal(t, "pf3D7", abbrevErr.Abbrev)
}

func TestLoadAbbrevs(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		t.Parallel()
		abbrevs, err := LoadAbbrevs("")
		require.NoError(t, err)
		assert.Empty(t, abbrevs)
	})

	t.Run("valid file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "abbrevs.txt")
		require.NoError(t, os.WriteFile(path, []byte("pfal3D7\nTgonME49\n\npfal3D7\n"), 0o644))
		abbrevs, err := LoadAbbrevs(path)
		require.NoError(t, err)
		assert.Len(t, abbrevs, 2)
		assert.Contains(t, abbrevs, "pfal3d7")
		assert.Contains(t, abbrevs, "tgonme49")
	})

	t.Run("columns rejected", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "abbrevs.txt")
		require.NoError(t, os.WriteFile(path, []byte("pfal3D7\tPlasmoDB\n"), 0o644))
		_, err := LoadAbbrevs(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "spaces or columns")
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadAbbrevs(filepath.Join(t.TempDir(), "nope.txt"))
		require.Error(t, err)
	})
}
