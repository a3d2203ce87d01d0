// Package orgs validates and generates VEuPathDB organism abbreviations.
package orgs

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// AbbrevFormat is the pattern every organism abbreviation must follow:
// four lowercase letters (or one letter + "sp") then a strain part.
const AbbrevFormat = `^([a-z]{4}|[a-z]sp)[A-Za-z0-9_.-]+$`

var (
	abbrevRe      = regexp.MustCompile(AbbrevFormat)
	genusStripRe  = regexp.MustCompile(`[\[\]]`)
	strainWordsRe = regexp.MustCompile(`(?i)(isolate|strain|breed|str\.|subspecies|sp\.)`)
	strainPunctRe = regexp.MustCompile(`[/(){}#:+-]`)
)

// InvalidAbbrevError is returned for an abbreviation that does not follow AbbrevFormat.
type InvalidAbbrevError struct {
	Abbrev string
	Reason string
}

func (e *InvalidAbbrevError) Error() string {
	msg := fmt.Sprintf("Invalid organism abbrev: '%s'", e.Abbrev)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

// InvalidOrganismError is returned when a scientific name cannot be turned into an abbreviation.
type InvalidOrganismError struct {
	Name   string
	Reason string
}

func (e *InvalidOrganismError) Error() string {
	msg := fmt.Sprintf("Invalid organism name: '%s'", e.Name)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

// ValidateAbbrev returns an *InvalidAbbrevError if abbrev does not follow AbbrevFormat.
func ValidateAbbrev(abbrev string) error {
	if !abbrevRe.MatchString(abbrev) {
		return &InvalidAbbrevError{Abbrev: abbrev, Reason: fmt.Sprintf("does not follow the format '%s'", AbbrevFormat)}
	}
	return nil
}

// GenerateAbbrev builds an abbreviation from a full scientific name such as
// "Plasmodium falciparum 3D7" (-> "pfal3D7").
//
// The name needs a genus, a species and at least one strain word. A "var." or
// "f." third word introduces a variety whose first three letters are kept.
// The result is validated before being returned.
func GenerateAbbrev(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &InvalidOrganismError{Name: name, Reason: "field is empty"}
	}
	items := strings.Fields(name)
	if len(items) < 3 {
		return "", &InvalidOrganismError{Name: name, Reason: "name is too short"}
	}

	genus := genusStripRe.ReplaceAllString(items[0], "")
	species := items[1]
	if species == "sp." {
		species = "sp"
	}

	var variety, strain string
	if items[2] == "var." || items[2] == "f." {
		if len(items) < 4 {
			return "", &InvalidOrganismError{Name: name, Reason: "variety is missing"}
		}
		variety = items[3]
		strain = strings.Join(items[4:], "")
	} else {
		strain = strings.Join(items[2:], "")
	}

	if genus == "" {
		return "", &InvalidOrganismError{Name: name, Reason: "genus is empty"}
	}
	strain = strainWordsRe.ReplaceAllString(strain, "")
	strain = strainPunctRe.ReplaceAllString(strain, "")

	abbrev := strings.ToLower(genus[:1]) + prefix(species, 3) + prefix(variety, 3) + strain
	if err := ValidateAbbrev(abbrev); err != nil {
		return "", err
	}
	return abbrev, nil
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

// LoadAbbrevs reads a list of known abbreviations, one per line, lowercased.
// An empty path yields an empty set.
func LoadAbbrevs(path string) (map[string]struct{}, error) {
	abbrevs := map[string]struct{}{}
	if path == "" {
		return abbrevs, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open abbreviations file: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.ContainsAny(line, "\t ") {
			return nil, fmt.Errorf("abbreviation file contains spaces or columns: %q", line)
		}
		abbrev := strings.ToLower(strings.TrimSpace(line))
		if abbrev == "" {
			continue
		}
		abbrevs[abbrev] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read abbreviations file: %w", err)
	}

	slog.Debug("Abbreviations loaded", "path", path, "count", len(abbrevs))
	return abbrevs, nil
}
