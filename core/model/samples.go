package model

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

var (
	sraAccessionRe = regexp.MustCompile(`^[SED]R[RSXP]\d+$`)
	nonASCIIRe     = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
	spaceSlashRe   = regexp.MustCompile(`[\s/]`)
	dropPunctRe    = regexp.MustCompile(`[;:.,()\[\]{}]`)
	underscoresRe  = regexp.MustCompile(`_+`)
)

// Sample is one RNA-Seq sample with its SRA run accessions.
type Sample struct {
	Accessions []string `json:"accessions"`
	Name       string   `json:"name"`
}

// SamplesError lists every problem found in a sample block.
type SamplesError struct {
	Problems   []string
	Duplicates []string
}

func (e *SamplesError) Error() string {
	var parts []string
	if len(e.Problems) > 0 {
		parts = append(parts, fmt.Sprintf("%d errors: %s", len(e.Problems), strings.Join(e.Problems, "; ")))
	}
	if len(e.Duplicates) > 0 {
		parts = append(parts, fmt.Sprintf("%d accessions duplicates: %s", len(e.Duplicates), strings.Join(e.Duplicates, "; ")))
	}
	return strings.Join(parts, "; ")
}

// ParseSamples reads a "name: ACC1, ACC2" per line sample block.
//
// Lines with problems are skipped and reported in the returned *SamplesError,
// together with accessions used by more than one sample. The samples that
// could be read are returned even when there is an error.
func ParseSamples(text string) ([]Sample, error) {
	var (
		samples  []Sample
		problems []string
		names    = map[string]bool{}
		counts   = map[string]int{}
		order    []string
	)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Sample names may contain colons, accessions never do.
		parts := strings.Split(line, ":")
		if len(parts) > 2 {
			last := len(parts) - 1
			parts = []string{strings.Join(parts[:last], ":"), parts[last]}
		}
		if len(parts) != 2 {
			problems = append(problems, fmt.Sprintf("sample line doesn't have 2 parts (%s)", line))
			continue
		}

		name := strings.TrimSpace(parts[0])
		if names[name] {
			problems = append(problems, fmt.Sprintf("repeated name %s", name))
			continue
		}
		names[name] = true

		accessions := splitAccessions(parts[1])
		if !validAccessions(accessions) {
			if validAccessions(splitAccessions(name)) {
				problems = append(problems, fmt.Sprintf("name and accession switched? (%s)", line))
			} else {
				problems = append(problems, fmt.Sprintf("Invalid accession in '%s' (%s)", strings.Join(accessions, ","), line))
			}
			continue
		}

		for _, acc := range accessions {
			if counts[acc] == 0 {
				order = append(order, acc)
			}
			counts[acc]++
		}

		normName, err := NormalizeSampleName(name)
		if err != nil {
			problems = append(problems, fmt.Sprintf("sample name can't be normalized (%s)", line))
			continue
		}
		samples = append(samples, Sample{Name: normName, Accessions: accessions})
	}

	var duplicates []string
	for _, acc := range order {
		if n := counts[acc]; n > 1 {
			duplicates = append(duplicates, fmt.Sprintf("%s (x%d)", acc, n))
		}
	}

	if len(problems) > 0 || len(duplicates) > 0 {
		return samples, &SamplesError{Problems: problems, Duplicates: duplicates}
	}
	return samples, nil
}

func splitAccessions(s string) []string {
	items := strings.Split(s, ",")
	for i := range items {
		items[i] = strings.TrimSpace(items[i])
	}
	return items
}

// validAccessions reports whether every item is an SRA/ENA/DDBJ run, experiment,
// sample or study accession.
func validAccessions(accessions []string) bool {
	if len(accessions) == 0 {
		return false
	}
	for _, acc := range accessions {
		if !sraAccessionRe.MatchString(acc) {
			return false
		}
	}
	return true
}

// NormalizeSampleName turns a free text sample name into [A-Za-z0-9_.-] characters.
// Non ASCII letters are transliterated first ("ø" -> "o", "ß" -> "ss").
func NormalizeSampleName(name string) (string, error) {
	n := unidecode.Unidecode(strings.TrimSpace(name))
	n = spaceSlashRe.ReplaceAllString(n, "_")
	n = dropPunctRe.ReplaceAllString(n, "")
	n = strings.ReplaceAll(n, "+", "_plus_")
	n = strings.ReplaceAll(n, "*", "_star_")
	n = strings.ReplaceAll(n, "%", "pc_")
	n = underscoresRe.ReplaceAllString(n, "_")
	if nonASCIIRe.MatchString(n) {
		return "", fmt.Errorf("name contains special characters: %s (%s)", name, n)
	}
	return n, nil
}
