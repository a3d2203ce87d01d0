package report

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"html/template"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/veupathdb/redmine-client/core/category"
	"github.com/veupathdb/redmine-client/core/model"
)

// ErrNothingToReport is returned when a report would have no valid item.
var ErrNothingToReport = errors.New("no valid issue to report")

// HTMLOptions configure the HTML build reports.
type HTMLOptions struct {
	// Build is the VEuPathDB build number; 0 uses the build of the first reported issue.
	Build int
	// RedmineURL is the server the issue links point to.
	RedmineURL string
}

const reportStyle = `<style>
table {
  border-collapse: collapse;
}

td,
th {
  border-width: 1px;
  border-color: black;
  border-style: solid;
  font-size: small;
}
</style>`

const genomeTemplate = `<html>
<head>
<title>BRC4 genomes report</title>
{{style}}
</head>
<body>
<h1>EBI genomes processing - VEuPathDB build {{.Build}}</h1>
<p>{{len .All}} genomes handed over.</p>
<p>{{len .New}} new genomes:</p>
<ul>
{{- range .Components}}
<li>{{len .Genomes}} {{.Name}}</li>
{{- end}}
</ul>
{{- if .Others}}
<p>{{len .Others}} other operations:</p>
<ul>
{{- range .Others}}
<li>{{ops .}}: {{.Component}} {{.OrganismAbbrev}} ({{link .}})</li>
{{- end}}
</ul>
{{- end}}
{{- range .Components}}
<h2>{{.Name}}</h2>
{{len .Genomes}} new genomes:
<ul>
{{- range .Genomes}}
<li>{{.OrganismAbbrev}} ({{link .}}) {{.Accession}}{{with notes .}} ({{.}}){{end}}</li>
{{- end}}
</ul>
{{- end}}
</body>
</html>
`

const datasetTemplate = `<html>
<head>
<title>BRC4 RNA-Seq report</title>
{{style}}
</head>
<body>
<h1>EBI RNA-Seq processing - VEuPathDB build {{.Build}}</h1>
<p>{{len .New}} new datasets handed over:</p>
<ul>
{{- range .Components}}
<li>{{len .Datasets}} {{.Name}}</li>
{{- end}}
</ul>
{{- if .Remaps}}
<p>{{len .Remaps}} genomes remapped:</p>
<ul>
{{- range .Remaps}}
<li>{{.Component}} {{.OrganismAbbrev}} ({{link .}})</li>
{{- end}}
</ul>
{{- end}}
{{- if .Others}}
<p>{{len .Others}} other operations:</p>
<ul>
{{- range .Others}}
<li>{{ops .}}: {{.Component}} {{.OrganismAbbrev}} ({{link .}})</li>
{{- end}}
</ul>
{{- end}}
<h1>New datasets</h1>
<table>
<tr><th>Redmine</th><th>Component</th><th>Species</th><th>Dataset</th><th>Samples</th><th>Notes</th></tr>
{{- range .New}}
<tr><td>{{link .}}</td><td>{{.Component}}</td><td>{{.OrganismAbbrev}}</td><td>{{.DatasetName}}</td><td>{{len .Samples}}</td><td>{{notes .}}</td></tr>
{{- end}}
</table>
</body>
</html>
`

func newTemplate(name, text, redmineURL string) *template.Template {
	return template.Must(template.New(name).Funcs(template.FuncMap{
		"style": func() template.HTML { return template.HTML(reportStyle) },
		"link": func(m model.Model) template.HTML {
			return template.HTML(m.Common().RedmineLink(redmineURL))
		},
		"ops": func(m model.Model) string {
			return strings.Join(m.Common().Operations, ", ")
		},
		"notes": notes,
	}).Parse(text))
}

func notes(m model.Model) string {
	var out []string
	switch m := m.(type) {
	case *model.Genome:
		if m.Replacement {
			out = append(out, "replacement")
		}
		if m.GFF != "" {
			out = append(out, "annotation from separate GFF")
		}
	case *model.RNASeq:
		if m.NewGenome {
			out = append(out, "new genome")
		}
		if m.NoSpliced {
			out = append(out, "no spliced")
		}
	}
	return strings.Join(out, ", ")
}

type componentGenomes struct {
	Name    string
	Genomes []*model.Genome
}

type genomeReport struct {
	Build      int
	All        []*model.Genome
	New        []*model.Genome
	Others     []*model.Genome
	Components []componentGenomes
}

var newGenomeOperations = []string{model.OpLoadINSDC, model.OpLoadRefSeq, model.OpLoadEnsEMBL}

func byAbbrev[T model.Model](a, b T) int {
	return cmp.Compare(a.Common().OrganismAbbrev, b.Common().OrganismAbbrev)
}

func resolveBuild[T model.Model](build int, items []T) int {
	if build != 0 || len(items) == 0 {
		return build
	}
	n, err := strconv.Atoi(items[0].Common().Build)
	if err != nil {
		return 0
	}
	return n
}

// GenomeHTML writes the handover report of the valid genomes in cats: new
// genomes counted and listed per component, then the other operations.
// The output only depends on cats and opts.
func GenomeHTML(w io.Writer, cats *category.Categories[model.Model], opts HTMLOptions) error {
	var r genomeReport
	for _, m := range cats.Get(category.Valid) {
		if g, ok := m.(*model.Genome); ok {
			r.All = append(r.All, g)
		}
	}
	if len(r.All) == 0 {
		return ErrNothingToReport
	}
	r.Build = resolveBuild(opts.Build, r.All)

	components := map[string][]*model.Genome{}
	for _, g := range r.All {
		if g.Operations.HasAny(newGenomeOperations...) {
			r.New = append(r.New, g)
			components[g.Component] = append(components[g.Component], g)
		} else {
			r.Others = append(r.Others, g)
		}
	}
	slices.SortStableFunc(r.Others, byAbbrev[*model.Genome])
	for _, name := range sortedKeys(components) {
		genomes := components[name]
		slices.SortStableFunc(genomes, byAbbrev[*model.Genome])
		r.Components = append(r.Components, componentGenomes{Name: name, Genomes: genomes})
	}

	return render(w, newTemplate("genomes", genomeTemplate, opts.RedmineURL), r)
}

type componentDatasets struct {
	Name     string
	Datasets []*model.RNASeq
}

type datasetReport struct {
	Build      int
	New        []*model.RNASeq
	Remaps     []*model.RNASeq
	Others     []*model.RNASeq
	Components []componentDatasets
}

// DatasetHTML writes the RNA-Seq handover report: new datasets per component,
// remapped genomes, other operations and a table of the new datasets.
func DatasetHTML(w io.Writer, cats *category.Categories[*model.RNASeq], opts HTMLOptions) error {
	if cats.Len(category.DatasetValid) == 0 {
		return ErrNothingToReport
	}

	r := datasetReport{
		Remaps: cats.Get(category.DatasetReferenceChange),
		Others: cats.Get(category.DatasetOther),
	}
	r.New = append(r.New, cats.Get(category.DatasetNew)...)
	r.New = append(r.New, cats.Get(category.DatasetNewGenome)...)
	r.Build = resolveBuild(opts.Build, r.New)

	components := map[string][]*model.RNASeq{}
	for _, d := range r.New {
		components[d.Component] = append(components[d.Component], d)
	}
	for _, name := range sortedKeys(components) {
		r.Components = append(r.Components, componentDatasets{Name: name, Datasets: components[name]})
	}
	slices.SortStableFunc(r.New, func(a, b *model.RNASeq) int {
		return cmp.Or(
			cmp.Compare(a.Component, b.Component),
			cmp.Compare(a.OrganismAbbrev, b.OrganismAbbrev),
			cmp.Compare(a.DatasetName, b.DatasetName),
		)
	})

	return render(w, newTemplate("datasets", datasetTemplate, opts.RedmineURL), r)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func render(w io.Writer, tmpl *template.Template, data any) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render %s report: %w", tmpl.Name(), err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write %s report: %w", tmpl.Name(), err)
	}
	return nil
}
