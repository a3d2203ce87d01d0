package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/veupathdb/redmine-client/core"
	"github.com/veupathdb/redmine-client/core/insdc"
	"github.com/veupathdb/redmine-client/core/model"
	"github.com/veupathdb/redmine-client/core/redmine"
	"github.com/veupathdb/redmine-client/core/report"
)

func newRedmineClient() (*redmine.Client, error) {
	key, err := cfg.ResolveKey(apiKey)
	if err != nil {
		return nil, err
	}
	return redmine.NewClient(redmine.Config{
		BaseURL:   cfg.RedmineURL,
		Key:       key,
		ProjectID: cfg.ProjectID,
		FieldMap:  cfg.FilterFields,
	})
}

// newAssemblyLookup returns nil when no email is known, which disables the
// INSDC checks of the genome parser.
func newAssemblyLookup(email string) model.AssemblyLookup {
	if email == "" {
		email = cfg.EntrezEmail
	}
	client := insdc.NewClient(insdc.Config{BaseURL: cfg.EntrezURL, Email: email})
	if client == nil {
		return nil
	}
	return client
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// handoverFilter restricts a search to the configured team, unless anyTeam
// is set, and to build when it is not 0.
func handoverFilter(ctx context.Context, client *redmine.Client, build int, anyTeam bool) (*redmine.Filter, error) {
	filter := client.NewFilter()
	if !anyTeam {
		filter.Set("team", cfg.Team)
	}
	if build > 0 {
		id, err := client.BuildVersionID(ctx, build)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve build %d: %w", build, err)
		}
		filter.Set("build", strconv.Itoa(id))
	}
	return filter, nil
}

// fetchDatatypes runs one search per datatype, Redmine cannot OR custom values.
func fetchDatatypes(ctx context.Context, client *redmine.Client, filter *redmine.Filter, datatypes []string) ([]redmine.Issue, error) {
	var issues []redmine.Issue
	for _, datatype := range datatypes {
		f := filter.Clone()
		f.Set("datatype", datatype)
		batch, err := client.Issues(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s issues: %w", datatype, err)
		}
		slog.Debug("Fetched issues", "datatype", datatype, "count", len(batch))
		issues = append(issues, batch...)
	}
	return issues, nil
}

// writeReport renders a report in memory and writes it to path.
func writeReport(ctx context.Context, path string, render func(w io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return notEmpty(err)
	}
	root, name := filepath.Split(filepath.Clean(path))
	if root == "" {
		root = "."
	}
	if err := core.PersistFiles(ctx, root, []core.Entry{core.FileEntry(name, buf.Bytes())}); err != nil {
		return err
	}
	slog.Info("Wrote report", "path", path)
	return nil
}

// notEmpty turns report.ErrNothingToReport into a warning.
func notEmpty(err error) error {
	if errors.Is(err, report.ErrNothingToReport) {
		slog.Warn("Nothing to report")
		return nil
	}
	return err
}
