package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/veupathdb/redmine-client/core/model"
	"github.com/veupathdb/redmine-client/core/redmine"
	"github.com/veupathdb/redmine-client/core/report"
)

// handoverStatusID is the Redmine id of the "Data Processing (EBI)" status.
const handoverStatusID = "20"

var (
	missedKind   string
	missedUserID string
	missedBuild  int
)

var missedKinds = []string{"tracker", "datasets", "status", "assignee", "all"}

var missedCmd = &cobra.Command{
	Use:   "missed",
	Short: "List the issues the handover checks would miss",
	Long: `List issues that are probably meant for the EBI team but would not be
picked by the other commands:

  tracker   team issues outside the Dataset tracker
  datasets  team issues with a datatype no command handles
  status    issues in the EBI status assigned to another team
  assignee  issues of --user-id with no custom fields or another team`,
	Args: cobra.NoArgs,
	RunE: runMissed,
}

func init() {
	f := missedCmd.Flags()
	f.StringVar(&missedKind, "get-missed", "", fmt.Sprintf("Kind of missed issues, one of %v", missedKinds))
	f.StringVar(&missedUserID, "user-id", "", `Redmine user id for the assignee check ("me" for yourself)`)
	f.IntVar(&missedBuild, "build", 0, "Restrict to a given build")
	_ = missedCmd.MarkFlagRequired("get-missed")
}

type missedCheck struct {
	kind        string
	description string
	find        func(ctx context.Context, client *redmine.Client, filter *redmine.Filter) ([]redmine.Issue, error)
}

var missedChecks = []missedCheck{
	{kind: "tracker", description: "missed tracker", find: missedTracker},
	{kind: "datasets", description: "missed datasets", find: missedDatasets},
	{kind: "status", description: "missed status", find: missedStatus},
	{kind: "assignee", description: "missed assignee", find: missedAssignee},
}

func runMissed(cmd *cobra.Command, args []string) error {
	if !slices.Contains(missedKinds, missedKind) {
		return fmt.Errorf("invalid --get-missed %q: use one of %v", missedKind, missedKinds)
	}
	if missedKind == "assignee" && missedUserID == "" {
		return fmt.Errorf("--user-id is required for missed assignee")
	}

	ctx := commandContext(cmd)
	client, err := newRedmineClient()
	if err != nil {
		return err
	}
	filter, err := handoverFilter(ctx, client, missedBuild, true)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, check := range missedChecks {
		if missedKind != "all" && missedKind != check.kind {
			continue
		}
		if check.kind == "assignee" && missedUserID == "" {
			fmt.Fprintln(out, "User id required for missed assignee")
			continue
		}
		issues, err := check.find(ctx, client, filter.Clone())
		if err != nil {
			return err
		}
		if err := report.Issues(out, issues, check.description); err != nil {
			return err
		}
	}
	return nil
}

func missedTracker(ctx context.Context, client *redmine.Client, filter *redmine.Filter) ([]redmine.Issue, error) {
	filter.Set("team", cfg.Team)
	issues, err := client.Issues(ctx, filter)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(issues, func(issue redmine.Issue) bool {
		return issue.Tracker.Name == "Dataset"
	}), nil
}

func missedDatasets(ctx context.Context, client *redmine.Client, filter *redmine.Filter) ([]redmine.Issue, error) {
	filter.Set("team", cfg.Team)
	issues, err := client.Issues(ctx, filter)
	if err != nil {
		return nil, err
	}
	supported := slices.Concat(model.GenomeDatatypes, model.RNASeqDatatypes)
	return slices.DeleteFunc(issues, func(issue redmine.Issue) bool {
		fields := redmine.CustomFields(&issue)
		return !fields.Has(model.FieldDatatype) || slices.Contains(supported, fields.String(model.FieldDatatype))
	}), nil
}

func missedStatus(ctx context.Context, client *redmine.Client, filter *redmine.Filter) ([]redmine.Issue, error) {
	filter.Set("status", handoverStatusID)
	issues, err := client.Issues(ctx, filter)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(issues, func(issue redmine.Issue) bool {
		fields := redmine.CustomFields(&issue)
		return !fields.Has(model.FieldTeam) || fields.String(model.FieldTeam) == cfg.Team
	}), nil
}

func missedAssignee(ctx context.Context, client *redmine.Client, filter *redmine.Filter) ([]redmine.Issue, error) {
	filter.Set("assignee", missedUserID)
	issues, err := client.Issues(ctx, filter)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(issues, func(issue redmine.Issue) bool {
		fields := redmine.CustomFields(&issue)
		if len(fields) == 0 {
			return false
		}
		return !fields.Has(model.FieldTeam) || fields.String(model.FieldTeam) == cfg.Team
	}), nil
}
