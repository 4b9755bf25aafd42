package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"presensictl/internal/api"
	"presensictl/internal/authz"
)

// ScheduleCmd manages work schedule (jam kerja) configurations.
type ScheduleCmd struct {
	List   ScheduleListCmd   `cmd:"" help:"List work schedules" default:"1"`
	Create ScheduleCreateCmd `cmd:"" help:"Create a work schedule"`
	Delete ScheduleDeleteCmd `cmd:"" help:"Delete a work schedule"`
}

type ScheduleListCmd struct{}

func (s *ScheduleListCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	user, err := app.requireUser(ctx)
	if err != nil {
		return err
	}
	if !authz.CanAccess(user.Role, authz.FeatureJamKerja) {
		return fmt.Errorf("role %s cannot view work schedules", user.Role)
	}

	schedules, err := app.client.ListSchedules(ctx)
	if err != nil {
		return fmt.Errorf("failed to list schedules: %w", err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTART\tEND\tDAYS")
	for _, schedule := range schedules {
		days := "-"
		if len(schedule.Days) > 0 {
			days = strings.Join(schedule.Days, ",")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			schedule.ID, schedule.Name, schedule.StartTime, schedule.EndTime, days)
	}
	return tw.Flush()
}

type ScheduleCreateCmd struct {
	Name      string   `required:"" help:"Schedule name"`
	Start     string   `required:"" help:"Start time, e.g. 07:30"`
	End       string   `required:"" help:"End time, e.g. 16:00"`
	Days      []string `help:"Working days, e.g. mon,tue,wed"`
	OrgUnitID *int64   `help:"Restrict schedule to one unit"`
}

func (s *ScheduleCreateCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	user, err := app.requireUser(ctx)
	if err != nil {
		return err
	}
	if !authz.CanCreate(user.Role, authz.FeatureJamKerja) {
		return fmt.Errorf("role %s cannot create work schedules", user.Role)
	}

	created, err := app.client.CreateSchedule(ctx, api.WorkSchedule{
		Name:      s.Name,
		StartTime: s.Start,
		EndTime:   s.End,
		Days:      s.Days,
		OrgUnitID: s.OrgUnitID,
	})
	if err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}

	fmt.Printf("Created schedule %d (%s)\n", created.ID, created.Name)
	return nil
}

type ScheduleDeleteCmd struct {
	ID int64 `arg:"" help:"Schedule ID to delete"`
}

func (s *ScheduleDeleteCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	user, err := app.requireUser(ctx)
	if err != nil {
		return err
	}
	if !authz.CanDelete(user.Role, authz.FeatureJamKerja) {
		return fmt.Errorf("role %s cannot delete work schedules", user.Role)
	}

	if err := app.client.DeleteSchedule(ctx, s.ID); err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}

	fmt.Printf("Deleted schedule %d\n", s.ID)
	return nil
}
