package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"presensictl/internal/api"
	"presensictl/internal/authz"
)

// EventCmd manages events (kegiatan).
type EventCmd struct {
	List   EventListCmd   `cmd:"" help:"List events" default:"1"`
	Create EventCreateCmd `cmd:"" help:"Create an event"`
	Delete EventDeleteCmd `cmd:"" help:"Delete an event"`
}

type EventListCmd struct{}

func (e *EventListCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	user, err := app.requireUser(ctx)
	if err != nil {
		return err
	}
	if !authz.CanAccess(user.Role, authz.FeatureKegiatan) {
		return fmt.Errorf("role %s cannot view events", user.Role)
	}

	events, err := app.client.ListEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tLOCATION\tSTARTS\tENDS\tGROUPS")
	for _, event := range events {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\n",
			event.ID, event.Name, event.Location,
			event.StartsAt.Format(time.RFC3339),
			event.EndsAt.Format(time.RFC3339),
			len(event.Participants))
	}
	return tw.Flush()
}

type EventCreateCmd struct {
	Name        string `required:"" help:"Event name"`
	Description string `help:"Event description"`
	Location    string `help:"Event location"`
	Starts      string `required:"" help:"Start time (RFC 3339)"`
	Ends        string `required:"" help:"End time (RFC 3339)"`
}

func (e *EventCreateCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	user, err := app.requireUser(ctx)
	if err != nil {
		return err
	}
	if !authz.CanCreate(user.Role, authz.FeatureKegiatan) {
		return fmt.Errorf("role %s cannot create events", user.Role)
	}

	starts, err := time.Parse(time.RFC3339, e.Starts)
	if err != nil {
		return fmt.Errorf("invalid start time: %w", err)
	}
	ends, err := time.Parse(time.RFC3339, e.Ends)
	if err != nil {
		return fmt.Errorf("invalid end time: %w", err)
	}

	created, err := app.client.CreateEvent(ctx, api.Event{
		Name:        e.Name,
		Description: e.Description,
		Location:    e.Location,
		StartsAt:    starts,
		EndsAt:      ends,
	})
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	fmt.Printf("Created event %d (%s)\n", created.ID, created.Name)
	return nil
}

type EventDeleteCmd struct {
	ID int64 `arg:"" help:"Event ID to delete"`
}

func (e *EventDeleteCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	user, err := app.requireUser(ctx)
	if err != nil {
		return err
	}
	if !authz.CanDelete(user.Role, authz.FeatureKegiatan) {
		return fmt.Errorf("role %s cannot delete events", user.Role)
	}

	if err := app.client.DeleteEvent(ctx, e.ID); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	fmt.Printf("Deleted event %d\n", e.ID)
	return nil
}
