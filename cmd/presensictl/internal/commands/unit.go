package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"presensictl/internal/api"
	"presensictl/internal/authz"
)

// UnitCmd manages organizational units (perangkat daerah and UPT).
type UnitCmd struct {
	List   UnitListCmd   `cmd:"" help:"List organizational units" default:"1"`
	Create UnitCreateCmd `cmd:"" help:"Create an organizational unit"`
	Delete UnitDeleteCmd `cmd:"" help:"Delete an organizational unit"`
	Import UnitImportCmd `cmd:"" help:"Import employees for a unit from a spreadsheet"`
}

type UnitListCmd struct{}

func (u *UnitListCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	user, err := app.requireUser(ctx)
	if err != nil {
		return err
	}
	if !authz.CanAccess(user.Role, authz.FeaturePerangkatDaera) {
		return fmt.Errorf("role %s cannot view organizational units", user.Role)
	}

	units, err := app.client.ListOrgUnits(ctx)
	if err != nil {
		return fmt.Errorf("failed to list units: %w", err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCODE\tNAME\tPARENT")
	for _, unit := range units {
		parent := "-"
		if unit.ParentID != nil {
			parent = fmt.Sprintf("%d", *unit.ParentID)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", unit.ID, unit.Code, unit.Name, parent)
	}
	return tw.Flush()
}

type UnitCreateCmd struct {
	Code      string  `required:"" help:"Unit code"`
	Name      string  `required:"" help:"Unit name"`
	Address   string  `help:"Street address"`
	Latitude  float64 `help:"Geofence center latitude"`
	Longitude float64 `help:"Geofence center longitude"`
	Radius    int     `help:"Geofence radius in meters"`
	ParentID  *int64  `help:"Parent unit ID, making this a UPT"`
}

func (u *UnitCreateCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	user, err := app.requireUser(ctx)
	if err != nil {
		return err
	}
	feature := authz.FeaturePerangkatDaera
	if u.ParentID != nil {
		feature = authz.FeatureUPT
	}
	if !authz.CanCreate(user.Role, feature) {
		return fmt.Errorf("role %s cannot create %s records", user.Role, feature)
	}

	created, err := app.client.CreateOrgUnit(ctx, api.OrgUnit{
		Code:      u.Code,
		Name:      u.Name,
		Address:   u.Address,
		Latitude:  u.Latitude,
		Longitude: u.Longitude,
		Radius:    u.Radius,
		ParentID:  u.ParentID,
	})
	if err != nil {
		return fmt.Errorf("failed to create unit: %w", err)
	}

	fmt.Printf("Created unit %d (%s)\n", created.ID, created.Name)
	return nil
}

type UnitDeleteCmd struct {
	ID int64 `arg:"" help:"Unit ID to delete"`
}

func (u *UnitDeleteCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	user, err := app.requireUser(ctx)
	if err != nil {
		return err
	}
	if !authz.CanDelete(user.Role, authz.FeaturePerangkatDaera) {
		return fmt.Errorf("role %s cannot delete organizational units", user.Role)
	}

	if err := app.client.DeleteOrgUnit(ctx, u.ID); err != nil {
		return fmt.Errorf("failed to delete unit: %w", err)
	}

	fmt.Printf("Deleted unit %d\n", u.ID)
	return nil
}

type UnitImportCmd struct {
	ID   int64  `arg:"" help:"Unit ID to import employees into"`
	File string `arg:"" type:"existingfile" help:"Spreadsheet file to upload"`
}

func (u *UnitImportCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	user, err := app.requireUser(ctx)
	if err != nil {
		return err
	}
	if !authz.CanCreate(user.Role, authz.FeaturePegawai) {
		return fmt.Errorf("role %s cannot import employees", user.Role)
	}

	f, err := os.Open(u.File)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", u.File, err)
	}
	defer f.Close()

	if err := app.client.ImportEmployees(ctx, u.ID, u.File, f); err != nil {
		return fmt.Errorf("failed to import employees: %w", err)
	}

	fmt.Printf("Imported employees from %s into unit %d\n", u.File, u.ID)
	return nil
}
