package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"presensictl/internal/authz"
)

// WhoamiCmd prints the current identity and its effective permissions.
type WhoamiCmd struct {
	Full bool `help:"Fetch the full profile from the server instead of the local record"`
}

func (w *WhoamiCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	user, err := app.requireUser(ctx)
	if err != nil {
		return err
	}

	if w.Full {
		if err := app.session.FetchProfile(ctx); err != nil {
			return fmt.Errorf("failed to fetch profile: %w", err)
		}
		user = app.session.User()
	}

	fmt.Printf("Username: %s\n", user.Username)
	if user.Name != "" {
		fmt.Printf("Name:     %s\n", user.Name)
	}
	if user.Email != "" {
		fmt.Printf("Email:    %s\n", user.Email)
	}
	fmt.Printf("Role:     %s\n", user.Role)
	if user.AdminOPD != nil {
		fmt.Printf("OPD:      %s (%s)\n", user.AdminOPD.Name, user.AdminOPD.Code)
	}
	if user.AdminUPT != nil {
		fmt.Printf("UPT:      %s (%s)\n", user.AdminUPT.Name, user.AdminUPT.Code)
	}

	fmt.Println()
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RESOURCE\tVIEW\tCREATE\tEDIT\tDELETE")
	for _, resource := range []string{
		authz.FeaturePerangkatDaera,
		authz.FeatureUPT,
		authz.FeatureJamKerja,
		authz.FeatureKegiatan,
		authz.FeaturePresensi,
		authz.FeaturePegawai,
		authz.FeaturePengguna,
	} {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", resource,
			yesNo(authz.CanAccess(user.Role, resource)),
			yesNo(authz.CanCreate(user.Role, resource)),
			yesNo(authz.CanEdit(user.Role, resource)),
			yesNo(authz.CanDelete(user.Role, resource)))
	}
	return tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// MenuCmd prints the navigation menu the current role would see.
type MenuCmd struct{}

func (m *MenuCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	user, err := app.requireUser(ctx)
	if err != nil {
		return err
	}

	menu := authz.MenuForRole(user.Role)
	if len(menu) == 0 {
		fmt.Printf("No menu entries for role %s.\n", user.Role)
		return nil
	}

	for _, entry := range menu {
		if entry.IsLeaf() {
			fmt.Printf("%-20s %s\n", entry.Label, entry.Path)
			continue
		}
		fmt.Println(entry.Label)
		for _, child := range entry.Children {
			fmt.Printf("  %-18s %s\n", child.Label, child.Path)
		}
	}
	return nil
}
