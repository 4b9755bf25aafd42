package commands

import (
	"context"
	"fmt"
	"os"
)

// AvatarCmd replaces the current user's profile picture.
type AvatarCmd struct {
	File string `arg:"" type:"existingfile" help:"Image file to upload"`
}

func (a *AvatarCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	if _, err := app.requireUser(ctx); err != nil {
		return err
	}

	f, err := os.Open(a.File)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", a.File, err)
	}
	defer f.Close()

	if err := app.client.UploadAvatar(ctx, a.File, f); err != nil {
		return fmt.Errorf("failed to upload avatar: %w", err)
	}

	fmt.Println("Avatar updated.")
	return nil
}
