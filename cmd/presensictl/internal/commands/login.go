package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"presensictl/internal/session"
)

// LoginCmd authenticates and persists the session locally.
type LoginCmd struct {
	Username string `arg:"" help:"Admin username"`
	Password string `help:"Password (prompts when omitted)" env:"PRESENSI_PASSWORD"`
}

func (l *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	password := l.Password
	if password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	if err := app.session.Login(ctx, l.Username, password); err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			return fmt.Errorf("login rejected: check username and password")
		}
		if errors.Is(err, session.ErrInvalidRole) {
			return fmt.Errorf("this account's access level is not accepted by the admin console")
		}
		return err
	}

	user := app.session.User()
	fmt.Printf("Logged in as %s (%s)\n", user.Username, user.Role)
	return nil
}

// LogoutCmd clears the local session and tells the server best-effort.
type LogoutCmd struct{}

func (l *LogoutCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals)
	if err != nil {
		return err
	}

	app.session.Logout(ctx)
	fmt.Println("Logged out.")
	return nil
}
