package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/services"
)

// SetAdminCommand grants or revokes the admin role.
type SetAdminCommand struct {
	Config       *config.Config
	Out          io.Writer
	DatabasePath string
	Email        string
	Revoke       bool
}

func NewSetAdminCommand(cfg *config.Config) *SetAdminCommand {
	return &SetAdminCommand{Config: cfg, Out: os.Stdout}
}

func (cmd *SetAdminCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("set-admin", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to a sqlite database (overrides DATABASE_* settings)")
	fs.StringVar(&cmd.Email, "email", "", "Email of the user to update (required)")
	fs.BoolVar(&cmd.Revoke, "revoke", false, "Demote the user back to a regular account")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s set-admin -email <email> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Grant or revoke admin access. Takes effect on the user's next request.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd.Email = strings.ToLower(strings.TrimSpace(cmd.Email))
	if cmd.Email == "" {
		return fmt.Errorf("required flag -email not provided")
	}
	return nil
}

func (cmd *SetAdminCommand) Run(ctx context.Context) error {
	db, err := openDatabase(cmd.Config, cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	role := entities.RoleAdmin
	if cmd.Revoke {
		role = entities.RoleUser
	}

	admin := services.NewAdminService(db.DB, nil, nil, nil, nil)
	user, err := admin.SetRole(ctx, cmd.Email, role)
	if err != nil {
		return err
	}

	success(cmd.Out, "%s (%s) is now %s", user.Email, user.DisplayName, user.Role)
	return nil
}
