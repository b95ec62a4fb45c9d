package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/services"
)

// ListUsersCommand prints every account.
type ListUsersCommand struct {
	Config       *config.Config
	Out          io.Writer
	DatabasePath string
}

func NewListUsersCommand(cfg *config.Config) *ListUsersCommand {
	return &ListUsersCommand{Config: cfg, Out: os.Stdout}
}

func (cmd *ListUsersCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("list-users", flag.ContinueOnError)
	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to a sqlite database (overrides DATABASE_* settings)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s list-users [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}
	return fs.Parse(args)
}

func (cmd *ListUsersCommand) Run(ctx context.Context) error {
	db, err := openDatabase(cmd.Config, cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	list, err := services.NewAdminService(db.DB, nil, nil, nil, nil).ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if len(list) == 0 {
		muted(cmd.Out, "No users yet")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("ID", "EMAIL", "DISPLAY NAME", "ROLE", "JOINED")
	for _, u := range list {
		t.Row(strconv.FormatUint(uint64(u.ID), 10), u.Email, u.DisplayName, string(u.Role), u.CreatedAt.Format("2006-01-02"))
	}

	fmt.Fprintln(cmd.Out, t.Render())
	fmt.Fprintf(cmd.Out, "Total users: %d\n", len(list))
	return nil
}
