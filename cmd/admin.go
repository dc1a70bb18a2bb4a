package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/smart-summarizer/internal/audit"
	"github.com/ziadkadry99/smart-summarizer/internal/db"
	"github.com/ziadkadry99/smart-summarizer/internal/notifications"
	"github.com/ziadkadry99/smart-summarizer/internal/users"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage user accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user or admin account",
	Long:  `Creates an account. Values not given as flags are asked for interactively.`,
	RunE:  runAdminCreate,
}

var adminListCmd = &cobra.Command{
	Use:   "list",
	Short: "List user accounts",
	RunE:  runAdminList,
}

var adminPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old notifications and audit entries",
	RunE:  runAdminPrune,
}

var adminToggleCmd = &cobra.Command{
	Use:   "toggle <email>",
	Short: "Activate or deactivate a user account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminToggle,
}

func init() {
	adminCreateCmd.Flags().String("email", "", "account email")
	adminCreateCmd.Flags().String("name", "", "display name")
	adminCreateCmd.Flags().String("password", "", "password (prompted when empty)")
	adminCreateCmd.Flags().Bool("admin", false, "create an administrator")

	adminListCmd.Flags().String("search", "", "filter by email or name")
	adminListCmd.Flags().String("status", "", "active or inactive")
	adminListCmd.Flags().Bool("all-roles", false, "include administrators")

	adminPruneCmd.Flags().Int("older-than", 90, "age in days of the records to delete")

	adminCmd.AddCommand(adminCreateCmd, adminListCmd, adminToggleCmd, adminPruneCmd)
	rootCmd.AddCommand(adminCmd)
}

func openUserStore(ctx context.Context) (*users.Store, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	database, err := openServerDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return users.NewStore(database), func() { database.Close() }, nil
}

func runAdminCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	email, _ := cmd.Flags().GetString("email")
	name, _ := cmd.Flags().GetString("name")
	password, _ := cmd.Flags().GetString("password")
	isAdmin, _ := cmd.Flags().GetBool("admin")

	var err error
	if email == "" {
		if email, err = ask("Email", false); err != nil {
			return err
		}
	}
	if name == "" {
		if name, err = ask("Name", false); err != nil {
			return err
		}
	}
	confirm := password
	if password == "" {
		if password, err = ask("Password", true); err != nil {
			return err
		}
		if confirm, err = ask("Confirm password", true); err != nil {
			return err
		}
	}

	email = users.NormalizeEmail(email)
	if errs := users.ValidateRegistration(email, password, confirm, name); len(errs) > 0 {
		return errors.New(strings.Join(errs, " "))
	}

	store, closeDB, err := openUserStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	role := users.RoleUser
	if isAdmin {
		role = users.RoleAdmin
	}
	u, err := store.Create(ctx, email, strings.TrimSpace(name), password, role)
	if errors.Is(err, users.ErrEmailTaken) {
		return fmt.Errorf("%s is already registered", email)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s account %s (id %d)\n", u.Role, u.Email, u.ID)
	return nil
}

// ask prompts for a required value; secret input is masked.
func ask(label string, secret bool) (string, error) {
	p := promptui.Prompt{
		Label: label,
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("required")
			}
			return nil
		},
	}
	if secret {
		p.Mask = '*'
	}
	result, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("%s prompt: %w", strings.ToLower(label), err)
	}
	return result, nil
}

func runAdminList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	search, _ := cmd.Flags().GetString("search")
	status, _ := cmd.Flags().GetString("status")
	allRoles, _ := cmd.Flags().GetBool("all-roles")

	store, closeDB, err := openUserStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	filter := users.ListFilter{Search: search, Status: status}
	if !allRoles {
		filter.Role = users.RoleUser
	}
	list, err := store.List(ctx, filter)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Email", "Name", "Role", "Active", "Created", "Last login"})
	for _, u := range list {
		lastLogin := "Never"
		if u.LastLogin != nil {
			lastLogin = u.LastLogin.Format("2006-01-02 15:04")
		}
		t.AppendRow(table.Row{u.ID, u.Email, u.Name, u.Role, u.Active, u.CreatedAt.Format("2006-01-02"), lastLogin})
	}
	t.Render()
	fmt.Fprintf(cmd.OutOrStdout(), "(%d users)\n", len(list))
	return nil
}

func runAdminToggle(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	store, closeDB, err := openUserStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	u, err := store.GetByEmail(ctx, users.NormalizeEmail(args[0]))
	if err != nil {
		return fmt.Errorf("looking up %s: %w", args[0], err)
	}
	active, err := store.Toggle(ctx, u.ID)
	if errors.Is(err, users.ErrAdminImmutable) {
		return errors.New("cannot modify admin account")
	}
	if err != nil {
		return err
	}
	status := "deactivated"
	if active {
		status = "activated"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "User %s has been %s.\n", u.Email, status)
	return nil
}

func runAdminPrune(cmd *cobra.Command, args []string) error {
	days, _ := cmd.Flags().GetInt("older-than")
	if days < 1 {
		return errors.New("--older-than must be at least 1 day")
	}
	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := openServerDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	res, err := prune(ctx, database, time.Now().AddDate(0, 0, -days))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d notification(s) and %d audit entries older than %d days.\n",
		res.notifications, res.audit, days)
	return nil
}

type pruneResult struct {
	notifications int64
	audit         int64
}

// prune removes notifications and audit entries created before cutoff.
func prune(ctx context.Context, database *db.DB, cutoff time.Time) (pruneResult, error) {
	var res pruneResult
	var err error
	if res.notifications, err = notifications.NewStore(database).DeleteBefore(ctx, cutoff); err != nil {
		return res, err
	}
	if res.audit, err = audit.NewStore(database).DeleteBefore(ctx, cutoff); err != nil {
		return res, err
	}
	return res, nil
}
