package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vaultd/vaultd/pkg/config"
	"github.com/vaultd/vaultd/pkg/identity"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage vaultd user accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add USERNAME PASSWORD",
	Short: "Create a user account",
	Args:  cobra.ExactArgs(2),
	RunE:  runUserAdd,
}

var userPasswdCmd = &cobra.Command{
	Use:   "passwd USERNAME NEW_PASSWORD",
	Short: "Reset a user's password",
	Args:  cobra.ExactArgs(2),
	RunE:  runUserPasswd,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List user accounts",
	Args:  cobra.NoArgs,
	RunE:  runUserList,
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete USERNAME",
	Short: "Delete a user account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserDelete,
}

func init() {
	userCmd.AddCommand(userAddCmd, userPasswdCmd, userListCmd, userDeleteCmd)
}

// openAdministrable loads configuration and opens the persistent identity
// backend. User management requires a durable backend: a mem or fs storage
// configuration leaves no identity store to manage once the process exits.
func openAdministrable() (identity.Administrable, func(), error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Storage.Backend != "badger" {
		return nil, nil, fmt.Errorf("user management requires a persistent identity backend; configure storage.backend: badger")
	}

	creds, err := buildCreds(&cfg.Storage)
	if err != nil {
		return nil, nil, fmt.Errorf("open identity backend: %w", err)
	}
	admin, ok := creds.(identity.Administrable)
	if !ok {
		return nil, nil, fmt.Errorf("identity backend %T does not support user management", creds)
	}

	closeFn := func() {}
	if closer, ok := creds.(interface{ Close() error }); ok {
		closeFn = func() { _ = closer.Close() }
	}
	return admin, closeFn, nil
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	admin, closeFn, err := openAdministrable()
	if err != nil {
		return err
	}
	defer closeFn()

	username, password := args[0], args[1]
	if err := admin.Create(username, password); err != nil {
		if err == identity.ErrUserExists {
			return fmt.Errorf("user %q already exists", username)
		}
		return err
	}

	fmt.Printf("Created user %q\n", username)
	return nil
}

func runUserPasswd(cmd *cobra.Command, args []string) error {
	admin, closeFn, err := openAdministrable()
	if err != nil {
		return err
	}
	defer closeFn()

	username, password := args[0], args[1]
	if err := admin.SetPassword(username, password); err != nil {
		if err == identity.ErrUserNotFound {
			return fmt.Errorf("user %q does not exist", username)
		}
		return err
	}

	fmt.Printf("Updated password for %q\n", username)
	return nil
}

func runUserList(cmd *cobra.Command, args []string) error {
	admin, closeFn, err := openAdministrable()
	if err != nil {
		return err
	}
	defer closeFn()

	users, err := admin.List()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\n", u.Username, u.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func runUserDelete(cmd *cobra.Command, args []string) error {
	admin, closeFn, err := openAdministrable()
	if err != nil {
		return err
	}
	defer closeFn()

	username := args[0]
	if err := admin.Delete(username); err != nil {
		if err == identity.ErrUserNotFound {
			return fmt.Errorf("user %q does not exist", username)
		}
		return err
	}

	fmt.Printf("Deleted user %q\n", username)
	return nil
}
