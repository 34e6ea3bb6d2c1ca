package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/01moynul/stockroom/internal/catalog"
	"github.com/01moynul/stockroom/internal/database"
	"github.com/01moynul/stockroom/internal/email"
	"github.com/01moynul/stockroom/internal/models"
	"github.com/01moynul/stockroom/internal/validation"
)

// NewUserCommand groups account management subcommands.
func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserAddCommand(rootOpts))
	return cmd
}

type userAddOptions struct {
	Email string
	Name  string
	Role  string
}

// newUserAddCommand creates an account without a password. This is how the
// first ADMIN gets in: they set a password through check-email on first login.
func newUserAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &userAddOptions{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a passwordless account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := models.CreateUserInput{Email: opts.Email, Role: models.Role(opts.Role)}
			if opts.Name != "" {
				input.FullName = &opts.Name
			}
			if err := validation.CreateUser(&input); err != nil {
				return err
			}

			cfg := rootOpts.Config
			db, err := database.Open(cfg.DBDriver, cfg.DBDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			user, err := catalog.NewService(db).CreateUser(cmd.Context(), input)
			if err != nil {
				return err
			}
			if err := email.SendInvite(cmd.Context(), user.Email, cfg.BaseURL); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s user %s (%s)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "login email (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "full name")
	cmd.Flags().StringVar(&opts.Role, "role", string(models.RoleStaff), "ADMIN or STAFF")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
