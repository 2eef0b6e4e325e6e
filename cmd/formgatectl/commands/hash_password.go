package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BradenHooton/formgate/internal/repositories"
	pkgauth "github.com/BradenHooton/formgate/pkg/auth"
	"github.com/spf13/cobra"
)

// PasswordStore replaces a user's stored password hash.
type PasswordStore interface {
	UpdatePassword(ctx context.Context, userID, hash string) error
}

// openPasswordStore connects to the configured database. The returned func
// releases the connection.
var openPasswordStore = func(ctx context.Context) (PasswordStore, func(), error) {
	db, err := connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	return repositories.NewAccountRepository(db), db.Close, nil
}

var (
	hashForce   bool
	hashUser    string
	hashApply   bool
	hashTimeout time.Duration

	HashPasswordCmd = &cobra.Command{
		Use:          "hash-password <plain>",
		SilenceUsage: true,
		Short:        "Print a bcrypt hash for a password",
		Long: `
Usage: formgatectl hash-password <plain> [options]

  Hashes the password with bcrypt (cost 12) and prints the hash together
  with an UPDATE statement for the users table.

      $ formgatectl hash-password 'S3cure-Passw0rd' --user alice

  With --apply the hash is written to the database configured through DB_*
  environment variables instead of being printed.

      $ formgatectl hash-password 'S3cure-Passw0rd' --user alice --apply

  Passwords that fail the strength policy are refused unless --force is given.
`,
		Args: cobra.ExactArgs(1),
		RunE: runHashPassword,
	}
)

func init() {
	HashPasswordCmd.Flags().BoolVar(&hashForce, "force", false, "Hash even if the password fails the strength policy")
	HashPasswordCmd.Flags().StringVar(&hashUser, "user", "", "User ID for the printed UPDATE statement")
	HashPasswordCmd.Flags().BoolVar(&hashApply, "apply", false, "Store the hash for --user instead of printing it")
	HashPasswordCmd.Flags().DurationVar(&hashTimeout, "timeout", 30*time.Second, "Time limit for --apply")
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	plain := args[0]

	if hashApply && hashUser == "" {
		return errors.New("--apply requires --user")
	}

	if err := pkgauth.ValidatePassword(plain); err != nil {
		var weak *pkgauth.PasswordValidationError
		if !hashForce || !errors.As(err, &weak) {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}

	hash, err := pkgauth.HashPassword(plain)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	if hashApply {
		return applyPassword(cmd, hashUser, hash)
	}

	user := hashUser
	if user == "" {
		user = "<user_id>"
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, hash)
	fmt.Fprintf(out, "UPDATE users SET password = '%s', updated_at = NOW() WHERE user_id = '%s';\n",
		hash, strings.ReplaceAll(user, "'", "''"))
	return nil
}

func applyPassword(cmd *cobra.Command, userID, hash string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), hashTimeout)
	defer cancel()

	store, release, err := openPasswordStore(ctx)
	if err != nil {
		return err
	}
	defer release()

	if err := store.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Success! Password updated for user %s.\n", userID)
	return nil
}
