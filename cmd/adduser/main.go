package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"gas-tracker/internal/auth"
	"gas-tracker/internal/storage"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const defaultDBPath = "gas.db"

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := newCommand(stdin)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(context.Background())
}

func newCommand(stdin io.Reader) *cobra.Command {
	var username, password, dbPath string

	cmd := &cobra.Command{
		Use:           "adduser --user <username> [--password <password>] [--db <db_path>]",
		Short:         "Create a gas tracker login",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stdout := cmd.OutOrStdout()
			if username == "" {
				fmt.Fprint(stdout, cmd.UsageString())
				return fmt.Errorf("missing required flags: user")
			}

			if password == "" {
				fmt.Fprint(stdout, "Password: ")
				var err error
				password, err = readPassword(stdin)
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				fmt.Fprintln(stdout)
			}
			if strings.TrimSpace(password) == "" {
				return fmt.Errorf("password cannot be empty")
			}

			// DB_PATH applies only when --db was not given.
			if path := os.Getenv("DB_PATH"); path != "" && !cmd.Flags().Changed("db") {
				dbPath = path
			}
			return addUser(cmd.Context(), stdout, dbPath, username, password)
		},
	}

	cmd.Flags().StringVarP(&username, "user", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (optional, will prompt if omitted)")
	cmd.Flags().StringVar(&dbPath, "db", defaultDBPath, "Path to database file")
	return cmd
}

func addUser(ctx context.Context, stdout io.Writer, dbPath, username, password string) error {
	db, err := storage.NewDB(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if existing, err := db.GetUserByUsername(ctx, username); err == nil && existing != nil {
		return fmt.Errorf("user %s already exists", username)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := db.CreateUser(ctx, username, hash)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %d\n", user.Username, user.ID)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for non-terminal (e.g. tests, pipes)
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
