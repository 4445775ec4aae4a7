package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/domain"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/services"
)

// cliActor is recorded as the acting admin for commands run from a shell
var cliActor = services.Actor{ID: "cli", Role: domain.RoleAdmin}

var cliMeta = services.RequestMeta{IP: "local", UserAgent: "portalctl"}

func bootstrapAdminCmd() *cobra.Command {
	var (
		fullName, idNumber, accountNumber string
		passwordStdin                     bool
	)
	cmd := &cobra.Command{
		Use:   "bootstrap-admin",
		Short: "Create the first Admin account",
		Long: `Create the first Admin account. The command refuses to run when an
Admin already exists. The password is prompted for, or read from stdin with
--password-stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(cmd, passwordStdin)
			if err != nil {
				return err
			}

			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			account, err := e.Auth.RegisterAdmin(cmd.Context(), &services.RegisterInput{
				FullName:      fullName,
				IDNumber:      idNumber,
				AccountNumber: accountNumber,
				Password:      pw,
			}, cliMeta)
			if err != nil {
				var verr *domain.ValidationError
				if errors.As(err, &verr) {
					return fmt.Errorf("%w: %s", err, strings.Join(verr.Problems, "; "))
				}
				return err
			}

			success.Fprintf(cmd.OutOrStdout(), "Admin created: %s (%s)\n", account.FullName, account.AccountNumber)
			return nil
		},
	}

	cmd.Flags().StringVar(&fullName, "full-name", "", "Admin full name")
	cmd.Flags().StringVar(&idNumber, "id-number", "", "13 digit ID number")
	cmd.Flags().StringVar(&accountNumber, "account-number", "", "8-12 digit account number")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	_ = cmd.MarkFlagRequired("full-name")
	_ = cmd.MarkFlagRequired("id-number")
	_ = cmd.MarkFlagRequired("account-number")

	return cmd
}

// readPassword prompts twice on a terminal, or reads one line from stdin
func readPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal, use --password-stdin")
	}

	fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), "Confirm password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}

func unlockCmd() *cobra.Command {
	var accountNumber string
	cmd := &cobra.Command{
		Use:   "unlock",
		Short: "Clear the lockout of an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			account, err := e.Lockout.UnlockByAccountNumber(cmd.Context(), cliActor, accountNumber, cliMeta)
			if err != nil {
				return err
			}
			success.Fprintf(cmd.OutOrStdout(), "Unlocked %s (%s)\n", account.AccountNumber, account.FullName)
			return nil
		},
	}

	cmd.Flags().StringVar(&accountNumber, "account-number", "", "Account number to unlock")
	_ = cmd.MarkFlagRequired("account-number")
	return cmd
}

func lockedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locked",
		Short: "List locked accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			accounts, err := e.Lockout.ListLocked(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(accounts) == 0 {
				muted.Fprintln(out, "No locked accounts")
				return nil
			}
			for _, a := range accounts {
				r := a.ToLockedResponse()
				until := "-"
				if r.LockedUntil != nil {
					until = r.LockedUntil.Format(time.RFC3339)
				}
				fmt.Fprintf(out, "%-12s  %-30s  attempts=%d  until=%s\n", r.AccountNumber, r.FullName, r.FailedLoginAttempts, until)
			}
			return nil
		},
	}
}

func cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired refresh tokens once",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			report := e.Cron.RunCleanup(ctx)
			success.Fprintf(cmd.OutOrStdout(), "Deleted %d refresh tokens, swept %d kv entries\n",
				report.RefreshTokensDeleted, report.KVEntriesSwept)
			return nil
		},
	}
}
