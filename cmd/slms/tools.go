package main

import (
	"bufio"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/erazemk/slms/internal/identity"
	"github.com/erazemk/slms/internal/schedule"
)

func newHashCredentialCmd() *cobra.Command {
	var (
		cost     int
		generate bool
	)

	cmd := &cobra.Command{
		Use:   "hash-credential",
		Short: "Print a bcrypt hash for an admin credential_hash entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var credential string
			if generate {
				c, err := generateCredential(16)
				if err != nil {
					return fmt.Errorf("generating credential: %w", err)
				}
				credential = c
				fmt.Fprintf(cmd.OutOrStdout(), "credential: %s\n", credential)
			} else {
				c, err := readCredential(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				credential = c
			}

			hash, err := identity.HashCredential(credential, cost)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "credential_hash: %s\n", hash)
			return nil
		},
	}

	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	cmd.Flags().BoolVarP(&generate, "generate", "g", false, "generate a random credential instead of reading one")
	return cmd
}

// readCredential reads a credential with echo disabled when in is a
// terminal, or the first line of in otherwise.
func readCredential(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Credential: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("reading credential: %w", err)
		}
		return validCredential(string(b))
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading credential: %w", err)
	}
	return validCredential(line)
}

func validCredential(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("credential must not be empty")
	}
	return s, nil
}

// generateCredential creates a random credential of the given length.
func generateCredential(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}

func newSlotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slots",
		Short: "List the weekly cash pickup slots",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, s := range schedule.AvailableSlots() {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
		},
	}
}
