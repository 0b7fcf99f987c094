package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	v1 "github.com/PaulBabatuyi/mindcare-gRPC/api/v1"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newRegisterCmd(opts *options) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and print its token",
		Example: `  mindctl register --name Ada --email ada@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pwd, err := passwordOrPrompt(cmd, password)
			if err != nil {
				return err
			}

			ctx, cancel := opts.callContext(cmd)
			defer cancel()

			resp, err := opts.client.Register(ctx, &v1.RegisterRequest{Name: name, Email: email, Password: pwd})
			if err != nil {
				return fmt.Errorf("register: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "display name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLoginCmd(opts *options) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a token",
		Example: `  export MINDCARE_TOKEN=$(mindctl login -e ada@example.com)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pwd, err := passwordOrPrompt(cmd, password)
			if err != nil {
				return err
			}

			ctx, cancel := opts.callContext(cmd)
			defer cancel()

			resp, err := opts.client.Login(ctx, &v1.LoginRequest{Email: email, Password: pwd})
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "email address")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// passwordOrPrompt returns flagValue, or reads the password from the terminal
// without echo, or from the first line of a piped stdin.
func passwordOrPrompt(cmd *cobra.Command, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	pwd := strings.TrimRight(line, "\r\n")
	if pwd == "" {
		return "", errors.New("password is required")
	}
	return pwd, nil
}
