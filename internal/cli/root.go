// Package cli provides the mindctl command-line client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	v1 "github.com/PaulBabatuyi/mindcare-gRPC/api/v1"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// Version is set at build time.
var Version = "0.1.0"

// TokenEnv holds the bearer token between invocations.
const TokenEnv = "MINDCARE_TOKEN"

// DialFunc opens a client for addr.
type DialFunc func(addr string, useTLS bool) (v1.WellnessServiceClient, func() error, error)

type options struct {
	addr    string
	token   string
	useTLS  bool
	timeout time.Duration

	dial   DialFunc
	client v1.WellnessServiceClient
	close  func() error
}

// NewRootCmd builds the mindctl command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(dialGRPC)
}

func newRootCmd(dial DialFunc) *cobra.Command {
	opts := &options{dial: dial}

	root := &cobra.Command{
		Use:   "mindctl",
		Short: "Talk to the mindcare wellness service",
		Long: `mindctl is a terminal client for the mindcare wellness service.

Log in once and export the printed token:
  export MINDCARE_TOKEN=$(mindctl login -e you@example.com)

Then chat:
  mindctl send "I had a rough day"
  mindctl watch`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			if opts.token == "" {
				opts.token = os.Getenv(TokenEnv)
			}
			client, closeFn, err := opts.dial(opts.addr, opts.useTLS)
			if err != nil {
				return fmt.Errorf("connect to %s: %w", opts.addr, err)
			}
			opts.client, opts.close = client, closeFn
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.close != nil {
				if err := opts.close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close connection: %v\n", err)
				}
			}
		},
	}

	root.PersistentFlags().StringVar(&opts.addr, "addr", envOr("MINDCARE_ADDR", "localhost:50051"), "server address")
	root.PersistentFlags().StringVar(&opts.token, "token", "", "bearer token (default $"+TokenEnv+")")
	root.PersistentFlags().BoolVar(&opts.useTLS, "tls", false, "use TLS")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "per-call timeout")

	root.AddCommand(
		newRegisterCmd(opts),
		newLoginCmd(opts),
		newSendCmd(opts),
		newMessagesCmd(opts),
		newHistoryCmd(opts),
		newEndCmd(opts),
		newWatchCmd(opts),
	)
	return root
}

func dialGRPC(addr string, useTLS bool) (v1.WellnessServiceClient, func() error, error) {
	creds := insecure.NewCredentials()
	if useTLS {
		creds = credentials.NewTLS(nil)
	}
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, nil, err
	}
	return v1.NewWellnessServiceClient(conn), conn.Close, nil
}

// callContext bounds a unary call and attaches the token, if any.
func (o *options) callContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	return o.withAuth(ctx), cancel
}

func (o *options) withAuth(ctx context.Context) context.Context {
	if o.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+o.token)
}

func (o *options) requireToken() error {
	if o.token == "" {
		return errors.New("not logged in: pass --token or set " + TokenEnv)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
