package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	grpcapi "github.com/m-zajac/orgcontributors/internal/api/grpc"
	"github.com/m-zajac/orgcontributors/internal/app"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type remoteOptions struct {
	server  string
	variant string
	user    string
	token   string
	timeout time.Duration
	top     int
}

// remoteLoader loads contributors on the orgcontributors server.
type remoteLoader interface {
	Load(ctx context.Context, org string, variant string, creds app.Credentials, onReply func(grpcapi.Reply)) error
}

func newRemoteCmd() *cobra.Command {
	var opts remoteOptions
	cmd := &cobra.Command{
		Use:   "remote ORG",
		Short: "Load contributors using orgcontributors grpc server",
		Long: `Asks the orgcontributors server to load contributors of the organization.
Progress is printed after every update. Press Ctrl+C to cancel loading.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := grpc.NewClient(opts.server, grpc.WithTransportCredentials(insecure.NewCredentials()))
			if err != nil {
				return fmt.Errorf("connecting to %s: %w", opts.server, err)
			}
			defer conn.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if opts.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, opts.timeout)
				defer cancel()
			}

			creds := app.Credentials{
				Username: opts.user,
				Token:    opts.token,
			}
			return runRemote(ctx, cmd.OutOrStdout(), grpcapi.NewClient(conn), args[0], opts.variant, creds, opts.top)
		},
	}

	cmd.Flags().StringVar(&opts.server, "server", "localhost:9090", "Address of orgcontributors grpc server")
	cmd.Flags().StringVar(&opts.variant, "variant", "", "Loading strategy, server's default if empty")
	cmd.Flags().StringVarP(&opts.user, "user", "u", os.Getenv("GITHUB_USER"), "Github username (env: GITHUB_USER)")
	cmd.Flags().StringVarP(&opts.token, "token", "t", os.Getenv("GITHUB_TOKEN"), "Github token or password (env: GITHUB_TOKEN)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Loading timeout, 0 means no limit")
	cmd.Flags().IntVar(&opts.top, "top", 20, "Number of printed contributors, 0 prints all")

	return cmd
}

// runRemote prints replies of a single remote job to out.
func runRemote(
	ctx context.Context,
	out io.Writer,
	client remoteLoader,
	org string,
	variant string,
	creds app.Credentials,
	top int,
) error {
	fmt.Fprintf(out, "loading %s from server...\n", org)

	var final *grpcapi.Reply
	err := client.Load(ctx, org, variant, creds, func(r grpcapi.Reply) {
		if r.Completed {
			final = &r
			return
		}
		fmt.Fprintf(out, "%s: %d contributors\n", r.Status, len(r.Contributors))
	})
	if err != nil {
		return fmt.Errorf("loading %s: %w", org, err)
	}
	if final == nil {
		return errors.New("server finished without result")
	}

	fmt.Fprintln(out, final.Status)
	fmt.Fprintln(out, renderContributors(final.Contributors, top))

	return nil
}
