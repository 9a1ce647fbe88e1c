package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/m-zajac/orgcontributors/internal/adapter/github"
	"github.com/m-zajac/orgcontributors/internal/app"
	"github.com/m-zajac/orgcontributors/internal/limiter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type loadOptions struct {
	variant        string
	user           string
	token          string
	address        string
	rateLimit      float64
	channelSize    int
	maxConcurrency int
	top            int
}

// loader launches loading jobs.
type loader interface {
	Load(
		ctx context.Context,
		v app.Variant,
		spec app.RequestSpec,
		onUpdate app.UpdateFunc,
		controls app.Controls,
	) (*app.Handle, error)
}

func newLoadCmd(l logrus.FieldLogger) *cobra.Command {
	var opts loadOptions
	cmd := &cobra.Command{
		Use:   "load ORG",
		Short: "Load contributors of given organization",
		Long: `Loads all repositories of the organization and aggregates their contributors.
Progress is printed after every update. Press Ctrl+C to cancel loading.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := app.ParseVariant(opts.variant)
			if err != nil {
				return err
			}

			doer := limiter.NewHTTPDoer(&http.Client{Timeout: 30 * time.Second}, opts.rateLimit, 5)
			newClient := func(c app.Credentials) app.GithubClient {
				return github.NewClient(doer, opts.address, c)
			}
			service := app.NewService(
				newClient,
				nil,
				l,
				app.WithChannelSize(opts.channelSize),
				app.WithMaxConcurrency(opts.maxConcurrency),
			)

			signals := make(chan os.Signal, 1)
			signal.Notify(signals, os.Interrupt)
			defer signal.Stop(signals)

			spec := app.RequestSpec{
				Org: args[0],
				Credentials: app.Credentials{
					Username: opts.user,
					Token:    opts.token,
				},
			}
			status, err := runLoad(cmd.Context(), cmd.OutOrStdout(), service, v, spec, opts.top, signals, l)
			if err != nil {
				return err
			}
			if status.State != app.Completed {
				return fmt.Errorf("loading %s", status)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.variant, "variant", app.Channels.String(), "Loading strategy, see 'contributorsctl variants'")
	cmd.Flags().StringVarP(&opts.user, "user", "u", os.Getenv("GITHUB_USER"), "Github username (env: GITHUB_USER)")
	cmd.Flags().StringVarP(&opts.token, "token", "t", os.Getenv("GITHUB_TOKEN"), "Github token or password (env: GITHUB_TOKEN)")
	cmd.Flags().StringVar(&opts.address, "address", "https://api.github.com", "Github rest api address")
	cmd.Flags().Float64Var(&opts.rateLimit, "rate-limit", 10, "Maximum github calls per second, 0 disables limiting")
	cmd.Flags().IntVar(&opts.channelSize, "channel-size", app.DefaultChannelSize, "Buffer capacity for the channels strategy")
	cmd.Flags().IntVar(&opts.maxConcurrency, "max-concurrency", 0, "Maximum concurrent contributors requests, 0 means no limit")
	cmd.Flags().IntVar(&opts.top, "top", 20, "Number of printed contributors, 0 prints all")

	return cmd
}

// runLoad runs a single job, printing its progress to out.
// A value received from signals cancels the job.
func runLoad(
	ctx context.Context,
	out io.Writer,
	service loader,
	v app.Variant,
	spec app.RequestSpec,
	top int,
	signals <-chan os.Signal,
	l logrus.FieldLogger,
) (app.Status, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	controls := newCLIControls(l)

	var result []app.Contributor
	// Updates are serialized by the job.
	updates := app.NewStatusUpdates(func(contributors []app.Contributor, status app.Status) {
		result = contributors
		if status.Terminal() {
			return
		}
		fmt.Fprintf(out, "%s: %d contributors\n", status, len(contributors))
	})

	fmt.Fprintf(out, "loading %s with %s strategy...\n", spec.Org, v)
	handle, err := service.Load(ctx, v, spec, updates.OnUpdate, controls)
	if err != nil {
		return app.Status{}, err
	}
	updates.Bind(handle)

	go func() {
		select {
		case <-signals:
			if n := controls.cancel(); n > 0 {
				l.Debugf("canceled %d job(s)", n)
			}
		case <-handle.Done():
		}
	}()

	status := handle.Wait()
	fmt.Fprintln(out, status)
	if status.State == app.Completed {
		fmt.Fprintln(out, renderContributors(result, top))
	}

	return status, nil
}

func renderContributors(contributors []app.Contributor, top int) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"#", "Login", "Contributions"})

	shown := contributors
	if top > 0 && len(shown) > top {
		shown = shown[:top]
	}
	for i, c := range shown {
		tbl.AppendRow(table.Row{i + 1, c.Login, c.Contributions})
	}
	tbl.AppendFooter(table.Row{"", fmt.Sprintf("Total: %d contributors", len(contributors)), ""})

	return tbl.Render()
}
