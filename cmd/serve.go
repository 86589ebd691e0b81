package cmd

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"autoembed/internal/server"
)

var flagListen string

var serveCmd = &cobra.Command{
	Use:   "serve [dir]",
	Short: "Serve the embed API and a live preview of a directory of posts",
	Args:  cobra.MaximumNArgs(1),
	RunE:  serveRun,
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "Address to listen on (default from config)")
}

func serveRun(cmd *cobra.Command, args []string) (err error) {
	if flagListen != "" {
		cfg.Listen = flagListen
	}
	dir := ""
	if len(args) == 1 {
		dir = args[0]
	}

	a, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer closeApp(a, &err)

	srv := server.New(server.Config{
		Rewriter: a.rewriter,
		Table:    a.table,
		Dir:      dir,
		Logger:   logger,
	})

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error { return srv.ListenAndServe(ctx, cfg.Listen) })
	g.Go(func() error { return srv.Watch(ctx) })
	return g.Wait()
}
