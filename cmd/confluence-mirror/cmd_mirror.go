/*
Copyright © 2024 paul <paul@denknerd.org>
*/
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/dnaeon/go-vcr.v3/cassette"
	"gopkg.in/dnaeon/go-vcr.v3/recorder"

	"github.com/toothbrush/confluence-mirror/confluence"
	intlog "github.com/toothbrush/confluence-mirror/internal/log"
	"github.com/toothbrush/confluence-mirror/mirror"
)

// mirrorCmd represents the mirror command
var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Recursively mirror a page and its descendants to local Markdown",
	Long: `
Walk the page tree below --root-page and write one Markdown file per page,
nesting subdirectories exactly like the wiki nests its pages.
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMirror()
	},
}

var (
	RootPage     string
	Parallel     bool
	Workers      int
	RateLimitMs  int
	Wipe         bool
	WithVCR      bool
	ShowProgress bool
)

func init() {
	rootCmd.AddCommand(mirrorCmd)

	mirrorCmd.Flags().StringVar(&RootPage, "root-page", "", "ID of the page to mirror from")
	mirrorCmd.Flags().BoolVar(&Parallel, "parallel", false, "walk sibling subtrees concurrently")
	mirrorCmd.Flags().IntVar(&Workers, "workers", 4, "cap on concurrent child walks per page when --parallel (0 = unbounded)")
	mirrorCmd.Flags().IntVar(&RateLimitMs, "rate-limit-ms", 250, "minimum delay between API calls, in milliseconds")
	mirrorCmd.Flags().BoolVar(&Wipe, "wipe", false, "wipe the store before mirroring")
	mirrorCmd.Flags().BoolVar(&WithVCR, "with-vcr", false, "use go-vcr to cache responses")
	mirrorCmd.Flags().BoolVar(&ShowProgress, "progress", false, "show a progress counter while mirroring")
}

func runMirror() error {
	if LocalStore == "" {
		return fmt.Errorf("cmd: no location set for local store, use --store or set it in your config file")
	}
	if RootPage == "" {
		return fmt.Errorf("cmd: no page to mirror from, use --root-page or set it in your config file")
	}

	storePath, err := homedir.Expand(LocalStore)
	if err != nil {
		return fmt.Errorf("cmd: couldn't expand homedir: %w", err)
	}

	token_cmd_output, err := exec.Command(AuthTokenCmd[0], AuthTokenCmd[1:]...).Output()
	if err != nil {
		return fmt.Errorf("cmd: couldn't execute auth-token-cmd '%v': %w", AuthTokenCmd, err)
	}

	token := strings.Split(string(token_cmd_output), "\n")[0]

	api, err := confluence.NewAPI(
		ConfluenceInstance,
		AuthUsername,
		token,
		time.Duration(RateLimitMs)*time.Millisecond)
	if err != nil {
		return fmt.Errorf("cmd: Confluence API creation failed: %w", err)
	}

	if WithVCR {
		// set up VCR recordings.
		opts := &recorder.Options{
			CassetteName:       "fixtures/confluence-mirror",
			Mode:               recorder.ModeReplayWithNewEpisodes,
			SkipRequestLatency: true,
			RealTransport:      http.DefaultTransport,
		}
		r, err := recorder.NewWithOptions(opts)
		if err != nil {
			return fmt.Errorf("cmd: couldn't set up go-vcr recording: %w", err)
		}

		defer r.Stop() // Make sure recorder is stopped once done with it

		// Add a hook which removes Authorization headers from all requests
		hook := func(i *cassette.Interaction) error {
			delete(i.Request.Headers, "Authorization")
			return nil
		}
		r.AddHook(hook, recorder.AfterCaptureHook)
		r.SetReplayableInteractions(true)

		vcr_client := r.GetDefaultClient()
		api.Client = vcr_client
	}

	logger := intlog.New(os.Stderr, Debug)

	ctx := context.Background()

	// get current user information
	currentUser, err := api.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("cmd: couldn't query current user: %w", err)
	}

	logger.Info("logged in to id.atlassian.com",
		slog.String("user", currentUser.DisplayName),
		slog.String("account_id", currentUser.AccountID))

	fs := afero.NewOsFs()

	if Wipe {
		logger.Info("wiping store before run", slog.String("store", storePath))
		if err := mirror.CleanStore(fs, storePath); err != nil {
			return fmt.Errorf("cmd: couldn't wipe store: %w", err)
		}
	}

	if err := fs.MkdirAll(storePath, 0750); err != nil {
		return fmt.Errorf("cmd: couldn't create store directory %s: %w", storePath, err)
	}

	client := mirror.NewTreeClient(api, logger)
	stats := mirror.NewRunStats()
	walker := &mirror.Walker{
		Client:       client,
		Materializer: mirror.NewMaterializerWithFS(fs, storePath, client, logger),
		Stats:        stats,
		Logger:       logger,
		Parallel:     Parallel,
		Workers:      Workers,
		ShowProgress: ShowProgress,
	}

	walker.Walk(ctx, RootPage)

	if err := mirror.WriteReport(fs, storePath, RootPage, stats); err != nil {
		return fmt.Errorf("cmd: couldn't write run report: %w", err)
	}

	if errs := stats.Errors(); errs > 0 {
		logger.Error("mirror incomplete",
			slog.Int64("pages", stats.PagesProcessed()),
			slog.Int64("errors", errs))
		return fmt.Errorf("cmd: finished with %d errors, the mirror is incomplete; see the log for the failing subtrees", errs)
	}

	intlog.Success(logger, "mirror complete", slog.Int64("pages", stats.PagesProcessed()))
	return nil
}
