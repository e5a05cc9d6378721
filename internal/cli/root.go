// Package cli implements the covermux command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/mydehq/covermux/internal/attacher"
	"github.com/mydehq/covermux/internal/config"
	"github.com/mydehq/covermux/internal/fetcher"
	"github.com/mydehq/covermux/internal/pipeline"
	"github.com/mydehq/covermux/internal/provider"
	"github.com/mydehq/covermux/internal/provider/googleimages"
	"github.com/mydehq/covermux/internal/provider/releasedates"
	"github.com/mydehq/covermux/internal/scan"
	"github.com/mydehq/covermux/internal/types"
	"github.com/spf13/cobra"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})

var (
	flagMovies  string
	flagDryRun  bool
	flagForce   bool
	flagYes     bool
	flagVerbose bool
	flagExts    []string
	flagConfig  string
)

// RootCmd is the covermux command: scan a movie directory, find a poster
// for each file, and embed it as the container's cover attachment.
var RootCmd = &cobra.Command{
	Use:   "covermux",
	Short: "Attach poster art to movie files",
	Long: `covermux walks a directory of movie files, derives a search title from
each filename, finds a poster through the configured image-search
providers, and embeds it as the container's cover attachment using
mkvmerge.

Files that already carry a cover are skipped unless --force is given.
Exit codes: 0 all files succeeded, 1 some files failed, 2 fatal setup
error.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagVerbose {
			logger.SetLevel(log.DebugLevel)
		}
		configureStyles()
	},
	RunE: runRoot,
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	RootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "alternate config file")

	RootCmd.Flags().StringVarP(&flagMovies, "movies", "m", "", "directory containing movie files (required)")
	RootCmd.Flags().BoolVarP(&flagDryRun, "dry-run", "n", false, "report what would be fetched without attaching")
	RootCmd.Flags().StringSliceVarP(&flagExts, "ext", "e", nil, "limit scanned extensions (e.g. mkv,mp4)")
	RootCmd.Flags().BoolVarP(&flagForce, "force", "f", false, "reattach covers even when one is already present")
	RootCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "skip the confirmation prompt")
	_ = RootCmd.MarkFlagRequired("movies")
}

// PartialFailureError signals a completed run in which some files failed.
// It maps to exit code 1, distinct from fatal setup errors (exit 2).
type PartialFailureError struct {
	Failed int
	Total  int
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%d of %d files failed", e.Failed, e.Total)
}

// Execute runs the root command and exits with 0 (all succeeded),
// 1 (partial failure) or 2 (setup or usage error).
func Execute(version string) {
	RootCmd.Version = version
	if err := RootCmd.Execute(); err != nil {
		var partial *PartialFailureError
		if errors.As(err, &partial) {
			os.Exit(1)
		}
		logger.Error(err.Error())
		os.Exit(2)
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(flagExts) > 0 {
		cfg.Formats = flagExts
	}

	absRoot, err := filepath.Abs(flagMovies)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	mux := attacher.New(cfg.Mux, logger)
	if !flagDryRun && !mux.IsAvailable() {
		return fmt.Errorf("%s not found on PATH (install MKVToolNix)", mux.Binary())
	}

	client := &http.Client{Timeout: cfg.HTTP.Timeout()}
	providers, err := buildProviders(cfg, client)
	if err != nil {
		return err
	}

	files, err := scan.Videos(absRoot, cfg.Formats)
	if err != nil {
		return err
	}

	if !flagDryRun && !flagYes && isTerminal(os.Stdin) {
		count, err := scan.Count(absRoot, cfg.Formats)
		if err != nil {
			return err
		}
		ok, err := confirmRun(absRoot, count)
		if err != nil {
			return err
		}
		if !ok {
			logger.Info(StyleDim.Render("Cancelled"))
			return nil
		}
	}

	fetch := fetcher.New(providers, client, cfg.HTTP.UserAgent, cfg.Poster, logger)
	pipe := pipeline.New(fetch, mux, pipeline.Options{DryRun: flagDryRun, Force: flagForce}, logger)

	logger.Info(fmt.Sprintf("%s %s", StyleHeader.Render("Scanning:"), StylePath.Render(absRoot)),
		"formats", strings.Join(cfg.Formats, ","))
	report, runErr := pipe.Run(ctx, files)

	printSummary(report)
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return fmt.Errorf("interrupted")
		}
		return runErr
	}
	if report.Failed > 0 {
		return &PartialFailureError{Failed: report.Failed, Total: report.Total()}
	}
	return nil
}

// buildProviders constructs and resolves the enabled providers in their
// configured priority order. The googleimages provider is dropped with a
// warning when its credentials are absent; a run with no provider left is
// a setup error.
func buildProviders(cfg types.GlobalConfig, client *http.Client) ([]provider.Provider, error) {
	registry := provider.NewRegistry()
	enabled := slices.Clone(cfg.Providers)

	if slices.Contains(enabled, "releasedates") {
		p, err := releasedates.New(cfg.ReleaseDates, client)
		if err != nil {
			return nil, err
		}
		registry.Register(p)
	}
	if slices.Contains(enabled, "googleimages") {
		if cfg.Google.APIKey == "" || cfg.Google.CX == "" {
			logger.Warn("googleimages disabled: google.api_key/google.cx not configured")
			enabled = slices.DeleteFunc(enabled, func(s string) bool { return s == "googleimages" })
		} else {
			p, err := googleimages.New(cfg.Google, client)
			if err != nil {
				return nil, err
			}
			registry.Register(p)
		}
	}

	if len(enabled) == 0 {
		return nil, fmt.Errorf("no search providers enabled (check the providers list in the config)")
	}
	return registry.Resolve(enabled)
}

func loadConfig() (types.GlobalConfig, error) {
	path := flagConfig
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return types.GlobalConfig{}, err
		}
		path = p
	}
	return config.Load(path)
}

func printSummary(rep *pipeline.Report) {
	logger.Info(fmt.Sprintf("%s %s", StyleHeader.Render("Done:"), rep.Summary()))
	if rep.Attached > 0 {
		logger.Info("posters embedded", "count", rep.Attached, "total", humanize.Bytes(uint64(rep.Bytes)))
	}
	for _, r := range rep.Results {
		if r.Status != pipeline.StatusFailed {
			continue
		}
		logger.Error(fmt.Sprintf("  %s %s",
			StylePath.Render(filepath.Base(r.File.Path)),
			StyleDim.Render(fmt.Sprintf("[%s] %s", r.Stage, r.Reason()))),
			"error", r.Err)
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
