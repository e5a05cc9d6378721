package cli

import (
	"fmt"

	"github.com/mydehq/covermux/internal/attacher"
	"github.com/mydehq/covermux/internal/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify external tools and show the effective configuration",
	Long:  "Checks that the muxing tool is installed, reports provider readiness, and prints the configuration covermux would run with.",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	RootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	mux := attacher.New(cfg.Mux, logger)
	if mux.IsAvailable() {
		version, err := mux.Version(cmd.Context())
		if err != nil {
			logger.Warn("could not read muxer version", "error", err)
			version = mux.Binary()
		}
		fmt.Printf("%s %s\n", StyleHeader.Render("muxer:"), StyleCommand.Render(version))
	} else {
		fmt.Printf("%s %s\n", StyleHeader.Render("muxer:"), StyleDim.Render(mux.Binary()+" not found on PATH"))
	}

	googleReady := cfg.Google.APIKey != "" && cfg.Google.CX != ""
	fmt.Printf("%s releasedates ready, googleimages %s\n",
		StyleHeader.Render("providers:"), readiness(googleReady))

	data, err := yaml.Marshal(redacted(cfg))
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	fmt.Printf("\n%s\n%s", StyleHeader.Render("effective config:"), string(data))

	if !mux.IsAvailable() {
		return fmt.Errorf("%s not found on PATH (install MKVToolNix)", mux.Binary())
	}
	return nil
}

func readiness(ok bool) string {
	if ok {
		return "ready"
	}
	return StyleDim.Render("missing credentials")
}

// redacted masks credentials before the config is printed.
func redacted(cfg types.GlobalConfig) types.GlobalConfig {
	if cfg.Google.APIKey != "" {
		cfg.Google.APIKey = "***"
	}
	return cfg
}
