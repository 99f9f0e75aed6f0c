package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Set via ldflags at build time
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		if JSONOutput() {
			info := map[string]string{
				"version":    Version,
				"commit":     Commit,
				"build_date": BuildDate,
				"go_version": runtime.Version(),
				"os":         runtime.GOOS,
				"arch":       runtime.GOARCH,
				"config":     getConfigPath(),
			}
			out, _ := json.MarshalIndent(info, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "woodshed %s\n", Version)
		if Verbose() {
			fmt.Fprintf(w, "  commit:     %s\n", Commit)
			fmt.Fprintf(w, "  built:      %s\n", BuildDate)
			fmt.Fprintf(w, "  go version: %s\n", runtime.Version())
			fmt.Fprintf(w, "  platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
			fmt.Fprintf(w, "  config:     %s\n", getConfigPath())
			if cfg != nil {
				fmt.Fprintf(w, "  bookmarks:  %s\n", cfg.Bookmarks.Path)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
