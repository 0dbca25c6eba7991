package cmd

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var (
	appVersion    string
	buildTime     string
	versionOutput string
)

// SetVersion records build metadata and enables --version.
func SetVersion(v, bt string) {
	appVersion = v
	buildTime = bt
	rootCmd.Version = v
}

type versionInfo struct {
	Version   string `json:"version" yaml:"version"`
	BuildTime string `json:"build_time,omitempty" yaml:"build_time,omitempty"`
	Commit    string `json:"commit,omitempty" yaml:"commit,omitempty"`
	Modified  bool   `json:"modified,omitempty" yaml:"modified,omitempty"`
	Go        string `json:"go" yaml:"go"`
	Platform  string `json:"platform" yaml:"platform"`
}

func currentVersion() versionInfo {
	info := versionInfo{
		Version:   appVersion,
		BuildTime: buildTime,
		Go:        runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	// binaries built from a checkout carry the VCS state
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				info.Commit = s.Value
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
	}
	return info
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		v := currentVersion()
		return render(cmd.OutOrStdout(), versionOutput, v, func(w io.Writer) error {
			fmt.Fprintf(w, "Health-Console %s\n", v.Version)
			if v.BuildTime != "" {
				fmt.Fprintf(w, "Build Time: %s\n", v.BuildTime)
			}
			if v.Commit != "" {
				dirty := ""
				if v.Modified {
					dirty = " (modified)"
				}
				fmt.Fprintf(w, "Commit: %s%s\n", v.Commit, dirty)
			}
			_, err := fmt.Fprintf(w, "Go: %s %s\n", v.Go, v.Platform)
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	addOutputFlag(versionCmd, &versionOutput)
}
