package version

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/reshiftsecurity/reshift-scanner/internal/config"
)

var (
	AppConfig     *config.Config
	CoreVersion   = "unknown"
	GolangVersion = runtime.Version()
	BuildTime     = "unknown"
)

// Versions holds version information of the binary.
type Versions struct {
	Version       string `json:"version"`
	GolangVersion string `json:"golang_version"`
	BuildTime     string `json:"build_time"`
	ESLint        string `json:"eslint"`
	Npm           string `json:"npm"`
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// NewVersionCmd creates a new cobra.Command for the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "version",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Print the version number of the application and the tools it runs",
		Run: func(cmd *cobra.Command, args []string) {
			printVersionInfo(&Versions{
				Version:       CoreVersion,
				GolangVersion: GolangVersion,
				BuildTime:     BuildTime,
				ESLint:        config.ESLintPath(AppConfig),
				Npm:           config.NpmPath(AppConfig),
			})
		},
	}
}

// printVersionInfo prints the version information of the binary.
func printVersionInfo(versions *Versions) {
	fmt.Printf("Core Version: v%s\n", versions.Version)
	fmt.Println("Tools:")
	fmt.Printf("  eslint: %s\n", versions.ESLint)
	fmt.Printf("  npm: %s\n", versions.Npm)
	fmt.Printf("Go Version: %s\n", versions.GolangVersion)
	fmt.Printf("Build Time: %s\n", versions.BuildTime)
}
