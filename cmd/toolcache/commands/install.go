package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/toolcache/internal/core/domain"
)

// inputEnv returns the GitHub Actions input variable for a flag name.
func inputEnv(name string) string {
	return "INPUT_" + strings.ToUpper(name)
}

func (c *CLI) newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install a Go tool, building it only when it is not cached",
		Long: "Install resolves the requested version, reuses a cached build when one exists " +
			"and otherwise builds the module with `go install`. The cache directory is added " +
			"to the search path and the resolved version is published as the `version` output.\n\n" +
			"Every flag defaults to the matching INPUT_<NAME> environment variable.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			module, _ := flags.GetString("module")
			version, _ := flags.GetString("version")
			name, _ := flags.GetString("name")
			cgoInput, _ := flags.GetString("cgo")
			buildFlags, _ := flags.GetString("flags")
			ldflags, _ := flags.GetString("ldflags")
			tags, _ := flags.GetString("tags")

			cgo, ok := domain.ParseCgo(cgoInput)
			if !ok {
				c.app.Warn(fmt.Sprintf("ignoring cgo value %q, expected 'true' or 'false'", cgoInput))
			}

			_, err := c.app.Install(cmd.Context(), domain.InstallRequest{
				Module:   strings.TrimSpace(module),
				Version:  strings.TrimSpace(version),
				ToolName: strings.TrimSpace(name),
				Flags:    buildFlags,
				LDFlags:  ldflags,
				Tags:     tags,
				CGO:      cgo,
			})
			return err
		},
	}

	cmd.Flags().StringP("module", "m", os.Getenv(inputEnv("module")), "Module path of the command to install")
	cmd.Flags().String("version", os.Getenv(inputEnv("version")), "Version to install, or 'latest'")
	cmd.Flags().StringP("name", "n", os.Getenv(inputEnv("name")), "Tool name, derived from the module path when empty")
	cmd.Flags().String("cgo", os.Getenv(inputEnv("cgo")), "Set to 'false' to build with CGO_ENABLED=0")
	cmd.Flags().String("flags", os.Getenv(inputEnv("flags")), "Extra whitespace-separated go install flags")
	cmd.Flags().String("ldflags", os.Getenv(inputEnv("ldflags")), "Linker flags passed as -ldflags")
	cmd.Flags().String("tags", os.Getenv(inputEnv("tags")), "Build tags passed as -tags")

	return cmd
}
