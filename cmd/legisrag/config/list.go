package configcmder

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/legisrag/legisrag/pkg/config"
)

var (
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const listLongDesc string = `List all configuration values.

Shows every supported key with its current value, merging the config.toml
file with built-in defaults.

Example:
  legisrag config list`

const listShortDesc string = "List all configuration values"

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runList(configDir)
		},
	}

	return cmd
}

func runList(configDir string) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	for _, key := range config.ValidConfigKeys() {
		value, err := cfger.GetConfigValue(key)
		if err != nil {
			return err
		}

		if value == "" {
			fmt.Printf("%s = %s\n", keyStyle.Render(key), dimStyle.Render("(unset)"))
			continue
		}

		fmt.Printf("%s = %s\n", keyStyle.Render(key), valueStyle.Render(value))
	}

	return nil
}
