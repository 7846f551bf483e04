// Package configcmder provides the config command for managing persistent
// legisrag configuration stored in the .legisrag/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent legisrag configuration.

Configuration is stored as config.toml in the .legisrag/ directory and
provides default values for command flags. CLI flags always take precedence
over config file values.

Keys use dotted notation matching the TOML section structure:
  storage.sqlite_path, api.listen,
  vector_store.provider, vector_store.target, vector_store.api_key,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  chunker.size, chunker.overlap,
  corpus.dir, corpus.collection, corpus.normalize_section_headers

Use subcommands to get, set, or list configuration values:
  legisrag config set <key> <value>    Set a configuration value
  legisrag config get <key>            Get a configuration value
  legisrag config list                 List all configuration values

Examples:
  legisrag config set vector_store.provider qdrant
  legisrag config set embedding.model nomic-embed-text
  legisrag config get corpus.collection
  legisrag config list`

const configShortDesc string = "Manage persistent legisrag configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
