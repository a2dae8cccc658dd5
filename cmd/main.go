package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"sesearch/internal/app"
	"sesearch/internal/cli/scheme/colours"
	"sesearch/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		colours.Error.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var ss *app.SourceSearch

	rootCmd := &cobra.Command{
		Use:   "sesearch",
		Short: "Find the scanned source page for a passage of an ebook",
		Long: `sesearch searches the scanned source of a Standard Ebooks production for a
passage of text. Sources are read from the dc:source entries of the ebook's
content.opf; Google Books, Internet Archive and HathiTrust are supported.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logrus.SetLevel(cfg.LogLevel)

			var err error
			ss, err = app.NewSourceSearch(app.Options{Config: cfg})
			return err
		},
	}

	searchCmd := &cobra.Command{
		Use:   "search [selection...]",
		Short: "Search the ebook's source scans for the selection",
		Long:  "Search the first recognized source scan for the selection. With no arguments the selection is read from stdin.",
		Run: func(cmd *cobra.Command, args []string) {
			ss.SearchSource(cmd, args)
		},
	}

	metadataCmd := &cobra.Command{
		Use:   "metadata <file>",
		Short: "Print the metadata file of the ebook containing file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ss.ShowMetadataPath(cmd, args)
		},
	}

	sourcesCmd := &cobra.Command{
		Use:   "sources <file>",
		Short: "List the source URLs of the ebook containing file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ss.ListSources(cmd, args)
		},
	}

	hathiCmd := &cobra.Command{
		Use:   "hathi <catalog-url>...",
		Short: "Resolve HathiTrust catalog records to scan identifiers",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ss.ResolveHathi(cmd, args)
		},
	}

	// Add flags
	rootCmd.PersistentFlags().String("format", "text", "Output format: text, json or yaml")
	rootCmd.PersistentFlags().String("browser", "auto", "Browser to open results with: auto, system or print")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level")
	viper.BindPFlag(config.KeyOutputFormat, rootCmd.PersistentFlags().Lookup("format"))
	viper.BindPFlag(config.KeyBrowserType, rootCmd.PersistentFlags().Lookup("browser"))
	viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))

	searchCmd.Flags().StringP("file", "f", "", "File being edited; used to locate the ebook metadata")
	searchCmd.Flags().StringArrayP("source", "s", nil, "Source URL to search instead of the metadata sources (repeatable)")
	searchCmd.Flags().Bool("no-open", false, "Print the search URLs instead of opening them")

	rootCmd.AddCommand(searchCmd, metadataCmd, sourcesCmd, hathiCmd)
	return rootCmd
}

// Configuration management with Viper
func init() {
	viper.SetConfigName("sesearch")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.sesearch")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("sesearch")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	config.SetDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			logrus.WithError(err).Warn("Failed to read config file")
		}
	}
}
