package main

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/outofforest/parcel/internal/config"
)

type app struct {
	out     io.Writer
	cfgFile string
	verbose bool

	cfg    config.Config
	logger *log.Logger
}

func newRootCommand(out io.Writer) *cobra.Command {
	a := &app{
		out: out,
		cfg: config.Default(),
	}

	rootCmd := &cobra.Command{
		Use:   "parcel",
		Short: "Packages functions with their data into fixed-size slot pools",
		Long: `parcel packages a function together with a private copy of its data and
a zeroed workspace into a contiguous run of fixed-size slots. Packaged blocks
can be rerun, reset, refreshed or dispatched through a queue.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(a.demoCommand())
	rootCmd.AddCommand(a.statsCommand())

	return rootCmd
}

func (a *app) setup(_ *cobra.Command, _ []string) error {
	if a.cfgFile != "" {
		cfg, err := config.LoadConfig(a.cfgFile)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}

	level := a.cfg.Level()
	if a.verbose {
		level = log.DebugLevel
	}
	a.logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "parcel",
		Level:  level,
	})

	return nil
}
