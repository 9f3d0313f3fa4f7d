package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/dhamidi/plugintools/build"
	"github.com/dhamidi/plugintools/config"
	"github.com/dhamidi/plugintools/metrics"
)

var version = "0.1.0"

var log = commonlog.GetLogger("plugintools")

// globals are the persistent flags shared by every command.
type globals struct {
	configPath  string
	verbosity   int
	logFile     string
	metricsFile string

	cfg *config.Config
}

// session opens a build session over the loaded configuration.
func (g *globals) session() (*build.Session, error) {
	return build.NewSession(g.cfg)
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	rootCmd := &cobra.Command{
		Use:          "plugintools",
		Short:        "Extract Maven plugin descriptors from compiled classes and javadoc",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var path *string
			if g.logFile != "" {
				path = &g.logFile
			}
			commonlog.Configure(g.verbosity, path)

			cfg, err := config.Load(g.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("metrics-file") {
				cfg.Metrics.Textfile = g.metricsFile
			}
			g.cfg = cfg
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if g.cfg == nil || g.cfg.Metrics.Textfile == "" {
				return nil
			}
			path := g.cfg.Path(g.cfg.Metrics.Textfile)
			if err := metrics.WriteTextfile(path); err != nil {
				return err
			}
			log.Debugf("wrote metrics to %s", path)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&g.configPath, "config", "c", "", "configuration file (default ./"+config.FileName+")")
	flags.CountVarP(&g.verbosity, "verbose", "v", "log more, repeat for debug output")
	flags.StringVar(&g.logFile, "log-file", "", "write logs to this file instead of stderr")
	flags.StringVar(&g.metricsFile, "metrics-file", "", "write prometheus metrics to this file on exit")

	rootCmd.AddCommand(newDescriptorCmd(g))
	rootCmd.AddCommand(newResolveCmd(g))
	rootCmd.AddCommand(newLinkCmd(g))
	rootCmd.AddCommand(newSitesCmd(g))
	rootCmd.AddCommand(newReportCmd(g))
	rootCmd.AddCommand(newLSPCmd(g))
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
