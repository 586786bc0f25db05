// Command reportctl works with report workbooks offline: it renders blank
// input templates, encodes JSON payloads and decodes filled-in workbooks
// against a schema file.
package main

import (
	"os"

	"github.com/reportdesk/report-portal/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type options struct {
	schemaPath string
	logLevel   string
	log        *logrus.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "reportctl",
		Short: "Encode, decode and check report workbooks",
		Long: `reportctl converts between report payloads and xlsx workbooks using a
template schema stored as YAML or JSON.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.log = logging.New(opts.logLevel, false)
			opts.log.SetOutput(cmd.ErrOrStderr())
		},
	}
	rootCmd.PersistentFlags().StringVarP(&opts.schemaPath, "schema", "s", "", "template schema file (.yaml, .yml or .json)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	_ = rootCmd.MarkPersistentFlagRequired("schema")

	rootCmd.AddCommand(
		newCheckCmd(opts),
		newBlankCmd(opts),
		newEncodeCmd(opts),
		newDecodeCmd(opts),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
