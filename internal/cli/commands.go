// Package cli implements the checkout command line: a sandbox sessions server and
// commands that drive a session flow step by step, persisting the session between
// invocations.
package cli

import (
	"errors"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/adyen/checkout-sessions-go/internal/common/logtrace"
	"github.com/adyen/checkout-sessions-go/internal/config"
)

var ErrAlreadyHandled = errors.New("already handled")

var okLabel = color.New(color.FgGreen)
var warnLabel = color.New(color.FgYellow)
var errorLabel = color.New(color.FgRed)

// options carries global flags and the loaded configuration to every command.
type options struct {
	jsonOutput bool
	configFile string
	logLevel   string

	cfg *config.Config
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	o := &options{}
	rootCmd := &cobra.Command{
		Use:   "checkout [command] [flags]",
		Short: "Checkout sessions CLI - drive a checkout session against a sessions API",
		Long: `Checkout sessions CLI drives a checkout session one call at a time.
The session token and the takeover flag are saved after every call, so a flow
can be continued across invocations.

Examples:
  # Run a local sandbox
  checkout sandbox serve

  # Create a session on the sandbox and set it up
  checkout session create --amount 1000 --currency EUR
  checkout session setup CS1234 Ab02b4c0!...

  # Pay with the payment method in payment.yaml
  checkout session pay -s CS1234 -f payment.yaml`,
		PersistentPreRunE: o.preRun,
		SilenceErrors:     true, // Execute prints errors
		SilenceUsage:      true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&o.configFile, "config", "", "", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&o.jsonOutput, "json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVarP(&o.logLevel, "log-level", "", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(o.newVersionCmd())
	rootCmd.AddCommand(o.newSandboxCmd())
	rootCmd.AddCommand(o.newSessionCmd())
	return rootCmd
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	rootCmd := NewRootCmd()
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	if !errors.Is(err, ErrAlreadyHandled) {
		jsonOutput, _ := rootCmd.PersistentFlags().GetBool("json")
		if jsonOutput {
			printJSON(os.Stdout, map[string]string{"error": err.Error()})
		} else {
			errorLabel.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	os.Exit(1)
}

// preRun loads the configuration and sets up logging.
func (o *options) preRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return err
	}
	o.cfg = cfg
	level := cfg.LogLevel
	if o.logLevel != "" {
		level = o.logLevel
	}
	logtrace.InitLogger(level)
	return nil
}
