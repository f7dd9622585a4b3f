// Package cli implements the basket command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/basket/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	verbose   bool
}

// app carries the state shared by one command tree invocation.
type app struct {
	flags rootFlags
	log   *logrus.Logger
}

// sysError marks an error as a system failure (exit code 2) rather than a
// user mistake.
type sysError struct{ err error }

func (e *sysError) Error() string { return e.err.Error() }
func (e *sysError) Unwrap() error { return e.err }

func system(format string, args ...any) error {
	return &sysError{err: fmt.Errorf(format, args...)}
}

// NewRootCmd creates the top-level "basket" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{log: logrus.New()}

	root := &cobra.Command{
		Use:   "basket",
		Short: "A persisted shopping cart",
		Long:  "Basket keeps a shopping cart of line items in a local or remote key-value store.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.log.SetOutput(cmd.ErrOrStderr())
			a.log.SetLevel(logrus.WarnLevel)
			if a.flags.verbose {
				a.log.SetLevel(logrus.DebugLevel)
			}
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&a.flags.verbose, "verbose", "v", false, "log store activity")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newAddCmd(a))
	root.AddCommand(newIncCmd(a))
	root.AddCommand(newDecCmd(a))
	root.AddCommand(newListCmd(a))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(NewRootCmd()))
}

// run executes root and maps its error to an exit code.
func run(root *cobra.Command) int {
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
	return exitCode(err)
}

func exitCode(err error) int {
	var se *sysError
	if errors.As(err, &se) {
		return exitSysError
	}
	if errors.Is(err, types.ErrCorruptPayload) {
		return exitSysError
	}
	return exitUserError
}
