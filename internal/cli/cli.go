package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/sagagrid/internal/app"
	"github.com/specialistvlad/sagagrid/internal/engine"
	"github.com/specialistvlad/sagagrid/internal/taskmode"
	"github.com/specialistvlad/sagagrid/internal/testconfig"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("sagagrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
sagagrid - submit jobs to local and remote resource managers.

Usage:
  sagagrid [options] [JOB_PATH]

Arguments:
  JOB_PATH
    Path to a single .hcl job description or a directory containing them.

Options:
`)
		flagSet.PrintDefaults()
	}

	urlFlag := flagSet.String("url", "", "Resource manager URL, e.g. fork://localhost or sio://host:3000.")
	uFlag := flagSet.String("u", "", "Resource manager URL (shorthand).")
	adaptorFlag := flagSet.String("adaptor", "", "Use the named adaptor instead of resolving by scheme.")
	modeFlag := flagSet.String("mode", "notask", "Service creation mode. Options: 'notask', 'sync', 'async', 'task'.")
	testConfigFlag := flagSet.String("test-config", "", "HCL file with service URL, security context and job parameters.")
	categoryFlag := flagSet.String("category", testconfig.DefaultCategory, "Category to read from the test config.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	maxBindsFlag := flagSet.Int("max-binds", engine.DefaultMaxConcurrentBinds, "Maximum concurrent adaptor constructions and job submissions.")
	listFlag := flagSet.Bool("list", false, "List the jobs known to the resource manager.")
	listAdaptorsFlag := flagSet.Bool("list-adaptors", false, "Print the registered adaptors and exit.")
	noWaitFlag := flagSet.Bool("no-wait", false, "Return after submitting instead of waiting for jobs to finish.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError("%s", err.Error())
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() > 1 {
		return nil, false, usageError("expected at most one JOB_PATH, got %d", flagSet.NArg())
	}
	jobPath := flagSet.Arg(0)
	rmURL := *urlFlag
	if rmURL == "" {
		rmURL = *uFlag
	}

	if jobPath == "" && !*listFlag && !*listAdaptorsFlag {
		slog.Debug("Nothing to do, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, usageError("invalid log-format: must be 'text' or 'json'")
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}

	mode, err := taskmode.Parse(*modeFlag)
	if err != nil {
		return nil, false, usageError("invalid mode: %v", err)
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		URL:             rmURL,
		Adaptor:         *adaptorFlag,
		Mode:            mode,
		JobPath:         jobPath,
		TestConfig:      *testConfigFlag,
		Category:        *categoryFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		HealthcheckPort: *healthPortFlag,
		MaxBinds:        *maxBindsFlag,
		List:            *listFlag,
		ListAdaptors:    *listAdaptorsFlag,
		NoWait:          *noWaitFlag,
	})
	if err != nil {
		return nil, false, usageError("%s", err.Error())
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
