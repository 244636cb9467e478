package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/config"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/dbgobj"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/evalcoord"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/frame"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/history"
	"github.com/iantalarico/google-cloud-dotnet-debugger/internal/parser"
)

var (
	// Version is stamped at build time.
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"

	help    bool
	version bool
	// logging
	logLevel string
	logFile  string
	// config vars
	configPath string
	noPropEval bool
	vars       varFlags
)

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	// evaluator config
	flag.StringVar(&configPath, "config", "", "Path to a TOML configuration file")
	flag.BoolVar(&noPropEval, "no-property-eval", false, "Disable running property getters inside the target")
	flag.Var(&vars, "var", "Frame variable as name=kind:value (repeatable)")
	// log config
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
}

func main() {
	flag.Parse()

	if version {
		printVersion()
		return
	}
	if help {
		printHelp()
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg.Version = Version
	cfg.BuildDate = BuildDate
	cfg.Commit = Commit
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if noPropEval {
		cfg.PropertyEvaluation = false
	}

	loggerOptions := &slog.HandlerOptions{
		AddSource: false,
		Level:     logLevelFromString(cfg.LogLevel),
	}
	defaultLogger := slog.New(slog.NewJSONHandler(configureLogWriter(cfg.LogFile), loggerOptions))
	slog.SetDefault(defaultLogger)

	store, err := history.Open(cfg.History.Driver, cfg.History.DSN)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer store.Close()

	fr, err := vars.buildFrame()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	coord := evalcoord.New(noopController{})
	coord.SetPropertyEvaluation(cfg.PropertyEvaluation)
	if cfg.EvalTimeoutSeconds > 0 {
		coord.SetEvalTimeout(time.Duration(cfg.EvalTimeoutSeconds) * time.Second)
	}

	if flag.NArg() > 0 {
		// One-shot mode: every remaining argument is an expression.
		code := 0
		for _, src := range flag.Args() {
			if !evalOne(src, fr, coord, store) {
				code = 1
			}
		}
		os.Exit(code)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		evalOne(line, fr, coord, store)
	}
}

func evalOne(src string, fr *frame.Frame, coord *evalcoord.Coordinator, store *history.Store) bool {
	start := time.Now()
	factory := dbgobj.NewStandardFactory()
	var diagnostics bytes.Buffer

	result, err := func() (dbgobj.Object, error) {
		root, err := parser.Parse(src)
		if err != nil {
			return nil, err
		}
		if err := root.Compile(fr, &diagnostics); err != nil {
			return nil, err
		}
		return root.Evaluate(coord, factory, &diagnostics)
	}()

	rec := history.Record{
		Expression: src,
		Duration:   time.Since(start),
	}

	ok := err == nil
	if ok {
		rec.ResultKind = result.Kind().Name()
		rec.Result = result.Inspect()
		fmt.Printf("%s  (%s)\n", result.Inspect(), result.Kind().Name())
	} else {
		rec.Category = err.Error()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if diagnostics.Len() > 0 {
			fmt.Fprint(os.Stderr, diagnostics.String())
		}
	}

	if err := store.Append(context.Background(), rec); err != nil {
		slog.Warn("failed to record evaluation",
			slog.String("expression", src),
			slog.Any("error", err))
	}
	return ok
}

// noopController stands in for the runtime-control plumbing when the agent
// runs without an attached target. Resuming is a no-op; remote evaluations
// have nothing to run against and fail at handle creation.
type noopController struct{}

func (noopController) Continue(bool) error { return nil }

func configureLogWriter(logFile string) *os.File {
	var logWriter *os.File
	var err error
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create log directory for '%s': %v; falling back to stderr\n", logFile, err)
			return os.Stderr
		}
		logWriter, err = os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file '%s': %v; falling back to stderr\n", logFile, err)
			logWriter = os.Stderr
		}
	} else {
		logWriter = os.Stderr
	}
	return logWriter
}

func printVersion() {
	fmt.Printf("dotnet-debugger version 'v%s' %s %s\n", Version, BuildDate, Commit)
}

func printHelp() {
	fmt.Printf(`Usage: debugger [options] [expression ...]

Options:
  -config <path>       Load agent configuration from a TOML file.
  -var name=kind:value Add a variable to the evaluation frame (repeatable).
                       Kinds: bool, char, sbyte, byte, short, ushort, int,
                       uint, long, ulong, float, double, string.
  -no-property-eval    Disable running property getters inside the target.
  -help                Display this help information and exit.
  -version             Display version information and exit.
  -log-level <level>   Set the log level: debug, info, warn, error.
  -log-file <path>     Specify a log file to write logs. Default is stderr.

Details:
Evaluates C#-style expressions against a captured stack-frame snapshot.
With no expression arguments, expressions are read line by line from stdin.

Examples:
  debugger -var a=int:2 -var b=int:3 "a + b"
  debugger -var name=string:world '"hello" == name'

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, Version, BuildDate, Commit)
}

func logLevelFromString(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelError
	}
}
