package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

const version = "1.0.0"

func printVersion() {
	fmt.Printf("evdevaccel v%s\n", version)
	fmt.Println("Pointer acceleration for Linux evdev devices via uinput")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  evdevaccel [OPTIONS]")
	fmt.Println("  evdevaccel list-devices [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Grabs a relative pointing device, applies a velocity-sensitive")
	fmt.Println("  acceleration curve to its motion and re-emits it through a virtual")
	fmt.Println("  uinput device. Buttons, wheel and other events pass through unchanged.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Printf("        Config file, .toml or .yaml (default %q)\n", defaultConfigPath)
	fmt.Println()
	fmt.Println("  -device-name string")
	fmt.Println("        Exact name of the device to accelerate (default: config device.name,")
	fmt.Println("        or choose interactively)")
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default: config logging.level, \"info\")")
	fmt.Println()
	fmt.Println("  -dry-run")
	fmt.Println("        Do not grab the device or create a virtual device; log frames at debug level")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("  -help")
	fmt.Println("        Print this help message")
	fmt.Println()
	fmt.Println("SUBCOMMANDS:")
	fmt.Println("  list-devices")
	fmt.Println("        Print devices with horizontal and vertical relative axes")
	fmt.Println()
	fmt.Println("CONFIG:")
	fmt.Println("  sensitivity = 1.0    # required, > 0")
	fmt.Println("  accel = 0.5          # required, >= 0")
	fmt.Println("  pre_scale = 1.0      # required, > 0")
	fmt.Println("  post_scale = 1.0     # required, > 0")
	fmt.Println()
	fmt.Println("  [device]")
	fmt.Println("  name = \"Logitech G Pro\"")
	fmt.Println()
	fmt.Println("  [logging]")
	fmt.Println("  level = \"info\"")
	fmt.Println()
	fmt.Println("NOTES:")
	fmt.Println("  - Requires read access to /dev/input/event* and write access to /dev/uinput")
	fmt.Println("    (run as root or add user to the 'input' group)")
	fmt.Println("  - Meant to run under a supervisor; every error is fatal")
	fmt.Println()
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "list-devices" {
		os.Exit(runListDevicesSubcommand(os.Args[2:]))
	}

	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			printVersion()
			return
		}
		if arg == "-help" || arg == "--help" || arg == "-h" {
			printUsage()
			return
		}
	}

	var (
		configPath  = flag.String("config", defaultConfigPath, "Config file path (.toml or .yaml)")
		deviceName  = flag.String("device-name", "", "Exact name of the input device to accelerate")
		logLevelStr = flag.String("log-level", defaultLogLevel, "Log level: error, warn, info, debug")
		dryRun      = flag.Bool("dry-run", false, "Log frames instead of grabbing and injecting")
		showVersion = flag.Bool("version", false, "Print version and exit")
		showHelp    = flag.Bool("help", false, "Print help message")
	)

	flag.Usage = printUsage
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		printVersion()
		return
	}

	var overrides FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "device-name":
			overrides.DeviceName = deviceName
		case "log-level":
			overrides.LogLevel = logLevelStr
		}
	})

	// Used until the config file says otherwise.
	bootLevel, err := parseLogLevel(*logLevelStr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	// Logs go to stderr until a device is selected; stdout carries the prompt.
	logger := setupLogger(os.Stderr, bootLevel)

	cfg, err := loadConfig(*configPath, overrides)
	if err != nil {
		logFatal(logger, err)
		os.Exit(1)
	}

	level, _ := parseLogLevel(cfg.Logging.Level) // checked by Validate
	logger = setupLogger(os.Stderr, level)

	curve := cfg.Curve()
	logger.Info("config loaded",
		"path", ExpandPath(*configPath),
		"sensitivity", curve.Sensitivity,
		"accel", curve.Accel,
		"pre_scale", curve.PreScale,
		"post_scale", curve.PostScale)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, level, *dryRun, logger); err != nil {
		logFatal(logger, err)
		stop()
		os.Exit(1)
	}
	logger.Info("shutting down")
}

// run selects and opens the device and drives the accelerator until shutdown.
func run(ctx context.Context, cfg Config, level LogLevel, dryRun bool, logger *slog.Logger) error {
	info, err := pickDevice(listInputDevices, cfg.Device.Name, os.Stdin, os.Stdout, logger)
	if err != nil {
		return err
	}
	logger = setupLogger(os.Stdout, level)

	dev, err := openEvdevDevice(info.Path)
	if err != nil {
		return classify(ErrAcquisition, "open "+info.Path, err)
	}
	defer dev.Close()

	logger.Info("device selected",
		"device", info.Path,
		"name", info.Name,
		"rel_axes", len(info.Caps.Rel.codes()),
		"keys", len(info.Caps.Key.codes()),
		"msc", len(info.Caps.Msc.codes()),
		"dry_run", dryRun)

	opts := runOptions{
		Curve:   cfg.Curve(),
		Grab:    !dryRun,
		NewSink: newVirtualSink,
	}
	if dryRun {
		opts.NewSink = func(deviceCaps) (virtualSink, error) {
			return logSink{logger: logger}, nil
		}
	}

	return runAccelerator(ctx, dev, opts, logger)
}

// fatalTips maps each error class to a remedy hint.
var fatalTips = map[error]string{
	ErrConfiguration:   "config needs sensitivity, accel, pre_scale and post_scale (see -help)",
	ErrDeviceSelection: "run 'evdevaccel list-devices' to see eligible device names",
	ErrAcquisition:     "another process may hold the grab; run as root or add user to 'input' group",
	ErrEmission:        "check write access to /dev/uinput and that the uinput module is loaded",
	ErrCapture:         "the device may have been unplugged",
}

// logFatal reports a fatal error with its class and a remedy hint.
func logFatal(logger *slog.Logger, err error) {
	attrs := []any{"error", err}
	if kind := errorKind(err); kind != nil {
		attrs = append(attrs, "kind", kind.Error(), "tip", fatalTips[kind])
	}
	logger.Error("fatal", attrs...)
}

func printListDevicesUsage() {
	fmt.Printf("evdevaccel list-devices v%s\n", version)
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  evdevaccel list-devices [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Prints every input device exposing both REL_X and REL_Y, one per line")
	fmt.Println("  as: <index> <path> <name>. Use the name with -device-name.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
}

// runListDevicesSubcommand handles the list-devices subcommand and returns the exit code.
func runListDevicesSubcommand(args []string) int {
	fs := flag.NewFlagSet("list-devices", flag.ExitOnError)
	logLevelStr := fs.String("log-level", defaultLogLevel, "Log level: error, warn, info, debug")
	showHelp := fs.Bool("help", false, "Print help message")
	fs.Usage = printListDevicesUsage
	fs.Parse(args)

	if *showHelp {
		printListDevicesUsage()
		return 0
	}

	logLevel, err := parseLogLevel(*logLevelStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	logger := setupLogger(os.Stderr, logLevel)

	all, err := listInputDevices(func(path string, err error) {
		logger.Debug("skipping input device", "device", path, "error", err)
	})
	if err != nil {
		logFatal(logger, classify(ErrDeviceSelection, "enumerate input devices", err))
		return 1
	}
	devices := eligibleDevices(all)
	if len(devices) == 0 {
		logFatal(logger, fmt.Errorf("%w: no valid devices found (are you in the 'input' user group?)", ErrDeviceSelection))
		return 1
	}
	for i, d := range devices {
		fmt.Printf("%d\t%s\t%s\n", i, d.Path, d.displayName())
	}
	return 0
}
