/*
 * kbhookd - macOS keyboard hotkey dispatcher
 * License: MIT
 */
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kbhookd/kbhookd/config"
	"github.com/kbhookd/kbhookd/internal/dispatch"
	"github.com/kbhookd/kbhookd/internal/eventtap"
	"github.com/kbhookd/kbhookd/internal/executor"
	"github.com/kbhookd/kbhookd/internal/frontmost"
	"github.com/kbhookd/kbhookd/internal/keymap"
	"github.com/kbhookd/kbhookd/internal/langerr"
	"github.com/kbhookd/kbhookd/internal/langparser"
	"github.com/kbhookd/kbhookd/internal/pidfile"
	"github.com/kbhookd/kbhookd/internal/reload"
	"github.com/kbhookd/kbhookd/internal/service"
	"github.com/kbhookd/kbhookd/internal/synth"
	"github.com/kbhookd/kbhookd/internal/tracer"
	"github.com/kbhookd/kbhookd/utils"
	"github.com/kbhookd/kbhookd/version"
)

// Options is the parsed form of the command line, kept separate from
// flag.FlagSet so it can be built and asserted on in tests without
// touching os.Args.
type Options struct {
	ConfigPath       string
	Reload           bool
	Verbose          bool
	InstallService   bool
	UninstallService bool
	StartService     bool
	StopService      bool
	RestartService   bool
	Status           bool
	Validate         bool
	Version          bool

	configPathSet bool
}

// Parse builds an Options from args (typically os.Args[1:]), following
// the teacher's hand-rolled flag-parsing idiom: a ContinueOnError
// FlagSet so the caller controls exit behavior, plus fs.Visit to learn
// which flags were explicitly passed (needed for the flag>env>default
// priority chain config.Manager implements).
func Parse(args []string) (Options, error) {
	var opts Options
	fs := flag.NewFlagSet("kbhookd", flag.ContinueOnError)

	fs.StringVar(&opts.ConfigPath, "config", "", "path to the hotkey configuration file (default ~/.kbhookdrc)")
	fs.BoolVar(&opts.Reload, "reload", false, "watch the configuration file (and any .load'd files) and apply changes live")
	fs.BoolVar(&opts.Verbose, "verbose", false, "log every matched and forwarded event, and echo logs to stdout")
	fs.BoolVar(&opts.InstallService, "install-service", false, "install the launchd LaunchAgent and start it")
	fs.BoolVar(&opts.UninstallService, "uninstall-service", false, "stop and remove the launchd LaunchAgent")
	fs.BoolVar(&opts.StartService, "start-service", false, "start the installed launchd LaunchAgent")
	fs.BoolVar(&opts.StopService, "stop-service", false, "stop the installed launchd LaunchAgent")
	fs.BoolVar(&opts.RestartService, "restart-service", false, "restart the installed launchd LaunchAgent")
	fs.BoolVar(&opts.Status, "status", false, "report whether the LaunchAgent is installed and the dispatcher is alive")
	fs.BoolVar(&opts.Validate, "validate", false, "parse the configuration file and report errors without running the dispatcher")
	fs.BoolVar(&opts.Version, "version", false, "print version information and exit")
	fs.BoolVar(&opts.Version, "v", false, "shorthand for --version")

	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			opts.configPathSet = true
		}
	})
	return opts, nil
}

func main() {
	opts, err := Parse(os.Args[1:])
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	if opts.Version {
		v, commit, buildDate := version.GetBuildInfo()
		fmt.Printf("kbhookd %s (commit %s, built %s)\n", v, commit, buildDate)
		return
	}

	envFilePath := os.Getenv("KBHOOKD_DOTENV")
	if envFilePath == "" {
		envFilePath = ".env"
	}
	if err := godotenv.Load(envFilePath); err != nil && !os.IsNotExist(err) {
		fmt.Printf("warning: could not load %s: %v\n", envFilePath, err)
	}

	// Load the operational configuration before the logger so
	// KBHOOKD_LOG_LEVEL can reach InitializeLogger through LOG_LEVEL;
	// config.Global is rebuilt with the real logger once it exists.
	config.Global = config.New(zap.NewNop())
	config.Global.Load()
	if opts.configPathSet {
		config.Global.Set("KBHOOKD_CONFIG", opts.ConfigPath)
	}

	if opts.Verbose {
		os.Setenv("LOG_LEVEL", "debug")
	} else if lvl := config.Global.GetString("KBHOOKD_LOG_LEVEL"); lvl != "" {
		os.Setenv("LOG_LEVEL", lvl)
	}

	logger, err := utils.InitializeLogger()
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	utils.LogStartupInfo(logger)

	config.Global.Reload(logger)
	if opts.configPathSet {
		config.Global.Set("KBHOOKD_CONFIG", opts.ConfigPath)
	}

	configPath, err := utils.ExpandPath(config.Global.GetString("KBHOOKD_CONFIG"))
	if err != nil {
		logger.Fatal("could not resolve configuration path", zap.Error(err))
	}

	home, err := os.UserHomeDir()
	if err != nil {
		logger.Fatal("could not resolve home directory", zap.Error(err))
	}
	svcManager := service.New(home, configPath)

	switch {
	case opts.InstallService:
		runServiceAction(logger, "install", svcManager.Install)
		return
	case opts.UninstallService:
		runServiceAction(logger, "uninstall", svcManager.Uninstall)
		return
	case opts.StartService:
		runServiceAction(logger, "start", svcManager.Start)
		return
	case opts.StopService:
		runServiceAction(logger, "stop", svcManager.Stop)
		return
	case opts.RestartService:
		runServiceAction(logger, "restart", svcManager.Restart)
		return
	case opts.Status:
		printStatus(svcManager)
		return
	}

	keys := keymap.NewKeyTable(keymap.BuildLayoutMap())

	if opts.Validate {
		os.Exit(runValidate(keys, configPath))
	}

	table, err := langparser.Parse(keys, readConfigFile, configPath)
	if err != nil {
		logger.Fatal("failed to parse configuration", zap.Error(err))
	}
	logger.Info("configuration loaded",
		zap.String("path", configPath),
		zap.Int("modes", len(table.Modes)),
		zap.Int("loaded_files", len(table.LoadedFiles)),
	)

	tr := tracer.New(logger)
	metricsAddr := config.Global.GetString("KBHOOKD_METRICS_ADDR")
	var metricsServer *tracer.Server
	if metricsAddr != "" {
		metricsServer = tracer.NewServer(tr, metricsAddr, logger)
		metricsServer.Start()
		defer metricsServer.Stop()
	}

	runner := executor.NewOSRunner(logger)
	fm := frontmost.NewLookup()
	sy := synth.NewSynthesizer()

	engine := dispatch.New(dispatch.Config{
		Frontmost: fm,
		Synth:     sy,
		Exec:      runner,
		Tracer:    tr,
		Logger:    logger,
		Verbose:   opts.Verbose,
	})
	engine.SetTable(table)

	var reloadCtl *reload.Controller
	stopReload := make(chan struct{})
	if opts.Reload {
		reloadCtl, err = reload.New(configPath, keys, engine, tr, logger)
		if err != nil {
			logger.Fatal("failed to start configuration watcher", zap.Error(err))
		}
		defer reloadCtl.Close()
		// Reload re-parses and swaps the table itself; it also
		// establishes the initial watch set, so a plain SetTable above
		// would leave every file unwatched until the first edit.
		reloadCtl.Reload()
		go reloadCtl.Start(stopReload)
	}

	pidPath := pidfile.Path()
	if err := pidfile.Write(pidPath); err != nil {
		logger.Warn("failed to write pid file", zap.String("path", pidPath), zap.Error(err))
	}
	defer func() {
		if err := pidfile.Remove(pidPath); err != nil {
			logger.Warn("failed to remove pid file", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM, syscall.SIGUSR1)
	go func() {
		for sig := range signals {
			switch sig {
			case syscall.SIGUSR1:
				if reloadCtl != nil {
					logger.Info("received SIGUSR1, reloading configuration out-of-band")
					reloadCtl.Reload()
				}
			default:
				logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
				if opts.Reload {
					close(stopReload)
				}
				logSummary(logger, tr)
				cancel()
				return
			}
		}
	}()

	tap := eventtap.NewTap()
	if err := tap.Run(ctx, engine.Handle); err != nil && ctx.Err() == nil {
		logger.Fatal("event tap failed", zap.Error(err))
	}
}

func readConfigFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// runValidate parses configPath without attaching a dispatcher,
// printing a success summary or a structured parse error. Returns the
// process exit code.
func runValidate(keys *keymap.KeyTable, configPath string) int {
	table, err := langparser.Parse(keys, readConfigFile, configPath)
	if err != nil {
		if lerr, ok := err.(*langerr.Error); ok {
			fmt.Printf("%s:%d:%d: %s: %s\n", lerr.File, lerr.Line, lerr.Col, lerr.Kind, lerr.Message)
		} else {
			fmt.Println(err)
		}
		return 1
	}
	hotkeys := 0
	for _, m := range table.Modes {
		hotkeys += len(m.Hotkeys())
	}
	fmt.Printf("ok: %s (%d modes, %d hotkeys, %d files)\n", configPath, len(table.Modes), hotkeys, len(table.LoadedFiles))
	return 0
}

func printStatus(m *service.Manager) {
	st := m.Status()
	fmt.Printf("service installed: %v\n", st.PlistInstalled)
	if st.Alive {
		fmt.Printf("dispatcher running: yes (pid %d)\n", st.PID)
	} else {
		fmt.Println("dispatcher running: no")
	}
}

func runServiceAction(logger *zap.Logger, name string, action func() error) {
	if err := action(); err != nil {
		logger.Fatal("service action failed", zap.String("action", name), zap.Error(err))
	}
	fmt.Printf("service %s: ok\n", name)
}

func logSummary(logger *zap.Logger, tr *tracer.Tracer) {
	for name, value := range tr.Summary() {
		logger.Info("metric summary", zap.String("metric", name), zap.Float64("value", value))
	}
}
