// Command jmudserver is the process entry point: it parses CLI flags,
// wires signal handling, loads configuration and world data, and runs the
// NetworkEngine and GameEngine to completion. Grounded on
// udisondev-la2go/cmd/gameserver/main.go's run(ctx) shape, trimmed to this
// server's much smaller set of subsystems.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/jandersson-mud/jmudgo/internal/config"
	"github.com/jandersson-mud/jmudgo/internal/dataengine"
	"github.com/jandersson-mud/jmudgo/internal/gameengine"
	"github.com/jandersson-mud/jmudgo/internal/gamelog"
	"github.com/jandersson-mud/jmudgo/internal/netcore"
	"github.com/jandersson-mud/jmudgo/internal/settings"
	"github.com/jandersson-mud/jmudgo/internal/world"
)

const (
	defaultConfigPath   = "config/engine.yaml"
	defaultSettingsPath = "settings.ini"
)

func main() {
	os.Exit(mainWithStatus(os.Args[1:]))
}

// mainWithStatus implements the CLI contract: -h/--help prints usage and
// exits 0, -r/--run runs the server (also the default with no flags), and
// an unrecognized argument prints an error and exits -1.
func mainWithStatus(args []string) int {
	fs := flag.NewFlagSet("jmudserver", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		help         bool
		run          bool
		configPath   string
		settingsPath string
	)
	fs.BoolVar(&help, "h", false, "print usage and exit")
	fs.BoolVar(&help, "help", false, "print usage and exit")
	fs.BoolVar(&run, "r", false, "run the server (default)")
	fs.BoolVar(&run, "run", false, "run the server (default)")
	fs.StringVar(&configPath, "config", defaultConfigPath, "engine tuning config path")
	fs.StringVar(&settingsPath, "settings", defaultSettingsPath, "settings file path")

	if err := fs.Parse(args); err != nil {
		return -1
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "jmudserver: unrecognized argument %q\n", fs.Arg(0))
		fs.Usage()
		return -1
	}
	if help {
		fs.Usage()
		return 0
	}
	_ = run // absent flags already default to running

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signal.Ignore(syscall.SIGPIPE)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run1(ctx, configPath, settingsPath); err != nil {
		slog.Error("fatal", "err", err)
		return 1
	}
	return 0
}

func run1(ctx context.Context, configPath, settingsPath string) error {
	engineCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading engine config: %w", err)
	}

	log := gamelog.Setup(engineCfg.LogLevel, logFileOrNil(engineCfg.LogFile))
	log.Info("jmudserver starting", "config", configPath, "settings", settingsPath)

	st, err := settings.Load(settingsPath)
	if err != nil {
		log.Warn("settings file unavailable, continuing with engine config defaults", "path", settingsPath, "err", err)
		st = settings.New()
	}

	warnIgnoredMaxConnections(st, log)
	networkCfg := buildNetworkConfig(engineCfg, st, log)
	startingRoomVNum := settingsOverrideInt(st, "server.game.starting_room", engineCfg.StartingRoomVNum)
	worldDir := st.GetString("server.game.world", engineCfg.WorldDir)

	w, err := world.Load(gamelog.Component(log, "world"), worldDir, startingRoomVNum)
	if err != nil {
		return fmt.Errorf("loading world: %w", err)
	}
	log.Info("world ready", "start_room", w.StartRoom.VNum, "rooms", len(w.Rooms))

	network := netcore.New(gamelog.Component(log, "netcore"))
	if err := network.Initialize(networkCfg); err != nil {
		return fmt.Errorf("initializing network engine: %w", err)
	}

	data := dataengine.New(startingRoomVNum)
	engine := gameengine.New(gamelog.Component(log, "gameengine"), network, data)
	if engineCfg.CycleCount > 0 {
		engine.CycleCount = engineCfg.CycleCount
	}
	if err := engine.Initialize(); err != nil {
		return fmt.Errorf("initializing game engine: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return engine.Run(gctx)
	})

	return g.Wait()
}

// buildNetworkConfig derives a netcore.Config from the engine config,
// overridden by any matching settings.ini keys: the settings file is
// authoritative over the core's bind parameters whenever it sets one.
func buildNetworkConfig(cfg config.EngineConfig, st *settings.Settings, log *slog.Logger) netcore.Config {
	mode := netcore.PollEpoll
	if cfg.PollingMode == "select" {
		mode = netcore.PollSelect
	}

	listeners := make([]netcore.ListenAddress, 0, len(cfg.Listeners))
	for _, l := range cfg.Listeners {
		fam := netcore.FamilyIPv4
		if l.IPv6 {
			fam = netcore.FamilyIPv6
		}
		listeners = append(listeners, netcore.ListenAddress{
			Name:   l.Name,
			Family: fam,
			Host:   l.Bind,
			Port:   l.Port,
		})
	}

	if port := st.GetNumber("server.network.port"); port != 0 {
		for i := range listeners {
			listeners[i].Port = port
		}
	}
	if v4, ok := st.Get("server.network.ipv4"); ok {
		for i := range listeners {
			if listeners[i].Family == netcore.FamilyIPv4 {
				listeners[i].Host = v4
			}
		}
	}
	if v6, ok := st.Get("server.network.ipv6"); ok {
		found := false
		for i := range listeners {
			if listeners[i].Family == netcore.FamilyIPv6 {
				listeners[i].Host = v6
				found = true
			}
		}
		if !found {
			port := cfg.Listeners[0].Port
			if p := st.GetNumber("server.network.port"); p != 0 {
				port = p
			}
			listeners = append(listeners, netcore.ListenAddress{
				Name: "ipv6", Family: netcore.FamilyIPv6, Host: v6, Port: port,
			})
		}
	}

	strictBind := cfg.StrictBind
	if st.Has("server.network.strict_bind") {
		strictBind = st.IsEnabled("server.network.strict_bind")
	}

	log.Info("network configuration resolved", "listeners", len(listeners), "polling_mode", cfg.PollingMode, "strict_bind", strictBind)

	return netcore.Config{
		Listeners:   listeners,
		PollingMode: mode,
		StrictBind:  strictBind,
		Logger:      gamelog.Component(log, "netcore"),
	}
}

func settingsOverrideInt(st *settings.Settings, key string, def int) int {
	if st.IsNumeric(key) {
		return st.GetNumber(key)
	}
	return def
}

func logFileOrNil(path string) *os.File {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jmudserver: opening log file %q: %v\n", path, err)
		return nil
	}
	return f
}

// warnIgnoredMaxConnections logs when settings.ini sets
// server.network.max_connections: netcore derives MaxConnectionsTotal from
// the process's descriptor limits, so the key is accepted for forward
// compatibility but currently has no effect.
func warnIgnoredMaxConnections(st *settings.Settings, log *slog.Logger) {
	if st.Has("server.network.max_connections") {
		log.Warn("server.network.max_connections is set but not enforced; the limit is derived from OS descriptor limits")
	}
}
