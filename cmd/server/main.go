// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19tube/internal/api/status"
	"github.com/osa030/19tube/internal/app/authz"
	"github.com/osa030/19tube/internal/app/dispatch"
	"github.com/osa030/19tube/internal/app/filter"
	"github.com/osa030/19tube/internal/app/notification"
	"github.com/osa030/19tube/internal/app/playback"
	"github.com/osa030/19tube/internal/app/player"
	"github.com/osa030/19tube/internal/app/resolver"
	"github.com/osa030/19tube/internal/infra/config"
	"github.com/osa030/19tube/internal/infra/discord"
	"github.com/osa030/19tube/internal/infra/logger"
	"github.com/osa030/19tube/internal/infra/ytdlp"
)

var (
	app        = kingpin.New("19tube-server", "19tube chat-driven video queue")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// list-filters command
	listFiltersCmd = app.Command("list-filters", "List available filters and exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the bot (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listFiltersCmd.FullCommand() {
		printFilters(os.Stdout)
		return
	}

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = "file"
		loggerConfig.File = *logfile
	}
	logCloser, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logCloser.Close()

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	policy := authz.NewPolicy(cfg.Bot.MaintainerID, cfg.Bot.ControlGroupID)

	var playerOutput io.Writer
	if *verbose {
		lw := logger.NewLineWriter("player")
		defer lw.Flush()
		playerOutput = lw
	}
	driver := player.NewProcessDriver(player.Config{
		Command:   cfg.Player.Command,
		Args:      cfg.Player.Args,
		StopGrace: cfg.Player.StopGrace(),
		Output:    playerOutput,
	})
	defer driver.Close()

	ctrl := playback.NewController(playback.Config{}, driver, policy)

	chain, err := filter.Build(filterSettings(cfg), ctrl)
	if err != nil {
		return errors.Wrap(err, "invalid filter config")
	}

	res := resolver.New(nil)
	if cfg.Resolver.Probe {
		zlog.Info().Msg("Link probing with yt-dlp enabled")
		res = resolver.New(ytdlp.New(ytdlp.Config{
			AutoInstall: cfg.Resolver.AutoInstall,
			Timeout:     cfg.Resolver.ProbeTimeout(),
		}))
	}

	gateway, err := discord.New(cfg.Bot.Token)
	if err != nil {
		return err
	}

	history := notification.NewHistory(50)
	notifier := notification.NewManager(0)
	chatStream := notification.NewChatStream(gateway, policy.ControlGroupID(), 10*time.Second)
	chatSub := notifier.Subscribe(chatStream)
	notifier.Subscribe(history)
	defer notifier.Close()

	dispatcher := dispatch.New(ctrl, res, chain, policy, gateway, cfg)

	var wg sync.WaitGroup

	ctrlErrCh := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		ctrlErrCh <- ctrl.Run(ctx)
	}()

	announcerDone := make(chan struct{})
	go func() {
		defer close(announcerDone)
		notification.NewAnnouncer(notifier).Run(context.Background(), ctrl.Events())
	}()

	gatewayErrCh := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		gatewayErrCh <- gateway.Run(ctx, dispatcher)
	}()

	var server *http.Server
	serverErrCh := make(chan error, 1)
	if cfg.Server.Addr != "" {
		server = status.NewServer(cfg.Server.Addr, status.NewRouter(ctrl, history))
		go func() {
			zlog.Info().Msgf("Starting status server: addr=%s", cfg.Server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErrCh <- err
			}
		}()
	} else {
		zlog.Info().Msg("Status server disabled")
	}

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	var runErr error
	select {
	case <-ctx.Done():
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-gatewayErrCh:
		runErr = errors.Wrap(err, "chat gateway")
		if err == nil {
			runErr = errors.New("chat gateway stopped unexpectedly")
		}
	case err := <-ctrlErrCh:
		runErr = errors.Wrap(err, "playback controller")
	case err := <-serverErrCh:
		runErr = errors.Wrap(err, "status server")
	}

	// Stops the controller (and any live player) and the gateway
	stop()
	wg.Wait()
	ctrl.Close()
	<-announcerDone
	notifier.Unsubscribe(chatSub)
	chatStream.Close()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zlog.Error().Msgf("Failed to shutdown server: %v", err)
		}
	}

	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return runErr
}

// filterSettings converts the filter section of the config.
func filterSettings(cfg *config.Config) map[string]filter.Settings {
	out := make(map[string]filter.Settings, len(cfg.Filters))
	for name, f := range cfg.Filters {
		out[name] = filter.Settings{Enabled: f.Enabled, Settings: f.Settings}
	}
	return out
}

// printFilters prints available filters.
func printFilters(w io.Writer) {
	registry := filter.GetRegistered()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "Available Filters:")
	for _, name := range names {
		f := registry[name](nil)
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Fprintf(w, "  %-30s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
