package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dalnet/ircc/internal/config"
	"github.com/dalnet/ircc/internal/irc"
	"github.com/dalnet/ircc/internal/logger"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"
	"golang.org/x/term"
)

// Version information - set at build time via ldflags
var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

func main() {
	configPath := flag.StringP("config", "c", "./config.yaml", "Path to configuration file (.yaml or .toml)")
	envFile := flag.String("env-file", ".env", "Optional file of IRCC_* variables")
	askPass := flag.Bool("ask-pass", false, "Prompt for the server password")
	server := flag.StringP("server", "s", "", "Override the server from the config file")
	nick := flag.StringP("nick", "n", "", "Override the nick from the config file")
	channels := flag.StringSliceP("join", "j", nil, "Channels to join after registration")
	logLevel := flag.String("log-level", "", "trace, debug, info, warn or error")
	showVersion := flag.BoolP("version", "v", false, "Show version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("ircc version %s\n", version)
		fmt.Printf("Built: %s\n", buildDate)
		fmt.Printf("Commit: %s\n", gitCommit)
		os.Exit(0)
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath, flag.CommandLine.Changed("config"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ApplyEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid environment: %v\n", err)
		os.Exit(1)
	}
	if *server != "" {
		cfg.Server = *server
	}
	if *nick != "" {
		cfg.Nick = *nick
	}
	if len(*channels) > 0 {
		cfg.Channels = *channels
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *askPass {
		pass, err := readPassword()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read password: %v\n", err)
			os.Exit(1)
		}
		cfg.ServerPass = pass
	}

	log := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("Exiting", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads path. A missing default file is not an error: the
// environment and flags can supply everything.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil && !explicit && errors.Is(err, os.ErrNotExist) {
		return &config.Config{}, nil
	}
	return cfg, err
}

func run(cfg *config.Config, log *slog.Logger) error {
	client, err := irc.NewClient(cfg, irc.WithLogger(log))
	if err != nil {
		return fmt.Errorf("failed to create IRC client: %w", err)
	}
	registerHandlers(client, cfg, log)

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, log)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Connecting", "server", cfg.Server, "port", cfg.Port, "tls", cfg.TLS)
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	select {
	case <-client.Done():
		return nil
	case <-ctx.Done():
	}

	log.Info("Received shutdown signal, quitting")
	if err := client.Quit("Received shutdown signal"); err != nil && !errors.Is(err, irc.ErrNotConnected) {
		log.Warn("Failed to send QUIT", "error", err)
	}
	select {
	case <-client.Done():
	case <-time.After(5 * time.Second):
		log.Warn("Server did not close the connection, closing it")
	}
	return client.Close()
}

// registerHandlers wires the application policy on top of the client
// events: joining channels once registered, falling back to the alternate
// nick and logging what happens on the network.
func registerHandlers(client *irc.Client, cfg *config.Config, log *slog.Logger) {
	client.AddCallback("001", func(irc.Event) {
		log.Info("Registered", "nick", client.CurrentNick())
		for _, ch := range cfg.Channels {
			if err := client.Join(ch); err != nil {
				log.Warn("Failed to join", "channel", ch, "error", err)
			}
		}
	})

	client.AddCallback(irc.EventJoined, func(e irc.Event) {
		ch := e.(*irc.JoinedEvent).Channel
		log.Info("Joined", "channel", ch)
		if err := client.Names(ch); err != nil {
			log.Warn("Failed to request names", "channel", ch, "error", err)
		}
	})

	client.AddCallback(irc.EventTopic, func(e irc.Event) {
		t := e.(*irc.TopicEvent)
		log.Info("Topic", "channel", t.Channel, "topic", t.Topic)
	})

	client.AddCallback(irc.EventNames, func(e irc.Event) {
		n := e.(*irc.NamesEvent)
		log.Info("Names", "channel", n.Channel, "count", len(n.Names), "names", strings.Join(n.Names, " "))
	})

	client.AddCallback(irc.EventMessage, func(e irc.Event) {
		m := e.(*irc.MessageEvent)
		log.Info("Message", "from", m.Source, "to", m.Target, "text", m.Text)
	})

	client.AddCallback(irc.EventNotice, func(e irc.Event) {
		n := e.(*irc.NoticeEvent)
		log.Info("Notice", "from", n.Source, "to", n.Target, "text", n.Text)
	})

	client.AddCallback(irc.EventNicknameInUse, func(irc.Event) {
		if cfg.Alternate == "" || client.CurrentNick() == cfg.Alternate {
			log.Warn("Nick in use and no alternate left")
			return
		}
		log.Info("Nick in use, switching to alternate", "nick", cfg.Alternate)
		if err := client.SetNick(cfg.Alternate); err != nil {
			log.Warn("Failed to change nick", "error", err)
		}
	})

	client.AddCallback(irc.EventReconnecting, func(e irc.Event) {
		log.Info("Reconnecting", "attempt", e.(*irc.ReconnectingEvent).Attempt)
	})

	client.AddCallback(irc.EventReconnectFailed, func(e irc.Event) {
		f := e.(*irc.ReconnectFailedEvent)
		log.Error("Reconnect failed", "error", f.Err, "after", f.Duration)
	})
}

func readPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Server password: ")
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pass), nil
}

func serveMetrics(addr string, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	log.Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Metrics server stopped", "error", err)
	}
}
