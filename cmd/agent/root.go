package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/chris/shopbot/config"
	"github.com/chris/shopbot/internal/agent"
	"github.com/chris/shopbot/internal/catalog"
	"github.com/chris/shopbot/internal/discord"
	"github.com/chris/shopbot/internal/llm"
	"github.com/chris/shopbot/internal/logging"
	"github.com/chris/shopbot/internal/metrics"
	"github.com/chris/shopbot/internal/tools"
)

// app is what every subcommand needs once configuration is loaded.
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	agent *agent.Agent
}

func newRootCmd() *cobra.Command {
	var a app
	cmd := &cobra.Command{
		Use:           "shopbot",
		Short:         "Answer shopping questions against the product catalog.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(logging.New("warn", ""))
			log := logging.New(cfg.LogLevel, cfg.LogFormat)

			ag, err := newAgent(cfg, log)
			if err != nil {
				log.Error().Err(err).Msg("starting agent")
				return err
			}
			a = app{cfg: cfg, log: log, agent: ag}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.chat(cmd)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "chat",
			Short: "Read prompts from stdin until exit, quit or EOF.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.chat(cmd)
			},
		},
		&cobra.Command{
			Use:   "ask <prompt>",
			Short: "Answer a single prompt and exit.",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), a.agent.HandlePrompt(cmd.Context(), strings.Join(args, " ")))
				return nil
			},
		},
		&cobra.Command{
			Use:   "discord",
			Short: "Answer direct messages and mentions on Discord.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.discord(cmd)
			},
		},
	)
	return cmd
}

func (a *app) chat(cmd *cobra.Command) error {
	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	return runChat(cmd.Context(), a.agent, cmd.InOrStdin(), cmd.OutOrStdout(), interactive)
}

func (a *app) discord(cmd *cobra.Command) error {
	if a.cfg.DiscordToken == "" {
		return errors.New("DISCORD_BOT_TOKEN is not set")
	}
	bot, err := discord.NewBot(a.cfg.DiscordToken, a.agent, a.log)
	if err != nil {
		a.log.Error().Err(err).Msg("starting Discord bot")
		return err
	}
	defer bot.Close()

	a.log.Info().Msg("bot is running, press Ctrl+C to exit")
	<-cmd.Context().Done()
	a.log.Info().Msg("shutting down")
	return nil
}

// newAgent wires the catalog, tools and LLM client described by cfg.
func newAgent(cfg *config.Config, log zerolog.Logger) (*agent.Agent, error) {
	m := serveMetrics(cfg.MetricsAddr, log)

	registry, err := tools.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("building tool registry: %w", err)
	}

	cat := catalog.NewClient(cfg.CatalogBaseURL, http.DefaultClient)
	resolver, err := catalog.NewResolver(cat, cfg.CategoryCacheTTL,
		catalog.WithFallback(cfg.FallbackCategory),
		catalog.WithLogger(log),
		catalog.WithMetrics(m),
	)
	if err != nil {
		return nil, fmt.Errorf("building category resolver: %w", err)
	}

	client, err := llm.NewClient(llm.ProviderConfig{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.APIKey(),
		BaseURL:  cfg.LLMBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating LLM client: %w", err)
	}

	return agent.New(client, tools.NewExecutor(registry, cat, resolver), registry.Tools(), agent.Options{
		RouterModel:   cfg.RouterModel,
		AnswerModel:   cfg.AnswerModel,
		ParallelTools: cfg.ParallelTools,
		Logger:        log,
		Metrics:       m,
	}), nil
}

// serveMetrics starts the /metrics listener. It returns nil when addr is empty.
func serveMetrics(addr string, log zerolog.Logger) *metrics.Metrics {
	if addr == "" {
		return nil
	}
	m := metrics.New(prometheus.NewRegistry())

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	log.Info().Str("addr", addr).Msg("serving metrics")
	return m
}
