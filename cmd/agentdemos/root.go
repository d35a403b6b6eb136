package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentdemos/agent"
	"github.com/hupe1980/agentdemos/examples"
	"github.com/hupe1980/agentdemos/fetch"
	"github.com/hupe1980/agentdemos/internal/config"
	"github.com/hupe1980/agentdemos/logging"
	"github.com/hupe1980/agentdemos/model"
)

// app carries the state shared by all subcommands after PersistentPreRunE.
type app struct {
	cfgFile  string
	provider string
	model    string
	verbose  bool

	cfg    *config.Config
	logger logging.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "agentdemos",
		Short: "Demo agents with concurrent tools",
		Long: `agentdemos ships a suite of small tool-using agents (greeting, calculator,
concurrent URL fetching, ping, research, math, memory and writing) and lets you call
their tools directly or run them against a language model.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: ./agentdemos.yaml)")
	root.PersistentFlags().StringVar(&a.provider, "provider", "", "model provider: openai, anthropic or mock")
	root.PersistentFlags().StringVar(&a.model, "model", "", "model name (provider default when empty)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newListCmd(a),
		newFetchCmd(a),
		newToolCmd(a),
		newRunCmd(a),
		newChatCmd(a),
	)

	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}

	if a.provider != "" {
		cfg.Provider = a.provider
	}
	if a.model != "" {
		cfg.Model = a.model
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = cfg.Logger()

	a.logger.Debug("cli.config.loaded",
		"command", cmd.Name(),
		"provider", cfg.Provider,
		"model", cfg.Model,
		"fetch_timeout", cfg.FetchTimeout.String(),
	)

	return nil
}

func (a *app) aggregator() *fetch.Aggregator {
	return fetch.New(func(o *fetch.Options) {
		o.Timeout = a.cfg.FetchTimeout
		o.Logger = a.logger
	})
}

func (a *app) catalog() *examples.Catalog {
	return examples.NewCatalog(func(o *examples.CatalogOptions) {
		o.Aggregator = a.aggregator()
	})
}

func (a *app) runner(m model.Model) *agent.Runner {
	return agent.NewRunner(m, func(o *agent.Options) {
		o.MaxTurns = a.cfg.MaxTurns
		o.MaxParallel = a.cfg.MaxParallel
		o.Window = a.cfg.Window()
		o.Logger = a.logger
	})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
