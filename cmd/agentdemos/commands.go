package main

import (
	"bufio"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hupe1980/agentdemos/agent"
	"github.com/hupe1980/agentdemos/core"
	"github.com/hupe1980/agentdemos/session"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the demo agents and their tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog := a.catalog()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "AGENT\tTOOLS\tDESCRIPTION")

			for _, name := range catalog.Names() {
				ag, err := catalog.Get(name)
				if err != nil {
					return err
				}

				toolNames := make([]string, 0, len(ag.Tools))
				for _, t := range ag.Tools {
					toolNames = append(toolNames, t.Name())
				}

				fmt.Fprintf(tw, "%s\t%s\t%s\n", ag.Name, strings.Join(toolNames, ", "), ag.Description)
			}

			return tw.Flush()
		},
	}
}

func newFetchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch URL...",
		Short: "Fetch URLs concurrently and print the aggregated report as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.aggregator().RunBatch(cmd.Context(), args)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
}

func newToolCmd(a *app) *cobra.Command {
	var rawArgs string

	cmd := &cobra.Command{
		Use:   "tool AGENT TOOL",
		Short: "Call a single tool of an agent with JSON arguments",
		Example: `  agentdemos tool calculator-agent add --args '{"a": 2, "b": 3}'
  agentdemos tool async-tools-agent fetch_multiple_urls --args '{"urls": ["https://example.com"]}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ag, err := a.catalog().Get(args[0])
			if err != nil {
				return err
			}

			registry, err := ag.Registry()
			if err != nil {
				return err
			}

			toolCtx := core.NewToolContext(cmd.Context(), "cli_"+uuid.NewString(), func(o *core.ToolContextOptions) {
				o.AgentName = ag.Name
				o.Logger = a.logger
			})

			result, err := registry.Call(toolCtx, args[1], rawArgs)
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&rawArgs, "args", "{}", "tool arguments as a JSON object")

	return cmd
}

func newRunCmd(a *app) *cobra.Command {
	var showTools bool

	cmd := &cobra.Command{
		Use:   "run AGENT PROMPT...",
		Short: "Run an agent against the configured model provider",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ag, err := a.catalog().Get(args[0])
			if err != nil {
				return err
			}

			m, err := newModel(a.cfg)
			if err != nil {
				return err
			}

			res, err := a.runner(m).Run(cmd.Context(), ag, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if showTools {
				printToolCalls(cmd, res)
			}

			fmt.Fprintln(out, res.Output)

			return nil
		},
	}

	cmd.Flags().BoolVar(&showTools, "show-tools", false, "print every executed tool call")

	return cmd
}

func newChatCmd(a *app) *cobra.Command {
	var (
		showTools bool
		sessionID string
	)

	cmd := &cobra.Command{
		Use:   "chat AGENT",
		Short: "Chat with an agent, one prompt per line, until EOF or /exit",
		Long: `chat keeps a conversation session so the agent sees earlier turns.
How much history is replayed is controlled by the memory settings
(memory.strategy: token_window, last_n_messages or stateless).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ag, err := a.catalog().Get(args[0])
			if err != nil {
				return err
			}

			m, err := newModel(a.cfg)
			if err != nil {
				return err
			}

			runner := a.runner(m)
			store := session.NewInMemoryStore()
			out := cmd.OutOrStdout()

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					fmt.Fprintln(out)
					break
				}

				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "/exit" || line == "/quit" {
					break
				}

				sess, err := store.Get(sessionID)
				if err != nil {
					return err
				}

				res, err := runner.RunSession(cmd.Context(), ag, sess, line)
				if err != nil {
					return err
				}

				if err := store.Save(sess); err != nil {
					return err
				}

				if showTools {
					printToolCalls(cmd, res)
				}
				fmt.Fprintln(out, res.Output)
			}

			return scanner.Err()
		},
	}

	cmd.Flags().BoolVar(&showTools, "show-tools", false, "print every executed tool call")
	cmd.Flags().StringVar(&sessionID, "session", "default", "session identifier")

	return cmd
}

func printToolCalls(cmd *cobra.Command, res *agent.Result) {
	out := cmd.OutOrStdout()
	for _, tc := range res.ToolCalls {
		status := "ok"
		if tc.Error != "" {
			status = "error: " + tc.Error
		}
		fmt.Fprintf(out, "[tool] %s(%s) %s\n", tc.Name, tc.Arguments, status)
	}
}
