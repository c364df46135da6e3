package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/app/bootstrap"
	"github.com/viralforge/mesh/services/marketing/M61-campaign-orchestrator/internal/application"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "orchestrator",
	Short:         "Campaign orchestration service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// apiCmd serves HTTP, gRPC health and the outbox relay.
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := bootstrap.NewRuntime(cmd.Context(), configPath)
		if err != nil {
			return fmt.Errorf("bootstrap api runtime: %w", err)
		}
		return rt.RunAPI(cmd.Context())
	},
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume campaign commands from Kafka and relay lifecycle events",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := bootstrap.NewRuntime(cmd.Context(), configPath)
		if err != nil {
			return fmt.Errorf("bootstrap worker runtime: %w", err)
		}
		return rt.RunWorker(cmd.Context())
	},
}

var launchCmd = &cobra.Command{
	Use:   "launch [request.json|-]",
	Short: "Run one campaign in process against sandbox collaborators",
	Long: `Launch reads a campaign request as JSON from a file, or from stdin when the
argument is "-" or omitted, runs it with in-memory storage and the sandbox
collaborators, and prints the launch result.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLaunch,
}

func runLaunch(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	var req application.LaunchRequest
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return fmt.Errorf("decode launch request: %w", err)
	}

	rt, err := bootstrap.Build(cmd.Context(), bootstrap.LocalConfig())
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.Service().LaunchCampaign(cmd.Context(), req)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("campaign %s failed: %s", res.CampaignID, res.Error)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", envOr("CONFIG_PATH", "configs/default.yaml"), "Path to the YAML config file")
	rootCmd.AddCommand(apiCmd, workerCmd, launchCmd)
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
