package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var statusServerURL string

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show running sessions on a research-agent server",
		Long: `status polls a running server's GET /research/sessions and GET /healthz
endpoints and renders them as a table, the way go-pretty renders
devdashboard's dependency report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
	cmd.Flags().StringVar(&statusServerURL, "server-url", "http://localhost:8080", "Base URL of a running research-agent server")
	return cmd
}

type sessionRow struct {
	LogID     string `json:"LogID"`
	Query     string `json:"Query"`
	Status    string `json:"Status"`
	StartedAt string `json:"StartedAt"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func runStatus() error {
	client := &http.Client{Timeout: 10 * time.Second}

	health, err := fetchHealth(client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not reach %s/healthz: %v\n", statusServerURL, err)
	} else {
		fmt.Printf("server status: %s\n", health.Status)
		for check, result := range health.Checks {
			fmt.Printf("  %s: %s\n", check, result)
		}
	}

	sessions, err := fetchSessions(client)
	if err != nil {
		return fmt.Errorf("fetch sessions: %w", err)
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Log ID", "Query", "Status", "Started At"})
	for _, s := range sessions {
		tw.AppendRow(table.Row{s.LogID, truncate(s.Query, 60), s.Status, s.StartedAt})
	}
	tw.Render()
	return nil
}

func fetchHealth(client *http.Client) (*healthResponse, error) {
	resp, err := client.Get(statusServerURL + "/healthz")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, err
	}
	return &health, nil
}

func fetchSessions(client *http.Client) ([]sessionRow, error) {
	resp, err := client.Get(statusServerURL + "/research/sessions")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var sessions []sessionRow
	if err := json.NewDecoder(resp.Body).Decode(&sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
