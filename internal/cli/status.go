package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/vietddude/cascade/internal/fallback"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show fallback status of a running cascade daemon",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(daemonAddr + "/status")
	if err != nil {
		slog.Error("Failed to reach daemon", "addr", daemonAddr, "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var status fallback.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		slog.Error("Failed to decode status", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Overall: %s\n", status.System.Overall)
	if status.System.FallbackActive {
		fmt.Println("Fallback active: degraded services detected")
	}
	if status.System.EmergencyMode {
		fmt.Println("Emergency mode: all services down")
	}
	fmt.Printf("Uptime: %s\n", status.Uptime.Round(time.Second))
	fmt.Printf("Emergency cache entries: %d\n", status.EmergencyCacheSize)
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "LEVEL\tATTEMPTS\tSUCCESSES\tFAILURES\tSUCCESS RATE")
	for _, name := range []string{"primary", "secondary", "tertiary", "emergency"} {
		report, ok := status.Levels[name]
		if !ok {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.2f\n", name, report.Attempts, report.Successes, report.Failures, report.SuccessRate)
	}
	_ = w.Flush()

	if len(status.Services) > 0 {
		fmt.Println()
		ids := make([]string, 0, len(status.Services))
		for id := range status.Services {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		sw := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
		_, _ = fmt.Fprintln(sw, "SERVICE\tAVG LATENCY\tSAMPLES")
		for _, id := range ids {
			st := status.Services[id]
			_, _ = fmt.Fprintf(sw, "%s\t%s\t%d\n", id, st.AvgLatency.Round(time.Millisecond), st.Samples)
		}
		_ = sw.Flush()
	}

	if len(status.Recoveries) > 0 {
		fmt.Printf("\nRecoveries: %d (last %s at %s)\n",
			len(status.Recoveries),
			status.Recoveries[len(status.Recoveries)-1].Category,
			status.Recoveries[len(status.Recoveries)-1].Timestamp.Format(time.RFC3339))
	}
}
