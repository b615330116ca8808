package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset fallback statistics and/or clear the emergency cache on a running daemon",
	Run:   runReset,
}

var (
	resetStats bool
	resetCache bool
)

func init() {
	resetCmd.Flags().BoolVar(&resetStats, "stats", false, "reset fallback statistics")
	resetCmd.Flags().BoolVar(&resetCache, "emergency-cache", false, "clear the emergency response cache")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) {
	// Neither flag means both.
	if !resetStats && !resetCache {
		resetStats = true
		resetCache = true
	}

	client := &http.Client{Timeout: 5 * time.Second}

	if resetCache {
		resp, err := client.Post(daemonAddr+"/admin/emergency-cache/clear", "application/json", nil)
		if err != nil {
			slog.Error("Failed to clear emergency cache", "addr", daemonAddr, "error", err)
			os.Exit(1)
		}
		var out map[string]int
		_ = json.NewDecoder(resp.Body).Decode(&out)
		_ = resp.Body.Close()
		fmt.Printf("Cleared %d emergency cache entries\n", out["cleared"])
	}

	if resetStats {
		resp, err := client.Post(daemonAddr+"/admin/stats/reset", "application/json", nil)
		if err != nil {
			slog.Error("Failed to reset statistics", "addr", daemonAddr, "error", err)
			os.Exit(1)
		}
		_ = resp.Body.Close()
		fmt.Println("Fallback statistics reset")
	}
}
