package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/jusunglee/mta-arrivals/internal/models"
	"github.com/jusunglee/mta-arrivals/pkg/mta"
)

func main() {
	var (
		configFile = flag.String("config", mta.DefaultConfig().ConfigFile, "Config YAML file")
		station    = flag.String("station", "", "Only print this station")
		limit      = flag.Int("limit", 3, "Arrivals shown per route")
		timeout    = flag.Duration("timeout", 30*time.Second, "Overall timeout")
	)
	flag.Parse()

	if *limit < 1 {
		slog.Error("limit must be at least 1", "limit", *limit)
		os.Exit(1)
	}

	client, _, err := mta.NewLocal(mta.Config{ConfigFile: *configFile})
	if err != nil {
		slog.Error("Failed to create MTA client", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	summary, stats, err := client.GetArrivals(ctx)
	if err != nil {
		slog.Error("Failed to get arrivals", "error", err)
		os.Exit(1)
	}

	ids := make([]string, 0, len(summary))
	for id := range summary {
		if *station == "" || id == *station {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	if len(ids) == 0 {
		fmt.Println("No arrivals found")
	}
	for _, id := range ids {
		fmt.Printf("\n%s\n", id)
		printDirection("Northbound", summary[id].North, *limit)
		printDirection("Southbound", summary[id].South, *limit)
	}

	// Show feed outcomes
	fmt.Printf("\nGenerated: %s\n", stats.GeneratedAt.Format("3:04:05 PM"))
	for _, f := range stats.Feeds {
		if f.State == models.FeedFailed {
			fmt.Printf("Skipped feed %s: %s\n", f.Name, f.Error)
		}
	}
}

func printDirection(label string, routes models.RouteArrivals, limit int) {
	if len(routes) == 0 {
		return
	}
	fmt.Printf("  %s:\n", label)

	names := make([]string, 0, len(routes))
	for route := range routes {
		names = append(names, route)
	}
	slices.Sort(names)

	for _, route := range names {
		etas := routes[route][:min(limit, len(routes[route]))]
		parts := make([]string, len(etas))
		for i, eta := range etas {
			parts[i] = fmt.Sprintf("%d min", eta)
		}
		fmt.Printf("    %s - %s\n", route, strings.Join(parts, ", "))
	}
}
