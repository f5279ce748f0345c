// Command geocode resolves a single address from the command line using the
// same resolver and cache key conventions as the service. Useful for
// checking what Nominatim returns for a problematic facility address.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/smkmitra/pkl-location-service/internal/adapter/nominatim"
	"github.com/smkmitra/pkl-location-service/internal/observability"
)

func main() {
	var (
		baseURL   = flag.String("base-url", "https://nominatim.openstreetmap.org", "Nominatim base URL")
		userAgent = flag.String("user-agent", "PKL-Location-Mapper/1.0", "User-Agent header sent upstream")
		timeout   = flag.Duration("timeout", 10*time.Second, "request timeout")
	)
	flag.Parse()

	query := flag.Arg(0)
	if query == "" {
		fmt.Fprintln(os.Stderr, "usage: geocode [flags] <address>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	logger := observability.NewLogger("warn", "text")
	client := nominatim.NewClient(*baseURL, *userAgent, *timeout, observability.NewMetricsForTesting(), logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	coord, err := client.Resolve(ctx, query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "geocode failed: %v\n", err)
		os.Exit(1)
	}
	if coord == nil {
		fmt.Fprintf(os.Stderr, "no result for %q\n", query)
		os.Exit(1)
	}

	out, _ := json.Marshal(map[string]any{"query": query, "lat": coord.Lat, "lng": coord.Lng})
	fmt.Println(string(out))
}
