// Debug tool: fetch and normalize one data kind straight from the source,
// bypassing the cache and the circuit breaker.
//
// Usage: get-record <kind> [param=value ...]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hvidsten/skylight/internal/adapters/sources"
	"github.com/hvidsten/skylight/internal/domain"
	"github.com/hvidsten/skylight/internal/normalize"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("No kind provided (statistics, income_limits, notices, programs, projects)")
	}

	kind := domain.Kind(os.Args[1])
	if !kind.Valid() {
		log.Fatalf("Unknown kind %q", os.Args[1])
	}

	params := map[string]string{}
	for _, arg := range os.Args[2:] {
		key, value, found := strings.Cut(arg, "=")
		if !found || key == "" {
			log.Fatalf("Malformed param %q, expected key=value", arg)
		}
		params[key] = value
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	registry := sources.NewDefaultRegistry(httpClient, 0)

	spec := sources.FetchSpec{
		Source: sources.SourceForKind(kind),
		Kind:   kind,
		Params: params,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	raw, err := registry.Fetch(ctx, spec)
	if err != nil {
		log.Fatalf("Fetch failed: %v", err)
	}

	log.Printf("Fetched %d bytes (%s) at %s", len(raw.Payload), raw.ContentType, raw.RetrievedAt.Format(time.RFC3339))

	record, err := normalize.Normalize(raw, spec)
	if err != nil {
		log.Fatalf("Normalization failed: %v", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		log.Fatalf("Failed marshalling record: %v", err)
	}

	fmt.Println(string(data))
}
