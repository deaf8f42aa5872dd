package app

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/docrelay/docrelay/internal/cli"
	"github.com/docrelay/docrelay/internal/registry"
)

func runHealth(args []string) int {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Overall probe timeout")

	cfg, logger, code := bootstrap(fs, envLoader, args)
	if code >= 0 {
		return code
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	deps := buildRelayDeps(cfg, logger)
	defer deps.broker.Close()

	storeClient, _ := buildStoreDeps(cfg, logger)
	if cfg.HasObjectStore() {
		deps.registry.Register(registry.ComponentObjectStore, storeClient.Probe)
	} else {
		deps.registry.NotConfigured(registry.ComponentObjectStore, "MINIO_ENDPOINT_URL/MINIO_ACCESS_KEY/MINIO_SECRET_KEY/MINIO_BUCKET_NAME")
	}

	results := deps.registry.ProbeAll(ctx)
	statuses := deps.registry.Status()

	allHealthy := true
	for _, name := range deps.registry.SortedComponents() {
		status := statuses[name]
		if results[name] {
			fmt.Printf("%-20s connected\n", name)
			continue
		}
		allHealthy = false
		fmt.Printf("%-20s disconnected  %s\n", name, status.Detail)
	}

	if !allHealthy {
		return 1
	}
	return 0
}
