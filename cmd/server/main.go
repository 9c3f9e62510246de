package main

import (
	"context"
	"net/http"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	server "warp-and-wind/server"
	"warp-and-wind/server/catalog"
	"warp-and-wind/server/logging"
	loggingsinks "warp-and-wind/server/logging/sinks"
)

func main() {
	cfg := server.DefaultWorldConfig()
	if seed := os.Getenv("WARP_SEED"); seed != "" {
		cfg.Seed = seed
	}

	cat, err := catalog.Load(catalog.DefaultPaths()...)
	if err != nil {
		log.Printf("portal catalog unavailable: %v", err)
		cat = nil
	}
	if name := os.Getenv("WARP_PORTAL_VARIANT"); name != "" {
		if cat == nil {
			log.Fatalf("WARP_PORTAL_VARIANT=%q set but no catalog loaded", name)
		}
		variant, ok := cat.Resolve(name)
		if !ok {
			log.Fatalf("unknown portal variant %q, have %v", name, cat.Names())
		}
		cfg = cfg.ApplyPortalVariant(variant)
		log.Printf("portal variant %q active", name)
	}

	logCfg := logging.DefaultConfig()
	if raw := os.Getenv("WARP_LOG_SINKS"); raw != "" {
		logCfg.EnabledSinks = splitList(raw)
	}
	named := make([]logging.NamedSink, 0, 2)
	if logCfg.HasSink("console") {
		named = append(named, logging.NamedSink{
			Name: "console",
			Sink: loggingsinks.NewConsoleSink(os.Stdout, logCfg.Console),
		})
	}
	if logCfg.HasSink("json") {
		path := os.Getenv("WARP_LOG_JSON_PATH")
		if path == "" {
			path = "events.ndjson"
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("failed to open event log %s: %v", path, err)
		}
		named = append(named, logging.NamedSink{
			Name: "json",
			Sink: loggingsinks.NewJSON(file, logCfg.JSON.FlushInterval, logCfg.JSON.MaxBatch),
		})
	}
	events, err := logging.NewRouter(nil, logCfg, named)
	if err != nil {
		log.Fatalf("failed to construct event router: %v", err)
	}
	defer events.Close(context.Background())

	world := server.NewWorld(cfg, events)
	hub := server.NewHub(world)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.RunSimulation(ctx)

	clientDir, err := server.ResolveClientAssetsDir()
	if err != nil {
		log.Printf("serving API only: %v", err)
		clientDir = ""
	}
	handler := server.NewHTTPHandler(hub, cat, clientDir)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		log.Printf("Defaulting to port %s", port)
	}
	log.Printf("server listening on :%s", port)
	log.Fatalln(http.ListenAndServe(":"+port, handler))
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
