package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"getmyhouse/config"
	"getmyhouse/httputil"
	"getmyhouse/logging"
	"getmyhouse/models"
	"getmyhouse/ranking"
	"getmyhouse/report"
	"getmyhouse/search"
	"getmyhouse/services"
	"getmyhouse/storage"
	"getmyhouse/workers"
)

var (
	searchNow  = flag.Bool("search", false, "Run one search and exit")
	historyCmd = flag.Bool("history", false, "Print session history and exit")
	daemonMode = flag.Bool("daemon", false, "Run the session janitor until interrupted")

	sessionID  = flag.String("session", "", "Session id")
	exportPath = flag.String("export", "", "Write export to path (.csv or .xlsx)")

	country   = flag.String("country", "", "Country to search in")
	location  = flag.String("location", "", "City or area to search in")
	distance  = flag.Int("distance", 0, "Max distance in km (1/2/5/10/20, 0 = any)")
	ptype     = flag.String("type", "", "Property type (flat/house)")
	typology  = flag.String("typology", "", "Typology (T0..T4+)")
	wcs       = flag.Int("wcs", 0, "Minimum number of WCs (0 = any)")
	state     = flag.String("state", "", "Usage state (brand new/new/used/recovery)")
	priceMin  = flag.Int("price-min", 0, "Minimum price in EUR")
	priceMax  = flag.Int("price-max", 0, "Maximum price in EUR")
	transport = flag.Int("transport", 0, "Max minutes to public transport (5/15/30, 0 = any)")
	extra     = flag.String("extra", "", "Additional free-text requirements")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	logFile, err := logging.Setup("getmyhouse.log")
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open session store: %v", err)
	}
	defer store.Close()

	svc := buildSearchService(cfg, store)

	switch {
	case *searchNow:
		if err := runSearch(ctx, cfg, store, svc); err != nil {
			log.Fatalf("Search failed: %v", err)
		}
	case *historyCmd:
		if err := printHistory(ctx, svc); err != nil {
			log.Fatalf("History failed: %v", err)
		}
	case *daemonMode:
		runDaemon(ctx, cfg, store)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (storage.SessionStore, error) {
	if cfg.DatabaseURL != "" {
		store, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		log.Println("Session store: Postgres")
		return store, nil
	}
	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	log.Printf("Session store: SQLite (%s)", cfg.DBPath)
	return store, nil
}

func buildSearchService(cfg *config.Config, store storage.SessionStore) *services.SearchService {
	clients := httputil.NewClients(&cfg.Proxy, cfg.Fetch.Timeout)

	var providers []search.Provider
	for _, pc := range cfg.ProvidersByPriority() {
		p, err := search.NewProvider(pc, clients)
		if err != nil {
			log.Printf("Warning: skipping provider %s: %v", pc.ID, err)
			continue
		}
		providers = append(providers, p)
	}
	if len(providers) == 0 {
		log.Println("No providers configured, using built-in mock data")
		providers = append(providers, search.NewMockProvider(&config.ProviderConfig{
			ID:   "mock",
			Name: "Mock data",
			Kind: "mock",
		}))
	}
	log.Printf("Providers: %d", len(providers))

	weights := ranking.DefaultWeights()
	if cfg.WeightsPath != "" {
		if w, err := ranking.LoadWeightsFromFile(cfg.WeightsPath); err != nil {
			log.Printf("Warning: %v, using default weights", err)
		} else {
			weights = w
		}
	}

	fetcher := search.NewFetcher(providers, cfg.Fetch.MaxRetries, cfg.Fetch.Backoff, cfg.Fetch.Timeout)
	engine := ranking.NewEngine(weights)

	return services.NewSearchService(store, fetcher, engine)
}

func runSearch(ctx context.Context, cfg *config.Config, store storage.SessionStore, svc *services.SearchService) error {
	if *sessionID == "" {
		return fmt.Errorf("-session is required")
	}

	result, err := svc.Search(ctx, *sessionID, patchFromFlags())
	if err != nil {
		return err
	}

	log.Printf("Turn %d: %d results", result.TurnIndex, len(result.Results))
	fmt.Print(report.Render(result.Results).String())

	if *exportPath != "" {
		return writeExport(ctx, cfg, result.Results)
	}
	return nil
}

// patchFromFlags turns only the flags the user actually set into a
// refinement patch, so untouched criteria carry over between turns.
func patchFromFlags() models.Patch {
	var patch models.Patch
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "country":
			patch.Country = country
		case "location":
			patch.Location = location
		case "distance":
			patch.MaxDistanceKm = distance
		case "type":
			patch.PropertyType = ptype
		case "typology":
			patch.Typology = typology
		case "wcs":
			patch.MinWCs = wcs
		case "state":
			patch.UsageState = state
		case "price-min":
			patch.PriceMin = priceMin
		case "price-max":
			patch.PriceMax = priceMax
		case "transport":
			patch.TransportMinutes = transport
		case "extra":
			patch.Extra = extra
		}
	})
	return patch
}

func writeExport(ctx context.Context, cfg *config.Config, results []models.ScoredListing) error {
	var data []byte
	var contentType string
	var err error

	switch strings.ToLower(filepath.Ext(*exportPath)) {
	case ".csv":
		data, err = report.ExportCSV(results)
		contentType = "text/csv"
	default:
		data, err = report.ExportXLSX(results)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	if err := os.WriteFile(*exportPath, data, 0644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	log.Printf("Export written: %s (%d bytes)", *exportPath, len(data))

	if cfg.Export.Enabled() {
		uploader, err := storage.NewS3Uploader(ctx, storage.S3Config{
			Bucket:          cfg.Export.Bucket,
			Region:          cfg.Export.Region,
			Endpoint:        cfg.Export.Endpoint,
			AccessKeyID:     cfg.Export.AccessKeyID,
			SecretAccessKey: cfg.Export.SecretAccessKey,
		})
		if err != nil {
			return fmt.Errorf("s3 uploader: %w", err)
		}
		key := fmt.Sprintf("exports/%s/%d%s", *sessionID, time.Now().Unix(), filepath.Ext(*exportPath))
		url, err := uploader.UploadExport(ctx, key, data, contentType)
		if err != nil {
			return fmt.Errorf("upload export: %w", err)
		}
		log.Printf("Export uploaded: %s", url)
	}
	return nil
}

func printHistory(ctx context.Context, svc *services.SearchService) error {
	if *sessionID == "" {
		return fmt.Errorf("-session is required")
	}
	turns, err := svc.History(ctx, *sessionID)
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		fmt.Println("No history for session", *sessionID)
		return nil
	}
	for _, turn := range turns {
		fmt.Printf("Turn %d (%s): location=%q typology=%q price=%d-%d, %d results\n",
			turn.Index, turn.CreatedAt.Format(time.RFC3339),
			turn.Query.Location, turn.Query.Typology,
			turn.Query.PriceMin, turn.Query.PriceMax, len(turn.Results))
	}
	return nil
}

func runDaemon(ctx context.Context, cfg *config.Config, store storage.SessionStore) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	janitor := workers.NewJanitor(store, cfg.Session.TTL)
	if err := janitor.Start(ctx, cfg.Session.JanitorCron, cfg.Session.Interval); err != nil {
		log.Fatalf("Failed to start janitor: %v", err)
	}

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	janitor.Stop()
	log.Println("Goodbye!")
}
