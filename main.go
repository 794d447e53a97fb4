// Copyright 2025 Certen Protocol

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	dbm "github.com/cometbft/cometbft-db"

	"github.com/xtergo/dnaresearch/pkg/access"
	"github.com/xtergo/dnaresearch/pkg/cache"
	"github.com/xtergo/dnaresearch/pkg/compliance"
	"github.com/xtergo/dnaresearch/pkg/config"
	"github.com/xtergo/dnaresearch/pkg/consent"
	"github.com/xtergo/dnaresearch/pkg/database"
	"github.com/xtergo/dnaresearch/pkg/evidence"
	"github.com/xtergo/dnaresearch/pkg/firestore"
	"github.com/xtergo/dnaresearch/pkg/genomic"
	"github.com/xtergo/dnaresearch/pkg/kvdb"
	"github.com/xtergo/dnaresearch/pkg/ledger"
	"github.com/xtergo/dnaresearch/pkg/metrics"
	"github.com/xtergo/dnaresearch/pkg/server"
	"github.com/xtergo/dnaresearch/pkg/theory"
	"github.com/xtergo/dnaresearch/pkg/upload"
	"github.com/xtergo/dnaresearch/pkg/webhook"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Printf("🚀 Starting dnaresearch core service")

	var showHelp = flag.Bool("help", false, "Show help message")
	flag.Parse()
	if *showHelp {
		printHelp()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	metricsRegistry, promRegistry := metrics.New()

	// --- Optional durable Postgres mirror for consent and compliance records ---
	var dbClient *database.Client
	if cfg.DatabaseURL != "" {
		dbClient, err = database.NewClient(cfg, database.WithLogger(log.New(log.Writer(), "[Database] ", log.LstdFlags)))
		if err != nil {
			if cfg.DatabaseRequired {
				log.Fatalf("❌ Database connection REQUIRED but failed: %v", err)
			}
			log.Printf("⚠️  Database connection failed, continuing without durable mirror: %v", err)
			dbClient = nil
		} else {
			if err := dbClient.MigrateUp(context.Background()); err != nil {
				log.Printf("⚠️  Database migration failed: %v", err)
			}
			log.Printf("✅ Connected to Postgres and applied migrations")
		}
	} else {
		log.Printf("ℹ️  DATABASE_URL unset - consent and compliance records stay in-memory only")
	}

	// --- Optional Firestore dashboard mirror ---
	var mirror *firestore.MirrorService
	firestoreCfg := &firestore.ClientConfig{
		ProjectID:       cfg.FirebaseProjectID,
		CredentialsFile: cfg.FirebaseCredentialsFile,
		Enabled:         cfg.FirestoreEnabled,
		Logger:          log.New(log.Writer(), "[Firestore] ", log.LstdFlags),
	}
	firestoreClient, err := firestore.NewClient(context.Background(), firestoreCfg)
	if err != nil {
		log.Printf("⚠️  Firestore client init failed, dashboard mirror disabled: %v", err)
	} else {
		mirror, err = firestore.NewMirrorService(&firestore.MirrorServiceConfig{
			Client: firestoreClient,
			Logger: log.New(log.Writer(), "[FirestoreMirror] ", log.LstdFlags),
		})
		if err != nil {
			log.Printf("⚠️  Firestore mirror service init failed: %v", err)
			mirror = nil
		} else if firestoreClient.IsEnabled() {
			log.Printf("✅ Firestore dashboard mirror enabled for project %s", cfg.FirebaseProjectID)
		}
	}

	// --- C1 Audit Ledger ---
	// In-memory cometbft-db backend by default; set DATA_DIR to a
	// persistent path and swap dbm.NewMemDB() for a goleveldb
	// instance to survive restarts without touching ledger.Ledger.
	kv := kvdb.NewKVAdapter(dbm.NewMemDB())
	ledgerOpts := []ledger.Option{
		ledger.WithLogger(log.New(log.Writer(), "[Ledger] ", log.LstdFlags)),
		ledger.WithKV(kv),
		ledger.WithMetrics(metricsRegistry),
	}
	if mirror != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithBlockSealObserver(mirror))
	}
	led := ledger.New(ledgerOpts...)
	log.Printf("✅ [C1] Audit ledger ready (genesis block sealed)")

	// --- C2 Consent Store ---
	consentOpts := []consent.Option{
		consent.WithLogger(log.New(log.Writer(), "[Consent] ", log.LstdFlags)),
		consent.WithLedger(led),
	}
	if dbClient != nil {
		consentOpts = append(consentOpts, consent.WithMirror(database.NewConsentMirror(dbClient)))
	}
	consentStore := consent.New(consentOpts...)

	// --- C3 Access Control ---
	accessGate := access.New(
		consentStore,
		access.WithLogger(log.New(log.Writer(), "[Access] ", log.LstdFlags)),
		access.WithLedger(led),
		access.WithMetrics(metricsRegistry),
	)

	// --- C4 Anchor+Diff Storage ---
	genomicStore := genomic.New(
		genomic.WithLogger(log.New(log.Writer(), "[Genomic] ", log.LstdFlags)),
	)

	// --- C5 Evidence Accumulator ---
	evidenceAccumulator := evidence.New(
		evidence.WithLogger(log.New(log.Writer(), "[Evidence] ", log.LstdFlags)),
	)

	// --- Gene region table (C6 dependency) ---
	// Starts from the compile-time default; a YAML override at
	// cfg.GeneRegionTablePath replaces it wholesale if present.
	geneRegions := theory.DefaultGeneRegions()
	if regionTable, err := config.LoadGeneRegionTable(cfg.GeneRegionTablePath); err != nil {
		log.Printf("ℹ️  Gene region table %s not loaded (%v) - using compile-time defaults", cfg.GeneRegionTablePath, err)
	} else {
		override := make(map[string][]theory.GeneRegion, len(regionTable.Regions))
		for _, entry := range regionTable.Regions {
			override[entry.Gene] = append(override[entry.Gene], theory.GeneRegion{
				Chromosome: entry.Chromosome,
				Start:      entry.Start,
				End:        entry.End,
			})
		}
		geneRegions = override
		log.Printf("✅ Loaded gene region table from %s (%d genes)", cfg.GeneRegionTablePath, len(override))
	}

	// --- C6 Theory Engine ---
	theoryEngine := theory.New(
		theory.WithLogger(log.New(log.Writer(), "[Theory] ", log.LstdFlags)),
		theory.WithEvidence(evidenceAccumulator),
		theory.WithLedger(led),
		theory.WithMetrics(metricsRegistry),
		theory.WithGeneRegions(geneRegions),
	)

	// --- C7 Webhook Pipeline ---
	webhookPipeline := webhook.New(
		webhook.WithLogger(log.New(log.Writer(), "[Webhook] ", log.LstdFlags)),
		webhook.WithScheduler(webhook.NewRealScheduler()),
		webhook.WithLedger(led),
		webhook.WithMetrics(metricsRegistry),
	)
	if registry, err := config.LoadPartnerRegistry(cfg.PartnerRegistryPath); err != nil {
		log.Printf("ℹ️  Partner registry %s not loaded (%v) - no sequencing partners registered at startup", cfg.PartnerRegistryPath, err)
	} else {
		for _, p := range registry.Partners {
			supported := make(map[webhook.EventType]bool, len(p.SupportedEvents))
			for _, evt := range p.SupportedEvents {
				supported[webhook.EventType(evt)] = true
			}
			webhookPipeline.RegisterPartner(webhook.Partner{
				PartnerID:       p.PartnerID,
				Name:            p.PartnerID,
				Secret:          p.Secret,
				Active:          true,
				SupportedEvents: supported,
				MaxRetries:      p.MaxRetries,
			})
		}
		log.Printf("✅ Registered %d sequencing partners from %s", len(registry.Partners), cfg.PartnerRegistryPath)
	}

	// --- C8 Cache ---
	responseCache := cache.New(cache.WithMetrics(metricsRegistry))

	// --- C9 Compliance Registry ---
	complianceOpts := []compliance.Option{
		compliance.WithLogger(log.New(log.Writer(), "[Compliance] ", log.LstdFlags)),
		compliance.WithCache(responseCache),
	}
	if dbClient != nil {
		complianceOpts = append(complianceOpts, compliance.WithMirror(database.NewComplianceMirror(dbClient)))
	}
	complianceRegistry := compliance.New(complianceOpts...)

	// --- C10 File Upload Coordinator ---
	if cfg.UploadSigningSecret == "" {
		log.Printf("⚠️  UPLOAD_SIGNING_SECRET is unset - presigned URLs will be signed with an empty secret")
	}
	uploadCoordinator := upload.New(
		cfg.UploadSigningSecret,
		upload.WithLogger(log.New(log.Writer(), "[Upload] ", log.LstdFlags)),
	)

	go runComplianceMirror(mirror, complianceRegistry)

	// --- Gene catalog for the external-facing /genes endpoints ---
	catalogRegions := make(map[string][]server.GeneInfo, len(geneRegions))
	for gene, regions := range geneRegions {
		infos := make([]server.GeneInfo, len(regions))
		for i, r := range regions {
			infos[i] = server.GeneInfo{Chromosome: r.Chromosome, Start: r.Start, End: r.End}
		}
		catalogRegions[gene] = infos
	}
	geneCatalog := server.NewGeneCatalog(catalogRegions)

	handlers := server.New(led, consentStore, accessGate, genomicStore, evidenceAccumulator, theoryEngine, webhookPipeline, responseCache, complianceRegistry, uploadCoordinator, geneCatalog)

	mux := handlers.Mux()
	mux.Handle("GET /metrics", metrics.Handler(promRegistry))

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}

	go func() {
		log.Printf("🌐 dnaresearch core listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start HTTP server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("🛑 Shutting down dnaresearch core...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	webhookPipeline.Close()
	if dbClient != nil {
		if err := dbClient.Close(); err != nil {
			log.Printf("Database client close error: %v", err)
		}
	}
	if firestoreClient != nil {
		if err := firestoreClient.Close(); err != nil {
			log.Printf("Firestore client close error: %v", err)
		}
	}

	log.Printf("✅ dnaresearch core stopped")
}

// runComplianceMirror periodically pushes the current compliance
// score to the Firestore dashboard mirror. It is a no-op loop when
// mirror is nil or disabled.
func runComplianceMirror(mirror *firestore.MirrorService, registry *compliance.Registry) {
	if mirror == nil {
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		if !mirror.IsEnabled() {
			continue
		}
		score := registry.ComplianceScore()
		overdue := len(registry.Overdue())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := mirror.OnComplianceScoreUpdated(ctx, score, overdue); err != nil {
			log.Printf("[FirestoreMirror] compliance snapshot push failed: %v", err)
		}
		cancel()
	}
}

func printHelp() {
	fmt.Println("dnaresearch core service")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  dnaresearch [OPTIONS]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --help    Show this help message")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  API_HOST, API_PORT        HTTP listen address (default 0.0.0.0:8080)")
	fmt.Println("  DATABASE_URL              Optional Postgres DSN for durable consent/compliance mirror")
	fmt.Println("  FIRESTORE_ENABLED         Enable the optional Firestore dashboard mirror")
	fmt.Println("  PARTNER_REGISTRY_PATH     YAML bootstrap list of sequencing partners")
	fmt.Println("  GENE_REGION_TABLE_PATH    YAML gene->region table override")
}
