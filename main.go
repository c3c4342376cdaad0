package main

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"lit-lite/config"
	"lit-lite/services"
	"lit-lite/store"
)

var (
	lookupQueriesCounter   prometheus.Counter
	snapshotRefreshCounter prometheus.Counter
)

func init() {
	lookupQueriesCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lookup_queries_total",
			Help: "Total number of lookup queries served.",
		},
	)
	snapshotRefreshCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "snapshot_refreshes_total",
			Help: "Total number of snapshot refreshes applied.",
		},
	)
	prometheus.MustRegister(lookupQueriesCounter, snapshotRefreshCounter)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

// lookupHolder hält den aktuellen Lookup-Service. Nach einem Snapshot-Refresh
// wird er gegen einen Service über der neuen Datenbankdatei getauscht.
type lookupHolder struct {
	current atomic.Pointer[services.LookupService]
}

func (h *lookupHolder) get() *services.LookupService {
	lookupQueriesCounter.Inc()
	return h.current.Load()
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	var snapshots *services.SnapshotService
	if cfg.SnapshotS3Bucket != "" {
		snapshots, err = services.NewSnapshotService(cfg, logging)
		if err != nil {
			logging.Fatal("Snapshot service creation failed", zap.Error(err))
		}
		// Fehlt die lokale Datenbank noch, holt der erste Refresh sie.
		if _, err := snapshots.Refresh(context.Background()); err != nil {
			logging.Warn("Initial snapshot refresh failed", zap.Error(err))
		}
	}

	st, err := store.Open(cfg.LiteDBPath, logging)
	if err != nil {
		logging.Fatal("Failed to open local database", zap.Error(err))
	}
	logging.Info("Successfully opened local literature database.",
		zap.String("path", cfg.LiteDBPath))

	holder := &lookupHolder{}
	holder.current.Store(services.NewLookupService(st, logging))

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Setup Routes
	setupContentRoutes(router, holder, logging)
	setupRefRoutes(router, holder, logging)
	setupGeneRoutes(router, holder, logging)
	setupMeshRoutes(router, holder, logging)

	// Setup Cron
	if snapshots != nil {
		cronScheduler := cron.New()
		cronScheduler.AddFunc(cfg.CronSchedule, func() {
			logging.Info("Running scheduled snapshot refresh...")
			updated, err := snapshots.Refresh(context.Background())
			if err != nil {
				logging.Error("Snapshot refresh failed", zap.Error(err))
				return
			}
			if !updated {
				return
			}
			newStore, err := store.Open(cfg.LiteDBPath, logging)
			if err != nil {
				logging.Error("Reopening refreshed database failed", zap.Error(err))
				return
			}
			old := holder.current.Swap(services.NewLookupService(newStore, logging))
			if err := old.Store.Close(); err != nil {
				logging.Warn("Closing previous database failed", zap.Error(err))
			}
			snapshotRefreshCounter.Inc()
			logging.Info("Snapshot refresh applied")
		})
		cronScheduler.Start()
	}

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

// contentEntry ist die JSON-Form eines unverarbeiteten Inhalts.
type contentEntry struct {
	TextRefID  int64    `json:"text_ref_id"`
	TextType   string   `json:"text_type"`
	Paragraphs []string `json:"paragraphs"`
}

// plaintextEntry ist die JSON-Form eines verarbeiteten Klartexts.
type plaintextEntry struct {
	TextRefID int64  `json:"text_ref_id"`
	TextType  string `json:"text_type"`
	Text      string `json:"text"`
}

func setupContentRoutes(router *gin.Engine, holder *lookupHolder, log *zap.Logger) {
	rg := router.Group("/content")

	rg.POST("/paragraphs", func(c *gin.Context) {
		var req struct {
			TextRefIDs []int64 `json:"text_ref_ids" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		content, err := holder.get().ParagraphsForTextRefIDs(req.TextRefIDs)
		if err != nil {
			log.Error("Paragraph lookup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		entries := make([]contentEntry, 0, content.Len())
		content.ForEach(func(textRefID int64, textType string, paragraphs []string) {
			entries = append(entries, contentEntry{textRefID, textType, paragraphs})
		})
		c.JSON(http.StatusOK, entries)
	})

	rg.POST("/plaintexts", func(c *gin.Context) {
		var req struct {
			TextRefIDs []int64  `json:"text_ref_ids" binding:"required"`
			Contains   []string `json:"contains"`
			TextTypes  []string `json:"text_types"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		plaintexts, err := holder.get().PlaintextsForTextRefIDs(req.TextRefIDs, req.Contains, req.TextTypes)
		if err != nil {
			log.Error("Plaintext lookup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		entries := make([]plaintextEntry, 0, plaintexts.Len())
		plaintexts.ForEach(func(textRefID int64, textType string, text string) {
			entries = append(entries, plaintextEntry{textRefID, textType, text})
		})
		c.JSON(http.StatusOK, entries)
	})

	rg.GET("/sample", func(c *gin.Context) {
		n, err := strconv.Atoi(c.DefaultQuery("n", "10"))
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sample size"})
			return
		}
		var textTypes []string
		if raw := c.Query("text_types"); raw != "" {
			textTypes = strings.Split(raw, ",")
		}
		content, err := holder.get().TextSample(n, textTypes)
		if err != nil {
			log.Error("Text sample failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		entries := make([]contentEntry, 0, content.Len())
		content.ForEach(func(textRefID int64, textType string, paragraphs []string) {
			entries = append(entries, contentEntry{textRefID, textType, paragraphs})
		})
		c.JSON(http.StatusOK, entries)
	})
}

func setupRefRoutes(router *gin.Engine, holder *lookupHolder, log *zap.Logger) {
	rg := router.Group("/refs")

	rg.POST("/text-ref-ids", func(c *gin.Context) {
		var req struct {
			PMIDs []int64 `json:"pmids" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		mapping, err := holder.get().TextRefIDsForPMIDs(req.PMIDs)
		if err != nil {
			log.Error("Text ref lookup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, mapping)
	})

	rg.POST("/pmids", func(c *gin.Context) {
		var req struct {
			TextRefIDs []int64 `json:"text_ref_ids" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		mapping, err := holder.get().PMIDsForTextRefIDs(req.TextRefIDs)
		if err != nil {
			log.Error("PMID lookup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, mapping)
	})

	rg.GET("/agent-text/:text", func(c *gin.Context) {
		ids, err := holder.get().TextRefIDsForAgentText(c.Param("text"))
		if err != nil {
			log.Error("Agent text lookup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"text_ref_ids": ids})
	})
}

func setupGeneRoutes(router *gin.Engine, holder *lookupHolder, log *zap.Logger) {
	rg := router.Group("/genes")

	pmidsHandler := func(lookup func(*services.LookupService, string) ([]int64, error)) gin.HandlerFunc {
		return func(c *gin.Context) {
			pmids, err := lookup(holder.get(), c.Param("id"))
			if err != nil {
				log.Error("Gene lookup failed", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"pmids": pmids})
		}
	}

	rg.GET("/entrez/:id/pmids", pmidsHandler(func(l *services.LookupService, raw string) ([]int64, error) {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, nil
		}
		return l.EntrezPMIDs(id)
	}))
	rg.GET("/hgnc/:id/pmids", pmidsHandler(func(l *services.LookupService, raw string) ([]int64, error) {
		id, err := strconv.ParseInt(strings.TrimPrefix(raw, "HGNC:"), 10, 64)
		if err != nil {
			return nil, nil
		}
		return l.EntrezPMIDsForHGNC(id)
	}))
	rg.GET("/uniprot/:id/pmids", pmidsHandler(func(l *services.LookupService, raw string) ([]int64, error) {
		return l.EntrezPMIDsForUniprot(raw)
	}))

	rg.GET("/uniprot/:id/taxon", func(c *gin.Context) {
		taxonID, ok, err := holder.get().TaxonIDForUniprot(c.Param("id"))
		if err != nil {
			log.Error("Taxon lookup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown uniprot id"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"taxon_id": taxonID})
	})
}

func setupMeshRoutes(router *gin.Engine, holder *lookupHolder, log *zap.Logger) {
	rg := router.Group("/mesh")

	rg.GET("/:mesh_id/pmids", func(c *gin.Context) {
		majorTopic := c.Query("major_topic") == "true"
		pmids, err := holder.get().PMIDsForMeshTerm(c.Param("mesh_id"), majorTopic)
		if err != nil {
			log.Error("Mesh lookup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"pmids": pmids})
	})

	rg.GET("/groundings/:namespace/:id", func(c *gin.Context) {
		meshIDs, err := holder.get().MeshTermsForGrounding(c.Param("namespace"), c.Param("id"))
		if err != nil {
			log.Error("Grounding lookup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"mesh_ids": meshIDs})
	})
}
