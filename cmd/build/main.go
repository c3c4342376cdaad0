package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"lit-lite/config"
	"lit-lite/providers/entrez"
	"lit-lite/providers/indradb"
	"lit-lite/providers/medline"
	"lit-lite/providers/xrefs"
	"lit-lite/services"
	"lit-lite/store"
)

func main() {
	publish := flag.Bool("publish", false, "Snapshot nach dem Build in den S3-Bucket hochladen")
	fuzzPath := flag.String("fuzz-db", "", "zusätzlich eine verwürfelte Kopie der Datenbank an diesem Pfad erzeugen")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Fehler beim Laden der Konfiguration", zap.Error(err))
	}
	if err := os.MkdirAll(cfg.BuildDir, 0o755); err != nil {
		logger.Fatal("Build-Verzeichnis nicht anlegbar", zap.Error(err))
	}

	textDB := filepath.Join(cfg.BuildDir, "text_content.db")
	refsDB := filepath.Join(cfg.BuildDir, "pmid_text_refs.db")
	agentDB := filepath.Join(cfg.BuildDir, "agent_texts.db")
	entrezDB := filepath.Join(cfg.BuildDir, "entrez_pmids.db")
	meshDB := filepath.Join(cfg.BuildDir, "mesh.db")
	downloadDir := filepath.Join(cfg.BuildDir, "downloads")

	logger.Info("Starte Extraktion aus der Upstream-Datenbank")
	extractor, err := indradb.NewExtractor(cfg, logger)
	if err != nil {
		logger.Fatal("Upstream-Verbindung fehlgeschlagen", zap.Error(err))
	}
	withStore(logger, textDB, func(st *store.Store) error {
		_, err := extractor.ExtractTextContent(st)
		return err
	})
	withStore(logger, refsDB, func(st *store.Store) error {
		_, err := extractor.ExtractPMIDTextRefs(st)
		return err
	})
	withStore(logger, agentDB, func(st *store.Store) error {
		_, err := extractor.ExtractAgentTexts(st)
		return err
	})

	logger.Info("Lade externe Referenzdaten")
	withStore(logger, meshDB, func(st *store.Store) error {
		if _, err := medline.NewFetcher(cfg, logger).LoadMeshAnnotations(st, downloadDir); err != nil {
			return err
		}
		_, err := xrefs.NewFetcher(cfg, logger).LoadMeshXrefs(st, downloadDir)
		return err
	})
	withStore(logger, entrezDB, func(st *store.Store) error {
		_, err := entrez.NewFetcher(cfg, logger).LoadEntrezPMIDs(st, downloadDir)
		return err
	})

	logger.Info("Reduziere Kandidaten auf beste Inhalte")
	withStore(logger, textDB, func(st *store.Store) error {
		return services.NewBestContentSelector(st, logger).Run()
	})

	logger.Info("Assembliere finale Datenbank", zap.String("path", cfg.LiteDBPath))
	if err := os.RemoveAll(cfg.LiteDBPath); err != nil {
		logger.Fatal("Alte Datenbank nicht entfernbar", zap.Error(err))
	}
	withStore(logger, cfg.LiteDBPath, func(st *store.Store) error {
		return st.Assemble(map[string]string{
			"best_content":   textDB,
			"pmid_text_refs": refsDB,
			"agent_texts":    agentDB,
			"entrez_pmids":   entrezDB,
			"mesh_pmids":     meshDB,
			"mesh_xrefs":     meshDB,
		})
	})

	if *fuzzPath != "" {
		logger.Info("Erzeuge verwürfelte Kopie", zap.String("path", *fuzzPath))
		withStore(logger, cfg.LiteDBPath, func(src *store.Store) error {
			dst, err := store.Open(*fuzzPath, logger)
			if err != nil {
				return err
			}
			defer dst.Close()
			_, err = services.CopyCompressedBestContent(
				src, dst, services.NewContentFuzzer(1729), logger)
			return err
		})
	}

	if *publish {
		snapshots, err := services.NewSnapshotService(cfg, logger)
		if err != nil {
			logger.Fatal("Snapshot-Service nicht erstellbar", zap.Error(err))
		}
		link, err := snapshots.Publish(context.Background(), cfg.LiteDBPath)
		if err != nil {
			logger.Fatal("Snapshot-Upload fehlgeschlagen", zap.Error(err))
		}
		logger.Info("Snapshot veröffentlicht", zap.String("link", link))
	}

	logger.Info("Build abgeschlossen")
}

// withStore öffnet einen Store, führt den Schritt aus und schließt ihn wieder.
// Jeder Fehler beendet den Build.
func withStore(logger *zap.Logger, path string, fn func(*store.Store) error) {
	st, err := store.Open(path, logger)
	if err != nil {
		logger.Fatal("Store nicht öffenbar", zap.String("path", path), zap.Error(err))
	}
	defer st.Close()
	if err := fn(st); err != nil {
		logger.Fatal("Build-Schritt fehlgeschlagen", zap.String("store", path), zap.Error(err))
	}
}
