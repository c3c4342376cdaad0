package services

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"lit-lite/config"
	"lit-lite/storage"
)

// snapshotPrefix ist das Namenspräfix aller Snapshots im Bucket.
const snapshotPrefix = "lit-lite-"

// SnapshotService veröffentlicht die fertige Datenbank als komprimierten
// Snapshot im S3-Bucket und hält die lokale Kopie des Servers aktuell.
type SnapshotService struct {
	Config *config.Config
	Logger *zap.Logger
	Client *s3.Client
}

// NewSnapshotService erstellt den Snapshot-Service samt S3-Client.
func NewSnapshotService(cfg *config.Config, logger *zap.Logger) (*SnapshotService, error) {
	client, err := storage.NewS3Client(cfg)
	if err != nil {
		return nil, fmt.Errorf("s3-Client erstellen: %w", err)
	}
	return &SnapshotService{
		Config: cfg,
		Logger: logger.With(zap.String("service", "snapshot")),
		Client: client,
	}, nil
}

func gzipFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	if err := gz.Close(); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}

func gunzipFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	gz, err := gzip.NewReader(in)
	if err != nil {
		return err
	}
	defer gz.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, gz); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}

// Publish komprimiert die Datenbankdatei, lädt sie mit Zeitstempel-Schlüssel
// in den Bucket und rotiert alte Snapshots.
func (s *SnapshotService) Publish(ctx context.Context, dbPath string) (string, error) {
	compressed := dbPath + ".gz"
	s.Logger.Info("Komprimiere Snapshot", zap.String("db", dbPath))
	if err := gzipFile(dbPath, compressed); err != nil {
		return "", fmt.Errorf("komprimieren des Snapshots: %w", err)
	}
	defer os.Remove(compressed)

	key := fmt.Sprintf("%s%s.db.gz", snapshotPrefix,
		time.Now().UTC().Format("2006-01-02T15-04-05Z"))
	link, err := storage.UploadFile(ctx, s.Client, s.Config.SnapshotS3Bucket, key, compressed, s.Config)
	if err != nil {
		return "", fmt.Errorf("hochladen des Snapshots: %w", err)
	}
	s.Logger.Info("Snapshot hochgeladen", zap.String("key", key))

	if err := s.rotate(ctx); err != nil {
		return link, err
	}
	return link, nil
}

// rotate löscht die ältesten Snapshots, bis nur noch KeepSnapshots übrig sind.
func (s *SnapshotService) rotate(ctx context.Context) error {
	objects, err := storage.ListObjectsByAge(ctx, s.Client, s.Config.SnapshotS3Bucket)
	if err != nil {
		return fmt.Errorf("auflisten der Snapshots: %w", err)
	}
	snapshots := objects[:0]
	for _, obj := range objects {
		if strings.HasPrefix(obj.Key, snapshotPrefix) {
			snapshots = append(snapshots, obj)
		}
	}
	if len(snapshots) <= s.Config.KeepSnapshots {
		s.Logger.Info("Keine Rotation nötig", zap.Int("snapshots", len(snapshots)))
		return nil
	}
	for _, obj := range snapshots[s.Config.KeepSnapshots:] {
		s.Logger.Info("Lösche alten Snapshot", zap.String("key", obj.Key))
		if err := storage.DeleteObject(ctx, s.Client, s.Config.SnapshotS3Bucket, obj.Key); err != nil {
			s.Logger.Error("Löschen fehlgeschlagen", zap.String("key", obj.Key), zap.Error(err))
		}
	}
	return nil
}

// Refresh prüft, ob im Bucket ein neuerer Snapshot liegt als die lokale
// Datei, und ersetzt sie dann atomar. Gibt zurück, ob aktualisiert wurde.
func (s *SnapshotService) Refresh(ctx context.Context) (bool, error) {
	objects, err := storage.ListObjectsByAge(ctx, s.Client, s.Config.SnapshotS3Bucket)
	if err != nil {
		return false, fmt.Errorf("auflisten der Snapshots: %w", err)
	}
	var newest *storage.Object
	for i := range objects {
		if strings.HasPrefix(objects[i].Key, snapshotPrefix) {
			newest = &objects[i]
			break
		}
	}
	if newest == nil {
		s.Logger.Warn("Kein Snapshot im Bucket gefunden")
		return false, nil
	}

	local, err := os.Stat(s.Config.LiteDBPath)
	if err == nil && !newest.LastModified.After(local.ModTime()) {
		s.Logger.Info("Lokale Datenbank ist aktuell")
		return false, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	dir := filepath.Dir(s.Config.LiteDBPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, err
	}
	compressed := filepath.Join(dir, newest.Key)
	s.Logger.Info("Lade Snapshot herunter", zap.String("key", newest.Key))
	if err := storage.DownloadFile(ctx, s.Client, s.Config.SnapshotS3Bucket, newest.Key, compressed); err != nil {
		return false, fmt.Errorf("herunterladen des Snapshots: %w", err)
	}
	defer os.Remove(compressed)

	tmp := s.Config.LiteDBPath + ".tmp"
	if err := gunzipFile(compressed, tmp); err != nil {
		return false, fmt.Errorf("entpacken des Snapshots: %w", err)
	}
	if err := os.Rename(tmp, s.Config.LiteDBPath); err != nil {
		os.Remove(tmp)
		return false, err
	}
	s.Logger.Info("Lokale Datenbank aktualisiert", zap.String("path", s.Config.LiteDBPath))
	return true, nil
}
