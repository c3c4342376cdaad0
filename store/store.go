// Package store kapselt den Zugriff auf die lokalen Einzeldatei-Datenbanken
// (SQLite). Sowohl die Staging-Stores der Build-Pipeline als auch die finale
// Datenbank des Query-Pfads laufen über denselben Wrapper.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store hält eine geöffnete SQLite-Datenbank samt Pfad.
type Store struct {
	DB     *gorm.DB
	Path   string
	Logger *zap.Logger
}

// Open öffnet (oder erstellt) die SQLite-Datenbank am gegebenen Pfad.
func Open(path string, log *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("erstellen des Datenbank-Verzeichnisses: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=30000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("öffnen der Datenbank %s: %w", path, err)
	}
	return &Store{DB: db, Path: path, Logger: log}, nil
}

// Close schließt die unterliegende Verbindung.
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Tables listet alle Nutzer-Tabellen der Datenbank auf.
func (s *Store) Tables() ([]string, error) {
	var names []string
	err := s.DB.Raw(`
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
	`).Scan(&names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

// HasTable prüft, ob die Tabelle existiert.
func (s *Store) HasTable(table string) (bool, error) {
	var count int64
	err := s.DB.Raw(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type = 'table' AND name = ?
	`, table).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RowCount gibt die Zeilenzahl der Tabelle zurück. Fehlt die Tabelle,
// ist das ein Fehler, kein leeres Ergebnis.
func (s *Store) RowCount(table string) (int64, error) {
	ok, err := s.HasTable(table)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("tabelle %s existiert nicht in %s", table, s.Path)
	}
	var count int64
	if err := s.DB.Raw("SELECT COUNT(*) FROM " + table).Scan(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// BeginBulk schaltet die Pragmas für Massen-Inserts um (WAL, reduziertes
// Syncing). Muss mit EndBulk wieder zurückgenommen werden.
func (s *Store) BeginBulk() error {
	if err := s.DB.Exec("PRAGMA journal_mode = WAL").Error; err != nil {
		return err
	}
	return s.DB.Exec("PRAGMA synchronous = NORMAL").Error
}

// EndBulk stellt den Standard-Journal-Modus wieder her.
func (s *Store) EndBulk() error {
	return s.DB.Exec("PRAGMA journal_mode = DELETE").Error
}

// Vacuum kompaktiert die Datenbankdatei nach großen Löschungen.
func (s *Store) Vacuum() error {
	return s.DB.Exec("VACUUM").Error
}

// ChunkInt64s zerlegt eine ID-Sammlung in Chunks fester Größe, damit
// IN-Listen-Queries das Parameterlimit des Hosts nicht sprengen.
func ChunkInt64s(ids []int64, size int) [][]int64 {
	if size <= 0 || len(ids) == 0 {
		if len(ids) == 0 {
			return nil
		}
		return [][]int64{ids}
	}
	chunks := make([][]int64, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
