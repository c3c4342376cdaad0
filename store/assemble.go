package store

import (
	"fmt"

	"go.uber.org/zap"
)

// CopyTable überträgt den kompletten Inhalt einer Tabelle aus einer anderen
// SQLite-Datei in diese Datenbank (ATTACH + INSERT ... SELECT). Die Tabelle
// muss auf beiden Seiten existieren, sonst gibt es einen Fehler statt einer
// leeren Kopie.
func (s *Store) CopyTable(fromPath, table string) error {
	src, err := Open(fromPath, s.Logger)
	if err != nil {
		return fmt.Errorf("öffnen der Quelldatenbank: %w", err)
	}
	srcHas, err := src.HasTable(table)
	closeErr := src.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return closeErr
	}
	if !srcHas {
		return fmt.Errorf("tabelle %s existiert nicht in Quelle %s", table, fromPath)
	}
	dstHas, err := s.HasTable(table)
	if err != nil {
		return err
	}
	if !dstHas {
		return fmt.Errorf("tabelle %s existiert nicht in Ziel %s", table, s.Path)
	}

	if err := s.DB.Exec("ATTACH DATABASE ? AS from_db", fromPath).Error; err != nil {
		return fmt.Errorf("attach %s: %w", fromPath, err)
	}
	copyErr := s.DB.Exec(
		fmt.Sprintf("INSERT INTO %s SELECT * FROM from_db.%s", table, table),
	).Error
	detachErr := s.DB.Exec("DETACH DATABASE from_db").Error
	if copyErr != nil {
		return fmt.Errorf("kopieren von %s aus %s: %w", table, fromPath, copyErr)
	}
	if detachErr != nil {
		return fmt.Errorf("detach %s: %w", fromPath, detachErr)
	}
	return nil
}

// Assemble baut die finale Datenbank aus den Teil-Stores der Build-Pipeline
// zusammen. sources bildet Tabellennamen auf die SQLite-Dateien ab, die sie
// liefern. Indizes entstehen erst, nachdem alle Tabellen übertragen sind.
func (s *Store) Assemble(sources map[string]string) error {
	if err := s.BeginBulk(); err != nil {
		return err
	}
	for _, table := range FinalTables {
		fromPath, ok := sources[table]
		if !ok {
			return fmt.Errorf("keine Quelle für Tabelle %s angegeben", table)
		}
		if err := s.EnsureTable(table); err != nil {
			return err
		}
		s.Logger.Info("Übertrage Tabelle",
			zap.String("table", table),
			zap.String("from", fromPath),
		)
		if err := s.CopyTable(fromPath, table); err != nil {
			return err
		}
	}
	for _, table := range FinalTables {
		s.Logger.Info("Lege Indizes an", zap.String("table", table))
		if err := s.AddIndexes(table); err != nil {
			return err
		}
	}
	if err := s.EndBulk(); err != nil {
		return err
	}
	return nil
}
