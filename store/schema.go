package store

import "fmt"

// schemas enthält das DDL jeder bekannten Tabelle. Die Staging-Tabellen der
// Agent-Text-Extraktion sind ebenfalls aufgeführt, sie leben nur in den
// Zwischen-Stores der Build-Pipeline.
var schemas = map[string]string{
	"text_content": `
		CREATE TABLE IF NOT EXISTS text_content (
			id INTEGER PRIMARY KEY,
			text_ref_id INTEGER NOT NULL,
			text_type TEXT NOT NULL,
			source TEXT NOT NULL,
			content TEXT NOT NULL
		)`,
	"best_content": `
		CREATE TABLE IF NOT EXISTS best_content (
			id INTEGER PRIMARY KEY,
			text_ref_id INTEGER,
			text_content_id1 INTEGER,
			text_content_id2 INTEGER,
			text_type TEXT,
			content TEXT,
			UNIQUE(text_content_id1),
			UNIQUE(text_ref_id)
		)`,
	"pmid_text_refs": `
		CREATE TABLE IF NOT EXISTS pmid_text_refs (
			text_ref_id INTEGER PRIMARY KEY,
			pmid INTEGER
		)`,
	"agent_texts": `
		CREATE TABLE IF NOT EXISTS agent_texts (
			id INTEGER PRIMARY KEY,
			agent_text TEXT,
			text_ref_id INTEGER
		)`,
	"entrez_pmids": `
		CREATE TABLE IF NOT EXISTS entrez_pmids (
			id INTEGER PRIMARY KEY,
			taxon_id INTEGER,
			entrez_id INTEGER,
			uniprot_id TEXT,
			hgnc_id INTEGER,
			pmid INTEGER
		)`,
	"mesh_pmids": `
		CREATE TABLE IF NOT EXISTS mesh_pmids (
			mesh_num INTEGER,
			is_concept INTEGER,
			major_topic INTEGER,
			pmid_num INTEGER
		)`,
	"mesh_xrefs": `
		CREATE TABLE IF NOT EXISTS mesh_xrefs (
			id INTEGER PRIMARY KEY,
			mesh_num INTEGER,
			is_concept INTEGER,
			curie TEXT
		)`,
	"agent_stmts": `
		CREATE TABLE IF NOT EXISTS agent_stmts (
			id INTEGER PRIMARY KEY,
			agent_text TEXT,
			stmt_id INTEGER
		)`,
	"stmt_readings": `
		CREATE TABLE IF NOT EXISTS stmt_readings (
			stmt_id INTEGER PRIMARY KEY,
			reading_id INTEGER
		)`,
	"reading_content": `
		CREATE TABLE IF NOT EXISTS reading_content (
			reading_id INTEGER PRIMARY KEY,
			text_content_id INTEGER
		)`,
	"content_text_refs": `
		CREATE TABLE IF NOT EXISTS content_text_refs (
			text_content_id INTEGER PRIMARY KEY,
			text_ref_id INTEGER
		)`,
}

// FinalTables sind die Tabellen der ausgelieferten Datenbank, in der
// Reihenfolge, in der die Assemblierung sie überträgt.
var FinalTables = []string{
	"best_content",
	"pmid_text_refs",
	"agent_texts",
	"entrez_pmids",
	"mesh_pmids",
	"mesh_xrefs",
}

// indexes enthält die Index-DDLs pro Tabelle. Sie werden erst nach dem
// vollständigen Datentransfer angelegt.
var indexes = map[string][]string{
	"text_content": {
		"CREATE INDEX IF NOT EXISTS text_content_text_ref_id_idx ON text_content (text_ref_id)",
		"CREATE INDEX IF NOT EXISTS text_content_text_ref_id_text_type_idx ON text_content (text_ref_id, text_type)",
	},
	"best_content": {
		"CREATE INDEX IF NOT EXISTS best_content_text_ref_id_idx ON best_content (text_ref_id)",
		"CREATE INDEX IF NOT EXISTS best_content_text_type_idx ON best_content (text_type)",
	},
	"pmid_text_refs": {
		"CREATE INDEX IF NOT EXISTS pmid_text_refs_pmid_idx ON pmid_text_refs (pmid)",
	},
	"agent_texts": {
		"CREATE INDEX IF NOT EXISTS agent_texts_agent_text_idx ON agent_texts (agent_text)",
	},
	"entrez_pmids": {
		"CREATE INDEX IF NOT EXISTS entrez_pmids_entrez_id_idx ON entrez_pmids (entrez_id)",
		"CREATE INDEX IF NOT EXISTS entrez_pmids_uniprot_id_idx ON entrez_pmids (uniprot_id)",
		"CREATE INDEX IF NOT EXISTS entrez_pmids_hgnc_id_idx ON entrez_pmids (hgnc_id)",
	},
	"mesh_pmids": {
		"CREATE INDEX IF NOT EXISTS mesh_pmids_mesh_num_is_concept_idx ON mesh_pmids (mesh_num, is_concept)",
	},
	"mesh_xrefs": {
		"CREATE INDEX IF NOT EXISTS mesh_xrefs_curie_idx ON mesh_xrefs (curie)",
		"CREATE INDEX IF NOT EXISTS mesh_xrefs_mesh_num_is_concept_idx ON mesh_xrefs (mesh_num, is_concept)",
	},
	"agent_stmts": {
		"CREATE INDEX IF NOT EXISTS agent_stmts_stmt_id_idx ON agent_stmts (stmt_id)",
	},
	"stmt_readings": {
		"CREATE INDEX IF NOT EXISTS stmt_readings_reading_id_idx ON stmt_readings (reading_id)",
	},
	"reading_content": {
		"CREATE INDEX IF NOT EXISTS reading_content_text_content_id_idx ON reading_content (text_content_id)",
	},
}

// EnsureTable legt die Tabelle an, falls sie fehlt. Unbekannte Tabellennamen
// sind ein Programmierfehler und werden als solcher gemeldet.
func (s *Store) EnsureTable(table string) error {
	ddl, ok := schemas[table]
	if !ok {
		return fmt.Errorf("kein Schema für Tabelle %s bekannt", table)
	}
	return s.DB.Exec(ddl).Error
}

// EnsureTables legt mehrere Tabellen in einem Rutsch an.
func (s *Store) EnsureTables(tables ...string) error {
	for _, table := range tables {
		if err := s.EnsureTable(table); err != nil {
			return err
		}
	}
	return nil
}

// AddIndexes legt alle Indizes der Tabelle an (idempotent).
func (s *Store) AddIndexes(table string) error {
	ddls, ok := indexes[table]
	if !ok {
		return fmt.Errorf("keine Indizes für Tabelle %s bekannt", table)
	}
	for _, ddl := range ddls {
		if err := s.DB.Exec(ddl).Error; err != nil {
			return fmt.Errorf("index auf %s: %w", table, err)
		}
	}
	return nil
}
