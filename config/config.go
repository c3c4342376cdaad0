package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	// Upstream-Postgres (indra_db Instanz), nur für die Build-Pipeline.
	DBHost     string `envconfig:"DB_HOST"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME"`

	// Pfad der finalen Einzeldatei-Datenbank für den Query-Pfad.
	LiteDBPath string `envconfig:"LITE_DB_PATH" default:"./data/lit_lite.db"`
	// Arbeitsverzeichnis der Build-Pipeline (Staging-Datenbanken, Downloads).
	BuildDir string `envconfig:"BUILD_DIR" default:"./build"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	MedlineBaseURL string `envconfig:"MEDLINE_BASE_URL" default:"https://ftp.ncbi.nlm.nih.gov/pubmed/baseline/"`
	EntrezPMIDsURL string `envconfig:"ENTREZ_PMIDS_URL" default:"https://ftp.ncbi.nlm.nih.gov/gene/DATA/gene2pubmed.gz"`
	HGNCSetURL     string `envconfig:"HGNC_SET_URL" default:"https://storage.googleapis.com/public-download-files/hgnc/tsv/tsv/hgnc_complete_set.txt"`
	MeshXrefsURL   string `envconfig:"MESH_XREFS_URL" default:"https://zenodo.org/record/4661382/files/xrefs.tsv.gz"`

	// Zeitplan für den periodischen Snapshot-Refresh im Server.
	CronSchedule string `envconfig:"CRON_SCHEDULE" default:"0 3 * * *"`

	SnapshotS3Key    string `envconfig:"SNAPSHOT_S3_KEY"`
	SnapshotS3Secret string `envconfig:"SNAPSHOT_S3_SECRET"`
	SnapshotS3URL    string `envconfig:"SNAPSHOT_S3_URL"`
	SnapshotS3Region string `envconfig:"SNAPSHOT_S3_REGION"`
	SnapshotS3Bucket string `envconfig:"SNAPSHOT_S3_BUCKET"`
	// Anzahl der aufzubewahrenden Snapshots bei der Rotation.
	KeepSnapshots int `envconfig:"KEEP_SNAPSHOTS" default:"4"`
}

// DSN gibt den Data Source Name für die Upstream-PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
