package registry

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sanjib-agent/cricketml/pkg/models"
	"github.com/sanjib-agent/cricketml/pkg/schema"
)

// Registry is the SQLite-backed catalog of trained model artifacts and
// best-model selections. Artifacts are immutable rows; retraining a
// (family, target) pair supersedes the previous row via upsert.
type Registry struct {
	db *sql.DB
}

// Open opens (creating if needed) the registry database.
func Open(dbPath string) (*Registry, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_journal_mode=WAL&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry database: %w", err)
	}

	// Writes are serialized in SQLite anyway, so keep the pool small.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to registry database: %w", err)
	}

	r := &Registry{db: db}
	if err := r.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize registry schema: %w", err)
	}
	return r, nil
}

// Close closes the database connection.
func (r *Registry) Close() error {
	return r.db.Close()
}

func (r *Registry) initSchema() error {
	ddl := `
	CREATE TABLE IF NOT EXISTS artifacts (
		family TEXT NOT NULL,
		target TEXT NOT NULL,
		run_id TEXT NOT NULL,
		trained_at DATETIME NOT NULL,
		model_path TEXT NOT NULL,
		data TEXT NOT NULL,
		PRIMARY KEY (family, target)
	);

	CREATE TABLE IF NOT EXISTS best_models (
		target TEXT PRIMARY KEY,
		family TEXT NOT NULL,
		run_id TEXT NOT NULL,
		selected_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_artifacts_target ON artifacts(target);
	`
	if _, err := r.db.Exec(ddl); err != nil {
		return err
	}
	return nil
}

// PutArtifact records (or supersedes) a trained model artifact.
func (r *Registry) PutArtifact(artifact *models.TrainedModelArtifact) error {
	data, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO artifacts (family, target, run_id, trained_at, model_path, data)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(family, target) DO UPDATE SET
			run_id = excluded.run_id,
			trained_at = excluded.trained_at,
			model_path = excluded.model_path,
			data = excluded.data`,
		artifact.Family, artifact.Target, artifact.RunID, artifact.TrainedAt, artifact.ModelPath, string(data))
	if err != nil {
		return fmt.Errorf("failed to store artifact %s/%s: %w", artifact.Family, artifact.Target, err)
	}
	return nil
}

// GetArtifact returns the artifact for a (family, target) pair.
func (r *Registry) GetArtifact(family, target string) (*models.TrainedModelArtifact, error) {
	var data string
	err := r.db.QueryRow(
		`SELECT data FROM artifacts WHERE family = ? AND target = ?`, family, target).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no artifact for %s/%s", schema.ErrNoModel, family, target)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load artifact %s/%s: %w", family, target, err)
	}

	var artifact models.TrainedModelArtifact
	if err := json.Unmarshal([]byte(data), &artifact); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artifact %s/%s: %w", family, target, err)
	}
	return &artifact, nil
}

// ListArtifacts returns every artifact for a target, newest first.
func (r *Registry) ListArtifacts(target string) ([]*models.TrainedModelArtifact, error) {
	rows, err := r.db.Query(
		`SELECT data FROM artifacts WHERE target = ? ORDER BY trained_at DESC`, target)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts for %s: %w", target, err)
	}
	defer rows.Close()

	var artifacts []*models.TrainedModelArtifact
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var artifact models.TrainedModelArtifact
		if err := json.Unmarshal([]byte(data), &artifact); err != nil {
			return nil, fmt.Errorf("failed to unmarshal artifact for %s: %w", target, err)
		}
		artifacts = append(artifacts, &artifact)
	}
	return artifacts, rows.Err()
}

// SetBestModel records the winning family for a target.
func (r *Registry) SetBestModel(target, family, runID string) error {
	_, err := r.db.Exec(`
		INSERT INTO best_models (target, family, run_id, selected_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(target) DO UPDATE SET
			family = excluded.family,
			run_id = excluded.run_id,
			selected_at = excluded.selected_at`,
		target, family, runID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set best model for %s: %w", target, err)
	}
	return nil
}

// BestModel returns the winning family recorded for a target.
func (r *Registry) BestModel(target string) (string, error) {
	var family string
	err := r.db.QueryRow(`SELECT family FROM best_models WHERE target = ?`, target).Scan(&family)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: no best model recorded for %s", schema.ErrNoModel, target)
	}
	if err != nil {
		return "", fmt.Errorf("failed to load best model for %s: %w", target, err)
	}
	return family, nil
}
