package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"wayfinder/internal/domain"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository. Use ":memory:" for a private
// in-memory database.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath
	if dbPath != ":memory:" && !strings.HasPrefix(dbPath, "file:") {
		dsn = "file:" + dbPath
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: an in-memory database exists per connection, and
	// sqlite allows a single writer anyway.
	db.SetMaxOpenConns(1)

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS nodes (
		seq INTEGER NOT NULL,
		id TEXT PRIMARY KEY,
		label TEXT,
		floor REAL NOT NULL DEFAULT 0,
		x REAL,
		y REAL,
		positions JSON,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS edges (
		seq INTEGER NOT NULL,
		from_id TEXT NOT NULL,
		to_id TEXT NOT NULL,
		weight REAL,
		label TEXT
	);

	CREATE TABLE IF NOT EXISTS scenes (
		id TEXT PRIMARY KEY,
		name JSON,
		floor REAL NOT NULL DEFAULT 0,
		hotspots JSON,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_nodes_seq ON nodes(seq);
	CREATE INDEX IF NOT EXISTS idx_edges_seq ON edges(seq);
	CREATE INDEX IF NOT EXISTS idx_nodes_floor ON nodes(floor);
	`

	_, err := r.db.Exec(schema)
	return err
}

// GetGraph loads the complete graph in saved order
func (r *Repository) GetGraph(ctx context.Context) (*domain.Graph, error) {
	g := domain.NewGraph()

	rows, err := r.db.QueryContext(ctx, `SELECT `+nodeColumns+` FROM nodes ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row nodeRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		n, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		g.AddNode(n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}

	edgeRows, err := r.db.QueryContext(ctx, `SELECT `+edgeColumns+` FROM edges ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer edgeRows.Close()

	for edgeRows.Next() {
		var row edgeRow
		if err := edgeRows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		g.AddEdge(row.toDomain())
	}
	if err := edgeRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating edges: %w", err)
	}

	return g, nil
}

// SaveGraph replaces the stored graph in one transaction
func (r *Repository) SaveGraph(ctx context.Context, g *domain.Graph) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM edges`); err != nil {
		return fmt.Errorf("failed to clear edges: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes`); err != nil {
		return fmt.Errorf("failed to clear nodes: %w", err)
	}

	nodeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (seq, id, label, floor, x, y, positions, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare node statement: %w", err)
	}
	defer nodeStmt.Close()

	for i := range g.Nodes {
		args, err := nodeInsertArgs(i, &g.Nodes[i])
		if err != nil {
			return fmt.Errorf("failed to encode node %s: %w", g.Nodes[i].ID, err)
		}
		if _, err := nodeStmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert node %s: %w", g.Nodes[i].ID, err)
		}
	}

	edgeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO edges (seq, from_id, to_id, weight, label) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare edge statement: %w", err)
	}
	defer edgeStmt.Close()

	for i := range g.Edges {
		if _, err := edgeStmt.ExecContext(ctx, edgeInsertArgs(i, &g.Edges[i])...); err != nil {
			return fmt.Errorf("failed to insert edge %s-%s: %w", g.Edges[i].From, g.Edges[i].To, err)
		}
	}

	if err := setMetadata(ctx, tx, "graph_saved", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListScenes returns all scenes ordered by ID
func (r *Repository) ListScenes(ctx context.Context) ([]domain.Scene, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+sceneColumns+` FROM scenes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenes: %w", err)
	}
	defer rows.Close()

	scenes := make([]domain.Scene, 0)
	for rows.Next() {
		var row sceneRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan scene: %w", err)
		}
		s, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scenes: %w", err)
	}
	return scenes, nil
}

// GetScene retrieves a single scene by ID
func (r *Repository) GetScene(ctx context.Context, id string) (*domain.Scene, error) {
	var row sceneRow
	err := r.db.QueryRowContext(ctx, `SELECT `+sceneColumns+` FROM scenes WHERE id = ?`, id).Scan(row.scanArgs()...)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query scene: %w", err)
	}
	s, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpsertScenes inserts or updates scenes in one transaction. Scenes not
// listed are left alone.
func (r *Repository) UpsertScenes(ctx context.Context, scenes []domain.Scene) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scenes (id, name, floor, hotspots, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			floor = excluded.floor,
			hotspots = excluded.hotspots,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare scene statement: %w", err)
	}
	defer stmt.Close()

	for i := range scenes {
		args, err := sceneInsertArgs(&scenes[i])
		if err != nil {
			return fmt.Errorf("failed to encode scene %s: %w", scenes[i].ID, err)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to upsert scene %s: %w", scenes[i].ID, err)
		}
	}

	if err := setMetadata(ctx, tx, "last_import", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Metadata returns a bookkeeping value such as "last_import" or
// "graph_saved", or "" if unset
func (r *Repository) Metadata(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query metadata: %w", err)
	}
	return value, nil
}

func setMetadata(ctx context.Context, tx *sql.Tx, key, value string) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}

// Close closes the database
func (r *Repository) Close() error {
	return r.db.Close()
}
