package catalog

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/dopejs/tmplvars/internal/template"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore keeps a template in a SQLite database. Variable order is an
// explicit position column per entity.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store instance. Call Open and InitSchema before use.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path + "?_pragma=foreign_keys(1)"
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitSchema initializes the database schema.
func (s *SQLiteStore) InitSchema() error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Snapshot reads the whole template.
func (s *SQLiteStore) Snapshot() (*template.Template, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	return loadTemplate(s.db)
}

// UpsertVariable validates against the current template and writes the record
// in one transaction.
func (s *SQLiteStore) UpsertVariable(entityInternalID, internalID string, v template.Variable) (string, error) {
	if s.db == nil {
		return "", fmt.Errorf("database not opened")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	t, err := loadTemplate(tx)
	if err != nil {
		return "", err
	}
	created := internalID == ""
	id, err := t.UpsertVariable(entityInternalID, internalID, v)
	if err != nil {
		return "", err
	}
	rec := t.VariablesByInternalID[id]

	if created {
		_, err = tx.Exec(`
			INSERT INTO variables (internal_id, entity_internal_id, position, type, id, name, description,
				address_offset, hd_public_key_derivation_path, private_derivation_path, public_derivation_path)
			VALUES (?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM variables WHERE entity_internal_id = ?),
				?, ?, ?, ?, ?, ?, ?, ?)`,
			id, entityInternalID, entityInternalID, string(rec.Type), rec.ID, rec.Name, rec.Description,
			rec.AddressOffset, rec.HDPublicKeyDerivationPath, rec.PrivateDerivationPath, rec.PublicDerivationPath,
		)
	} else {
		_, err = tx.Exec(`
			UPDATE variables SET type = ?, id = ?, name = ?, description = ?, address_offset = ?,
				hd_public_key_derivation_path = ?, private_derivation_path = ?, public_derivation_path = ?
			WHERE internal_id = ? AND entity_internal_id = ?`,
			string(rec.Type), rec.ID, rec.Name, rec.Description, rec.AddressOffset,
			rec.HDPublicKeyDerivationPath, rec.PrivateDerivationPath, rec.PublicDerivationPath,
			id, entityInternalID,
		)
	}
	if err != nil {
		return "", fmt.Errorf("failed to write variable: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit variable: %w", err)
	}
	s.logger.Debug("variable upserted", "entity", entityInternalID, "variable", id, "id", rec.ID, "created", created)
	return id, nil
}

// DeleteVariable removes a variable owned by the entity. Unknown or foreign ids are ignored.
func (s *SQLiteStore) DeleteVariable(entityInternalID, internalID string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	res, err := s.db.Exec(
		`DELETE FROM variables WHERE internal_id = ? AND entity_internal_id = ?`,
		internalID, entityInternalID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete variable: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		s.logger.Debug("delete ignored, variable not owned", "entity", entityInternalID, "variable", internalID)
	}
	return nil
}

// AddEntity appends an entity.
func (s *SQLiteStore) AddEntity(e template.Entity) (string, error) {
	if s.db == nil {
		return "", fmt.Errorf("database not opened")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	t, err := loadTemplate(tx)
	if err != nil {
		return "", err
	}
	id, err := t.AddEntity(e)
	if err != nil {
		return "", err
	}
	_, err = tx.Exec(`
		INSERT INTO entities (internal_id, id, name, description, position)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM entities))`,
		id, e.ID, e.Name, e.Description,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert entity: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit entity: %w", err)
	}
	return id, nil
}

// Import replaces the database contents with t.
func (s *SQLiteStore) Import(t *template.Template) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM variables; DELETE FROM entities;`); err != nil {
		return fmt.Errorf("failed to clear catalog: %w", err)
	}
	for pos, entityID := range t.OrderedEntityIDs() {
		e := t.EntitiesByInternalID[entityID]
		if _, err := tx.Exec(
			`INSERT INTO entities (internal_id, id, name, description, position) VALUES (?, ?, ?, ?, ?)`,
			entityID, e.ID, e.Name, e.Description, pos,
		); err != nil {
			return fmt.Errorf("failed to insert entity %s: %w", e.ID, err)
		}
		for vpos, id := range e.VariableInternalIDs {
			v := t.VariablesByInternalID[id]
			if v == nil {
				continue
			}
			if _, err := tx.Exec(`
				INSERT INTO variables (internal_id, entity_internal_id, position, type, id, name, description,
					address_offset, hd_public_key_derivation_path, private_derivation_path, public_derivation_path)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				id, entityID, vpos, string(v.Type), v.ID, v.Name, v.Description,
				v.AddressOffset, v.HDPublicKeyDerivationPath, v.PrivateDerivationPath, v.PublicDerivationPath,
			); err != nil {
				return fmt.Errorf("failed to insert variable %s: %w", v.ID, err)
			}
		}
	}
	return tx.Commit()
}

type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

func loadTemplate(q queryer) (*template.Template, error) {
	t := template.New()

	rows, err := q.Query(`SELECT internal_id, id, name, description FROM entities ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	for rows.Next() {
		var internalID string
		e := &template.Entity{VariableInternalIDs: []string{}}
		if err := rows.Scan(&internalID, &e.ID, &e.Name, &e.Description); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		t.EntitiesByInternalID[internalID] = e
		t.EntityOrder = append(t.EntityOrder, internalID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	rows, err = q.Query(`
		SELECT internal_id, entity_internal_id, type, id, name, description, address_offset,
			hd_public_key_derivation_path, private_derivation_path, public_derivation_path
		FROM variables ORDER BY entity_internal_id, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query variables: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var internalID, entityID, typ string
		v := &template.Variable{}
		if err := rows.Scan(&internalID, &entityID, &typ, &v.ID, &v.Name, &v.Description, &v.AddressOffset,
			&v.HDPublicKeyDerivationPath, &v.PrivateDerivationPath, &v.PublicDerivationPath); err != nil {
			return nil, fmt.Errorf("failed to scan variable: %w", err)
		}
		v.Type = template.VariableType(typ)
		t.VariablesByInternalID[internalID] = v
		if e := t.EntitiesByInternalID[entityID]; e != nil {
			e.VariableInternalIDs = append(e.VariableInternalIDs, internalID)
		}
	}
	return t, rows.Err()
}
