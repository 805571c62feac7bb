package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dopejs/tmplvars/internal/template"
	"gopkg.in/yaml.v3"
)

// FileStore manages reading and writing a template file. Files ending in
// .yaml or .yml are YAML, everything else is JSON.
type FileStore struct {
	mu      sync.Mutex
	path    string
	tmpl    *template.Template
	modTime time.Time // last known modification time of the template file
	logger  *slog.Logger
}

// NewFileStore returns a store for path. Call Load before use.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FileStore{path: path, logger: logger}
}

// Path returns the template file path.
func (s *FileStore) Path() string {
	return s.path
}

// Snapshot returns a copy of the current template, reloading it first if the
// file changed on disk.
func (s *FileStore) Snapshot() (*template.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadIfModified(); err != nil {
		return nil, err
	}
	s.ensureTemplate()
	return s.tmpl.Clone(), nil
}

// UpsertVariable creates or replaces a variable and saves.
func (s *FileStore) UpsertVariable(entityInternalID, internalID string, v template.Variable) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadIfModified(); err != nil {
		return "", err
	}
	s.ensureTemplate()
	next := s.tmpl.Clone()
	id, err := next.UpsertVariable(entityInternalID, internalID, v)
	if err != nil {
		return "", err
	}
	if err := s.commitLocked(next); err != nil {
		return "", err
	}
	s.logger.Debug("variable upserted", "entity", entityInternalID, "variable", id, "id", v.ID, "created", internalID == "")
	return id, nil
}

// DeleteVariable removes a variable from its entity and the catalog, then saves.
// Deleting a variable the entity does not own changes nothing.
func (s *FileStore) DeleteVariable(entityInternalID, internalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadIfModified(); err != nil {
		return err
	}
	s.ensureTemplate()
	next := s.tmpl.Clone()
	if !next.DeleteVariable(entityInternalID, internalID) {
		s.logger.Debug("delete ignored, variable not owned", "entity", entityInternalID, "variable", internalID)
		return nil
	}
	if err := s.commitLocked(next); err != nil {
		return err
	}
	s.logger.Debug("variable deleted", "entity", entityInternalID, "variable", internalID)
	return nil
}

// AddEntity appends an entity and saves.
func (s *FileStore) AddEntity(e template.Entity) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadIfModified(); err != nil {
		return "", err
	}
	s.ensureTemplate()
	next := s.tmpl.Clone()
	id, err := next.AddEntity(e)
	if err != nil {
		return "", err
	}
	if err := s.commitLocked(next); err != nil {
		return "", err
	}
	return id, nil
}

// Close is a no-op; every mutation is already on disk.
func (s *FileStore) Close() error { return nil }

// --- I/O ---

// commitLocked saves next and makes it current only if the write succeeded.
func (s *FileStore) commitLocked(next *template.Template) error {
	if err := s.writeLocked(next); err != nil {
		return err
	}
	s.tmpl = next
	return nil
}

// reloadIfModified re-reads the file if it changed since the last load or save.
// Must be called with s.mu held.
func (s *FileStore) reloadIfModified() error {
	if info, err := os.Stat(s.path); err == nil {
		if info.ModTime().After(s.modTime) {
			return s.loadLocked()
		}
	}
	return nil
}

func (s *FileStore) loadLocked() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			// Nothing exists yet; the first save creates the file.
			s.tmpl = template.New()
			s.modTime = time.Time{}
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	t, err := decodeTemplate(s.path, data)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	if t.Version > template.CurrentVersion {
		return fmt.Errorf("template version %d is newer than supported version %d", t.Version, template.CurrentVersion)
	}
	t.EnsureMaps()
	if ne, nv := t.DropNullRecords(); ne+nv > 0 {
		s.logger.Warn("dropped null records", "path", s.path, "entities", ne, "variables", nv)
	}
	t.EntityOrder = t.OrderedEntityIDs()
	s.tmpl = t
	if info, statErr := os.Stat(s.path); statErr == nil {
		s.modTime = info.ModTime()
	}
	s.logger.Debug("template loaded", "path", s.path, "entities", len(t.EntitiesByInternalID), "variables", len(t.VariablesByInternalID))
	return nil
}

// Load reads the template file. A missing file yields an empty template.
func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Save writes the current template to disk.
func (s *FileStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureTemplate()
	return s.writeLocked(s.tmpl)
}

// writeLocked writes t atomically (temp + rename) with 0600 permissions.
func (s *FileStore) writeLocked(t *template.Template) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create template dir: %w", err)
	}

	data, err := encodeTemplate(s.path, t)
	if err != nil {
		return fmt.Errorf("failed to marshal template: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "tmplvars-*"+filepath.Ext(s.path))
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename template file: %w", err)
	}
	if info, statErr := os.Stat(s.path); statErr == nil {
		s.modTime = info.ModTime()
	}
	return nil
}

func (s *FileStore) ensureTemplate() {
	if s.tmpl == nil {
		s.tmpl = template.New()
	}
	s.tmpl.EnsureMaps()
}

// --- codecs ---

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func decodeTemplate(path string, data []byte) (*template.Template, error) {
	var t template.Template
	if isYAML(path) {
		if err := yaml.Unmarshal(data, &t); err != nil {
			return nil, err
		}
		return &t, nil
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func encodeTemplate(path string, t *template.Template) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(t)
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
