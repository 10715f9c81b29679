package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/hexdb-io/hexdb/internal/logger"
)

// Bootstrap ensures the root data directories exist. It creates dbs/
// unconditionally on first start, so a brand-new root always gets one.
func Bootstrap(rootDir string) error {
	if err := os.MkdirAll(filepath.Join(rootDir, "dbs"), 0o755); err != nil {
		return err
	}
	return nil
}

func databaseDir(rootDir, db string) string {
	return filepath.Join(rootDir, "dbs", db)
}

func tablePath(rootDir, db, table string) string {
	return filepath.Join(databaseDir(rootDir, db), table+".json")
}

// readTable loads and validates a table JSON document.
func readTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrTableMissing
		}
		return nil, err
	}
	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, ErrTableMalformed
	}
	return &t, nil
}

// writeTable persists t by writing to a temp file in dir and renaming it
// over path, so a crash mid-write never leaves a torn table file.
func writeTable(path string, t *Table) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	logger.Debug("wrote table file", logger.String("path", path))
	return nil
}
