package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/adlint/adlint/internal/utils"
	"github.com/adlint/adlint/pkg/storage"
)

func viperDBPath() string {
	return viper.GetString("db")
}

// openHistoryDB resolves the configured history database path, makes sure its
// directory exists and opens it.
func openHistoryDB() (*storage.DB, error) {
	dbPath, err := utils.GetAbsDBPath(viperDBPath())
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	return storage.Open(dbPath)
}
