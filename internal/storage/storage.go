package storage

import (
	"qte/internal/config"
	"qte/internal/domain"
)

// Storage exports run reports. Reports are artifacts for other tools and are
// never read back.
type Storage interface {
	Save(report domain.RunReport) (string, error)
}

// JSONStorage stores reports in a JSON file under the configured report path.
type JSONStorage struct {
	cfg *config.Config
}

// NewJSONStorage returns a Storage that writes the config's report JSON path.
func NewJSONStorage(cfg *config.Config) *JSONStorage {
	return &JSONStorage{cfg: cfg}
}
