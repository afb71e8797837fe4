// internal/seed/seed.go
package seed

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mpetras/castdraft/internal/models"
)

// catalog is the on-disk shape of a contestant catalog file.
type catalog struct {
	Contestants []models.ContestantDraft `json:"contestants"`
}

// LoadCatalog reads the contestant catalog JSON used to seed a new room.
// The file holds {"contestants": [{name, bio, imageUrl, star}, ...]}.
func LoadCatalog(path string) ([]models.ContestantDraft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var cat catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return cat.Contestants, nil
}
