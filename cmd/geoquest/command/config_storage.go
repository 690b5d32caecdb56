package command

import (
	"fmt"
	"os"

	"github.com/pixil98/go-errors"
	"github.com/questline/go-geoquest/internal/powers"
	"github.com/questline/go-geoquest/internal/storage"
	"github.com/questline/go-geoquest/internal/world"
)

type StorageConfig struct {
	Zones       AssetConfig[*world.Zone]               `json:"zones"`
	Experiences AssetConfig[*world.ExperienceTemplate] `json:"experiences"`
	Challenges  AssetConfig[*powers.ChallengeSpec]     `json:"challenges"`
}

func (c *StorageConfig) validate() error {
	el := errors.NewErrorList()
	el.Add(c.Zones.Validate("zones"))
	el.Add(c.Experiences.Validate("experiences"))
	el.Add(c.Challenges.Validate("challenges"))
	return el.Err()
}

func (c *StorageConfig) buildZoneStore() (*storage.FileStore[*world.Zone], error) {
	return c.Zones.BuildFileStore()
}

func (c *StorageConfig) buildExperienceStore() (*storage.FileStore[*world.ExperienceTemplate], error) {
	return c.Experiences.BuildFileStore()
}

// buildChallengeCatalog flattens the challenge store into the list the
// power manager samples from.
func (c *StorageConfig) buildChallengeCatalog() ([]*powers.ChallengeSpec, error) {
	store, err := c.Challenges.BuildFileStore()
	if err != nil {
		return nil, err
	}

	var catalog []*powers.ChallengeSpec
	for _, spec := range store.GetAll() {
		catalog = append(catalog, spec)
	}

	return catalog, nil
}

type AssetConfig[T storage.ValidatingSpec] struct {
	Path string `json:"path"`
}

func (c *AssetConfig[T]) Validate(name string) error {
	if c.Path == "" {
		return fmt.Errorf("%s: path is required", name)
	}
	_, err := os.Stat(c.Path)
	if err != nil {
		return fmt.Errorf("%s: invalid path %q: %w", name, c.Path, err)
	}

	return nil
}

func (c *AssetConfig[T]) BuildFileStore() (*storage.FileStore[T], error) {
	return storage.NewFileStore[T](c.Path)
}
