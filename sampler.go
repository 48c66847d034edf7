package lblgen

// Proportional model selection and skin assignment.

import (
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// modelExt is the file extension of model files.
const modelExt = ".obj"

// Quotas returns the number of objects per material, round(objectsPerImage * p / 100) for each
// proportion p. Halves round to even.
func Quotas(objectsPerImage int, proportions []int) []int {
	quotas := make([]int, len(proportions))
	for i, p := range proportions {
		quotas[i] = int(math.RoundToEven(float64(objectsPerImage) * (float64(p) / 100)))
	}
	return quotas
}

// Sampler draws models per material category and assigns their placement and skin.
type Sampler struct {
	ModelDir   string         // Holds one directory of .obj models per material.
	Placement  Placement      // Fixed placement fields; nil fields are random.
	Skins      SkinLibrary    // Skins per material and object identifier.
	EditCounts SkinEditCounts // Texture references to rewrite per object identifier.
	Jazz       float64        // Probability of a random color when the edit count is zero.
	Random     *RandomState

	pools map[string][]string
}

// NewSampler returns a sampler for the models under modelDir configured by cfg.
func NewSampler(modelDir string, cfg *Config, rs *RandomState) *Sampler {
	return &Sampler{
		ModelDir:   modelDir,
		Skins:      cfg.Skins,
		EditCounts: cfg.ChangeSkin,
		Jazz:       cfg.Jazz,
		Random:     rs,
	}
}

// Pool returns the model files available for material, sorted by path.
func (s *Sampler) Pool(material string) ([]string, error) {
	if pool, ok := s.pools[material]; ok {
		return pool, nil
	}

	dir := filepath.Join(s.ModelDir, material)
	pool, err := filesByExtInTree(dir, modelExt)
	if err != nil {
		if suggestion := s.closestMaterial(material); suggestion != "" {
			return nil, fmt.Errorf("no models for material %q (did you mean %q?): %w",
				material, suggestion, err)
		}
		return nil, fmt.Errorf("no models for material %q: %w", material, err)
	}
	sort.Strings(pool)

	if s.pools == nil {
		s.pools = make(map[string][]string)
	}
	s.pools[material] = pool
	log.Printf("Found %d models for material %q", len(pool), material)
	return pool, nil
}

// closestMaterial returns the material directory most similar to material, if any is similar
// enough.
func (s *Sampler) closestMaterial(material string) string {
	entries, err := os.ReadDir(s.ModelDir)
	if err != nil {
		return ""
	}

	best, bestScore := "", 0.5
	lev := metrics.NewLevenshtein()
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if score := strutil.Similarity(material, e.Name(), lev); score > bestScore {
			best, bestScore = e.Name(), score
		}
	}
	return best
}

// Sample returns count objects for material, drawn with replacement from its pool. If seed is not
// nil the sampler's random stream is reseeded first.
func (s *Sampler) Sample(material string, count int, seed *int64) ([]*PlacedObject, error) {
	if seed != nil {
		s.Random.Reseed(*seed)
	}
	if count <= 0 {
		return nil, nil
	}

	pool, err := s.Pool(material)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("no %s models found for material %q in %q", modelExt, material,
			s.ModelDir)
	}

	objects := make([]*PlacedObject, 0, count)
	for i := 0; i < count; i++ {
		path := pool[s.Random.Intn(len(pool))]
		objects = append(objects, NewPlacedObject(path, material, s.Placement, s.Random))
	}
	return objects, nil
}

// SampleAll samples quotas[i] objects of materials[i] and assigns their skins.
func (s *Sampler) SampleAll(materials []string, quotas []int) ([]*PlacedObject, error) {
	if len(materials) != len(quotas) {
		return nil, fmt.Errorf("got %d materials but %d quotas", len(materials), len(quotas))
	}

	var all []*PlacedObject
	for i, material := range materials {
		objects, err := s.Sample(material, quotas[i], nil)
		if err != nil {
			return nil, err
		}
		for _, obj := range objects {
			if err := s.ApplySkin(obj); err != nil {
				return nil, err
			}
		}
		all = append(all, objects...)
	}
	return all, nil
}

// ApplySkin picks a skin for obj from the skin library and writes it to the object's material
// file. Objects without skins for their material and identifier, or without an edit count, are
// left unchanged.
//
// An edit count of zero selects the color branch instead: with probability s.Jazz the object gets
// a fixed random color.
func (s *Sampler) ApplySkin(obj *PlacedObject) error {
	id := obj.Identifier()
	skins, ok := s.Skins.Lookup(obj.Material, id)
	if !ok {
		return nil
	}
	skin := skins[s.Random.Intn(len(skins))]

	count, ok := s.EditCounts.Lookup(id)
	if !ok {
		return nil
	}
	if count == 0 {
		if chance := s.Random.Float64(); 1-s.Jazz < chance {
			obj.Color = s.Random.Color()
			obj.RandomColor = false
		}
		return nil
	}

	if err := RewriteTextures(obj.MaterialFilePath(), skin, count); err != nil {
		return err
	}
	obj.Skin = skin
	return nil
}
