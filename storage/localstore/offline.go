package localstore

import (
	"encoding/json"
	"time"

	"github.com/somaedu/soma/core"
	"github.com/somaedu/soma/core/material"
)

// OfflineMaterial is a locally cached copy of a material's file, kept for
// offline reading.
type OfflineMaterial struct {
	ID         string    `json:"id"`
	MaterialID string    `json:"material_id"`
	Title      string    `json:"title"`
	FileName   string    `json:"file_name"`
	Blob       []byte    `json:"blob"`
	CachedAt   time.Time `json:"cached_at"` // UTC
}

// CacheMaterial caches a material's file locally. At most one cached copy per
// material: re-caching replaces the blob under the existing record.
func (s *Store) CacheMaterial(mat material.Material, blob []byte) (OfflineMaterial, error) {
	om := OfflineMaterial{
		ID:         core.NewID(),
		MaterialID: mat.ID,
		Title:      mat.Title,
		FileName:   mat.FileName,
		Blob:       blob,
		CachedAt:   time.Now().UTC(),
	}

	var existing OfflineMaterial
	err := s.GetByIndex(colOffline, "material", mat.ID, &existing)
	switch err {
	case nil:
		om.ID = existing.ID
	case ErrNotFound:
	default:
		return OfflineMaterial{}, err
	}

	if err := s.Put(colOffline, om.ID, om); err != nil {
		return OfflineMaterial{}, err
	}
	return om, nil
}

// DropCached removes a material's cached copy; a no-op when none exists.
func (s *Store) DropCached(materialID string) error {
	var om OfflineMaterial
	err := s.GetByIndex(colOffline, "material", materialID, &om)
	if err == ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	return s.Delete(colOffline, om.ID)
}

// CachedMaterial returns the cached copy of a material, ErrNotFound when the
// material is not cached.
func (s *Store) CachedMaterial(materialID string) (OfflineMaterial, error) {
	var om OfflineMaterial
	err := s.GetByIndex(colOffline, "material", materialID, &om)
	return om, err
}

// CachedMaterials lists all cached copies, oldest cached first.
func (s *Store) CachedMaterials() ([]OfflineMaterial, error) {
	raws, err := s.GetAll(colOffline)
	if err != nil {
		return nil, err
	}
	oms := make([]OfflineMaterial, 0, len(raws))
	for _, raw := range raws {
		var om OfflineMaterial
		if err := json.Unmarshal(raw, &om); err != nil {
			return nil, err
		}
		oms = append(oms, om)
	}
	return oms, nil
}
