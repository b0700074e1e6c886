package dummydb

import (
	"context"
	"sort"

	"github.com/somaedu/soma/core/material"
)

type materialRepository struct {
	db *materialTable
}

var _ material.Repository = (*materialRepository)(nil) // interface compliance check

func NewMaterialRepository(db *DB) material.Repository {
	return &materialRepository{db: db.material}
}

func (repo *materialRepository) query(match func(material.Material) bool) []material.Material {
	mats := make([]material.Material, 0, len(repo.db.table))
	for _, mat := range repo.db.table {
		if match == nil || match(*mat) {
			mats = append(mats, *mat)
		}
	}
	// newest first, like the SQL repository
	sort.Slice(mats, func(i, j int) bool { return mats[i].CreatedAt.After(mats[j].CreatedAt) })
	return mats
}

func (repo *materialRepository) CreateMaterial(_ context.Context, mat material.Material) (material.Material, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[mat.ID] = &mat
	return mat, nil
}

func (repo *materialRepository) QueryAllMaterials(_ context.Context) ([]material.Material, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(nil), nil
}

func (repo *materialRepository) GetMaterialByID(_ context.Context, id string) (material.Material, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if mat, ok := repo.db.table[id]; ok {
		return *mat, nil
	}
	return material.Material{}, material.ErrNotFound
}

func (repo *materialRepository) QueryMaterialsBySubject(_ context.Context, subjectID string) ([]material.Material, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(func(mat material.Material) bool { return mat.SubjectID == subjectID }), nil
}

func (repo *materialRepository) QueryMaterialsByTeacher(_ context.Context, teacherID string) ([]material.Material, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(func(mat material.Material) bool { return mat.TeacherID == teacherID }), nil
}

func (repo *materialRepository) IncrementDownloadCount(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	mat, ok := repo.db.table[id]
	if !ok {
		return material.ErrNotFound
	}
	mat.DownloadCount++
	return nil
}

func (repo *materialRepository) DeleteMaterialsByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
