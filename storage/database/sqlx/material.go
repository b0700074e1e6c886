package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/somaedu/soma/core/material"
)

const selectMaterial = `SELECT id, subject_id, teacher_id, title, description, file_name, file_url, file_type, file_size, download_count, created_at FROM material`

type dbMaterial struct {
	ID            string    `db:"id"`
	SubjectID     string    `db:"subject_id"`
	TeacherID     string    `db:"teacher_id"`
	Title         string    `db:"title"`
	Description   string    `db:"description"`
	FileName      string    `db:"file_name"`
	FileURL       string    `db:"file_url"`
	FileType      string    `db:"file_type"`
	FileSize      int64     `db:"file_size"`
	DownloadCount int       `db:"download_count"`
	CreatedAt     time.Time `db:"created_at"`
}

func (dm dbMaterial) toMaterial() material.Material {
	return material.Material(dm)
}

type materialRepository struct {
	db *sqlx.DB
}

var _ material.Repository = (*materialRepository)(nil) // interface compliance check

func NewMaterialRepository(db *sqlx.DB) material.Repository {
	return &materialRepository{db: db}
}

func (repo *materialRepository) CreateMaterial(ctx context.Context, mat material.Material) (material.Material, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO material (id, subject_id, teacher_id, title, description, file_name, file_url, file_type, file_size, download_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		mat.ID, mat.SubjectID, mat.TeacherID, mat.Title, mat.Description,
		mat.FileName, mat.FileURL, mat.FileType, mat.FileSize, mat.DownloadCount, mat.CreatedAt,
	)
	return mat, err
}

func (repo *materialRepository) queryMaterials(ctx context.Context, where string, args ...interface{}) ([]material.Material, error) {
	q := selectMaterial
	if where != "" {
		q += " WHERE " + where
	}
	q += " ORDER BY created_at DESC"

	var rows []dbMaterial
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	mats := make([]material.Material, 0, len(rows))
	for _, dm := range rows {
		mats = append(mats, dm.toMaterial())
	}
	return mats, nil
}

func (repo *materialRepository) QueryAllMaterials(ctx context.Context) ([]material.Material, error) {
	return repo.queryMaterials(ctx, "")
}

func (repo *materialRepository) GetMaterialByID(ctx context.Context, id string) (material.Material, error) {
	var dm dbMaterial
	err := repo.db.GetContext(ctx, &dm, selectMaterial+" WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return material.Material{}, material.ErrNotFound
	}
	if err != nil {
		return material.Material{}, err
	}
	return dm.toMaterial(), nil
}

func (repo *materialRepository) QueryMaterialsBySubject(ctx context.Context, subjectID string) ([]material.Material, error) {
	return repo.queryMaterials(ctx, "subject_id = $1", subjectID)
}

func (repo *materialRepository) QueryMaterialsByTeacher(ctx context.Context, teacherID string) ([]material.Material, error) {
	return repo.queryMaterials(ctx, "teacher_id = $1", teacherID)
}

// IncrementDownloadCount is a single UPDATE so concurrent downloads never
// lose a count to a read-modify-write race.
func (repo *materialRepository) IncrementDownloadCount(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE material SET download_count = download_count + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return material.ErrNotFound
	}
	return nil
}

func (repo *materialRepository) DeleteMaterialsByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM material WHERE id = ANY($1)`, pq.StringArray(ids))
	return err
}
