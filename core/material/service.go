package material

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/somaedu/soma/core"
)

var (
	// errors
	ErrNotFound = errors.New("material not found")
)

type (
	Repository interface {
		CreateMaterial(ctx context.Context, mat Material) (Material, error)
		QueryAllMaterials(ctx context.Context) ([]Material, error)
		GetMaterialByID(ctx context.Context, id string) (Material, error)
		QueryMaterialsBySubject(ctx context.Context, subjectID string) ([]Material, error)
		QueryMaterialsByTeacher(ctx context.Context, teacherID string) ([]Material, error)
		// IncrementDownloadCount bumps the counter in a single statement so
		// concurrent downloads do not lose updates.
		IncrementDownloadCount(ctx context.Context, id string) error
		DeleteMaterialsByID(ctx context.Context, ids ...string) error
	}

	// FileStore persists uploaded material blobs.
	FileStore interface {
		// Save stores the blob under a store-chosen name derived from
		// fileName and returns (storedName, publicURL).
		Save(ctx context.Context, fileName string, r io.Reader) (string, string, error)
		Open(ctx context.Context, storedName string) (io.ReadCloser, error)
		Delete(ctx context.Context, storedName string) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, nm NewMaterial) (Material, error)
		QueryAll(ctx context.Context) ([]Material, error)
		GetByID(ctx context.Context, id string) (Material, error)
		QueryBySubject(ctx context.Context, subjectID string) ([]Material, error)
		QueryByTeacher(ctx context.Context, teacherID string) ([]Material, error)
		// OpenDownload streams the stored blob and records the download.
		OpenDownload(ctx context.Context, id string) (Material, io.ReadCloser, error)
		Delete(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo  Repository
		files FileStore
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, files FileStore) *Service {
	return &Service{repo: repo, files: files}
}

func (svc *Service) Create(ctx context.Context, nm NewMaterial) (Material, error) {
	mat := Material{
		ID:          core.NewID(),
		SubjectID:   nm.SubjectID,
		TeacherID:   nm.TeacherID,
		Title:       nm.Title,
		Description: nm.Description,
		FileName:    nm.FileName,
		FileURL:     nm.FileURL,
		FileType:    nm.FileType,
		FileSize:    nm.FileSize,
		CreatedAt:   time.Now().UTC(),
	}
	return svc.repo.CreateMaterial(ctx, mat)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Material, error) {
	return svc.repo.QueryAllMaterials(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Material, error) {
	return svc.repo.GetMaterialByID(ctx, id)
}

func (svc *Service) QueryBySubject(ctx context.Context, subjectID string) ([]Material, error) {
	return svc.repo.QueryMaterialsBySubject(ctx, subjectID)
}

func (svc *Service) QueryByTeacher(ctx context.Context, teacherID string) ([]Material, error) {
	return svc.repo.QueryMaterialsByTeacher(ctx, teacherID)
}

func (svc *Service) OpenDownload(ctx context.Context, id string) (Material, io.ReadCloser, error) {
	mat, err := svc.repo.GetMaterialByID(ctx, id)
	if err != nil {
		return Material{}, nil, err
	}
	rc, err := svc.files.Open(ctx, mat.FileName)
	if err != nil {
		return Material{}, nil, err
	}
	if err := svc.repo.IncrementDownloadCount(ctx, mat.ID); err != nil {
		_ = rc.Close()
		return Material{}, nil, err
	}
	mat.DownloadCount++
	return mat, rc, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		mat, err := svc.repo.GetMaterialByID(ctx, id)
		if err != nil {
			if err == ErrNotFound {
				continue
			}
			return err
		}
		_ = svc.files.Delete(ctx, mat.FileName) // blob cleanup is best-effort
	}
	return svc.repo.DeleteMaterialsByID(ctx, ids...)
}
