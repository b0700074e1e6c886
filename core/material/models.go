package material

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/somaedu/soma/core"
)

// File types
const (
	TypePDF   = "pdf"
	TypePPT   = "ppt"
	TypeVideo = "video"
)

var AllFileTypes = []string{TypePDF, TypePPT, TypeVideo}

// Material is a learning resource (document/slide/video) uploaded by a teacher.
type Material struct {
	ID            string    `json:"id"`
	SubjectID     string    `json:"subject_id"`
	TeacherID     string    `json:"teacher_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	FileName      string    `json:"file_name"`
	FileURL       string    `json:"file_url"`
	FileType      string    `json:"file_type"`
	FileSize      int64     `json:"file_size"`
	DownloadCount int       `json:"download_count"`
	CreatedAt     time.Time `json:"created_at"` // UTC
}

// NewMaterial contains information needed to publish a new Material.
// File fields are filled in by the upload handler once the blob is stored.
type NewMaterial struct {
	SubjectID   string `json:"subject_id" form:"subject_id" validate:"required"`
	TeacherID   string `json:"-" form:"-"`
	Title       string `json:"title" form:"title" validate:"required"`
	Description string `json:"description" form:"description"`
	FileName    string `json:"file_name" form:"-" validate:"required"`
	FileURL     string `json:"file_url" form:"-" validate:"required"`
	FileType    string `json:"file_type" form:"-" validate:"filetype"`
	FileSize    int64  `json:"file_size" form:"-"`
}

func (nm *NewMaterial) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	nm.Description = core.CleanString(nm.Description)
	return validate.Struct(nm)
}
