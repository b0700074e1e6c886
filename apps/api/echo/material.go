package echoapi

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/somaedu/soma/core"
	"github.com/somaedu/soma/core/material"
)

type materialApi struct {
	svc      material.ServiceInterface
	files    material.FileStore
	validate *validator.Validate
}

func registerMaterialAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc material.ServiceInterface,
	files material.FileStore,
	validate *validator.Validate,
) {
	api := materialApi{svc: svc, files: files, validate: validate}

	mg := g.Group("/materials", jwt)
	mg.GET("", api.query)
	mg.POST("", api.upload, teacherMiddleware())
	mg.GET("/subject/:id", api.queryBySubject)
	mg.GET("/teacher/:id", api.queryByTeacher)
	mg.GET("/:id", api.retrieve)
	mg.POST("/:id/download", api.download)
	mg.DELETE("/:id", api.destroy)
}

// Handlers

// upload publishes a new material: multipart form with title, description,
// subject_id and a "file" part. The blob is stored first; a validation
// failure rolls it back.
func (api *materialApi) upload(ctx echo.Context) error {
	var data material.NewMaterial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMaterial")
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "this field is required"})
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	data.TeacherID = claims.Subject
	data.FileType = fileTypeOf(fh.Filename)
	data.FileSize = fh.Size

	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = src.Close() }()

	c := ctx.Request().Context()
	storedName, url, err := api.files.Save(c, fh.Filename, src)
	if err != nil {
		return errors.Wrap(err, "storing uploaded file")
	}
	data.FileName = storedName
	data.FileURL = url

	if err := data.Validate(api.validate); err != nil {
		_ = api.files.Delete(c, storedName)
		return err
	}

	mat, err := api.svc.Create(c, data)
	if err != nil {
		_ = api.files.Delete(c, storedName)
		return errors.Wrap(err, "creating material")
	}
	return ctx.JSON(http.StatusCreated, mat)
}

func (api *materialApi) query(ctx echo.Context) error {
	mats, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying materials")
	}
	return ctx.JSON(http.StatusOK, orEmptyMaterials(mats))
}

func (api *materialApi) queryBySubject(ctx echo.Context) error {
	mats, err := api.svc.QueryBySubject(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying materials by subject")
	}
	return ctx.JSON(http.StatusOK, orEmptyMaterials(mats))
}

func (api *materialApi) queryByTeacher(ctx echo.Context) error {
	mats, err := api.svc.QueryByTeacher(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying materials by teacher")
	}
	return ctx.JSON(http.StatusOK, orEmptyMaterials(mats))
}

func (api *materialApi) retrieve(ctx echo.Context) error {
	mat, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == material.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding material by ID")
	}
	return ctx.JSON(http.StatusOK, mat)
}

// download streams the stored blob and bumps the download counter.
func (api *materialApi) download(ctx echo.Context) error {
	mat, rc, err := api.svc.OpenDownload(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == material.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "opening material download")
	}
	defer func() { _ = rc.Close() }()

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", mat.FileName))
	return ctx.Stream(http.StatusOK, echo.MIMEOctetStream, rc)
}

// destroy removes the material; only the owning teacher or an admin may.
func (api *materialApi) destroy(ctx echo.Context) error {
	c := ctx.Request().Context()

	mat, err := api.svc.GetByID(c, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == material.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding material by ID")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.IsAdmin && mat.TeacherID != claims.Subject {
		return errHttpForbidden
	}

	if err := api.svc.Delete(c, mat.ID); err != nil {
		return errors.Wrap(err, "deleting material")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func orEmptyMaterials(mats []material.Material) []material.Material {
	if mats == nil {
		return []material.Material{}
	}
	return mats
}

// fileTypeOf derives the material type from the upload's extension; unknown
// extensions yield "" and fail validation.
func fileTypeOf(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return material.TypePDF
	case ".ppt", ".pptx":
		return material.TypePPT
	case ".mp4", ".mov", ".avi", ".mkv", ".webm":
		return material.TypeVideo
	default:
		return ""
	}
}
