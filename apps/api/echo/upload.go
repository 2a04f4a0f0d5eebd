package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/upload"
)

var uploadErrCodes = map[error]int{
	upload.ErrUnknownEndpoint: http.StatusNotFound,
	upload.ErrForbidden:       http.StatusForbidden,
	upload.ErrNoFile:          http.StatusBadRequest,
	upload.ErrTooLarge:        http.StatusRequestEntityTooLarge,
	upload.ErrTypeNotAllowed:  http.StatusUnsupportedMediaType,
}

// upload stores the "file" part of a multipart form for the `:endpoint` upload endpoint.
func (s *Server) upload(ctx echo.Context) error {
	var file upload.File
	fh, err := ctx.FormFile("file")
	if err != nil && err != http.ErrMissingFile {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid upload form").SetInternal(err)
	}
	if fh != nil {
		f, err := fh.Open()
		if err != nil {
			return errors.Wrap(err, "opening uploaded file")
		}
		//goland:noinspection GoUnhandledErrorResult
		defer f.Close()
		file = upload.File{Name: fh.Filename, Size: fh.Size, Content: f}
	}

	res, err := s.deps.UploadSvc.Upload(ctx.Request().Context(), ctx.Param("endpoint"), getSession(ctx).User, file)
	if err != nil {
		if code, ok := uploadErrCodes[errors.Cause(err)]; ok {
			return ctx.JSON(code, echo.Map{"error": err.Error()})
		}
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}
