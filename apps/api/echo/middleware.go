package echoapi

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
)

const contextObjectKey = "object"

func adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return err
		}
		if claims.IsAdmin {
			return next(ctx)
		}
		return errHttpForbidden
	}
}

// ownerOrAdminMiddleware loads the :id object into the context.
// Only admins and the user returned by owner can reach it; others get a 404.
func ownerOrAdminMiddleware[T any](get func(context.Context, string) (T, error), owner func(T) string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}

			obj, err := get(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if core.IsNotFound(err) {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding object by ID")
			}
			if !claims.IsAdmin && owner(obj) != claims.Subject {
				return errHttpNotFound
			}
			ctx.Set(contextObjectKey, obj)
			return next(ctx)
		}
	}
}

func getContextObject[T any](ctx echo.Context) (T, error) {
	obj, ok := ctx.Get(contextObjectKey).(T)
	if !ok {
		return obj, errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	return obj, nil
}

// saveUpload stores the optional file part named field and returns its URL ("" when absent).
func saveUpload(ctx echo.Context, files core.FileStore, field string) (string, error) {
	fh, err := ctx.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", errors.Wrapf(err, "reading %s", field)
	}
	return storeFile(ctx.Request().Context(), files, fh)
}

func storeFile(ctx context.Context, files core.FileStore, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "opening upload")
	}
	//goland:noinspection GoUnhandledErrorResult
	defer f.Close()
	return files.Save(ctx, fh.Filename, io.Reader(f))
}

// discardUpload deletes the upload at url, if any, after its object failed to be stored.
func discardUpload(ctx context.Context, files core.FileStore, logger core.Logger, url string) {
	if url == "" {
		return
	}
	if err := files.Delete(ctx, url); err != nil {
		logger.Warn(fmt.Sprintf("deleting upload %s: %v", url, err), err)
	}
}
