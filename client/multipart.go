package client

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
)

const imageField = "image"

// sendMultipart sends fields and the optional file at imagePath as a multipart form.
func (c *Client) sendMultipart(ctx context.Context, method rest.Method, path string, fields map[string]string, imagePath string, out interface{}) error {
	body, contentType, err := multipartBody(fields, imagePath)
	if err != nil {
		return err
	}
	req := rest.Request{
		Method:  method,
		BaseURL: c.baseURL + path,
		Headers: map[string]string{"Content-Type": contentType},
		Body:    body,
	}
	return c.send(ctx, req, out)
}

func multipartBody(fields map[string]string, imagePath string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if fields[k] == "" {
			continue
		}
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, "", errors.Wrapf(err, "writing field %s", k)
		}
	}

	if imagePath != "" {
		f, err := os.Open(imagePath)
		if err != nil {
			return nil, "", errors.Wrap(err, "opening image")
		}
		//goland:noinspection GoUnhandledErrorResult
		defer f.Close()

		part, err := w.CreateFormFile(imageField, filepath.Base(imagePath))
		if err != nil {
			return nil, "", errors.Wrap(err, "creating image part")
		}
		if _, err = io.Copy(part, f); err != nil {
			return nil, "", errors.Wrap(err, "copying image")
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", errors.Wrap(err, "closing multipart writer")
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
