package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
)

// File is one file part of a multipart upload.
type File struct {
	Field   string
	Name    string
	Content io.Reader
}

// FormData is a multipart payload.
type FormData struct {
	Fields map[string]string
	Files  []File
}

// Upload sends form as multipart/form-data.
func (c *Client) Upload(ctx context.Context, path string, form *FormData) (*Response, error) {
	if form == nil {
		form = &FormData{}
	}
	body, contentType, err := form.encode()
	if err != nil {
		return nil, err
	}
	return c.send(ctx, http.MethodPost, path, nil, body, contentType)
}

func (f *FormData) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(f.Fields))
	for k := range f.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, f.Fields[k]); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", k, err)
		}
	}

	for _, file := range f.Files {
		if file.Field == "" {
			return nil, "", fmt.Errorf("file %q has no form field", file.Name)
		}
		part, err := w.CreateFormFile(file.Field, file.Name)
		if err != nil {
			return nil, "", fmt.Errorf("creating part for %s: %w", file.Name, err)
		}
		if file.Content != nil {
			if _, err := io.Copy(part, file.Content); err != nil {
				return nil, "", fmt.Errorf("reading %s: %w", file.Name, err)
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
