package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ListFiles returns the names of all uploaded documents.
func (c *Client) ListFiles(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.do(ctx, "list files", http.MethodGet, "/api/v1/files", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// DeleteFile removes an uploaded document by name.
func (c *Client) DeleteFile(ctx context.Context, name string) error {
	return c.do(ctx, "delete file", http.MethodDelete, "/api/v1/files/"+url.PathEscape(name), nil, nil)
}

// DownloadFile streams a stored document into w.
func (c *Client) DownloadFile(ctx context.Context, name string, w io.Writer) error {
	const op = "download file"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/files/"+url.PathEscape(name), nil)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Detail: err.Error(), Err: err}
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Detail: err.Error(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &Error{Kind: KindServer, Op: op, Status: resp.StatusCode, Detail: trimDetail(body)}
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return &Error{Kind: KindNetwork, Op: op, Detail: err.Error(), Err: err}
	}
	return nil
}

// UploadFile sends a local file as a multipart upload.
func (c *Client) UploadFile(ctx context.Context, path string) error {
	const op = "upload file"

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(path))
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/files/upload", pr)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Detail: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Detail: err.Error(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &Error{Kind: KindServer, Op: op, Status: resp.StatusCode, Detail: trimDetail(body)}
	}
	return nil
}
