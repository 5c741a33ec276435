// Package upload talks to the asset upload service. Files upload
// concurrently with independent outcomes: one failure never blocks or
// cancels the others.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/blueprintforge/blueprint-backend/internal/blueprint/domain"
	"github.com/blueprintforge/blueprint-backend/internal/logging"
)

// DefaultTimeout bounds one file upload.
const DefaultTimeout = 60 * time.Second

// File is one asset to upload.
type File struct {
	Name        string
	ContentType string
	Content     []byte
}

// Client calls the upload service, one request per file.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates an upload client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
}

type uploadResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Name  string `json:"name"`
	URL   string `json:"url"`
	Size  int64  `json:"size"`
	Type  string `json:"type"`
}

// Upload sends one file and returns its asset reference.
func (c *Client) Upload(ctx context.Context, ownerKey string, f File) (domain.AssetRef, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", f.Name)
	if err != nil {
		return domain.AssetRef{}, domain.WrapFailure(domain.FailUpload, f.Name, err)
	}
	if _, err := part.Write(f.Content); err != nil {
		return domain.AssetRef{}, domain.WrapFailure(domain.FailUpload, f.Name, err)
	}
	_ = mw.WriteField("owner_key", ownerKey)
	if err := mw.Close(); err != nil {
		return domain.AssetRef{}, domain.WrapFailure(domain.FailUpload, f.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &buf)
	if err != nil {
		return domain.AssetRef{}, domain.WrapFailure(domain.FailUpload, f.Name, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.AssetRef{}, domain.WrapFailure(domain.FailUpload, f.Name, err)
	}
	defer resp.Body.Close()

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.AssetRef{}, domain.WrapFailure(domain.FailUpload, f.Name, err)
	}
	if resp.StatusCode >= 400 || !out.OK {
		msg := out.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return domain.AssetRef{}, domain.NewFailure(domain.FailUpload, fmt.Sprintf("%s: %s", f.Name, msg))
	}
	return domain.AssetRef{Name: out.Name, URL: out.URL, Size: out.Size, Type: out.Type}, nil
}

// UploadAll uploads every file concurrently and merges results only after
// all have resolved or failed. Successful assets keep the input order;
// failures are returned separately, one per failed file.
func (c *Client) UploadAll(ctx context.Context, ownerKey string, files []File) ([]domain.AssetRef, []error) {
	logger := logging.NewLogger(ctx)
	type slot struct {
		asset domain.AssetRef
		err   error
	}
	slots := make([]slot, len(files))

	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		go func(i int, f File) {
			defer wg.Done()
			asset, err := c.Upload(ctx, ownerKey, f)
			slots[i] = slot{asset: asset, err: err}
		}(i, f)
	}
	wg.Wait()

	var assets []domain.AssetRef
	var errs []error
	for i, s := range slots {
		if s.err != nil {
			logger.LogWarnf("upload", "file %q failed: %v", files[i].Name, s.err)
			errs = append(errs, s.err)
			continue
		}
		assets = append(assets, s.asset)
	}
	return assets, errs
}

// ReadFile drains a multipart file header into a File.
func ReadFile(name, contentType string, r io.Reader) (File, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return File{}, domain.WrapFailure(domain.FailUpload, name, err)
	}
	return File{Name: name, ContentType: contentType, Content: content}, nil
}
