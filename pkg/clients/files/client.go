// Package files is a client of the files service, which stores raw files with metadata.
package files

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/youwol/backends/pkg/rest"
)

type Metadata struct {
	FileName        string `json:"fileName"`
	ContentType     string `json:"contentType"`
	ContentEncoding string `json:"contentEncoding"`
}

type FileInfo struct {
	FileId   string   `json:"fileId"`
	Metadata Metadata `json:"metadata"`
}

func (f FileInfo) Validate() error {
	return rest.Require("fileId", f.FileId)
}

// MetadataChange updates fields which are not nil.
type MetadataChange struct {
	FileName        *string `json:"fileName,omitempty"`
	ContentType     *string `json:"contentType,omitempty"`
	ContentEncoding *string `json:"contentEncoding,omitempty"`
}

type Client struct {
	exec *rest.Executor
}

func New(exec *rest.Executor) *Client {
	return &Client{exec: exec}
}

func (c *Client) GetInfo(ctx context.Context, fileId string, headers rest.Headers) (FileInfo, error) {
	if err := rest.Require("fileId", fileId); err != nil {
		return FileInfo{}, err
	}
	return rest.JSON[FileInfo](ctx, c.exec, rest.Request{
		Method:     http.MethodGet,
		Path:       rest.PathOf("files", fileId, "info"),
		Headers:    headers,
		Parameters: map[string]any{"fileId": fileId},
	})
}

// GetContent returns the content of the file as it is stored (not decompressed).
//
// The caller should close it.
func (c *Client) GetContent(ctx context.Context, fileId string, headers rest.Headers) (io.ReadCloser, error) {
	if err := rest.Require("fileId", fileId); err != nil {
		return nil, err
	}
	return rest.Stream(ctx, c.exec, rest.Request{
		Method:     http.MethodGet,
		Path:       rest.PathOf("files", fileId),
		Headers:    headers,
		Parameters: map[string]any{"fileId": fileId},
	})
}

func (c *Client) UpdateMetadata(ctx context.Context, fileId string, change MetadataChange, headers rest.Headers) (rest.EmptyResponse, error) {
	if err := rest.Require("fileId", fileId); err != nil {
		return rest.EmptyResponse{}, err
	}
	return rest.NoContent(ctx, c.exec, rest.Request{
		Method:     http.MethodPost,
		Path:       rest.PathOf("files", fileId, "metadata"),
		Headers:    headers,
		Body:       change,
		Parameters: map[string]any{"fileId": fileId},
	})
}

func (c *Client) Remove(ctx context.Context, fileId string, headers rest.Headers) (rest.EmptyResponse, error) {
	if err := rest.Require("fileId", fileId); err != nil {
		return rest.EmptyResponse{}, err
	}
	return rest.NoContent(ctx, c.exec, rest.Request{
		Method:     http.MethodDelete,
		Path:       rest.PathOf("files", fileId),
		Headers:    headers,
		Parameters: map[string]any{"fileId": fileId},
	})
}

// Upload sends content as a new file, in a multipart form.
//
// content is streamed; it is not buffered whole in memory.
func (c *Client) Upload(ctx context.Context, fileId string, meta Metadata, content io.Reader, headers rest.Headers) (FileInfo, error) {
	if err := rest.RequireAll("fileId", fileId, "fileName", meta.FileName); err != nil {
		return FileInfo{}, err
	}

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(form, fileId, meta, content))
	}()
	defer pr.Close()

	return rest.JSON[FileInfo](ctx, c.exec, rest.Request{
		Method:      http.MethodPost,
		Path:        "/files",
		Headers:     headers,
		Body:        pr,
		ContentType: form.FormDataContentType(),
		Parameters:  map[string]any{"fileId": fileId, "fileName": meta.FileName},
	})
}

func writeForm(form *multipart.Writer, fileId string, meta Metadata, content io.Reader) error {
	fields := [][2]string{
		{"fileId", fileId},
		{"fileName", meta.FileName},
		{"contentType", meta.ContentType},
		{"contentEncoding", meta.ContentEncoding},
	}
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		if err := form.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}
	part, err := form.CreateFormFile("file", meta.FileName)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, content); err != nil {
		return err
	}
	return form.Close()
}
