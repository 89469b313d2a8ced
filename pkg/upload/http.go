package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/goliatone/go-formengine/pkg/schema"
)

const defaultFormField = "file"

// HTTP posts files as multipart/form-data to the endpoint named by the
// field's upload descriptor, falling back to a transport-wide endpoint.
type HTTP struct {
	client    *http.Client
	endpoint  schema.UploadEndpoint
	formField string
}

// HTTPOption configures HTTP.
type HTTPOption func(*HTTP)

// WithClient overrides http.DefaultClient.
func WithClient(client *http.Client) HTTPOption {
	return func(h *HTTP) {
		if client != nil {
			h.client = client
		}
	}
}

// WithEndpoint sets the endpoint used for fields that do not declare one.
func WithEndpoint(endpoint schema.UploadEndpoint) HTTPOption {
	return func(h *HTTP) {
		h.endpoint = endpoint
	}
}

// WithFormField renames the multipart part carrying the file.
func WithFormField(name string) HTTPOption {
	return func(h *HTTP) {
		if strings.TrimSpace(name) != "" {
			h.formField = name
		}
	}
}

// NewHTTP constructs an HTTP transport.
func NewHTTP(options ...HTTPOption) *HTTP {
	h := &HTTP{client: http.DefaultClient, formField: defaultFormField}
	for _, opt := range options {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Upload sends file and returns its display name once the endpoint answers
// with a 2xx status.
func (h *HTTP) Upload(ctx context.Context, field schema.Field, file File) (string, error) {
	name := file.DisplayName()
	if name == "" {
		return "", ErrNoFile
	}

	endpoint := h.endpoint
	if field.Upload != nil && field.Upload.URL != "" {
		endpoint = *field.Upload
	}
	if endpoint.URL == "" {
		return "", fmt.Errorf("%w for field %q", ErrNoEndpoint, field.Name)
	}
	method := strings.ToUpper(endpoint.Method)
	if method == "" {
		method = http.MethodPost
	}

	body, contentType, err := h.encode(name, file)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.URL, body)
	if err != nil {
		return "", fmt.Errorf("upload: build request: %w", err)
	}
	for key, value := range endpoint.Headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload: send %s: %w", name, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: %s", ErrRejected, resp.Status)
	}
	return name, nil
}

func (h *HTTP) encode(name string, file File) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, h.formField, name))
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("upload: create part: %w", err)
	}
	if file.Body != nil {
		if _, err := io.Copy(part, file.Body); err != nil {
			return nil, "", fmt.Errorf("upload: read %s: %w", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("upload: finish body: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
