package viswiz

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

// GetImages lists the images uploaded to a build.
func (c *Client) GetImages(ctx context.Context, buildID string) ([]Image, error) {
	if err := requireString("buildID", buildID); err != nil {
		return nil, err
	}
	var payload imageList
	req := request{method: http.MethodGet, path: resourcePath("builds", buildID, "images")}
	if err := c.do(ctx, req, &payload); err != nil {
		return nil, err
	}
	return payload.Images, nil
}

// CreateImage uploads one image file to a build under the given logical
// name. Transient server failures are retried automatically.
func (c *Client) CreateImage(ctx context.Context, buildID, name, filePath string) (*Image, error) {
	if err := requireString("buildID", buildID); err != nil {
		return nil, err
	}
	if err := requireString("name", name); err != nil {
		return nil, err
	}
	if err := requireString("filePath", filePath); err != nil {
		return nil, err
	}

	form, err := imageForm(name, filePath)
	if err != nil {
		return nil, err
	}

	var payload Image
	req := request{
		method: http.MethodPost,
		path:   resourcePath("builds", buildID, "images"),
		form:   form,
		retry:  c.uploadRetry,
	}
	if err := c.do(ctx, req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// imageForm reads filePath and encodes it with name as a multipart body.
func imageForm(name, filePath string) (*formBody, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filePath)
		}
		return nil, fmt.Errorf("read image: %w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("name", name); err != nil {
		return nil, fmt.Errorf("encode form: %w", err)
	}

	base := filepath.Base(filePath)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, escapeQuotes(base)))
	header.Set("Content-Type", contentTypeFor(base))
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("encode form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("encode form: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("encode form: %w", err)
	}

	return &formBody{data: buf.Bytes(), contentType: w.FormDataContentType()}, nil
}

func contentTypeFor(filename string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
