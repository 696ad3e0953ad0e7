package services

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/Iron-Ham/chessbook/internal/errors"
	"github.com/Iron-Ham/chessbook/internal/study"
)

// Upload is the response to a PDF upload. PdfID is derived from the file
// content, so uploading the same book twice finds its saved study.
type Upload struct {
	PdfID    string `json:"pdf_id" validate:"required"`
	Pages    int    `json:"pages" validate:"gte=1"`
	HasStudy bool   `json:"has_study"`
}

// Diagram is one detected diagram candidate.
type Diagram struct {
	study.BBox
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`
}

// Detection lists the diagrams found on a page.
type Detection struct {
	Page     int       `json:"page" validate:"gte=0"`
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Diagrams []Diagram `json:"diagrams" validate:"dive"`
}

// Boxes returns the diagram boxes in detection order.
func (d Detection) Boxes() []study.BBox {
	out := make([]study.BBox, len(d.Diagrams))
	for i, dg := range d.Diagrams {
		out[i] = dg.BBox
	}
	return out
}

// UploadPDF uploads the file at path.
func (c *Client) UploadPDF(ctx context.Context, path string) (Upload, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Upload{}, errors.Wrapf(err, "read %s", path)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return Upload{}, errors.Wrap(err, "build upload")
	}
	if _, err := part.Write(content); err != nil {
		return Upload{}, errors.Wrap(err, "build upload")
	}
	if err := mw.Close(); err != nil {
		return Upload{}, errors.Wrap(err, "build upload")
	}

	const endpoint = "/api/upload-pdf"
	data, err := c.call(ctx, ServicePDF, request{
		method:      http.MethodPost,
		path:        endpoint,
		body:        buf.Bytes(),
		contentType: mw.FormDataContentType(),
	})
	if err != nil {
		return Upload{}, err
	}

	var up Upload
	if err := c.decode(ServicePDF, endpoint, data, &up); err != nil {
		return Upload{}, err
	}
	c.logger.WithPDF(up.PdfID).Info("pdf uploaded", "pages", up.Pages, "has_study", up.HasStudy)
	return up, nil
}

// RenderPage returns the PNG raster of a 0-based page.
func (c *Client) RenderPage(ctx context.Context, pdfID string, page int) ([]byte, error) {
	return c.call(ctx, ServicePDF, request{
		method: http.MethodGet,
		path:   fmt.Sprintf("/api/pdf/%s/page/%d", pdfID, page),
	})
}

// DetectDiagrams finds diagram candidates on a page.
func (c *Client) DetectDiagrams(ctx context.Context, pdfID string, page int) (Detection, error) {
	var d Detection
	err := c.getJSON(ctx, ServiceDetector, fmt.Sprintf("/api/detect-diagrams/%s/%d", pdfID, page), &d)
	return d, err
}
