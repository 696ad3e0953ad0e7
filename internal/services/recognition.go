package services

import (
	"context"
	"fmt"

	"github.com/patrickmn/go-cache"

	"github.com/Iron-Ham/chessbook/internal/errors"
	"github.com/Iron-Ham/chessbook/internal/study"
)

// Region identifies a diagram on a page.
type Region struct {
	PdfID string     `json:"pdf_id"`
	Page  int        `json:"page"`
	BBox  study.BBox `json:"bbox"`
}

func (r Region) key() string {
	return fmt.Sprintf("%s/%d/%.0f,%.0f,%.0f,%.0f", r.PdfID, r.Page, r.BBox.X, r.BBox.Y, r.BBox.Width, r.BBox.Height)
}

// Recognition is a recognized placement. FEN holds only the placement
// field; the side to move is chosen by the user.
type Recognition struct {
	FEN        string  `json:"fen" validate:"required"`
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`
}

// MoveText is the text found around a diagram: PdfText from the PDF's text
// layer and OcrText from OCR of the page image.
type MoveText struct {
	PdfText string `json:"pdf_text"`
	OcrText string `json:"ocr_text"`
}

// Recognize reads the placement of a diagram. Results are cached per region
// when the client has a cache.
func (c *Client) Recognize(ctx context.Context, r Region) (Recognition, error) {
	if c.cache != nil {
		if v, ok := c.cache.Get(r.key()); ok {
			c.logger.WithPDF(r.PdfID).Debug("recognition cache hit", "page", r.Page)
			return v.(Recognition), nil
		}
	}

	if err := c.validate.Struct(r.BBox); err != nil {
		return Recognition{}, errors.NewValidationError("invalid region").WithField("bbox").WithCause(err)
	}

	var rec Recognition
	if err := c.postJSON(ctx, ServiceRecognition, "/api/recognize-region", r, &rec); err != nil {
		return Recognition{}, err
	}
	if c.cache != nil {
		c.cache.Set(r.key(), rec, cache.DefaultExpiration)
	}
	return rec, nil
}

// ExtractMoves returns the move text printed with a diagram.
func (c *Client) ExtractMoves(ctx context.Context, r Region) (MoveText, error) {
	var mt MoveText
	err := c.postJSON(ctx, ServiceExtractor, "/api/extract-moves", r, &mt)
	return mt, err
}
