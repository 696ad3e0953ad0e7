package runtime

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/chessbook/internal/core/msg"
	"github.com/Iron-Ham/chessbook/internal/errors"
)

// RenderFunc rasters one page.
type RenderFunc func(ctx context.Context, pdfID string, page int) ([]byte, error)

// Renderer keeps at most one page render in flight. Starting a render
// cancels the previous one, and a cancelled render produces no message.
type Renderer struct {
	ctx    context.Context
	render RenderFunc

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewRenderer returns a Renderer whose renders stop when ctx is done.
func NewRenderer(ctx context.Context, render RenderFunc) *Renderer {
	return &Renderer{ctx: ctx, render: render}
}

// Render cancels the render in flight and returns a command rastering page.
func (r *Renderer) Render(pdfID string, page int) tea.Cmd {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(r.ctx)
	r.cancel = cancel
	r.mu.Unlock()

	return func() tea.Msg {
		defer cancel()
		img, err := r.render(ctx, pdfID, page)
		if ctx.Err() != nil || errors.IsCanceled(err) {
			return nil
		}
		if err != nil {
			return msg.PageRenderFailed{PdfID: pdfID, Page: page, Err: err}
		}
		return msg.PageRendered{PdfID: pdfID, Page: page, Image: img}
	}
}

// Cancel cancels the render in flight, if any.
func (r *Renderer) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}
