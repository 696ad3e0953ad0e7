// Package runtime performs the effects the reducer asks for. Every effect
// becomes a bubbletea command whose result is fed back as a message; the
// board polls run on their own goroutines and deliver results through the
// program's Send.
package runtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/chessbook/internal/board"
	"github.com/Iron-Ham/chessbook/internal/core/effect"
	"github.com/Iron-Ham/chessbook/internal/core/msg"
	"github.com/Iron-Ham/chessbook/internal/logging"
	"github.com/Iron-Ham/chessbook/internal/metrics"
	"github.com/Iron-Ham/chessbook/internal/position"
	"github.com/Iron-Ham/chessbook/internal/services"
	"github.com/Iron-Ham/chessbook/internal/store"
)

// Poll names.
const (
	StatusPoll = "board-status"
	BoardPoll  = "board-fen"
)

// Services is the part of services.Client the executor uses.
type Services interface {
	UploadPDF(ctx context.Context, path string) (services.Upload, error)
	RenderPage(ctx context.Context, pdfID string, page int) ([]byte, error)
	DetectDiagrams(ctx context.Context, pdfID string, page int) (services.Detection, error)
	Recognize(ctx context.Context, r services.Region) (services.Recognition, error)
	ExtractMoves(ctx context.Context, r services.Region) (services.MoveText, error)
}

// Board is the part of board.Client the executor uses.
type Board interface {
	Status(ctx context.Context) (board.Status, error)
	Position(ctx context.Context) (position.Position, error)
	SetPlacement(ctx context.Context, pl position.Placement, force bool) (board.SyncResult, error)
}

// Options configures an Executor.
type Options struct {
	Services  Services
	Board     Board
	Store     store.Store
	Clipboard Clipboard
	// Timeout bounds each collaborator call; polls use their interval.
	Timeout time.Duration
	Logger  *logging.Logger
	Metrics *metrics.Metrics
}

// Executor turns effects into commands. It is safe for concurrent use.
type Executor struct {
	services  Services
	board     Board
	store     store.Store
	clipboard Clipboard
	timeout   time.Duration
	logger    *logging.Logger
	metrics   *metrics.Metrics

	ctx      context.Context
	cancel   context.CancelFunc
	poller   *Poller
	renderer *Renderer

	mu   sync.RWMutex
	send func(msg.Msg)

	// Saves are numbered when issued and written one at a time; a snapshot
	// older than one already written for the same PDF is dropped.
	saveSeq  atomic.Uint64
	saveMu   sync.Mutex
	saveDone map[string]uint64
}

// NewExecutor returns an Executor. Call Attach before the first poll
// starts so poll results have somewhere to go.
func NewExecutor(opts Options) *Executor {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	clip := opts.Clipboard
	if clip == nil {
		clip = NewOSC52()
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Executor{
		services:  opts.Services,
		board:     opts.Board,
		store:     opts.Store,
		clipboard: clip,
		timeout:   timeout,
		logger:    logger.With("component", "runtime"),
		metrics:   opts.Metrics,
		ctx:       ctx,
		cancel:    cancel,
		poller:    NewPoller(ctx),
		saveDone:  make(map[string]uint64),
	}
	e.renderer = NewRenderer(ctx, opts.Services.RenderPage)
	return e
}

// Attach sets where poll results are delivered, typically tea.Program.Send.
func (e *Executor) Attach(send func(msg.Msg)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.send = send
}

func (e *Executor) deliver(m msg.Msg) {
	e.mu.RLock()
	send := e.send
	e.mu.RUnlock()
	if send != nil {
		send(m)
	}
}

// Close stops all polls and cancels calls in flight.
func (e *Executor) Close() {
	e.cancel()
	e.poller.StopAll()
}

// Poller exposes the poller, mainly for tests.
func (e *Executor) Poller() *Poller { return e.poller }

// Commands batches the commands for effects.
func (e *Executor) Commands(effects []effect.Effect) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(effects))
	for _, eff := range effects {
		if cmd := e.Command(eff); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

// Command returns the command performing eff. Effects with nothing to
// report back (poll control, cancellation) run immediately and return nil.
func (e *Executor) Command(eff effect.Effect) tea.Cmd {
	e.metrics.Effect(eff.Kind())
	e.logger.Debug("effect", "kind", eff.Kind())

	switch eff := eff.(type) {
	case effect.UploadPDF:
		return e.call(func(ctx context.Context) msg.Msg {
			up, err := e.services.UploadPDF(ctx, eff.Path)
			if err != nil {
				return msg.PDFFailed{Path: eff.Path, Err: err}
			}
			return msg.PDFLoaded{PdfID: up.PdfID, Pages: up.Pages, HasStudy: up.HasStudy}
		})

	case effect.LoadStudy:
		return e.call(func(ctx context.Context) msg.Msg {
			s, found, err := e.store.Load(ctx, eff.PdfID)
			if err != nil {
				return msg.StudyLoadFailed{PdfID: eff.PdfID, Err: err}
			}
			return msg.StudyLoaded{PdfID: eff.PdfID, Study: s, Found: found}
		})

	case effect.SaveStudy:
		seq := e.saveSeq.Add(1)
		return e.call(func(ctx context.Context) msg.Msg {
			return e.saveStudy(ctx, seq, eff)
		})

	case effect.RenderPage:
		return e.renderer.Render(eff.PdfID, eff.Page)

	case effect.CancelRender:
		e.renderer.Cancel()
		return nil

	case effect.DetectDiagrams:
		return e.call(func(ctx context.Context) msg.Msg {
			d, err := e.services.DetectDiagrams(ctx, eff.PdfID, eff.Page)
			if err != nil {
				return msg.DetectFailed{PdfID: eff.PdfID, Page: eff.Page, Err: err}
			}
			return msg.DiagramsDetected{PdfID: eff.PdfID, Page: eff.Page, Boxes: d.Boxes()}
		})

	case effect.Recognize:
		return e.call(func(ctx context.Context) msg.Msg {
			region := services.Region{PdfID: eff.PdfID, Page: eff.Page, BBox: eff.BBox}
			rec, err := e.services.Recognize(ctx, region)
			if err != nil {
				return msg.RecognitionFailed{PdfID: eff.PdfID, Page: eff.Page, BBox: eff.BBox, Err: err}
			}
			return msg.RecognitionSucceeded{
				PdfID:      eff.PdfID,
				Page:       eff.Page,
				BBox:       eff.BBox,
				Placement:  rec.FEN,
				Confidence: rec.Confidence,
			}
		})

	case effect.ExtractMoves:
		return e.call(func(ctx context.Context) msg.Msg {
			region := services.Region{PdfID: eff.PdfID, Page: eff.Page, BBox: eff.BBox}
			mt, err := e.services.ExtractMoves(ctx, region)
			if err != nil {
				return msg.MoveExtractionFailed{GameID: eff.GameID, Err: err}
			}
			return msg.MovesExtracted{GameID: eff.GameID, PdfText: mt.PdfText, OcrText: mt.OcrText}
		})

	case effect.StartStatusPoll:
		e.poller.Start(StatusPoll, eff.Interval, e.pollStatus(eff.Interval))
		return nil

	case effect.StartBoardPoll:
		e.poller.Start(BoardPoll, eff.Interval, e.pollPosition(eff.Interval))
		return nil

	case effect.StopBoardPoll:
		e.poller.Stop(BoardPoll)
		return nil

	case effect.SetBoardFen:
		return e.call(func(ctx context.Context) msg.Msg {
			if _, err := e.board.SetPlacement(ctx, eff.Placement, eff.Force); err != nil {
				return msg.BoardError{Err: err}
			}
			return nil
		})

	case effect.CopyToClipboard:
		if err := e.clipboard.Copy(eff.Text); err != nil {
			e.logger.Warn("clipboard write failed", "error", err.Error())
		}
		return nil
	}

	e.logger.Warn("unknown effect", "kind", eff.Kind())
	return nil
}

// saveStudy writes the snapshot numbered seq unless a later one for the
// same PDF has already been written.
func (e *Executor) saveStudy(ctx context.Context, seq uint64, eff effect.SaveStudy) msg.Msg {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	if seq < e.saveDone[eff.PdfID] {
		e.logger.WithPDF(eff.PdfID).Debug("skipped superseded save", "seq", seq)
		return nil
	}
	if err := e.store.Save(ctx, eff.PdfID, eff.Study); err != nil {
		e.logger.WithPDF(eff.PdfID).Error("save study failed", "error", err.Error())
		return msg.StudySaveFailed{PdfID: eff.PdfID, Err: err}
	}
	e.saveDone[eff.PdfID] = seq
	return nil
}

// call wraps fn in a command with the call timeout. Results of calls
// cancelled by Close are dropped.
func (e *Executor) call(fn func(ctx context.Context) msg.Msg) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(e.ctx, e.timeout)
		defer cancel()
		m := fn(ctx)
		if m == nil || e.ctx.Err() != nil {
			return nil
		}
		return m
	}
}

// pollStatus reports an unreachable board service as unavailable rather
// than as an error, so an absent board does not fill the status line.
func (e *Executor) pollStatus(interval time.Duration) func(context.Context) {
	return func(parent context.Context) {
		ctx, cancel := context.WithTimeout(parent, interval)
		defer cancel()
		st, err := e.board.Status(ctx)
		if parent.Err() != nil {
			return
		}
		if err != nil {
			e.logger.Debug("board status unavailable", "error", err.Error())
			st = board.Status{}
		}
		e.deliver(msg.BoardStatusReceived{Available: st.Available, Connected: st.Connected})
	}
}

func (e *Executor) pollPosition(interval time.Duration) func(context.Context) {
	return func(parent context.Context) {
		ctx, cancel := context.WithTimeout(parent, interval)
		defer cancel()
		pos, err := e.board.Position(ctx)
		if parent.Err() != nil {
			// Stopped or replaced while reading.
			return
		}
		if err != nil {
			e.deliver(msg.BoardError{Err: err})
			return
		}
		e.deliver(msg.BoardFenReceived{Position: pos})
	}
}
