package runtime

import (
	"bytes"
	"context"
	"encoding/base64"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/chessbook/internal/board"
	"github.com/Iron-Ham/chessbook/internal/core"
	"github.com/Iron-Ham/chessbook/internal/core/effect"
	"github.com/Iron-Ham/chessbook/internal/core/msg"
	"github.com/Iron-Ham/chessbook/internal/errors"
	"github.com/Iron-Ham/chessbook/internal/inference"
	"github.com/Iron-Ham/chessbook/internal/position"
	"github.com/Iron-Ham/chessbook/internal/rules"
	"github.com/Iron-Ham/chessbook/internal/services"
	"github.com/Iron-Ham/chessbook/internal/study"
	"github.com/Iron-Ham/chessbook/internal/workflow"
)

const afterE4 position.Position = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"

var errBoom = errors.New("boom")

type fakeServices struct {
	fail bool
}

func (f *fakeServices) err() error {
	if f.fail {
		return errBoom
	}
	return nil
}

func (f *fakeServices) UploadPDF(_ context.Context, path string) (services.Upload, error) {
	return services.Upload{PdfID: "pdf-" + path, Pages: 3}, f.err()
}

func (f *fakeServices) RenderPage(ctx context.Context, _ string, _ int) ([]byte, error) {
	return []byte("png"), f.err()
}

func (f *fakeServices) DetectDiagrams(_ context.Context, _ string, page int) (services.Detection, error) {
	return services.Detection{Page: page, Diagrams: []services.Diagram{{BBox: study.BBox{Width: 5, Height: 5}}}}, f.err()
}

func (f *fakeServices) Recognize(_ context.Context, _ services.Region) (services.Recognition, error) {
	return services.Recognition{FEN: string(position.StartingPlacement), Confidence: 0.9}, f.err()
}

func (f *fakeServices) ExtractMoves(_ context.Context, _ services.Region) (services.MoveText, error) {
	return services.MoveText{PdfText: "1. e4"}, f.err()
}

type fakeBoard struct {
	mu     sync.Mutex
	fail   bool
	pushed []position.Placement
}

func (f *fakeBoard) Status(context.Context) (board.Status, error) {
	if f.fail {
		return board.Status{}, errBoom
	}
	return board.Status{Available: true, Connected: true}, nil
}

func (f *fakeBoard) Position(context.Context) (position.Position, error) {
	if f.fail {
		return "", errBoom
	}
	return afterE4, nil
}

func (f *fakeBoard) SetPlacement(_ context.Context, pl position.Placement, _ bool) (board.SyncResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed = append(f.pushed, pl)
	if f.fail {
		return board.SyncResult{}, errBoom
	}
	return board.SyncResult{FEN: string(pl), DriverSynced: true}, nil
}

type fakeStore struct {
	fail  bool
	saved map[string]study.Study
}

func (f *fakeStore) Save(_ context.Context, id string, s study.Study) error {
	if f.fail {
		return errBoom
	}
	if f.saved == nil {
		f.saved = map[string]study.Study{}
	}
	f.saved[id] = s
	return nil
}

func (f *fakeStore) Load(_ context.Context, id string) (study.Study, bool, error) {
	if f.fail {
		return study.Study{}, false, errBoom
	}
	s, ok := f.saved[id]
	return s, ok, nil
}

func (f *fakeStore) Delete(context.Context, string) error   { return nil }
func (f *fakeStore) List(context.Context) ([]string, error) { return nil, nil }
func (f *fakeStore) Close() error                           { return nil }

type fakeClipboard struct{ text string }

func (f *fakeClipboard) Copy(text string) error {
	f.text = text
	return nil
}

func newTestExecutor(t *testing.T, fail bool) (*Executor, *fakeBoard, *fakeStore, *fakeClipboard) {
	t.Helper()
	b := &fakeBoard{fail: fail}
	s := &fakeStore{fail: fail}
	c := &fakeClipboard{}
	e := NewExecutor(Options{
		Services:  &fakeServices{fail: fail},
		Board:     b,
		Store:     s,
		Clipboard: c,
		Timeout:   time.Second,
	})
	t.Cleanup(e.Close)
	return e, b, s, c
}

func run(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

func TestExecutor_Calls(t *testing.T) {
	bbox := study.BBox{Width: 5, Height: 5}
	tests := []struct {
		name   string
		effect effect.Effect
		ok     tea.Msg
		failed string
	}{
		{
			name:   "upload",
			effect: effect.UploadPDF{Path: "book.pdf"},
			ok:     msg.PDFLoaded{PdfID: "pdf-book.pdf", Pages: 3},
			failed: "msg.PDFFailed",
		},
		{
			name:   "detect",
			effect: effect.DetectDiagrams{PdfID: "p", Page: 2},
			ok:     msg.DiagramsDetected{PdfID: "p", Page: 2, Boxes: []study.BBox{bbox}},
			failed: "msg.DetectFailed",
		},
		{
			name:   "recognize",
			effect: effect.Recognize{PdfID: "p", Page: 2, BBox: bbox},
			ok:     msg.RecognitionSucceeded{PdfID: "p", Page: 2, BBox: bbox, Placement: string(position.StartingPlacement), Confidence: 0.9},
			failed: "msg.RecognitionFailed",
		},
		{
			name:   "extract moves",
			effect: effect.ExtractMoves{PdfID: "p", Page: 2, BBox: bbox, GameID: "g1"},
			ok:     msg.MovesExtracted{GameID: "g1", PdfText: "1. e4"},
			failed: "msg.MoveExtractionFailed",
		},
		{
			name:   "render",
			effect: effect.RenderPage{PdfID: "p", Page: 1},
			ok:     msg.PageRendered{PdfID: "p", Page: 1, Image: []byte("png")},
			failed: "msg.PageRenderFailed",
		},
		{
			name:   "load study",
			effect: effect.LoadStudy{PdfID: "p"},
			ok:     msg.StudyLoaded{PdfID: "p"},
			failed: "msg.StudyLoadFailed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _, _, _ := newTestExecutor(t, false)
			if got := run(e.Command(tt.effect)); !reflect.DeepEqual(got, tt.ok) {
				t.Errorf("success = %#v, want %#v", got, tt.ok)
			}

			e, _, _, _ = newTestExecutor(t, true)
			got := run(e.Command(tt.effect))
			if name := typeName(got); name != tt.failed {
				t.Errorf("failure = %s, want %s", name, tt.failed)
			}
		})
	}
}

func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}

func TestExecutor_SaveStudy(t *testing.T) {
	e, _, s, _ := newTestExecutor(t, false)
	if got := run(e.Command(effect.SaveStudy{PdfID: "p", Study: study.Study{}})); got != nil {
		t.Errorf("successful save produced %#v", got)
	}
	if _, ok := s.saved["p"]; !ok {
		t.Error("study not saved")
	}

	e, _, _, _ = newTestExecutor(t, true)
	got := run(e.Command(effect.SaveStudy{PdfID: "p"}))
	if _, ok := got.(msg.StudySaveFailed); !ok {
		t.Errorf("failed save produced %#v", got)
	}
}

// gatedStore blocks the first Save until release is closed.
type gatedStore struct {
	fakeStore
	mu      sync.Mutex
	calls   int
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) Save(ctx context.Context, id string, s study.Study) error {
	g.mu.Lock()
	g.calls++
	first := g.calls == 1
	g.mu.Unlock()
	if first {
		close(g.entered)
		<-g.release
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fakeStore.Save(ctx, id, s)
}

func (g *gatedStore) latest(id string) study.Study {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.saved[id]
}

func snapshot(games ...string) study.Study {
	var s study.Study
	for _, id := range games {
		s = s.WithGame(study.Game{ID: id, Placement: position.StartingPlacement})
	}
	return s
}

func TestExecutor_SavesKeepIssueOrder(t *testing.T) {
	t.Run("older save still writing", func(t *testing.T) {
		s := &gatedStore{entered: make(chan struct{}), release: make(chan struct{})}
		e := NewExecutor(Options{Services: &fakeServices{}, Board: &fakeBoard{}, Store: s, Timeout: time.Second})
		t.Cleanup(e.Close)

		older := e.Command(effect.SaveStudy{PdfID: "p", Study: snapshot("A")})
		newer := e.Command(effect.SaveStudy{PdfID: "p", Study: snapshot("A", "B")})

		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); run(older) }()
		<-s.entered
		go func() { defer wg.Done(); run(newer) }()
		time.Sleep(20 * time.Millisecond)
		close(s.release)
		wg.Wait()

		if got := len(s.latest("p").Games); got != 2 {
			t.Errorf("stored games = %d, want the newer snapshot's 2", got)
		}
	})

	t.Run("older save arrives last", func(t *testing.T) {
		e, _, s, _ := newTestExecutor(t, false)
		older := e.Command(effect.SaveStudy{PdfID: "p", Study: snapshot("A")})
		newer := e.Command(effect.SaveStudy{PdfID: "p", Study: snapshot("A", "B")})
		other := e.Command(effect.SaveStudy{PdfID: "q", Study: snapshot("C")})

		run(newer)
		run(older)
		run(other)
		if got := len(s.saved["p"].Games); got != 2 {
			t.Errorf("stored games = %d, want 2", got)
		}
		if _, ok := s.saved["q"]; !ok {
			t.Error("save for another PDF was dropped")
		}
	})
}

func TestExecutor_SetBoardFen(t *testing.T) {
	e, b, _, _ := newTestExecutor(t, false)
	if got := run(e.Command(effect.SetBoardFen{Placement: position.StartingPlacement, Force: true})); got != nil {
		t.Errorf("push produced %#v", got)
	}
	if len(b.pushed) != 1 || b.pushed[0] != position.StartingPlacement {
		t.Errorf("pushed = %v", b.pushed)
	}

	e, _, _, _ = newTestExecutor(t, true)
	if _, ok := run(e.Command(effect.SetBoardFen{Placement: position.StartingPlacement})).(msg.BoardError); !ok {
		t.Error("failed push should report a BoardError")
	}
}

func TestExecutor_Clipboard(t *testing.T) {
	e, _, _, c := newTestExecutor(t, false)
	if cmd := e.Command(effect.CopyToClipboard{Text: "1. e4 *"}); cmd != nil {
		t.Error("clipboard effect should run immediately")
	}
	if c.text != "1. e4 *" {
		t.Errorf("clipboard = %q", c.text)
	}
}

func TestExecutor_Polls(t *testing.T) {
	tests := []struct {
		name   string
		fail   bool
		effect effect.Effect
		poll   string
		want   msg.Msg
	}{
		{"status", false, effect.StartStatusPoll{Interval: time.Hour}, StatusPoll, msg.BoardStatusReceived{Available: true, Connected: true}},
		{"status offline", true, effect.StartStatusPoll{Interval: time.Hour}, StatusPoll, msg.BoardStatusReceived{}},
		{"position", false, effect.StartBoardPoll{Interval: time.Hour}, BoardPoll, msg.BoardFenReceived{Position: afterE4}},
		{"position error", true, effect.StartBoardPoll{Interval: time.Hour}, BoardPoll, msg.BoardError{Err: errBoom}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _, _, _ := newTestExecutor(t, tt.fail)
			got := make(chan msg.Msg, 1)
			e.Attach(func(m msg.Msg) {
				select {
				case got <- m:
				default:
				}
			})

			if cmd := e.Command(tt.effect); cmd != nil {
				t.Fatal("poll start should not return a command")
			}
			select {
			case m := <-got:
				if !reflect.DeepEqual(m, tt.want) {
					t.Errorf("delivered %#v, want %#v", m, tt.want)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("no poll result delivered")
			}
			if interval, ok := e.Poller().Active(tt.poll); !ok || interval != time.Hour {
				t.Errorf("Active(%s) = %v, %v", tt.poll, interval, ok)
			}
		})
	}
}

func TestExecutor_StopBoardPoll(t *testing.T) {
	e, _, _, _ := newTestExecutor(t, false)
	e.Attach(func(msg.Msg) {})
	e.Command(effect.StartStatusPoll{Interval: time.Hour})
	e.Command(effect.StartBoardPoll{Interval: time.Hour})
	e.Command(effect.StopBoardPoll{})

	if _, ok := e.Poller().Active(BoardPoll); ok {
		t.Error("board poll still active")
	}
	if _, ok := e.Poller().Active(StatusPoll); !ok {
		t.Error("status poll should survive StopBoardPoll")
	}
}

func TestPoller_ReplacesSameName(t *testing.T) {
	p := NewPoller(context.Background())
	defer p.StopAll()

	started := make(chan struct{})
	cancelled := make(chan struct{})
	p.Start("fen", time.Hour, func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(cancelled)
	})
	<-started

	second := make(chan struct{}, 1)
	p.Start("fen", 2*time.Hour, func(context.Context) {
		select {
		case second <- struct{}{}:
		default:
		}
	})

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("first poll was not cancelled when replaced")
	}
	select {
	case <-second:
	case <-time.After(2 * time.Second):
		t.Fatal("replacement poll never ran")
	}
	if interval, ok := p.Active("fen"); !ok || interval != 2*time.Hour {
		t.Errorf("Active() = %v, %v, want the replacement", interval, ok)
	}
}

func TestPoller_IgnoresNonPositiveInterval(t *testing.T) {
	p := NewPoller(context.Background())
	defer p.StopAll()
	p.Start("x", 0, func(context.Context) { t.Error("poll with zero interval ran") })
	if _, ok := p.Active("x"); ok {
		t.Error("zero interval poll registered")
	}
	p.Stop("missing")
}

func TestRenderer_CancelsPrevious(t *testing.T) {
	r := NewRenderer(context.Background(), func(ctx context.Context, _ string, page int) ([]byte, error) {
		if page == 0 {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return []byte{byte(page)}, nil
	})

	first := r.Render("p", 0)
	second := r.Render("p", 1)

	if got := first(); got != nil {
		t.Errorf("cancelled render produced %#v", got)
	}
	want := msg.PageRendered{PdfID: "p", Page: 1, Image: []byte{1}}
	if got := second(); !reflect.DeepEqual(got, want) {
		t.Errorf("render = %#v, want %#v", got, want)
	}
}

func TestRenderer_Cancel(t *testing.T) {
	r := NewRenderer(context.Background(), func(ctx context.Context, _ string, _ int) ([]byte, error) {
		<-ctx.Done()
		return nil, errors.NewServiceError("render", ctx.Err())
	})
	cmd := r.Render("p", 0)
	r.Cancel()
	if got := cmd(); got != nil {
		t.Errorf("cancelled render produced %#v", got)
	}
	r.Cancel()
}

func TestOSC52(t *testing.T) {
	var buf bytes.Buffer
	if err := (OSC52{Out: &buf}).Copy("1. e4 e5"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), base64.StdEncoding.EncodeToString([]byte("1. e4 e5"))) {
		t.Errorf("sequence %q does not carry the text", buf.String())
	}
	if !strings.HasPrefix(buf.String(), "\x1b]52;") {
		t.Errorf("sequence %q is not OSC 52", buf.String())
	}
}

func reachingModel(moves ...rules.Move) core.Model {
	s := workflow.NewReachSession("g1", "8/8/8/8/8/8/8/8", position.White, position.StartingPosition)
	for _, mv := range moves {
		s = s.Play(mv)
	}
	m := core.NewModel()
	m.PdfID = "p"
	m.Workflow = workflow.Reaching{Session: s}
	return m
}

func TestIsStale(t *testing.T) {
	viewing := core.NewModel()
	viewing.PdfID = "p"
	viewing.Page = 2
	viewing.Workflow = workflow.Viewing{}
	reaching := reachingModel()

	tests := []struct {
		name    string
		model   core.Model
		message msg.Msg
		want    bool
	}{
		{"page render for current page", viewing, msg.PageRendered{PdfID: "p", Page: 2}, false},
		{"page render for old page", viewing, msg.PageRendered{PdfID: "p", Page: 1}, true},
		{"detection for another pdf", viewing, msg.DiagramsDetected{PdfID: "q", Page: 2}, true},
		{"recognition while viewing", viewing, msg.RecognitionSucceeded{PdfID: "p", Page: 2}, false},
		{"recognition after leaving viewing", reaching, msg.RecognitionSucceeded{PdfID: "p"}, true},
		{"move text for the reached game", reaching, msg.MovesExtracted{GameID: "g1"}, false},
		{"move text for another game", reaching, msg.MovesExtracted{GameID: "g2"}, true},
		{"board fen while reaching", reaching, msg.BoardFenReceived{Position: afterE4}, false},
		{"board fen while viewing", viewing, msg.BoardFenReceived{Position: afterE4}, true},
		{"study for another pdf", viewing, msg.StudyLoaded{PdfID: "q"}, true},
		{"user input", viewing, msg.GoToPage{Page: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStale(tt.model, tt.message); got != tt.want {
				t.Errorf("IsStale() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyObservation(t *testing.T) {
	e4 := rules.Move{SAN: "e4", Position: afterE4}
	before := reachingModel()
	after := reachingModel(e4)

	tests := []struct {
		name     string
		before   core.Model
		after    core.Model
		observed position.Placement
		want     inference.Outcome
		wantOK   bool
	}{
		{"unchanged", before, before, position.StartingPlacement, inference.NoChange, true},
		{"matched", before, after, afterE4.Placement(), inference.Matched, true},
		{"no match", before, before, position.EmptyPlacement, inference.NoMatch, true},
		{"not listening", core.NewModel(), core.NewModel(), position.StartingPlacement, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ClassifyObservation(tt.before, tt.after, tt.observed)
			if ok != tt.wantOK || (ok && got != tt.want) {
				t.Errorf("ClassifyObservation() = %v, %v, want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestObserverDoesNotPanic(t *testing.T) {
	o := NewObserver(nil, nil)
	o.Observe(core.Model{}, core.NewModel(), msg.GoToPage{}, nil)
	o.Observe(reachingModel(), reachingModel(), msg.BoardFenReceived{Position: afterE4}, nil)
}
