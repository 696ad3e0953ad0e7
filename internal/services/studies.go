package services

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Iron-Ham/chessbook/internal/errors"
	"github.com/Iron-Ham/chessbook/internal/study"
)

// StudyStore keeps studies on the collaborator's server. It satisfies
// store.Store.
type StudyStore struct {
	client *Client
}

// NewStudyStore returns a remote store backed by c.
func NewStudyStore(c *Client) *StudyStore {
	return &StudyStore{client: c}
}

type saveRequest struct {
	PdfID string          `json:"pdf_id"`
	Study json.RawMessage `json:"study"`
}

type loadResponse struct {
	Exists bool            `json:"exists"`
	Study  json.RawMessage `json:"study"`
}

// Save stores s for pdfID.
func (s *StudyStore) Save(ctx context.Context, pdfID string, st study.Study) error {
	data, err := study.Marshal(st)
	if err != nil {
		return err
	}
	return s.client.postJSON(ctx, ServiceStudies, "/api/save-study", saveRequest{PdfID: pdfID, Study: data}, nil)
}

// Load returns the study for pdfID. A missing study is not an error.
func (s *StudyStore) Load(ctx context.Context, pdfID string) (study.Study, bool, error) {
	var resp loadResponse
	err := s.client.getJSON(ctx, ServiceStudies, "/api/load-study/"+pdfID, &resp)
	if isNotFound(err) {
		return study.Study{}, false, nil
	}
	if err != nil {
		return study.Study{}, false, err
	}
	if !resp.Exists {
		return study.Study{}, false, nil
	}
	st, err := study.Unmarshal(resp.Study)
	if err != nil {
		return study.Study{}, false, errors.NewStorageError("decode study", err).WithBackend("remote").WithKey(pdfID)
	}
	return st, true, nil
}

// Delete removes the study for pdfID. Deleting a missing study succeeds.
func (s *StudyStore) Delete(ctx context.Context, pdfID string) error {
	_, err := s.client.call(ctx, ServiceStudies, request{method: http.MethodDelete, path: "/api/delete-study/" + pdfID})
	if isNotFound(err) {
		return nil
	}
	return err
}

// List is not offered by the remote service.
func (s *StudyStore) List(context.Context) ([]string, error) {
	return nil, errors.ErrUnsupported
}

// Close releases nothing; the HTTP client is shared.
func (s *StudyStore) Close() error { return nil }

func isNotFound(err error) bool {
	var svcErr *errors.ServiceError
	return errors.As(err, &svcErr) && svcErr.StatusCode == http.StatusNotFound
}
