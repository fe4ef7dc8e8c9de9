package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/example/celebrity-recognition/internal/logging"
	"github.com/example/celebrity-recognition/internal/recognition"
)

type stubClient struct {
	resp     *recognition.Response
	err      error
	calls    int
	received []byte
	deadline time.Time
	block    bool
}

func (s *stubClient) RecognizeCelebrities(ctx context.Context, req recognition.Request) (*recognition.Response, error) {
	s.calls++
	s.received = req.Image
	s.deadline, _ = ctx.Deadline()
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func TestRecognizePassesImageAndPreservesOrder(t *testing.T) {
	client := &stubClient{resp: &recognition.Response{CelebrityFaces: []recognition.CelebrityFace{
		{Name: "First"}, {Name: "Second"},
	}}}
	uc := NewRecognitionUseCase(client, time.Second, zap.NewNop())

	resp, err := uc.Recognize(context.Background(), "req-1", []byte("image"))
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("expected exactly one remote call, got %d", client.calls)
	}
	if string(client.received) != "image" {
		t.Fatalf("unexpected image bytes: %q", client.received)
	}
	if len(resp.CelebrityFaces) != 2 || resp.CelebrityFaces[0].Name != "First" || resp.CelebrityFaces[1].Name != "Second" {
		t.Fatalf("unexpected faces: %+v", resp.CelebrityFaces)
	}
	if client.deadline.IsZero() {
		t.Fatal("expected the remote call to carry a deadline")
	}
}

func TestRecognizeDoesNotRetryFailures(t *testing.T) {
	client := &stubClient{err: errors.New("service unavailable")}
	uc := NewRecognitionUseCase(client, time.Second, zap.NewNop())

	_, err := uc.Recognize(context.Background(), "req-2", []byte("image"))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if client.calls != 1 {
		t.Fatalf("expected a single attempt, got %d", client.calls)
	}

	var opErr *logging.OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected OperationError, got %T", err)
	}
	if opErr.Operation != operationRecognize || opErr.RequestID != "req-2" {
		t.Fatalf("unexpected operation error: %+v", opErr)
	}
}

func TestRecognizeTimesOut(t *testing.T) {
	client := &stubClient{block: true}
	uc := NewRecognitionUseCase(client, 20*time.Millisecond, zap.NewNop())

	_, err := uc.Recognize(context.Background(), "req-3", []byte("image"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestRecognizeNilResponseIsEmpty(t *testing.T) {
	uc := NewRecognitionUseCase(&stubClient{}, 0, zap.NewNop())
	if uc.timeout != DefaultRecognitionTimeout {
		t.Fatalf("expected default timeout, got %s", uc.timeout)
	}

	resp, err := uc.Recognize(context.Background(), "", []byte("image"))
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if len(resp.CelebrityFaces) != 0 {
		t.Fatalf("expected no faces, got %d", len(resp.CelebrityFaces))
	}
}
