package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/example/celebrity-recognition/internal/logging"
	"github.com/example/celebrity-recognition/internal/recognition"
)

// DefaultRecognitionTimeout bounds a single remote recognition call.
const DefaultRecognitionTimeout = 30 * time.Second

const operationRecognize = "usecase.recognize_celebrities"

// RecognitionUseCase drives one upload through the remote recognition service.
type RecognitionUseCase struct {
	client  recognition.Client
	logger  *zap.Logger
	timeout time.Duration
}

// NewRecognitionUseCase constructs a new use case instance. A non-positive
// timeout selects DefaultRecognitionTimeout.
func NewRecognitionUseCase(client recognition.Client, timeout time.Duration, logger *zap.Logger) *RecognitionUseCase {
	if timeout <= 0 {
		timeout = DefaultRecognitionTimeout
	}
	return &RecognitionUseCase{
		client:  client,
		logger:  logger.Named("recognition_usecase"),
		timeout: timeout,
	}
}

// Recognize sends the image to the recognition service exactly once. Failures
// are returned wrapped in a logging.OperationError; nothing is retried.
func (uc *RecognitionUseCase) Recognize(ctx context.Context, requestID string, image []byte) (*recognition.Response, error) {
	opLogger := logging.WithOperation(uc.logger, operationRecognize, requestID)

	callCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	started := time.Now()
	resp, err := uc.client.RecognizeCelebrities(callCtx, recognition.Request{Image: image})
	elapsed := time.Since(started)
	if err != nil {
		wrapped := logging.NewOperationError(operationRecognize, requestID, err)
		opLogger.Error("celebrity recognition failed", zap.Error(wrapped), zap.Duration("elapsed", elapsed))
		return nil, wrapped
	}
	if resp == nil {
		resp = &recognition.Response{}
	}

	opLogger.Info("celebrity recognition completed",
		zap.Int("image_bytes", len(image)),
		zap.Int("celebrities", len(resp.CelebrityFaces)),
		zap.Int("unrecognized_faces", resp.UnrecognizedFaces),
		zap.Duration("elapsed", elapsed),
	)
	return resp, nil
}
