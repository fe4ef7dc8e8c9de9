package rekognition

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"go.uber.org/zap"

	"github.com/example/celebrity-recognition/internal/logging"
	"github.com/example/celebrity-recognition/internal/recognition"
)

const operationRecognize = "rekognition.recognize_celebrities"

// API is the slice of the Rekognition SDK client used by this package.
type API interface {
	RecognizeCelebrities(ctx context.Context, params *rekognition.RecognizeCelebritiesInput, optFns ...func(*rekognition.Options)) (*rekognition.RecognizeCelebritiesOutput, error)
}

// Config selects the AWS region and, optionally, static credentials and a
// custom endpoint. Empty credentials fall back to the SDK default chain.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Endpoint        string
}

// Client implements recognition.Client on top of AWS Rekognition.
type Client struct {
	api    API
	logger *zap.Logger
}

var _ recognition.Client = (*Client)(nil)

// New loads AWS configuration once and returns a client that is safe to share
// across goroutines. The SDK retryer is disabled so each call reaches the
// service exactly once.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		wrapped := logging.NewOperationError("rekognition.load_config", "", err)
		logger.Error("failed to load aws config", zap.Error(wrapped), zap.String("region", cfg.Region))
		return nil, wrapped
	}

	api := rekognition.NewFromConfig(awsCfg, func(o *rekognition.Options) {
		o.Retryer = aws.NopRetryer{}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	logger.Info("rekognition client ready", zap.String("region", cfg.Region), zap.String("endpoint", cfg.Endpoint))
	return NewWithAPI(api, logger), nil
}

// NewWithAPI wraps an existing SDK client.
func NewWithAPI(api API, logger *zap.Logger) *Client {
	return &Client{api: api, logger: logger.Named("rekognition")}
}

// RecognizeCelebrities sends the image bytes to Rekognition and maps the
// returned celebrities in order.
func (c *Client) RecognizeCelebrities(ctx context.Context, req recognition.Request) (*recognition.Response, error) {
	out, err := c.api.RecognizeCelebrities(ctx, &rekognition.RecognizeCelebritiesInput{
		Image: &types.Image{Bytes: req.Image},
	})
	if err != nil {
		wrapped := logging.NewOperationError(operationRecognize, "", err)
		c.logger.Error("recognize celebrities call failed", zap.Error(wrapped), zap.Int("image_bytes", len(req.Image)))
		return nil, wrapped
	}

	faces := make([]recognition.CelebrityFace, 0, len(out.CelebrityFaces))
	for _, celebrity := range out.CelebrityFaces {
		faces = append(faces, toCelebrityFace(celebrity))
	}
	return &recognition.Response{
		CelebrityFaces:    faces,
		UnrecognizedFaces: len(out.UnrecognizedFaces),
	}, nil
}

func toCelebrityFace(c types.Celebrity) recognition.CelebrityFace {
	face := recognition.CelebrityFace{
		ID:              aws.ToString(c.Id),
		Name:            aws.ToString(c.Name),
		MatchConfidence: aws.ToFloat32(c.MatchConfidence),
		URLs:            append([]string(nil), c.Urls...),
	}
	if c.KnownGender != nil {
		face.KnownGender = string(c.KnownGender.Type)
	}
	if c.Face != nil {
		face.FaceConfidence = aws.ToFloat32(c.Face.Confidence)
		if box := c.Face.BoundingBox; box != nil {
			face.BoundingBox = recognition.BoundingBox{
				Left:   aws.ToFloat32(box.Left),
				Top:    aws.ToFloat32(box.Top),
				Width:  aws.ToFloat32(box.Width),
				Height: aws.ToFloat32(box.Height),
			}
		}
	}
	return face
}
