package ocr

import (
	"context"
	"fmt"
	"os"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// MaxImageBytes is the Vision API limit for inline image content.
const MaxImageBytes = 20 * 1024 * 1024

// VisionConfig configures the Google Cloud Vision engine.
type VisionConfig struct {
	// CredentialsFile is a service account key file. When empty the
	// GOOGLE_CREDENTIALS and GOOGLE_APPLICATION_CREDENTIALS environment
	// variables are consulted, then application default credentials.
	CredentialsFile string
	MaxImageBytes   int
}

type annotateFunc func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error)

// VisionEngine recognizes label text with Google Cloud Vision document text
// detection. It implements domain.OCREngine.
type VisionEngine struct {
	client   *vision.ImageAnnotatorClient
	annotate annotateFunc
	maxBytes int
	logger   *zap.Logger
}

// NewVisionEngine creates a Vision client from the configured credentials.
func NewVisionEngine(ctx context.Context, cfg VisionConfig, logger *zap.Logger) (*VisionEngine, error) {
	const op = "NewVisionEngine"

	opts, source := credentialOptions(cfg)
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, WrapOCRError(op, err, fmt.Sprintf("failed to create client with %s", source))
	}

	engine := newVisionEngine(func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
		return client.BatchAnnotateImages(ctx, req)
	}, cfg, logger)
	engine.client = client
	return engine, nil
}

func newVisionEngine(annotate annotateFunc, cfg VisionConfig, logger *zap.Logger) *VisionEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxBytes := cfg.MaxImageBytes
	if maxBytes <= 0 || maxBytes > MaxImageBytes {
		maxBytes = MaxImageBytes
	}
	return &VisionEngine{
		annotate: annotate,
		maxBytes: maxBytes,
		logger:   logger.Named("ocr.vision"),
	}
}

func credentialOptions(cfg VisionConfig) ([]option.ClientOption, string) {
	if cfg.CredentialsFile != "" {
		return []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}, "configured credentials file"
	}
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(credJSON))}, "GOOGLE_CREDENTIALS"
	}
	if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		return []option.ClientOption{option.WithCredentialsFile(credFile)}, "GOOGLE_APPLICATION_CREDENTIALS"
	}
	return nil, "default credentials"
}

// ExtractText returns the full text Vision found in image. An image with
// no text yields an empty string and no error.
func (v *VisionEngine) ExtractText(ctx context.Context, image []byte) (string, error) {
	const op = "ExtractText"

	if len(image) == 0 {
		return "", NewOCRError(op, ErrEmptyImage, "")
	}
	if len(image) > v.maxBytes {
		return "", NewOCRError(op, ErrImageTooLarge, fmt.Sprintf("%d bytes, limit %d", len(image), v.maxBytes))
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: image},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := v.annotate(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", NewOCRError(op, ErrRecognitionFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.GetResponses()) == 0 {
		return "", NewOCRError(op, ErrRecognitionFailed, "no response from Vision API")
	}

	imageResp := resp.GetResponses()[0]
	if imageResp.GetError() != nil {
		return "", NewOCRError(op, ErrRecognitionFailed, fmt.Sprintf("Vision API error: %s", imageResp.GetError().GetMessage()))
	}

	text := imageResp.GetFullTextAnnotation().GetText()
	v.logger.Debug("image recognized",
		zap.Int("image_bytes", len(image)),
		zap.Int("text_length", len(text)),
	)
	return text, nil
}

// Close releases the underlying client connection.
func (v *VisionEngine) Close() error {
	if v.client == nil {
		return nil
	}
	return v.client.Close()
}
