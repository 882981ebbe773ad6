// Package imagegen generates images with Google's Gemini image model via
// the Vertex AI backend. It supports text-to-image and, with an input
// image, image-to-image generation.
package imagegen

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/jingkaihe/skillsync/pkg/logger"
)

// DefaultModel is the Gemini image generation model
const DefaultModel = "gemini-3-pro-image-preview"

const maxInputImageSize = 5 * 1024 * 1024

// Options controls a single generation request
type Options struct {
	InputImage  string // Optional path for image-to-image generation
	OutputPath  string // Optional; a temp file is used when empty
	AspectRatio string // e.g. "16:9", "1:1", "9:16"
	Size        string // "1K" or "2K"
}

// Generator produces images through a GenAI client
type Generator struct {
	client *genai.Client
	model  string
}

// NewGenerator creates a Generator against the Vertex AI backend. The
// project comes from GOOGLE_CLOUD_PROJECT or CLOUDSDK_CORE_PROJECT;
// credentials resolve through ADC the way the rest of the Google tooling
// does.
func NewGenerator(ctx context.Context, model string) (*Generator, error) {
	project := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if project == "" {
		project = os.Getenv("CLOUDSDK_CORE_PROJECT")
	}
	if project == "" {
		return nil, errors.New("GOOGLE_CLOUD_PROJECT or CLOUDSDK_CORE_PROJECT env var required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend:  genai.BackendVertexAI,
		Project:  project,
		Location: "global",
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create GenAI client")
	}

	if model == "" {
		model = DefaultModel
	}

	return &Generator{client: client, model: model}, nil
}

// Generate produces an image from the prompt and returns the path it was
// saved to.
func (g *Generator) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	var parts []*genai.Part

	if opts.InputImage != "" {
		part, err := imagePart(opts.InputImage)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	parts = append(parts, genai.NewPartFromText(prompt))

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	aspectRatio := opts.AspectRatio
	if aspectRatio == "" {
		aspectRatio = "16:9"
	}
	size := opts.Size
	if size == "" {
		size = "2K"
	}

	config := &genai.GenerateContentConfig{
		Temperature:        genai.Ptr(float32(1.0)),
		TopP:               genai.Ptr(float32(0.95)),
		MaxOutputTokens:    8192,
		ResponseModalities: []string{"IMAGE"},
		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdOff},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdOff},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdOff},
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdOff},
		},
		ImageConfig: &genai.ImageConfig{
			AspectRatio: aspectRatio,
			ImageSize:   size,
		},
	}

	var response *genai.GenerateContentResponse
	err := retry.Do(
		func() error {
			var err error
			response, err = g.client.Models.GenerateContent(ctx, g.model, contents, config)
			return err
		},
		retry.RetryIf(isRetryableError),
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logger.G(ctx).WithError(err).WithField("attempt", n+1).Warn("retrying image generation")
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", errors.Wrap(err, "image generation failed")
	}

	if len(response.Candidates) == 0 {
		return "", errors.New("model returned no candidates, possibly due to safety filters")
	}

	for _, candidate := range response.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData == nil {
				continue
			}
			return saveImage(part.InlineData.Data, part.InlineData.MIMEType, opts.OutputPath)
		}
	}

	return "", errors.New("no image found in response")
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"service unavailable",
		"internal error",
		"rate limit",
		"too many requests",
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

func imagePart(path string) (*genai.Part, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read image file %s", path)
	}
	if len(data) > maxInputImageSize {
		return nil, errors.Errorf("image file %s is too large (%d bytes), maximum is %d bytes",
			path, len(data), maxInputImageSize)
	}

	mimeType := mimeTypeForExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "image/png"
	}

	return genai.NewPartFromBytes(data, mimeType), nil
}

func mimeTypeForExtension(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return ""
	}
}

func extensionForMIMEType(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

// saveImage writes the image bytes to the requested path, defaulting to a
// temp file and filling in a missing extension from the MIME type.
func saveImage(data []byte, mimeType, outputPath string) (string, error) {
	ext := extensionForMIMEType(mimeType)

	if outputPath == "" {
		f, err := os.CreateTemp("", "gemini_image_*"+ext)
		if err != nil {
			return "", errors.Wrap(err, "failed to create temp file")
		}
		outputPath = f.Name()
		f.Close()
	} else if filepath.Ext(outputPath) == "" {
		outputPath += ext
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create %s", filepath.Dir(outputPath))
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", outputPath)
	}

	absPath, err := filepath.Abs(outputPath)
	if err != nil {
		return outputPath, nil
	}
	return absPath, nil
}
