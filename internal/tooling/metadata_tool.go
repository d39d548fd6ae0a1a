package tooling

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"

	"argus/internal/domain"
)

type metadataArgs struct {
	Path string `json:"path" jsonschema:"required,description=Filesystem path of the file to inspect"`
}

// MetadataTool inspects a local file: true type by magic bytes, size,
// timestamps, and pixel dimensions for images.
type MetadataTool struct {
	schema string
}

func NewMetadataTool() *MetadataTool {
	return &MetadataTool{schema: GenerateSchema(&metadataArgs{})}
}

func (t *MetadataTool) Name() string { return "extract_metadata" }

func (t *MetadataTool) Description() string {
	return "Extract metadata from a local file: detected type, size, modification time, and image dimensions where applicable."
}

func (t *MetadataTool) Definition() string { return t.schema }

func (t *MetadataTool) Call(_ context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	var a metadataArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	path := strings.TrimSpace(a.Path)
	if path == "" {
		return nil, fmt.Errorf("path must not be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a file", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read file: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Metadata for %s:\n", path)
	fmt.Fprintf(&sb, "- Size: %d bytes\n", info.Size())
	fmt.Fprintf(&sb, "- Modified: %s\n", info.ModTime().UTC().Format("2006-01-02 15:04:05 UTC"))

	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		sb.WriteString("- Type: unknown (no recognized magic bytes)\n")
	} else {
		fmt.Fprintf(&sb, "- Type: %s (%s)\n", kind.MIME.Value, kind.Extension)
	}

	if filetype.IsImage(data) {
		if img, err := imaging.Open(path); err == nil {
			bounds := img.Bounds()
			fmt.Fprintf(&sb, "- Dimensions: %dx%d pixels\n", bounds.Dx(), bounds.Dy())
		}
	}

	return &domain.ToolResult{Data: sb.String()}, nil
}

type reverseImageArgs struct {
	Path string `json:"path" jsonschema:"required,description=Local filesystem path of the image to reverse-search"`
}

// ReverseImageTool verifies a local image and returns upload pages for the
// major reverse image search engines. Nothing is uploaded automatically.
type ReverseImageTool struct {
	schema string
}

func NewReverseImageTool() *ReverseImageTool {
	return &ReverseImageTool{schema: GenerateSchema(&reverseImageArgs{})}
}

func (t *ReverseImageTool) Name() string { return "reverse_image_search" }

func (t *ReverseImageTool) Description() string {
	return "Validate a local image file and return reverse image search upload pages (Google Lens, TinEye, Yandex) where the analyst can submit it."
}

func (t *ReverseImageTool) Definition() string { return t.schema }

func (t *ReverseImageTool) Call(_ context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	var a reverseImageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	path := strings.TrimSpace(a.Path)
	if path == "" {
		return nil, fmt.Errorf("path must not be empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read image: %w", err)
	}
	if !filetype.IsImage(data) {
		return nil, fmt.Errorf("%s is not a recognized image file", path)
	}

	return &domain.ToolResult{
		Data: fmt.Sprintf(
			"Image %s is valid. Submit it manually on these reverse search engines:\n"+
				"- Google Lens: https://lens.google.com/\n"+
				"- TinEye: https://tineye.com/\n"+
				"- Yandex: https://yandex.com/images/\n"+
				"Automatic upload is disabled to avoid leaking case material to third parties.",
			path),
	}, nil
}
