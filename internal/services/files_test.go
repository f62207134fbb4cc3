package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yungbote/pulsecrm-backend/internal/pkg/logger"
	"github.com/yungbote/pulsecrm-backend/internal/types"
)

func TestFileToDataURIInlinesFile(t *testing.T) {
	t.Parallel()
	de := &DiskFileEncoder{log: logger.NewNop(), maxBytes: 64}

	path := filepath.Join(t.TempDir(), "note.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	uri, err := de.FileToDataURI(context.Background(), FileDescriptor{Path: path})
	if err != nil {
		t.Fatalf("encode file: %v", err)
	}
	if !strings.HasPrefix(uri, "data:text/plain") {
		t.Fatalf("unexpected mime prefix: %q", uri)
	}
	if !strings.HasSuffix(uri, base64.StdEncoding.EncodeToString([]byte("hello"))) {
		t.Fatalf("payload not inlined: %q", uri)
	}
}

func TestFileToDataURIRejectsBadDescriptors(t *testing.T) {
	t.Parallel()
	de := &DiskFileEncoder{log: logger.NewNop(), maxBytes: 3}
	ctx := context.Background()

	if _, err := de.FileToDataURI(ctx, FileDescriptor{Path: "  "}); err == nil {
		t.Fatalf("blank path accepted")
	}
	if _, err := de.FileToDataURI(ctx, FileDescriptor{Path: filepath.Join(t.TempDir(), "ghost")}); err == nil {
		t.Fatalf("missing file accepted")
	}

	path := filepath.Join(t.TempDir(), "big.bin")
	if err := os.WriteFile(path, []byte("too large"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := de.FileToDataURI(ctx, FileDescriptor{Path: path}); err == nil || !strings.Contains(err.Error(), "inline limit") {
		t.Fatalf("oversized file must be rejected, got %v", err)
	}
}

func TestAvatarToDataURIReencodesAsPNG(t *testing.T) {
	t.Parallel()
	de := &DiskFileEncoder{log: logger.NewNop(), maxBytes: 1 << 20}

	src := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			src.Set(x, y, color.NRGBA{R: 0x21, G: 0x96, B: 0xF3, A: 0xFF})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), "upload.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	uri, err := de.AvatarToDataURI(context.Background(), FileDescriptor{Path: path})
	if err != nil {
		t.Fatalf("encode avatar: %v", err)
	}
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(uri, prefix) {
		t.Fatalf("unexpected prefix: %q", uri[:min(len(uri), 40)])
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if img.Bounds().Dx() != avatarSize || img.Bounds().Dy() != avatarSize {
		t.Fatalf("avatar not resized: %v", img.Bounds())
	}

	textPath := filepath.Join(t.TempDir(), "not-image.txt")
	if err := os.WriteFile(textPath, []byte("plain text"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := de.AvatarToDataURI(context.Background(), FileDescriptor{Path: textPath}); err == nil {
		t.Fatalf("non-image upload accepted as avatar")
	}
}

func TestBytesToDataURIDefaultsMIME(t *testing.T) {
	t.Parallel()
	got := BytesToDataURI([]byte{0x01}, "")
	if !strings.HasPrefix(got, "data:application/octet-stream;base64,") {
		t.Fatalf("unexpected default mime: %q", got)
	}
}

func TestDescriptorFromValue(t *testing.T) {
	t.Parallel()
	desc, ok := DescriptorFromValue(map[string]any{"path": "/tmp/a.png", "title": "logo"})
	if !ok || desc.Path != "/tmp/a.png" || desc.Title != "logo" {
		t.Fatalf("map descriptor: got=%#v ok=%v", desc, ok)
	}

	desc, ok = DescriptorFromValue(map[string]any{"rawFile": "/tmp/b.png"})
	if !ok || desc.Path != "/tmp/b.png" {
		t.Fatalf("rawFile descriptor: got=%#v ok=%v", desc, ok)
	}

	desc, ok = DescriptorFromValue(types.Record{"path": "/tmp/c.png"})
	if !ok || desc.Path != "/tmp/c.png" {
		t.Fatalf("record descriptor: got=%#v ok=%v", desc, ok)
	}

	for _, v := range []any{nil, "https://cdn.example/logo.png", map[string]any{"title": "no path"}, map[string]any{"path": "  "}, 42} {
		if _, ok := DescriptorFromValue(v); ok {
			t.Fatalf("value %#v must not parse as descriptor", v)
		}
	}
}
