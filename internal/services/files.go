package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/yungbote/pulsecrm-backend/internal/pkg/logger"
	"github.com/yungbote/pulsecrm-backend/internal/types"
	"github.com/yungbote/pulsecrm-backend/internal/utils"
)

// FileDescriptor names a server-local file a caller wants inlined into a
// record, typically an uploaded logo staged on disk.
type FileDescriptor struct {
	Path  string
	Title string
}

// FileEncoder turns file descriptors into inline data URIs.
// AvatarToDataURI additionally crops the image to a circle before
// encoding; FileToDataURI inlines the bytes as-is.
type FileEncoder interface {
	FileToDataURI(ctx context.Context, desc FileDescriptor) (string, error)
	AvatarToDataURI(ctx context.Context, desc FileDescriptor) (string, error)
}

// DiskFileEncoder reads descriptors from the local filesystem. Files over
// the configured limit are rejected rather than inlined.
type DiskFileEncoder struct {
	log      *logger.Logger
	maxBytes int
}

func NewDiskFileEncoder(log *logger.Logger) *DiskFileEncoder {
	return &DiskFileEncoder{
		log:      log.With("service", "DiskFileEncoder"),
		maxBytes: utils.GetEnvAsInt("FILE_ENCODE_MAX_BYTES", 10<<20, log),
	}
}

func (de *DiskFileEncoder) FileToDataURI(ctx context.Context, desc FileDescriptor) (string, error) {
	path := strings.TrimSpace(desc.Path)
	if path == "" {
		return "", fmt.Errorf("file descriptor without path")
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %q: %w", path, err)
	}
	if de.maxBytes > 0 && info.Size() > int64(de.maxBytes) {
		return "", fmt.Errorf("file %q is %d bytes, over the %d byte inline limit", path, info.Size(), de.maxBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %q: %w", path, err)
	}
	return BytesToDataURI(data, detectMIME(path, data)), nil
}

func (de *DiskFileEncoder) AvatarToDataURI(ctx context.Context, desc FileDescriptor) (string, error) {
	path := strings.TrimSpace(desc.Path)
	if path == "" {
		return "", fmt.Errorf("file descriptor without path")
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %q: %w", path, err)
	}
	if de.maxBytes > 0 && info.Size() > int64(de.maxBytes) {
		return "", fmt.Errorf("file %q is %d bytes, over the %d byte inline limit", path, info.Size(), de.maxBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %q: %w", path, err)
	}
	buf, err := ProcessAvatarImage(data, avatarSize)
	if err != nil {
		return "", fmt.Errorf("process avatar %q: %w", path, err)
	}
	return BytesToDataURI(buf.Bytes(), "image/png"), nil
}

// BytesToDataURI encodes raw bytes as a base64 data URI.
func BytesToDataURI(data []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// detectMIME prefers the file extension and falls back to content
// sniffing.
func detectMIME(path string, data []byte) string {
	if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
		return byExt
	}
	return http.DetectContentType(data)
}

// DescriptorFromValue interprets a record value as an uploaded-file
// descriptor: a map carrying a local path under "path" or "rawFile", plus
// an optional "title".
func DescriptorFromValue(v any) (FileDescriptor, bool) {
	m, ok := asStringMap(v)
	if !ok {
		return FileDescriptor{}, false
	}
	path, _ := m["path"].(string)
	if path == "" {
		path, _ = m["rawFile"].(string)
	}
	if strings.TrimSpace(path) == "" {
		return FileDescriptor{}, false
	}
	title, _ := m["title"].(string)
	return FileDescriptor{Path: path, Title: title}, true
}

func asStringMap(v any) (map[string]any, bool) {
	switch tv := v.(type) {
	case map[string]any:
		return tv, true
	case types.Record:
		return tv, true
	default:
		return nil, false
	}
}
