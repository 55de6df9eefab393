// Package evidence stores photo and video proof of task completions in
// S3-compatible object storage.
package evidence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/dukerupert/happyloop/internal/config"
	"github.com/dukerupert/happyloop/internal/model"
)

// MaxUploadSize caps a single evidence upload.
const MaxUploadSize = 20 << 20

// ThumbnailWidth is the width of generated image thumbnails.
const ThumbnailWidth = 200

var (
	// ErrNotConfigured is returned when no bucket is configured.
	ErrNotConfigured = errors.New("evidence storage not configured")
	// ErrUnsupportedType is returned for uploads that are not image, video or audio.
	ErrUnsupportedType = errors.New("unsupported evidence type")
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Upload is the evidence to store for one task log.
type Upload struct {
	KidID       int64
	TaskLogID   int64
	Filename    string
	ContentType string
	Data        []byte
}

// Stored describes the objects written for an upload.
type Stored struct {
	Key          string
	ThumbnailKey string
	Type         model.MediaType
	ContentType  string
}

// Store writes evidence objects and resolves their URLs.
type Store struct {
	client        s3Client
	bucket        string
	publicBaseURL string
	logger        *slog.Logger
}

// New builds a Store from config. A Store without a bucket is disabled and
// every operation returns ErrNotConfigured.
func New(cfg config.S3, logger *slog.Logger) *Store {
	s := &Store{
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		logger:        logger.With("component", "evidence"),
	}
	if cfg.Enabled() {
		s.client = newS3Client(cfg)
	}
	return s
}

func newS3Client(cfg config.S3) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func (s *Store) Enabled() bool {
	return s.client != nil
}

// Save uploads the evidence under evidence/<kid>/<log>/<uuid><ext>. Images
// also get a JPEG thumbnail; a thumbnail failure is logged and skipped.
func (s *Store) Save(ctx context.Context, up Upload) (*Stored, error) {
	if s.client == nil {
		return nil, ErrNotConfigured
	}

	contentType := contentTypeOf(up.ContentType, up.Data)
	typ, ok := MediaTypeOf(contentType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	id := uuid.NewString()
	prefix := fmt.Sprintf("evidence/%d/%d/", up.KidID, up.TaskLogID)
	st := &Stored{
		Key:         prefix + id + extension(up.Filename, contentType),
		Type:        typ,
		ContentType: contentType,
	}
	if err := s.put(ctx, st.Key, contentType, up.Data); err != nil {
		return nil, err
	}

	if typ == model.MediaImage {
		thumb, err := Thumbnail(up.Data)
		if err != nil {
			s.logger.Warn("thumbnail skipped", "key", st.Key, "error", err)
			return st, nil
		}
		key := prefix + id + "_thumb.jpg"
		if err := s.put(ctx, key, "image/jpeg", thumb); err != nil {
			s.logger.Warn("thumbnail upload failed", "key", key, "error", err)
			return st, nil
		}
		st.ThumbnailKey = key
	}
	return st, nil
}

func (s *Store) put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// Open streams a stored object.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if s.client == nil {
		return nil, "", ErrNotConfigured
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("download %s: %w", key, err)
	}
	return out.Body, aws.ToString(out.ContentType), nil
}

// Delete removes stored objects. Paths that are not object keys, such as
// generated placeholder URLs, are ignored.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if s.client == nil {
		return ErrNotConfigured
	}
	for _, key := range keys {
		if !IsKey(key) {
			continue
		}
		if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		}); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}

// URL resolves a stored path for clients. Absolute URLs pass through; keys
// resolve against the public base URL or fall back to the app's own
// evidence route.
func (s *Store) URL(p string) string {
	switch {
	case p == "":
		return ""
	case !IsKey(p):
		return p
	case s.publicBaseURL != "":
		return s.publicBaseURL + "/" + p
	default:
		return "/api/" + p
	}
}

// IsKey reports whether p names an object in the evidence bucket.
func IsKey(p string) bool {
	return strings.HasPrefix(p, "evidence/")
}

// KidIDOf returns the kid a stored key belongs to.
func KidIDOf(key string) (int64, bool) {
	if !IsKey(key) {
		return 0, false
	}
	parts := strings.SplitN(key, "/", 4)
	if len(parts) < 4 {
		return 0, false
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// MediaTypeOf maps a MIME type to a media type.
func MediaTypeOf(contentType string) (model.MediaType, bool) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}
	switch {
	case strings.HasPrefix(mt, "image/"):
		return model.MediaImage, true
	case strings.HasPrefix(mt, "video/"):
		return model.MediaVideo, true
	case strings.HasPrefix(mt, "audio/"):
		return model.MediaAudio, true
	}
	return "", false
}

// contentTypeOf sniffs the upload. The declared type is used only for audio
// and video the sniffer does not recognise; images are always sniffed since
// they are served back inline.
func contentTypeOf(declared string, data []byte) string {
	sniffed := http.DetectContentType(data)
	if sniffed != "application/octet-stream" {
		return sniffed
	}
	if mt, _, err := mime.ParseMediaType(declared); err == nil {
		if strings.HasPrefix(mt, "video/") || strings.HasPrefix(mt, "audio/") {
			return mt
		}
	}
	return sniffed
}

func extension(filename, contentType string) string {
	if ext := strings.ToLower(path.Ext(filename)); ext != "" && len(ext) <= 6 {
		return ext
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// Thumbnail scales an image to ThumbnailWidth wide and encodes it as JPEG.
func Thumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	thumb := imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
