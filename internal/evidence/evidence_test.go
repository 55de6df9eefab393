package evidence

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"

	"github.com/dukerupert/happyloop/internal/config"
	"github.com/dukerupert/happyloop/internal/model"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	m.types[*input.Key] = aws.ToString(input.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{
		Body:        io.NopCloser(bytes.NewReader(data)),
		ContentType: aws.String(m.types[*input.Key]),
	}, nil
}

func (m *mockS3Client) DeleteObject(_ context.Context, input *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func testStore(client s3Client, publicBase string) *Store {
	return &Store{
		client:        client,
		bucket:        "evidence-test",
		publicBaseURL: publicBase,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestSaveImageWithThumbnail(t *testing.T) {
	mock := newMockS3()
	s := testStore(mock, "")

	st, err := s.Save(context.Background(), Upload{
		KidID:       3,
		TaskLogID:   42,
		Filename:    "bed.PNG",
		ContentType: "image/png",
		Data:        testPNG(t, 800, 400),
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(st.Key, "evidence/3/42/") || !strings.HasSuffix(st.Key, ".png") {
		t.Errorf("key = %q", st.Key)
	}
	if st.Type != model.MediaImage {
		t.Errorf("type = %s, want image", st.Type)
	}
	if st.ThumbnailKey == "" {
		t.Fatal("expected thumbnail key")
	}
	if len(mock.objects) != 2 {
		t.Errorf("objects stored = %d, want 2", len(mock.objects))
	}

	thumb, err := imaging.Decode(bytes.NewReader(mock.objects[st.ThumbnailKey]))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	if b := thumb.Bounds(); b.Dx() != ThumbnailWidth || b.Dy() != 100 {
		t.Errorf("thumbnail size = %dx%d, want %dx100", b.Dx(), b.Dy(), ThumbnailWidth)
	}
	if mock.types[st.ThumbnailKey] != "image/jpeg" {
		t.Errorf("thumbnail content type = %q", mock.types[st.ThumbnailKey])
	}
}

// mp4Header is the smallest ftyp box the content sniffer reports as video/mp4.
var mp4Header = []byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom")

func TestSaveVideoHasNoThumbnail(t *testing.T) {
	mock := newMockS3()
	s := testStore(mock, "")

	st, err := s.Save(context.Background(), Upload{KidID: 1, TaskLogID: 2, Filename: "walk.mp4", ContentType: "video/mp4", Data: mp4Header})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if st.Type != model.MediaVideo || st.ThumbnailKey != "" {
		t.Errorf("stored = %+v", st)
	}
}

func TestSaveUndecodableImageSkipsThumbnail(t *testing.T) {
	s := testStore(newMockS3(), "")

	st, err := s.Save(context.Background(), Upload{KidID: 1, TaskLogID: 2, Filename: "x.jpg", ContentType: "image/jpeg", Data: []byte("\xff\xd8\xffgarbage")})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if st.ThumbnailKey != "" {
		t.Errorf("thumbnail key = %q, want none", st.ThumbnailKey)
	}
}

func TestSaveErrors(t *testing.T) {
	disabled := New(config.S3{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if disabled.Enabled() {
		t.Fatal("store without bucket should be disabled")
	}
	if _, err := disabled.Save(context.Background(), Upload{Data: []byte("x")}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("disabled err = %v, want ErrNotConfigured", err)
	}

	s := testStore(newMockS3(), "")
	_, err := s.Save(context.Background(), Upload{Filename: "notes.txt", ContentType: "text/plain", Data: []byte("hello")})
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("text err = %v, want ErrUnsupportedType", err)
	}

	failing := newMockS3()
	failing.putErr = errors.New("bucket gone")
	if _, err := testStore(failing, "").Save(context.Background(), Upload{ContentType: "video/mp4", Data: mp4Header}); err == nil {
		t.Error("expected put error")
	}
}

func TestSaveDetectsContentType(t *testing.T) {
	s := testStore(newMockS3(), "")

	st, err := s.Save(context.Background(), Upload{KidID: 1, TaskLogID: 1, Data: testPNG(t, 10, 10)})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if st.ContentType != "image/png" || st.Type != model.MediaImage {
		t.Errorf("stored = %+v", st)
	}
}

func TestOpenAndDelete(t *testing.T) {
	mock := newMockS3()
	s := testStore(mock, "")
	st, _ := s.Save(context.Background(), Upload{KidID: 1, TaskLogID: 1, Filename: "a.png", ContentType: "image/png", Data: testPNG(t, 20, 20)})

	body, contentType, err := s.Open(context.Background(), st.Key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer body.Close()
	if contentType != "image/png" {
		t.Errorf("content type = %q", contentType)
	}

	if err := s.Delete(context.Background(), st.Key, st.ThumbnailKey, "https://placehold.co/300x200/EEE/31343C?text=Evidence"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(mock.objects) != 0 {
		t.Errorf("objects left = %d", len(mock.objects))
	}
}

func TestURL(t *testing.T) {
	tests := []struct {
		base string
		path string
		want string
	}{
		{"", "", ""},
		{"", "evidence/1/2/a.png", "/api/evidence/1/2/a.png"},
		{"https://cdn.example.com", "evidence/1/2/a.png", "https://cdn.example.com/evidence/1/2/a.png"},
		{"https://cdn.example.com", "https://placehold.co/100x100/EEE/31343C?text=Evidence", "https://placehold.co/100x100/EEE/31343C?text=Evidence"},
	}
	for _, tt := range tests {
		if got := testStore(nil, tt.base).URL(tt.path); got != tt.want {
			t.Errorf("URL(%q) with base %q = %q, want %q", tt.path, tt.base, got, tt.want)
		}
	}
}

func TestMediaTypeOf(t *testing.T) {
	tests := []struct {
		in   string
		want model.MediaType
		ok   bool
	}{
		{"image/jpeg", model.MediaImage, true},
		{"video/mp4; codecs=avc1", model.MediaVideo, true},
		{"audio/ogg", model.MediaAudio, true},
		{"application/pdf", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := MediaTypeOf(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("MediaTypeOf(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestKidIDOf(t *testing.T) {
	tests := []struct {
		key  string
		want int64
		ok   bool
	}{
		{"evidence/12/40/abc.jpg", 12, true},
		{"evidence/12/40/abc_thumb.jpg", 12, true},
		{"evidence/x/40/abc.jpg", 0, false},
		{"evidence/0/40/abc.jpg", 0, false},
		{"evidence/12/abc.jpg", 0, false},
		{"https://picsum.photos/300/200", 0, false},
	}
	for _, tt := range tests {
		got, ok := KidIDOf(tt.key)
		if got != tt.want || ok != tt.ok {
			t.Errorf("KidIDOf(%q) = %d, %v; want %d, %v", tt.key, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSaveSniffsDeclaredType(t *testing.T) {
	s := testStore(newMockS3(), "")
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`)

	tests := []struct {
		name     string
		declared string
		data     []byte
		want     string
		wantErr  bool
	}{
		{"svg claiming svg", "image/svg+xml", svg, "", true},
		{"svg claiming png", "image/png", svg, "", true},
		{"png claiming html", "text/html", testPNG(t, 4, 4), "image/png", false},
		{"unknown bytes claiming quicktime", "video/quicktime", []byte{0, 1, 2, 3, 0, 1, 2, 3}, "video/quicktime", false},
		{"unknown bytes claiming image", "image/heic", []byte{0, 1, 2, 3, 0, 1, 2, 3}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := s.Save(context.Background(), Upload{KidID: 1, TaskLogID: 1, ContentType: tt.declared, Data: tt.data})
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedType) {
					t.Fatalf("err = %v, want ErrUnsupportedType", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("save: %v", err)
			}
			if st.ContentType != tt.want {
				t.Errorf("content type = %q, want %q", st.ContentType, tt.want)
			}
		})
	}
}
