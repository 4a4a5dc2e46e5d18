package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

type apiError struct{ code string }

func (e *apiError) Error() string                 { return e.code }
func (e *apiError) ErrorCode() string             { return e.code }
func (e *apiError) ErrorMessage() string          { return e.code }
func (e *apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

// mockS3 keeps objects in a map keyed by bucket/key.
type mockS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	puts    int
}

func newMockS3() *mockS3 { return &mockS3{objects: make(map[string][]byte)} }

func (m *mockS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &apiError{"NoSuchKey"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	m.objects[*in.Bucket+"/"+*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, *in.Bucket+"/"+*in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (m *mockS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[*in.Bucket+"/"+*in.Key]; !ok {
		return nil, &apiError{"NotFound"}
	}
	return &s3.HeadObjectOutput{}, nil
}

// testStores returns a local and an S3 store.
func testStores(t *testing.T) map[string]FileStore {
	t.Helper()
	l, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return map[string]FileStore{
		"local": l,
		"s3":    NewS3(newMockS3(), "bucket", "models"),
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	for name, fs := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if ok, err := fs.Exists(ctx, "a/m.sim"); err != nil || ok {
				t.Fatalf("Exists before write = %v, %v", ok, err)
			}
			if _, err := fs.Read(ctx, "a/m.sim"); !errors.Is(err, os.ErrNotExist) {
				t.Fatalf("Read missing = %v, want ErrNotExist", err)
			}
			for _, data := range []string{"first version", "v2"} {
				if err := WriteFile(ctx, fs, "a/m.sim", []byte(data)); err != nil {
					t.Fatal(err)
				}
				got, err := ReadFile(ctx, fs, "a/m.sim")
				if err != nil || string(got) != data {
					t.Fatalf("ReadFile = %q, %v; want %q", got, err, data)
				}
			}
			if ok, err := fs.Exists(ctx, "a/m.sim"); err != nil || !ok {
				t.Fatalf("Exists after write = %v, %v", ok, err)
			}
			if err := fs.Delete(ctx, "a/m.sim"); err != nil {
				t.Fatal(err)
			}
			if err := fs.Delete(ctx, "a/m.sim"); err != nil {
				t.Fatalf("second Delete = %v", err)
			}
			for _, bad := range []string{"", "../up.sim", "/abs.sim", "a/../../x"} {
				if _, err := fs.Write(ctx, bad); !errors.Is(err, ErrInvalidPath) {
					t.Errorf("Write(%q) = %v, want ErrInvalidPath", bad, err)
				}
			}
		})
	}
}

func TestLocal_WriteIsAtomic(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	l, err := NewLocal(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(ctx, l, "m.sim", []byte("old")); err != nil {
		t.Fatal(err)
	}
	w, err := l.Write(ctx, "m.sim")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(w, "new"); err != nil {
		t.Fatal(err)
	}
	if got, _ := os.ReadFile(filepath.Join(dir, "m.sim")); string(got) != "old" {
		t.Fatalf("content before Close = %q, want old", got)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if got, _ := os.ReadFile(filepath.Join(dir, "m.sim")); string(got) != "new" {
		t.Fatalf("content after Close = %q, want new", got)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("dir has %d entries, want 1", len(entries))
	}
}

func TestS3_KeysAndUpload(t *testing.T) {
	ctx := context.Background()
	mock := newMockS3()
	s := NewS3(mock, "b", "pre")
	w, err := s.Write(ctx, "./x/m.simb")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(w, "ab")
	io.WriteString(w, "cd")
	if mock.puts != 0 {
		t.Fatal("uploaded before Close")
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close = %v", err)
	}
	if _, err := w.Write([]byte("late")); !errors.Is(err, fs.ErrClosed) {
		t.Fatalf("Write after Close = %v, want ErrClosed", err)
	}
	if mock.puts != 1 || string(mock.objects["b/pre/x/m.simb"]) != "abcd" {
		t.Fatalf("objects = %v after %d puts", mock.objects, mock.puts)
	}

	mock.putErr = &apiError{"AccessDenied"}
	if err := WriteFile(ctx, s, "y.sim", []byte("z")); err == nil {
		t.Fatal("WriteFile with failing upload = nil")
	}
}

func TestOpen(t *testing.T) {
	cfg := S3Config{Bucket: "cfg-bucket", Prefix: "models", Endpoint: "http://localhost:9000"}

	fs, p, err := Open("s3://data/dir/m.sim", cfg)
	if err != nil {
		t.Fatal(err)
	}
	s3s, ok := fs.(*S3Store)
	if !ok || s3s.bucket != "data" || s3s.prefix != "" || p != "dir/m.sim" {
		t.Fatalf("Open(s3://data/dir/m.sim) = %T %+v, %q", fs, fs, p)
	}

	fs, p, err = Open("s3:///m.sim", cfg)
	if err != nil {
		t.Fatal(err)
	}
	s3s = fs.(*S3Store)
	if s3s.bucket != "cfg-bucket" || s3s.prefix != "models" || p != "m.sim" {
		t.Fatalf("Open(s3:///m.sim) = %+v, %q", s3s, p)
	}

	if _, _, err := Open("s3:///m.sim", S3Config{}); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("Open without bucket = %v, want ErrInvalidPath", err)
	}

	dir := t.TempDir()
	fs, p, err = Open(filepath.Join(dir, "sub", "m.sim"), cfg)
	if err != nil {
		t.Fatal(err)
	}
	l, ok := fs.(*Local)
	if !ok || l.Root() != filepath.Join(dir, "sub") || p != "m.sim" {
		t.Fatalf("Open(local) = %T, %q", fs, p)
	}
}
