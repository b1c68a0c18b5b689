package storage

import (
	"context"
	"errors"
	"hash/crc64"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestFileSink_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sink := NewFileSink(dir)

	data := []byte(`{"episodes":[],"bits":[]}`)
	if err := sink.Save(context.Background(), "parsed-3-5-2024-07:08:09", nil, data); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "parsed-3-5-2024-07:08:09.json"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("Expected %s, got %s", data, got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected temp files to be cleaned up, found %d entries", len(entries))
	}
}

func TestFileSink_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := NewFileSink(t.TempDir())
	if err := sink.Save(ctx, "key", nil, []byte("{}")); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Sink_Save(t *testing.T) {
	putter := &fakePutter{}
	sink := &S3Sink{client: putter, bucket: "glossary-output"}

	if err := sink.Save(context.Background(), "parsed-1-2-2024-00:00:00", nil, []byte("{}")); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if aws.ToString(putter.input.Bucket) != "glossary-output" {
		t.Errorf("Unexpected bucket: %s", aws.ToString(putter.input.Bucket))
	}
	if aws.ToString(putter.input.Key) != "parsed-1-2-2024-00:00:00" {
		t.Errorf("Unexpected key: %s", aws.ToString(putter.input.Key))
	}
	if aws.ToString(putter.input.ContentType) != "application/json" {
		t.Errorf("Unexpected content type: %s", aws.ToString(putter.input.ContentType))
	}
	if string(putter.body) != "{}" {
		t.Errorf("Unexpected body: %s", putter.body)
	}
}

func TestS3Sink_SaveError(t *testing.T) {
	boom := errors.New("access denied")
	sink := &S3Sink{client: &fakePutter{err: boom}, bucket: "b"}

	if err := sink.Save(context.Background(), "k", nil, nil); !errors.Is(err, boom) {
		t.Fatalf("Expected wrapped error, got %v", err)
	}
}

func TestNewS3Sink_RequiresBucket(t *testing.T) {
	if _, err := NewS3Sink(context.Background(), S3Config{}); !errors.Is(err, ErrEmptyBucket) {
		t.Fatalf("Expected ErrEmptyBucket, got %v", err)
	}
}

func TestCOSSink_Save(t *testing.T) {
	var gotPath, gotType string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("Expected PUT, got %s", r.Method)
		}
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		crc := crc64.Checksum(gotBody, crc64.MakeTable(crc64.ECMA))
		w.Header().Set("x-cos-hash-crc64ecma", strconv.FormatUint(crc, 10))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink, err := NewCOSSink(server.URL+"/dbbs/", "id", "key")
	if err != nil {
		t.Fatalf("NewCOSSink returned error: %v", err)
	}
	if err := sink.Save(context.Background(), "parsed-now", nil, []byte(`{"bits":[]}`)); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	if gotPath != "/dbbs/parsed-now.json" {
		t.Errorf("Unexpected object path: %s", gotPath)
	}
	if gotType != "application/json" {
		t.Errorf("Unexpected content type: %s", gotType)
	}
	if string(gotBody) != `{"bits":[]}` {
		t.Errorf("Unexpected body: %s", gotBody)
	}
}

func TestNewCOSSink_InvalidURL(t *testing.T) {
	if _, err := NewCOSSink("not a url", "id", "key"); !errors.Is(err, ErrInvalidBucketURL) {
		t.Fatalf("Expected ErrInvalidBucketURL, got %v", err)
	}
}

func TestCOSSink_ObjectName(t *testing.T) {
	sink, err := NewCOSSink("https://bucket-1250000000.cos.ap-guangzhou.myqcloud.com", "id", "key")
	if err != nil {
		t.Fatalf("NewCOSSink returned error: %v", err)
	}
	if got := sink.ObjectName("parsed-x"); got != "parsed-x.json" {
		t.Errorf("Expected parsed-x.json, got %s", got)
	}
}
