package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/tencentyun/cos-go-sdk-v5"

	"dbbs/pkg/domain"
)

var ErrInvalidBucketURL = errors.New("COS bucket URL must be absolute")

// COSSink uploads results to a Tencent COS bucket. Any path on the bucket URL
// becomes a key prefix.
type COSSink struct {
	client *cos.Client
	prefix string
}

// NewCOSSink creates a sink for bucketURL, e.g.
// https://examplebucket-1250000000.cos.ap-guangzhou.myqcloud.com/dbbs/.
func NewCOSSink(bucketURL, secretID, secretKey string) (*COSSink, error) {
	u, err := url.Parse(bucketURL)
	if err != nil {
		return nil, fmt.Errorf("parse bucket URL %s: %w", bucketURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, ErrInvalidBucketURL
	}

	baseURL := &cos.BaseURL{
		BucketURL: &url.URL{Scheme: u.Scheme, Host: u.Host},
	}
	client := cos.NewClient(baseURL, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  secretID,
			SecretKey: secretKey,
		},
	})

	return &COSSink{
		client: client,
		prefix: strings.Trim(u.Path, "/"),
	}, nil
}

func (s *COSSink) Name() string {
	return "cos"
}

func (s *COSSink) Save(ctx context.Context, key string, _ *domain.ParseResult, data []byte) error {
	name := s.ObjectName(key)
	opt := &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{
			ContentType: "application/json",
		},
	}
	if _, err := s.client.Object.Put(ctx, name, bytes.NewReader(data), opt); err != nil {
		return fmt.Errorf("put cos object %s: %w", name, err)
	}
	return nil
}

// ObjectName returns the object key used for key.
func (s *COSSink) ObjectName(key string) string {
	if s.prefix == "" {
		return key + ".json"
	}
	return path.Join(s.prefix, key+".json")
}
