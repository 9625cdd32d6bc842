// Package storage signs direct-to-bucket uploads.
package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	DefaultBucket = "airg"
	DefaultExpiry = 5 * time.Minute
)

type Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Expiry          time.Duration
}

type Upload struct {
	URL    string `json:"url"`
	Key    string `json:"key"`
	Bucket string `json:"bucket"`
}

// Presigner produces presigned PUT URLs. With the region pinned no request
// is made to the object store.
type Presigner struct {
	client *minio.Client
	bucket string
	expiry time.Duration
	now    func() time.Time
}

func NewPresigner(cfg Config) (*Presigner, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Bucket == "" {
		cfg.Bucket = DefaultBucket
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = DefaultExpiry
	}

	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:       cfg.UseSSL || strings.HasPrefix(cfg.Endpoint, "https://"),
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("object storage client: %w", err)
	}

	return &Presigner{client: client, bucket: cfg.Bucket, expiry: cfg.Expiry, now: time.Now}, nil
}

// PresignUpload signs a PUT for uploads/<unix millis>-<filename>. The
// content type is part of the signature, so the client must send it.
func (p *Presigner) PresignUpload(ctx context.Context, filename, contentType string) (Upload, error) {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return Upload{}, fmt.Errorf("invalid filename %q", filename)
	}

	key := fmt.Sprintf("uploads/%d-%s", p.now().UnixMilli(), name)

	headers := http.Header{}
	if contentType != "" {
		headers.Set("Content-Type", contentType)
	}

	u, err := p.client.PresignHeader(ctx, http.MethodPut, p.bucket, key, p.expiry, url.Values{}, headers)
	if err != nil {
		return Upload{}, fmt.Errorf("presign upload: %w", err)
	}
	return Upload{URL: u.String(), Key: key, Bucket: p.bucket}, nil
}
