package dataset

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const s3Scheme = "s3://"

// ObjectStoreConfig configures the S3-compatible store used for s3:// paths.
type ObjectStoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// ObjectStoreConfigFromEnv reads AIDEN_S3_ENDPOINT, AIDEN_S3_ACCESS_KEY,
// AIDEN_S3_SECRET_KEY, AIDEN_S3_REGION and AIDEN_S3_USE_SSL.
func ObjectStoreConfigFromEnv() (ObjectStoreConfig, error) {
	useSSL := false
	if v, ok := os.LookupEnv("AIDEN_S3_USE_SSL"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return ObjectStoreConfig{}, fmt.Errorf("parse AIDEN_S3_USE_SSL: %w", err)
		}
		useSSL = b
	}
	cfg := ObjectStoreConfig{
		Endpoint:  os.Getenv("AIDEN_S3_ENDPOINT"),
		AccessKey: os.Getenv("AIDEN_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("AIDEN_S3_SECRET_KEY"),
		Region:    os.Getenv("AIDEN_S3_REGION"),
		UseSSL:    useSSL,
	}
	if err := cfg.Validate(); err != nil {
		return ObjectStoreConfig{}, err
	}
	return cfg, nil
}

// Validate checks that the required fields are set.
func (c ObjectStoreConfig) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("AIDEN_S3_ENDPOINT is required")
	}
	if c.AccessKey == "" || c.SecretKey == "" {
		return errors.New("AIDEN_S3_ACCESS_KEY and AIDEN_S3_SECRET_KEY are required")
	}
	return nil
}

// IsRemote reports whether path is an s3:// URI.
func IsRemote(path string) bool {
	return strings.HasPrefix(path, s3Scheme)
}

// ParseS3URI splits "s3://bucket/key/parts" into bucket and object key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	if !IsRemote(uri) {
		return "", "", fmt.Errorf("not an s3 uri: %q", uri)
	}
	rest := strings.TrimPrefix(uri, s3Scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 uri must name a bucket and key: %q", uri)
	}
	return bucket, key, nil
}

// Stager moves s3:// datasets between the object store and a working directory,
// so candidate code only ever sees local paths.
type Stager struct {
	client *minio.Client
}

// NewStager creates a stager backed by a MinIO client.
func NewStager(cfg ObjectStoreConfig) (*Stager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}
	return &Stager{client: client}, nil
}

// Stage downloads a remote dataset into dir and returns a copy of d pointing
// at the local file. Local datasets are returned unchanged.
func (s *Stager) Stage(ctx context.Context, d Dataset, dir string) (Dataset, error) {
	if !IsRemote(d.Path) {
		return d, nil
	}
	bucket, key, err := ParseS3URI(d.Path)
	if err != nil {
		return Dataset{}, err
	}
	local := filepath.Join(dir, filepath.Base(key))
	if err := s.client.FGetObject(ctx, bucket, key, local, minio.GetObjectOptions{}); err != nil {
		return Dataset{}, fmt.Errorf("stage %s: %w", d.Name, err)
	}
	d.Path = local
	return d, nil
}

// Target returns a copy of d pointing at the file in dir that an s3://
// output is written to before Publish. Local datasets are returned unchanged.
func Target(d Dataset, dir string) (Dataset, error) {
	if !IsRemote(d.Path) {
		return d, nil
	}
	_, key, err := ParseS3URI(d.Path)
	if err != nil {
		return Dataset{}, err
	}
	d.Path = filepath.Join(dir, filepath.Base(key))
	return d, nil
}

// Publish uploads the local file behind d to the s3:// uri.
func (s *Stager) Publish(ctx context.Context, d Dataset, uri string) error {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return err
	}
	contentType := mime.TypeByExtension(filepath.Ext(d.Path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if _, err := s.client.FPutObject(ctx, bucket, key, d.Path, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return fmt.Errorf("publish %s: %w", d.Name, err)
	}
	return nil
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
