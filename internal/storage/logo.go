package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"
)

const MaxLogoSize = 2 << 20

var (
	ErrStorageDisabled     = errors.New("logo storage is not configured")
	ErrLogoTooLarge        = errors.New("logo exceeds 2 MiB")
	ErrUnsupportedLogoType = errors.New("logo must be a PNG, JPEG or SVG image")
)

var logoExtensions = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/svg+xml": ".svg",
}

type uploader interface {
	UploadWithContext(ctx aws.Context, input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// LogoStore puts branding logos in a public-read S3 bucket.
type LogoStore struct {
	bucket   string
	region   string
	uploader uploader
}

func NewLogoStore(bucket, region string) (*LogoStore, error) {
	if bucket == "" {
		return &LogoStore{}, nil
	}
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return &LogoStore{bucket: bucket, region: region, uploader: s3manager.NewUploader(sess)}, nil
}

func (s *LogoStore) Enabled() bool {
	return s != nil && s.bucket != "" && s.uploader != nil
}

// Upload stores data under logos/<userID>/ and returns its public URL.
func (s *LogoStore) Upload(ctx context.Context, userID string, data []byte) (string, error) {
	if !s.Enabled() {
		return "", ErrStorageDisabled
	}
	contentType, ext, err := DetectLogoType(data)
	if err != nil {
		return "", err
	}
	key := LogoKey(userID, uuid.NewString(), ext)
	_, err = s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload: %w", err)
	}
	return ObjectURL(s.bucket, s.region, key), nil
}

// DetectLogoType sniffs the content rather than trusting the client's header.
func DetectLogoType(data []byte) (contentType, ext string, err error) {
	if len(data) > MaxLogoSize {
		return "", "", ErrLogoTooLarge
	}
	if len(data) == 0 {
		return "", "", ErrUnsupportedLogoType
	}
	contentType = http.DetectContentType(data)
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	if contentType == "text/xml" || contentType == "text/plain" {
		head := strings.ToLower(string(data[:min(len(data), 512)]))
		if strings.Contains(head, "<svg") {
			contentType = "image/svg+xml"
		}
	}
	ext, ok := logoExtensions[contentType]
	if !ok {
		return "", "", ErrUnsupportedLogoType
	}
	return contentType, ext, nil
}

func LogoKey(userID, id, ext string) string {
	return "logos/" + userID + "/" + id + ext
}

func ObjectURL(bucket, region, key string) string {
	if region == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
}
