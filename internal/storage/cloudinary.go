package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// BillStorage hands a rendered bill to a durable store and returns a
// retrievable URL. Implementations must be safe for concurrent use.
type BillStorage interface {
	UploadBill(ctx context.Context, pdf []byte, name string) (string, error)
}

type CloudinaryStorage struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryStorage builds a storage client from a cloudinary:// URL.
func NewCloudinaryStorage(url, folder string) (*CloudinaryStorage, error) {
	if url == "" {
		return nil, errors.New("CLOUDINARY_URL is not set")
	}
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &CloudinaryStorage{cld: cld, folder: folder}, nil
}

func (s *CloudinaryStorage) UploadBill(ctx context.Context, pdf []byte, name string) (string, error) {
	resp, err := s.cld.Upload.Upload(ctx, bytes.NewReader(pdf), uploader.UploadParams{
		Folder:         s.folder,
		PublicID:       name,
		ResourceType:   "raw",
		UseFilename:    api.Bool(true),
		UniqueFilename: api.Bool(false),
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	return resp.SecureURL, nil
}

// DownloadURL rewrites a delivery URL into a forced-download one by
// injecting the fl_attachment flag. Preserves version, public id, and
// extension. Returns "" for an empty input.
func DownloadURL(url string) string {
	if url == "" {
		return ""
	}
	return strings.Replace(url, "/upload/", "/upload/fl_attachment/", 1)
}

var publicIDPattern = regexp.MustCompile(`/v\d+/(.+)\.[a-zA-Z]+$`)

// ExtractPublicID pulls the public id out of a Cloudinary delivery URL,
// or returns "" when the URL does not match the expected shape.
func ExtractPublicID(url string) string {
	m := publicIDPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}
