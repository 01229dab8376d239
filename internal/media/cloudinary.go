// Package media uploads profile photos to the image host and hands back
// durable HTTPS URLs. Upload failures propagate to the caller; retry is the
// caller's responsibility.
package media

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Uploader accepts an image stream and returns the hosted URL.
type Uploader interface {
	UploadImage(ctx context.Context, r io.Reader, name string) (string, error)
}

// CloudinaryUploader implements Uploader against the Cloudinary upload API.
type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryUploader builds an uploader from a CLOUDINARY_URL-style DSN.
func NewCloudinaryUploader(cloudinaryURL, folder string) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to init cloudinary: %w", err)
	}
	return &CloudinaryUploader{cld: cld, folder: folder}, nil
}

func (u *CloudinaryUploader) UploadImage(ctx context.Context, r io.Reader, name string) (string, error) {
	resp, err := u.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:   u.folder,
		PublicID: name,
	})
	if err != nil {
		return "", fmt.Errorf("image upload failed: %w", err)
	}
	if resp.SecureURL == "" {
		return "", fmt.Errorf("image upload failed: empty URL in response")
	}
	return resp.SecureURL, nil
}

// Disabled is wired when no media credentials are configured; every upload
// fails with an explicit reason so profile saves can surface it.
type Disabled struct{}

func (Disabled) UploadImage(context.Context, io.Reader, string) (string, error) {
	return "", fmt.Errorf("image upload failed: media host not configured")
}

var _ Uploader = (*CloudinaryUploader)(nil)
var _ Uploader = Disabled{}
