// Package storage uploads avatar images to an external image host. Unlike
// the Gravatar enrichment, an upload failure here is fatal to the request
// that triggered it.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Uploader stores an image and returns the public URL it is served from.
type Uploader interface {
	UploadAvatar(ctx context.Context, email string, file io.Reader) (string, error)
}

// CloudinaryUploader implements Uploader on top of the Cloudinary API.
type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryUploader builds an uploader from account credentials.
func NewCloudinaryUploader(cloudName, apiKey, apiSecret string) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	cld.Config.URL.Secure = true
	return &CloudinaryUploader{cld: cld}, nil
}

// UploadAvatar pushes the image under a public id derived from the user's
// email, overwriting any previous avatar, and returns a 250x250 fill-crop
// delivery URL.
func (u *CloudinaryUploader) UploadAvatar(ctx context.Context, email string, file io.Reader) (string, error) {
	publicID := fmt.Sprintf("contacts-app/%s", email)
	resp, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:  publicID,
		Overwrite: api.Bool(true),
	})
	if err != nil {
		return "", err
	}

	img, err := u.cld.Image(publicID)
	if err != nil {
		return "", err
	}
	img.Transformation = "c_fill,h_250,w_250"
	img.Version = resp.Version
	return img.String()
}
