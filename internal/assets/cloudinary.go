// Package assets uploads course images to Cloudinary.
package assets

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/dom/coursemarket/internal/domain"
)

const folder = "coursemarket/courses"

type CloudinaryHost struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryHost(cloudName, apiKey, apiSecret string) (*CloudinaryHost, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("configure cloudinary: %w", err)
	}
	return &CloudinaryHost{cld: cld}, nil
}

// Upload sends the image as a base64 data URI.
func (h *CloudinaryHost) Upload(ctx context.Context, image domain.ImageUpload) (domain.CourseImage, error) {
	resp, err := h.cld.Upload.Upload(ctx, DataURI(image), uploader.UploadParams{
		Folder: folder,
	})
	if err != nil {
		return domain.CourseImage{}, fmt.Errorf("upload image: %w", err)
	}
	if resp.Error.Message != "" {
		return domain.CourseImage{}, errors.New(resp.Error.Message)
	}

	return domain.CourseImage{
		PublicID: resp.PublicID,
		URL:      resp.SecureURL,
	}, nil
}

func (h *CloudinaryHost) Destroy(ctx context.Context, publicID string) error {
	resp, err := h.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("destroy image: %w", err)
	}
	if resp.Error.Message != "" {
		return errors.New(resp.Error.Message)
	}
	return nil
}

// DataURI encodes image as data:<mime>;base64,<payload>.
func DataURI(image domain.ImageUpload) string {
	return fmt.Sprintf("data:%s;base64,%s", image.ContentType, base64.StdEncoding.EncodeToString(image.Data))
}
