package mediastore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// thumbTransformation bounds the preview to 800x800 without cropping and
// lets the provider pick quality and delivery format.
const thumbTransformation = "c_limit,h_800,w_800,f_auto,q_auto:good"

// uploadTransformation asks for quality-optimized transcoding at storage
// time; the stored asset is otherwise untouched.
const uploadTransformation = "q_auto:best,f_auto"

// Cloudinary implements Uploader against the hosted Cloudinary API.
type Cloudinary struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinary(cloudName, apiKey, apiSecret string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &Cloudinary{cld: cld}, nil
}

func (c *Cloudinary) Upload(ctx context.Context, data []byte, folder string) (*UploadResult, error) {
	res, err := c.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:         folder,
		ResourceType:   "image",
		Transformation: uploadTransformation,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("%w: %s", ErrUploadFailed, res.Error.Message)
	}

	thumb, err := c.thumbnailURL(res.PublicID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	return &UploadResult{
		URL:          res.SecureURL,
		ThumbnailURL: thumb,
		PublicID:     res.PublicID,
		Width:        res.Width,
		Height:       res.Height,
	}, nil
}

func (c *Cloudinary) Delete(ctx context.Context, publicID string) error {
	res, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("destroy %s: %w", publicID, err)
	}
	// "not found" means the asset is already gone, which is the outcome
	// the caller wanted.
	if res.Result != "ok" && res.Result != "not found" {
		return fmt.Errorf("destroy %s: %s", publicID, res.Result)
	}
	return nil
}

// thumbnailURL derives the preview location from the public id and the
// fixed transformation. It is a computed view, never stored provider
// output.
func (c *Cloudinary) thumbnailURL(publicID string) (string, error) {
	img, err := c.cld.Image(publicID)
	if err != nil {
		return "", err
	}
	img.Transformation = thumbTransformation
	return img.String()
}
