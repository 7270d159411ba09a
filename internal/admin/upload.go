package admin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/gophmarket/internal/logging"
	"github.com/dmitrijs2005/gophmarket/internal/netx"
	"github.com/dmitrijs2005/gophmarket/internal/server/config"
	"github.com/dmitrijs2005/gophmarket/internal/server/services"
)

type ImageUploader interface {
	CreateImageUpload(ctx context.Context, userID, contentType string) (*services.ImageUpload, error)
}

// newUploader is a seam for tests.
var newUploader = func(c *config.Config) ImageUploader {
	return services.NewMediaService(c, logging.Nop{})
}

// UploadImage stores the file at path as a product image of userID and
// writes the resulting imageSrc to w.
func UploadImage(ctx context.Context, up ImageUploader, client *http.Client, userID, path string, w io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	contentType := http.DetectContentType(data)
	target, err := up.CreateImageUpload(ctx, userID, contentType)
	if err != nil {
		return err
	}

	if err := netx.UploadToPresignedURL(ctx, client, target.UploadURL, contentType, data); err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, target.ImageSrc)
	return err
}
