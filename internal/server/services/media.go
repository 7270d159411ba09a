package services

import (
	"context"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/gophmarket/internal/logging"
	sc "github.com/dmitrijs2005/gophmarket/internal/server/config"
	"github.com/google/uuid"
)

// Seams for tests.
var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

const uploadURLValidity = 15 * time.Minute

// ImageUpload tells the client where to PUT the image and what imageSrc to
// store on the product afterwards.
type ImageUpload struct {
	UploadURL string    `json:"uploadUrl"`
	ImageSrc  string    `json:"imageSrc"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// MediaService hands out presigned upload URLs for product images.
type MediaService struct {
	config *sc.Config
	logger logging.Logger
}

func NewMediaService(config *sc.Config, logger logging.Logger) *MediaService {
	return &MediaService{config: config, logger: logger.With("module", "media")}
}

// imageKey builds a unique object key under the owner's prefix.
func imageKey(userID, ext string) string {
	d := time.Now().UTC()
	return fmt.Sprintf("products/%s/%04d/%02d/%s%s", userID, d.Year(), d.Month(), uuid.New(), ext)
}

func imageExtension(contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "", invalid("content type %q is not an image", contentType)
	}
	switch mediaType {
	case "image/jpeg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	}
	return "", invalid("unsupported image type %q", mediaType)
}

func (s *MediaService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}
	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})
	return newS3PresignClient(client), nil
}

// CreateImageUpload returns a presigned PUT URL for a new image owned by
// userID.
func (s *MediaService) CreateImageUpload(ctx context.Context, userID, contentType string) (*ImageUpload, error) {
	if userID == "" {
		return nil, invalid("user id is required")
	}
	ext, err := imageExtension(contentType)
	if err != nil {
		return nil, err
	}

	pc, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, storageFault(ctx, s.logger, "object storage setup", err)
	}

	bucket := s.config.S3Bucket
	key := imageKey(userID, ext)
	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(uploadURLValidity))
	if err != nil {
		return nil, storageFault(ctx, s.logger, "upload presign", err)
	}

	return &ImageUpload{
		UploadURL: req.URL,
		ImageSrc:  strings.TrimRight(s.config.S3PublicBaseURL, "/") + "/" + key,
		Key:       key,
		ExpiresAt: time.Now().Add(uploadURLValidity),
	}, nil
}
