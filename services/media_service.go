package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/koinoniahq/koinonia/config"
)

// MediaService interface
type MediaService interface {
	UploadAttachment(ctx context.Context, fileHeader *multipart.FileHeader, userID uint) (url string, contentType string, err error)
}

// mediaService struct
type mediaService struct {
	Config *config.Config
}

// NewMediaService creates a new instance of MediaService
func NewMediaService(conf *config.Config) MediaService {
	return &mediaService{Config: conf}
}

// UploadAttachment stores a chat attachment in S3 and returns its public
// URL for use as the message's attachment_url.
func (m *mediaService) UploadAttachment(ctx context.Context, fileHeader *multipart.FileHeader, userID uint) (string, string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", "", errors.Wrap(err, "failed to open uploaded file")
	}
	defer file.Close()

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(m.Config.AwsRegion),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(m.Config.AwsAccessKeyID, m.Config.AwsSecretAccessKey, ""),
		),
	)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to load AWS config")
	}
	svc := s3.NewFromConfig(cfg)

	contentType := fileHeader.Header.Get("Content-Type")
	fileKey := fmt.Sprintf("attachments/%d/%s%s", userID, uuid.NewString(), filepath.Ext(fileHeader.Filename))

	_, err = svc.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.Config.AwsBucket),
		Key:         aws.String(fileKey),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", "", errors.Wrap(err, "failed to upload attachment")
	}

	fileURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", m.Config.AwsBucket, m.Config.AwsRegion, fileKey)
	return fileURL, contentType, nil
}
