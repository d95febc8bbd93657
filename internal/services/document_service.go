package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DocumentService stores signed rental agreements in object storage.
type DocumentService interface {
	UploadAgreement(ctx context.Context, confirmationNo string, reader io.Reader, size int64) (string, error)
	AgreementURL(confirmationNo string, expiry time.Duration) (string, error)
	DeleteAgreement(ctx context.Context, confirmationNo string) error
	EnsureBucketExists(ctx context.Context) error
}

type documentService struct {
	client *minio.Client
	bucket string
}

func NewDocumentService(endpoint, accessKey, secretKey, bucket string, useSSL bool) (DocumentService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &documentService{client: client, bucket: bucket}, nil
}

func agreementObjectName(confirmationNo string) string {
	return fmt.Sprintf("agreements/%s.pdf", confirmationNo)
}

func (s *documentService) UploadAgreement(ctx context.Context, confirmationNo string, reader io.Reader, size int64) (string, error) {
	objectName := agreementObjectName(confirmationNo)
	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: "application/pdf",
	})
	if err != nil {
		return "", err
	}
	return objectName, nil
}

func (s *documentService) AgreementURL(confirmationNo string, expiry time.Duration) (string, error) {
	url, err := s.client.PresignedGetObject(context.Background(), s.bucket, agreementObjectName(confirmationNo), expiry, nil)
	if err != nil {
		return "", err
	}
	return url.String(), nil
}

func (s *documentService) DeleteAgreement(ctx context.Context, confirmationNo string) error {
	return s.client.RemoveObject(ctx, s.bucket, agreementObjectName(confirmationNo), minio.RemoveObjectOptions{})
}

func (s *documentService) EnsureBucketExists(ctx context.Context) error {
	found, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !found {
		return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	}
	return nil
}
