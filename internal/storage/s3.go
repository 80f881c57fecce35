package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config — конфигурация S3-совместимого архива выгрузок.
type S3Config struct {
	Region            string
	Bucket            string
	Endpoint          string
	AccessKey         string
	SecretKey         string
	ForcePathStyle    bool
	PresignExpiration time.Duration
}

// S3Storage хранит файлы выгрузок в бакете S3.
type S3Storage struct {
	client            *s3.Client
	bucket            string
	presignExpiration time.Duration
}

// NewS3Storage создаёт новое S3 хранилище.
func NewS3Storage(cfg S3Config) (*S3Storage, error) {
	if err := validateS3Config(cfg); err != nil {
		return nil, fmt.Errorf("неверная конфигурация S3: %w", err)
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(context.Background(),
		awsConfig.WithRegion(cfg.Region),
		awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки AWS конфигурации: %w", err)
	}

	// Настройка custom endpoint если указан
	if cfg.Endpoint != "" {
		customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               cfg.Endpoint,
				HostnameImmutable: true,
			}, nil
		})
		awsCfg.EndpointResolverWithOptions = customResolver
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.ForcePathStyle
	})

	return &S3Storage{
		client:            client,
		bucket:            cfg.Bucket,
		presignExpiration: cfg.PresignExpiration,
	}, nil
}

// Save сохраняет файл выгрузки в S3
func (s *S3Storage) Save(ctx context.Context, key string, reader io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   reader,
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения файла в S3: %w", err)
	}
	return nil
}

// Get получает файл выгрузки из S3
func (s *S3Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка получения файла из S3: %w", err)
	}
	return result.Body, nil
}

// Delete удаляет файл выгрузки из S3
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления файла из S3: %w", err)
	}
	return nil
}

// Exists проверяет существование файла в S3
func (s *S3Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("ошибка проверки существования файла: %w", err)
	}
	return true, nil
}

// GetPresignedURL возвращает pre-signed URL на скачивание
func (s *S3Storage) GetPresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	if expiration <= 0 {
		expiration = s.presignExpiration
	}
	presignClient := s3.NewPresignClient(s.client)
	presignedURL, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiration
	})
	if err != nil {
		return "", fmt.Errorf("ошибка генерации pre-signed URL: %w", err)
	}
	return presignedURL.URL, nil
}

// List возвращает список файлов архива по префиксу
func (s *S3Storage) List(ctx context.Context, prefix string) ([]FileInfo, error) {
	result, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка файлов: %w", err)
	}

	files := make([]FileInfo, len(result.Contents))
	for i, obj := range result.Contents {
		size := int64(0)
		if obj.Size != nil {
			size = *obj.Size
		}
		files[i] = FileInfo{
			Key:          aws.ToString(obj.Key),
			Size:         size,
			LastModified: *obj.LastModified,
		}
	}

	return files, nil
}

// validateS3Config валидирует конфигурацию S3
func validateS3Config(cfg S3Config) error {
	if cfg.Region == "" {
		return fmt.Errorf("регион S3 не может быть пустым")
	}
	if cfg.Bucket == "" {
		return fmt.Errorf("bucket S3 не может быть пустым")
	}
	if cfg.AccessKey == "" {
		return fmt.Errorf("access key не может быть пустым")
	}
	if cfg.SecretKey == "" {
		return fmt.Errorf("secret key не может быть пустым")
	}
	return nil
}
