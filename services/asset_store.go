package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rpupo63/rpgm-blog/content"
	"github.com/rpupo63/rpgm-blog/database"
	"github.com/rpupo63/rpgm-blog/models"
)

const maxAssetSize = 32 << 20

var (
	ErrAssetNotFound   = errors.New("asset not found")
	ErrInvalidFileName = errors.New("invalid file name")
	ErrAssetTooLarge   = errors.New("asset too large")
)

// AssetStore keeps uploaded files. Storing a file with the name of an
// existing one under the same parent replaces it.
type AssetStore interface {
	Put(ctx context.Context, parent content.Location, name, contentType string, r io.Reader) (content.Location, error)
	Open(ctx context.Context, loc content.Location) (*models.Asset, io.ReadCloser, error)
	List(ctx context.Context, parent content.Location) ([]models.Asset, error)
}

func cleanFileName(name string) (string, error) {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "" || name == "." || name == "/" || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}
	return name, nil
}

func readAsset(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxAssetSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > maxAssetSize {
		return nil, ErrAssetTooLarge
	}
	return data, nil
}

// DBAssetStore keeps file bytes in the assets table.
type DBAssetStore struct {
	assets *database.AssetRepo
}

func NewDBAssetStore(assets *database.AssetRepo) *DBAssetStore {
	return &DBAssetStore{assets: assets}
}

func (s *DBAssetStore) Put(ctx context.Context, parent content.Location, name, contentType string, r io.Reader) (content.Location, error) {
	name, err := cleanFileName(name)
	if err != nil {
		return "", err
	}
	data, err := readAsset(r)
	if err != nil {
		return "", err
	}

	loc := parent.Child(name)
	asset := &models.Asset{
		Path:        loc.String(),
		ParentPath:  parent.String(),
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
	}
	if err := s.assets.Replace(ctx, asset); err != nil {
		return "", fmt.Errorf("store asset %s: %w", loc, err)
	}
	return loc, nil
}

func (s *DBAssetStore) Open(ctx context.Context, loc content.Location) (*models.Asset, io.ReadCloser, error) {
	asset, err := s.assets.FindByPath(ctx, loc.String())
	if err != nil {
		return nil, nil, fmt.Errorf("find asset %s: %w", loc, err)
	}
	if asset == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrAssetNotFound, loc)
	}
	return asset, io.NopCloser(bytes.NewReader(asset.Data)), nil
}

func (s *DBAssetStore) List(ctx context.Context, parent content.Location) ([]models.Asset, error) {
	return s.assets.FindByParent(ctx, parent.String())
}

// S3API is the part of the S3 client the store needs.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Client builds a client from the default AWS chain, or from static
// keys when they are set. A custom endpoint switches to path style
// addressing for S3 compatible servers.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// S3AssetStore keeps file bytes in a bucket and the metadata in the assets
// table. Object keys are the asset location without the leading slash.
type S3AssetStore struct {
	client S3API
	bucket string
	assets *database.AssetRepo
}

func NewS3AssetStore(client S3API, bucket string, assets *database.AssetRepo) *S3AssetStore {
	return &S3AssetStore{client: client, bucket: bucket, assets: assets}
}

func objectKey(loc content.Location) string {
	return strings.TrimPrefix(loc.String(), "/")
}

func (s *S3AssetStore) Put(ctx context.Context, parent content.Location, name, contentType string, r io.Reader) (content.Location, error) {
	name, err := cleanFileName(name)
	if err != nil {
		return "", err
	}
	data, err := readAsset(r)
	if err != nil {
		return "", err
	}

	loc := parent.Child(name)
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(objectKey(loc)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("upload %s to s3: %w", loc, err)
	}

	asset := &models.Asset{
		Path:        loc.String(),
		ParentPath:  parent.String(),
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
	}
	if err := s.assets.Replace(ctx, asset); err != nil {
		return "", fmt.Errorf("store asset %s: %w", loc, err)
	}
	return loc, nil
}

func (s *S3AssetStore) Open(ctx context.Context, loc content.Location) (*models.Asset, io.ReadCloser, error) {
	asset, err := s.assets.FindByPath(ctx, loc.String())
	if err != nil {
		return nil, nil, fmt.Errorf("find asset %s: %w", loc, err)
	}
	if asset == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrAssetNotFound, loc)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(loc)),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("download %s from s3: %w", loc, err)
	}
	return asset, out.Body, nil
}

func (s *S3AssetStore) List(ctx context.Context, parent content.Location) ([]models.Asset, error) {
	return s.assets.FindByParent(ctx, parent.String())
}
