package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/assetvault/internal/common"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
	getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
		return c.GetObject(ctx, in, optFns...)
	}
	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
		return c.DeleteObject(ctx, in, optFns...)
	}
)

// S3Config holds connection settings for an S3-compatible backend (MinIO in
// development).
type S3Config struct {
	Region       string
	AccessKey    string
	SecretKey    string
	Bucket       string
	BaseEndpoint string
}

// S3Gateway implements Gateway over an S3-compatible object store.
type S3Gateway struct {
	cfg S3Config
}

// NewS3Gateway constructs a gateway for the given backend.
func NewS3Gateway(cfg S3Config) *S3Gateway {
	return &S3Gateway{cfg: cfg}
}

func (g *S3Gateway) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(g.cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			g.cfg.AccessKey,
			g.cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(g.cfg.BaseEndpoint)
		o.UsePathStyle = true
	})

	return client, nil
}

// SignUploadURL returns a presigned PUT URL for path, valid for ttl.
func (g *S3Gateway) SignUploadURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	client, err := g.getClient(ctx)
	if err != nil {
		return "", err
	}

	req, err := presignPutObject(newS3PresignClient(client), ctx, &s3.PutObjectInput{
		Bucket: &g.cfg.Bucket,
		Key:    &path,
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// SignDownloadURL returns a presigned GET URL for path, valid for ttl.
func (g *S3Gateway) SignDownloadURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	client, err := g.getClient(ctx)
	if err != nil {
		return "", err
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &g.cfg.Bucket,
		Key:    &path,
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// HashObject streams the stored bytes at path through SHA-256 and counts
// them. The digest comes from the bytes as they exist in storage right now;
// a missing key maps to common.ErrorNotFound.
func (g *S3Gateway) HashObject(ctx context.Context, path string) (*ObjectInfo, error) {
	client, err := g.getClient(ctx)
	if err != nil {
		return nil, err
	}

	out, err := getObject(client, ctx, &s3.GetObjectInput{
		Bucket: &g.cfg.Bucket,
		Key:    &path,
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer out.Body.Close()

	h := sha256.New()
	n, err := io.Copy(h, out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object body: %w", err)
	}

	return &ObjectInfo{
		SHA256:    hex.EncodeToString(h.Sum(nil)),
		SizeBytes: n,
	}, nil
}

// Delete removes the object at path.
func (g *S3Gateway) Delete(ctx context.Context, path string) error {
	client, err := g.getClient(ctx)
	if err != nil {
		return err
	}

	if _, err := deleteObject(client, ctx, &s3.DeleteObjectInput{
		Bucket: &g.cfg.Bucket,
		Key:    &path,
	}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}

	return nil
}
