// Package s3 处理对象存储操作，基于 MinIO 客户端.
package s3

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	miniotags "github.com/minio/minio-go/v7/pkg/tags"

	"github.com/yeisme/docvault/pkg/configs"
	nlog "github.com/yeisme/docvault/pkg/log"
)

// Client 包装 MinIO 客户端，固定使用配置中的 bucket.
type Client struct {
	*minio.Client

	bucket string
}

// New 初始化 MinIO 客户端，若 bucket 不存在则尝试创建.
func New(ctx context.Context, cfg *configs.S3Config) (*Client, error) {
	endpoint := cfg.Endpoint

	useSSL := cfg.UseSSL
	// 允许用户传完整 schema endpoint（http:// 或 https://）
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			useSSL = true
		}
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo("docvault", configs.AppVersion)

	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}

	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}

		nlog.Logger().Info().Str("bucket", cfg.Bucket).Msg("bucket created")
	}

	nlog.Logger().Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.Bucket).Msg("s3 connected")

	return &Client{Client: cli, bucket: cfg.Bucket}, nil
}

// Bucket 返回当前使用的 bucket 名称.
func (c *Client) Bucket() string {
	return c.bucket
}

// Put 上传对象并返回对象键（作为 blob 引用）.
func (c *Client) Put(ctx context.Context, objectKey string, r io.Reader, size int64, contentType string) (string, error) {
	opts := minio.PutObjectOptions{}
	if contentType != "" {
		opts.ContentType = contentType
	}

	if _, err := c.PutObject(ctx, c.bucket, objectKey, r, size, opts); err != nil {
		return "", fmt.Errorf("put object %s: %w", objectKey, err)
	}

	return objectKey, nil
}

// GetURL 为对象生成预签名下载 URL.
func (c *Client) GetURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	u, err := c.PresignedGetObject(ctx, c.bucket, objectKey, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign get for %s: %w", objectKey, err)
	}

	return u.String(), nil
}

// Delete 删除对象.
func (c *Client) Delete(ctx context.Context, objectKey string) error {
	if err := c.RemoveObject(ctx, c.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", objectKey, err)
	}

	return nil
}

// SetTags 覆盖对象的标签集合.
func (c *Client) SetTags(ctx context.Context, objectKey string, tagSet map[string]string) error {
	t, err := miniotags.NewTags(tagSet, true)
	if err != nil {
		return fmt.Errorf("build tag set for %s: %w", objectKey, err)
	}

	if err := c.PutObjectTagging(ctx, c.bucket, objectKey, t, minio.PutObjectTaggingOptions{}); err != nil {
		return fmt.Errorf("set tags for %s: %w", objectKey, err)
	}

	return nil
}

// HealthCheck 简单的健康检查，通过检查 bucket 验证连接.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.BucketExists(ctx, c.bucket)
	return err
}

// Close 关闭 S3 客户端连接（无实际操作，接口兼容）.
func (c *Client) Close() error {
	return nil
}
