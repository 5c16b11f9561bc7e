package service

import (
	"context"
	"net/url"
	"sat_practice_backend/internal/config"
	"sat_practice_backend/internal/model"
	"sat_practice_backend/internal/util"
	"sat_practice_backend/pkg/logger"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// StorageProvider 题目图片的访问地址解析
type StorageProvider interface {
	GetURL(ctx context.Context, key string) (string, error)
}

// LocalStorageProvider 本地存储实现，由静态路由 /uploads 提供
type LocalStorageProvider struct {
	Config *config.StorageConfig
}

func (p *LocalStorageProvider) GetURL(_ context.Context, key string) (string, error) {
	return "/uploads/" + strings.TrimPrefix(key, "/"), nil
}

// MinioStorageProvider MinIO存储实现，返回预签名地址
type MinioStorageProvider struct {
	Config *config.StorageConfig
	Client *minio.Client
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioSecure,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Config: cfg, Client: client}, nil
}

func (p *MinioStorageProvider) GetURL(ctx context.Context, key string) (string, error) {
	u, err := p.Client.PresignedGetObject(ctx, p.Config.MinioBucket, key, presignExpiry(p.Config), url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// OSSStorageProvider 阿里云OSS存储实现
type OSSStorageProvider struct {
	Config *config.StorageConfig
	Bucket *oss.Bucket
}

func NewOSSStorageProvider(cfg *config.StorageConfig) (*OSSStorageProvider, error) {
	client, err := oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey)
	if err != nil {
		return nil, err
	}
	bucket, err := client.Bucket(cfg.OSSBucket)
	if err != nil {
		return nil, err
	}
	return &OSSStorageProvider{Config: cfg, Bucket: bucket}, nil
}

func (p *OSSStorageProvider) GetURL(_ context.Context, key string) (string, error) {
	return p.Bucket.SignURL(key, oss.HTTPGet, int64(presignExpiry(p.Config)/time.Second))
}

func presignExpiry(cfg *config.StorageConfig) time.Duration {
	if cfg.PresignExpiry <= 0 {
		return time.Hour
	}
	return cfg.PresignExpiry
}

// StorageService 存储服务
type StorageService struct {
	Provider StorageProvider
}

func NewStorageService(cfg *config.Config) *StorageService {
	var provider StorageProvider
	switch cfg.Storage.Type {
	case util.StorageMinio:
		p, err := NewMinioStorageProvider(&cfg.Storage)
		if err != nil {
			logger.Log.Warn("Failed to init minio provider, falling back to local", zap.Error(err))
		} else {
			provider = p
		}
	case util.StorageOSS:
		p, err := NewOSSStorageProvider(&cfg.Storage)
		if err != nil {
			logger.Log.Warn("Failed to init oss provider, falling back to local", zap.Error(err))
		} else {
			provider = p
		}
	}

	if provider == nil {
		provider = &LocalStorageProvider{Config: &cfg.Storage}
	}

	return &StorageService{Provider: provider}
}

// ResolveQuestion 为题干和选项中的图片填充可访问地址；已有 URL 的保持不变
func (s *StorageService) ResolveQuestion(ctx context.Context, q *model.Question) {
	if s == nil || s.Provider == nil || q == nil {
		return
	}
	s.resolveContent(ctx, &q.Body)
	for i := range q.Choices {
		s.resolveContent(ctx, &q.Choices[i])
	}
}

func (s *StorageService) resolveContent(ctx context.Context, c *model.QuestionContent) {
	c.WalkImages(func(img *model.ImageRef) {
		if img.URL != "" || img.Key == "" {
			return
		}
		u, err := s.Provider.GetURL(ctx, img.Key)
		if err != nil {
			logger.Log.Warn("Failed to resolve image url", zap.String("key", img.Key), zap.Error(err))
			return
		}
		img.URL = u
	})
}
