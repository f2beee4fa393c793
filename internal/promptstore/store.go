// Package promptstore reads prompt template overrides from the local
// filesystem, an S3 bucket or a git repository.
package promptstore

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/lewisedginton/weather_agent/internal/config"
	"github.com/lewisedginton/weather_agent/pkg/logger"
)

// ErrNotFound is returned by every Source when a template has no override.
// It wraps fs.ErrNotExist.
var ErrNotFound = fmt.Errorf("prompt override not found: %w", fs.ErrNotExist)

// Source is a read-only store of template files addressed by file name.
type Source interface {
	Read(ctx context.Context, name string) ([]byte, error)
	// Location describes where name is read from, for logs.
	Location(name string) string
}

// New builds the Source selected by cfg. The embedded source returns a nil
// Source, meaning no overrides.
func New(ctx context.Context, cfg config.PromptsConfig, log logger.Logger) (Source, error) {
	switch source := cfg.ResolvedSource(); source {
	case config.PromptSourceEmbedded:
		return nil, nil

	case config.PromptSourceLocal:
		log.Info("Using local prompt overrides", logger.StringField("directory", cfg.Dir))
		return NewLocalSource(cfg.Dir), nil

	case config.PromptSourceS3:
		log.Info("Using S3 prompt overrides",
			logger.StringField("bucket", cfg.S3Bucket),
			logger.StringField("prefix", cfg.S3Prefix))
		client, err := NewS3Client(ctx, S3ClientConfig{
			Region:   cfg.S3Region,
			Profile:  cfg.S3Profile,
			Endpoint: cfg.S3Endpoint,
		})
		if err != nil {
			return nil, err
		}
		return NewS3Source(cfg.S3Bucket, cfg.S3Prefix, NewAWSS3Client(client)), nil

	case config.PromptSourceGit:
		log.Info("Cloning prompt overrides",
			logger.StringField("url", cfg.GitURL),
			logger.StringField("ref", cfg.GitRef))
		src, err := CloneGitSource(ctx, cfg.GitURL, cfg.GitRef, cfg.GitPath)
		if err != nil {
			return nil, err
		}
		log.Info("Prompt overrides cloned", logger.StringField("revision", src.Revision()))
		return src, nil

	default:
		return nil, fmt.Errorf("unsupported prompt source: %s", source)
	}
}
