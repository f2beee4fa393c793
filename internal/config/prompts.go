package config

import (
	"fmt"
	"net/url"

	"github.com/hashicorp/go-multierror"
)

// Prompt override sources.
const (
	PromptSourceEmbedded = "embedded"
	PromptSourceLocal    = "local"
	PromptSourceS3       = "s3"
	PromptSourceGit      = "git"
)

// PromptsConfig selects where prompt template overrides are read from.
// Any of classify.tmpl, acknowledge.tmpl, system.tmpl and lookup.tmpl may be
// overridden; missing files fall back to the embedded defaults.
type PromptsConfig struct {
	// Source is embedded, local, s3 or git. When unset, local is used if Dir
	// is set and embedded otherwise.
	Source string `env:"PROMPTS_SOURCE" yaml:"source"`

	Dir string `env:"PROMPTS_DIR" yaml:"dir"`

	S3Bucket   string `env:"PROMPTS_S3_BUCKET" yaml:"s3_bucket"`
	S3Prefix   string `env:"PROMPTS_S3_PREFIX" yaml:"s3_prefix"`
	S3Region   string `env:"PROMPTS_S3_REGION" yaml:"s3_region"`
	S3Profile  string `env:"PROMPTS_S3_PROFILE" yaml:"s3_profile"`
	S3Endpoint string `env:"PROMPTS_S3_ENDPOINT" yaml:"s3_endpoint"`

	GitURL string `env:"PROMPTS_GIT_URL" yaml:"git_url"`
	GitRef string `env:"PROMPTS_GIT_REF" yaml:"git_ref"`
	// GitPath is the directory inside the repository holding the templates.
	GitPath string `env:"PROMPTS_GIT_PATH" yaml:"git_path"`
}

// ResolvedSource returns Source with the Dir shortcut applied.
func (p PromptsConfig) ResolvedSource() string {
	if p.Source != "" {
		return p.Source
	}
	if p.Dir != "" {
		return PromptSourceLocal
	}
	return PromptSourceEmbedded
}

// Validate checks that the selected source has what it needs.
func (p PromptsConfig) Validate() error {
	var result error
	switch p.ResolvedSource() {
	case PromptSourceEmbedded:
	case PromptSourceLocal:
		if p.Dir == "" {
			result = multierror.Append(result, fmt.Errorf("PROMPTS_DIR is required when PROMPTS_SOURCE=local"))
		}
	case PromptSourceS3:
		if p.S3Bucket == "" {
			result = multierror.Append(result, fmt.Errorf("PROMPTS_S3_BUCKET is required when PROMPTS_SOURCE=s3"))
		}
		if p.S3Endpoint != "" {
			if _, err := url.ParseRequestURI(p.S3Endpoint); err != nil {
				result = multierror.Append(result, fmt.Errorf("PROMPTS_S3_ENDPOINT is not a valid URL: %w", err))
			}
		}
	case PromptSourceGit:
		if p.GitURL == "" {
			result = multierror.Append(result, fmt.Errorf("PROMPTS_GIT_URL is required when PROMPTS_SOURCE=git"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unsupported PROMPTS_SOURCE %q (supported: embedded, local, s3, git)", p.Source))
	}
	return result
}
