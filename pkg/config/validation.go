package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for rules that
// cannot be expressed in tags.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	// Link TTL bounds must be consistent when both are set explicitly
	engine := cfg.Share.Engine
	if engine.DefaultLinkTTL > 0 && engine.MaxLinkTTL > 0 && engine.DefaultLinkTTL > engine.MaxLinkTTL {
		return fmt.Errorf("share.engine: default_link_ttl (%s) exceeds max_link_ttl (%s)",
			engine.DefaultLinkTTL, engine.MaxLinkTTL)
	}

	// Durations cannot be negative; zero means "use the default"
	if cfg.Upload.Manager.ChunkSize < 0 {
		return fmt.Errorf("upload.manager: chunk_size cannot be negative")
	}
	if cfg.Upload.Reaper.IdleTimeout < 0 {
		return fmt.Errorf("upload.reaper: idle_timeout cannot be negative")
	}
	if cfg.GC.Interval < 0 {
		return fmt.Errorf("gc: interval cannot be negative")
	}

	// A persistent catalog with an ephemeral blob store loses content on
	// restart while keeping records that point at it.
	if cfg.Catalog.Type == "badger" && cfg.Blob.Type == "memory" {
		return fmt.Errorf("catalog: badger catalog cannot be combined with a memory blob store")
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		// Return the first validation error with context
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
