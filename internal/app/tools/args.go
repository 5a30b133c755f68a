package tools

import (
	"fmt"

	"github.com/spf13/cast"

	"github.com/PabloGalante/loan-agent/internal/domain"
)

// --- argument helpers --- //

// Model arguments arrive as decoded JSON, so numbers are usually float64.

func intArg(args map[string]any, key string, def int64) (int64, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", domain.ErrInvalidToolArguments, key, err)
	}
	return n, nil
}

func requiredIntArg(args map[string]any, key string) (int64, error) {
	if v, ok := args[key]; !ok || v == nil {
		return 0, fmt.Errorf("%w: %s is required", domain.ErrInvalidToolArguments, key)
	}
	return intArg(args, key, 0)
}

func stringArg(args map[string]any, key, def string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrInvalidToolArguments, key, err)
	}
	if s == "" {
		return def, nil
	}
	return s, nil
}
