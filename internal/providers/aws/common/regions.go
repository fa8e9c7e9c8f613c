package common

import (
	"context"
	"fmt"
)

// ResolveRegions returns requested when it is non-empty, otherwise every
// region enabled for the account.
func ResolveRegions(ctx context.Context, p AWSClientProvider, cfg *ProfileConfig, requested []string) ([]string, error) {
	if len(requested) > 0 {
		return requested, nil
	}
	regions, err := p.GetActiveRegions(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ResolveRegions: %w", err)
	}
	return regions, nil
}
