// Package bootstrap seeds baseline data the API expects at runtime.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/francopiloto/finance-api/internal/domain"
	"github.com/francopiloto/finance-api/internal/repository"
)

// defaultGroupNames are the shared expense categories every user sees.
var defaultGroupNames = []string{
	"Housing",
	"Food",
	"Transport",
	"Health",
	"Education",
	"Leisure",
	"Other",
}

// EnsureDefaultGroups creates any missing shared expense groups at startup.
func EnsureDefaultGroups(groups repository.ExpenseGroupRepository, logger *zap.Logger) error {
	ctx := context.Background()

	existing, err := groups.ListVisible(ctx, "00000000-0000-0000-0000-000000000000")
	if err != nil {
		return fmt.Errorf("list shared groups: %w", err)
	}

	present := make(map[string]bool, len(existing))
	for _, g := range existing {
		if g.CreatedBy == "" {
			present[g.Name] = true
		}
	}

	var created int
	for _, name := range defaultGroupNames {
		if present[name] {
			continue
		}
		if _, err := groups.Create(ctx, domain.ExpenseGroup{Name: name}); err != nil {
			return fmt.Errorf("seed group %q: %w", name, err)
		}
		created++
	}

	if created > 0 {
		logger.Info("seeded shared expense groups", zap.Int("created", created))
	}
	return nil
}
