package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"pressmarket/internal/models"
	"pressmarket/internal/repository"
	"pressmarket/internal/tuning"
)

// SettingsService is the operator write path for the variable registry and
// the engine config. Writes validate synchronously; invalid values never reach
// storage so a running snapshot can always trust what it loads.
type SettingsService struct {
	Repo   repository.Repository
	Cache  *tuning.Cache
	Logger *zap.Logger
}

// EnsureDefaults seeds missing tunables at boot. Existing rows are never
// overwritten, so operator tuning survives restarts.
func (s *SettingsService) EnsureDefaults(ctx context.Context) error {
	if s == nil || s.Repo == nil {
		return errors.New("settings service not configured")
	}
	for key, value := range tuning.DefaultConfigValues() {
		existing, err := s.Repo.GetPricingConfigByKey(ctx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		if err := s.Repo.UpsertPricingConfig(ctx, &models.PricingConfig{Key: key, Value: raw}); err != nil {
			return err
		}
	}
	for _, v := range tuning.DefaultVariables() {
		existing, err := s.Repo.GetPricingVariableByName(ctx, v.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		item := v
		if err := s.Repo.UpsertPricingVariable(ctx, &item); err != nil {
			return err
		}
	}
	if s.Logger != nil {
		s.Logger.Info("tunable defaults ensured")
	}
	return nil
}

func (s *SettingsService) ListVariables(ctx context.Context) ([]models.PricingVariable, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("settings service not configured")
	}
	return s.Repo.ListPricingVariables(ctx)
}

// SetVariable validates and upserts one registry entry. The new value takes
// effect on the next engine cycle via the snapshot watermark.
func (s *SettingsService) SetVariable(ctx context.Context, name string, weight float64, transform string) (*models.PricingVariable, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("settings service not configured")
	}
	name = strings.TrimSpace(name)
	if err := tuning.ValidateVariable(name, weight, transform); err != nil {
		return nil, err
	}
	item := &models.PricingVariable{Name: name, Weight: weight, Transform: transform}
	if err := s.Repo.UpsertPricingVariable(ctx, item); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("pricing variable updated",
			zap.String("name", name),
			zap.Float64("weight", weight),
			zap.String("transform", transform),
		)
	}
	return item, nil
}

func (s *SettingsService) ListConfig(ctx context.Context) ([]models.PricingConfig, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("settings service not configured")
	}
	return s.Repo.ListPricingConfigs(ctx)
}

// SetConfig validates and upserts one engine config key.
func (s *SettingsService) SetConfig(ctx context.Context, key string, value float64) (*models.PricingConfig, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("settings service not configured")
	}
	key = strings.TrimSpace(key)
	if err := tuning.ValidateConfigValue(key, value); err != nil {
		return nil, err
	}
	raw := json.RawMessage(strconv.FormatFloat(value, 'f', -1, 64))
	item := &models.PricingConfig{Key: key, Value: []byte(raw)}
	if err := s.Repo.UpsertPricingConfig(ctx, item); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("pricing config updated", zap.String("key", key), zap.Float64("value", value))
	}
	return item, nil
}

// ForceReload marks the snapshot cache stale so the next cycle reloads even if
// the watermark has not advanced.
func (s *SettingsService) ForceReload(ctx context.Context) error {
	if s == nil {
		return errors.New("settings service not configured")
	}
	if s.Cache != nil {
		s.Cache.ForceReload()
		if _, err := s.Cache.Refresh(ctx); err != nil {
			return err
		}
	}
	return nil
}
