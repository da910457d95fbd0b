// Package settings provides database operations for runtime-editable
// configuration, most importantly the loan policy.
//
// # Usage
//
//	repo := settings.NewRepository(db)
//	policy, err := repo.GetLoanPolicy(defaults)
package settings

import (
	"errors"
	"strconv"

	"gorm.io/gorm"

	"github.com/openshelf/openshelf/internal/entities"
)

// Setting keys for the loan policy.
const (
	KeyFinePerDay        = "loan_fine_per_day"
	KeyFineCap           = "loan_fine_cap"
	KeyLoanPeriodDays    = "loan_period_days"
	KeyRenewalPeriodDays = "loan_renewal_period_days"
	KeyMaxRenewals       = "loan_max_renewals"
	KeyMaxOpenLoans      = "loan_max_open_loans"
)

// LoanPolicy is the runtime view of the circulation rules. Zero values are
// replaced by the configured defaults when loading.
type LoanPolicy struct {
	FinePerDay        int64 `json:"fine_per_day"`
	FineCap           int64 `json:"fine_cap"`
	LoanPeriodDays    int   `json:"loan_period_days"`
	RenewalPeriodDays int   `json:"renewal_period_days"`
	MaxRenewals       int   `json:"max_renewals"`
	MaxOpenLoans      int   `json:"max_open_loans"`
}

// Repository handles all settings database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new settings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetSetting retrieves a setting by key.
func (r *Repository) GetSetting(key string) (*entities.Setting, error) {
	var setting entities.Setting
	err := r.db.Where("key = ?", key).First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// SetSetting creates or updates a setting.
func (r *Repository) SetSetting(key, value string) error {
	var setting entities.Setting
	result := r.db.Where("key = ?", key).First(&setting)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		setting = entities.Setting{
			Key:   key,
			Value: value,
		}
		return r.db.Create(&setting).Error
	} else if result.Error != nil {
		return result.Error
	}

	setting.Value = value
	return r.db.Save(&setting).Error
}

// DeleteSetting removes a setting by key.
func (r *Repository) DeleteSetting(key string) error {
	return r.db.Where("key = ?", key).Delete(&entities.Setting{}).Error
}

// GetLoanPolicy loads the loan policy, falling back to defaults for any
// key that has no stored override.
func (r *Repository) GetLoanPolicy(defaults LoanPolicy) (LoanPolicy, error) {
	policy := defaults

	if v, ok := r.intSetting(KeyFinePerDay); ok {
		policy.FinePerDay = v
	}
	if v, ok := r.intSetting(KeyFineCap); ok {
		policy.FineCap = v
	}
	if v, ok := r.intSetting(KeyLoanPeriodDays); ok {
		policy.LoanPeriodDays = int(v)
	}
	if v, ok := r.intSetting(KeyRenewalPeriodDays); ok {
		policy.RenewalPeriodDays = int(v)
	}
	if v, ok := r.intSetting(KeyMaxRenewals); ok {
		policy.MaxRenewals = int(v)
	}
	if v, ok := r.intSetting(KeyMaxOpenLoans); ok {
		policy.MaxOpenLoans = int(v)
	}

	return policy, nil
}

// SaveLoanPolicy persists every field of the policy as a settings row.
func (r *Repository) SaveLoanPolicy(policy LoanPolicy) error {
	pairs := map[string]int64{
		KeyFinePerDay:        policy.FinePerDay,
		KeyFineCap:           policy.FineCap,
		KeyLoanPeriodDays:    int64(policy.LoanPeriodDays),
		KeyRenewalPeriodDays: int64(policy.RenewalPeriodDays),
		KeyMaxRenewals:       int64(policy.MaxRenewals),
		KeyMaxOpenLoans:      int64(policy.MaxOpenLoans),
	}
	for key, value := range pairs {
		if err := r.SetSetting(key, strconv.FormatInt(value, 10)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) intSetting(key string) (int64, bool) {
	setting, err := r.GetSetting(key)
	if err != nil {
		return 0, false
	}
	v, err := strconv.ParseInt(setting.Value, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
