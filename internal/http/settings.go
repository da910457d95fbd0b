package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/database/settings"
	"github.com/openshelf/openshelf/internal/loans"
)

// SettingsController exposes the runtime loan policy.
type SettingsController struct {
	repo        *settings.Repository
	loanService *loans.Service
}

func NewSettingsController(repo *settings.Repository, loanService *loans.Service) *SettingsController {
	return &SettingsController{repo: repo, loanService: loanService}
}

// GetLoanPolicy returns the active loan policy: stored overrides merged
// over configured defaults.
// GET /api/settings/loan-policy
func (sc *SettingsController) GetLoanPolicy(c *gin.Context) {
	c.JSON(http.StatusOK, sc.loanService.Policy())
}

type loanPolicyRequest struct {
	FinePerDay        *int64 `json:"fine_per_day"`
	FineCap           *int64 `json:"fine_cap"`
	LoanPeriodDays    *int   `json:"loan_period_days"`
	RenewalPeriodDays *int   `json:"renewal_period_days"`
	MaxRenewals       *int   `json:"max_renewals"`
	MaxOpenLoans      *int   `json:"max_open_loans"`
}

// UpdateLoanPolicy persists loan policy overrides. Omitted fields keep
// their current value; negative values are rejected.
// PUT /api/settings/loan-policy
func (sc *SettingsController) UpdateLoanPolicy(c *gin.Context) {
	var req loanPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	policy := sc.loanService.Policy()

	if req.FinePerDay != nil {
		if *req.FinePerDay < 0 {
			respondBadRequest(c, "fine_per_day cannot be negative")
			return
		}
		policy.FinePerDay = *req.FinePerDay
	}
	if req.FineCap != nil {
		if *req.FineCap < 0 {
			respondBadRequest(c, "fine_cap cannot be negative")
			return
		}
		policy.FineCap = *req.FineCap
	}
	if req.LoanPeriodDays != nil {
		if *req.LoanPeriodDays <= 0 {
			respondBadRequest(c, "loan_period_days must be positive")
			return
		}
		policy.LoanPeriodDays = *req.LoanPeriodDays
	}
	if req.RenewalPeriodDays != nil {
		if *req.RenewalPeriodDays <= 0 {
			respondBadRequest(c, "renewal_period_days must be positive")
			return
		}
		policy.RenewalPeriodDays = *req.RenewalPeriodDays
	}
	if req.MaxRenewals != nil {
		if *req.MaxRenewals < 0 {
			respondBadRequest(c, "max_renewals cannot be negative")
			return
		}
		policy.MaxRenewals = *req.MaxRenewals
	}
	if req.MaxOpenLoans != nil {
		if *req.MaxOpenLoans < 0 {
			respondBadRequest(c, "max_open_loans cannot be negative")
			return
		}
		policy.MaxOpenLoans = *req.MaxOpenLoans
	}

	if err := sc.repo.SaveLoanPolicy(policy); err != nil {
		respondInternalError(c, err, "save loan policy")
		return
	}
	c.JSON(http.StatusOK, policy)
}
