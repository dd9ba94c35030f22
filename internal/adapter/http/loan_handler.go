package http

import (
	"net/http"
	"strconv"
	"time"

	"peerfund-service/internal/usecase/loan"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct{ uc *loan.Lifecycle }

func NewLoanHandler(uc *loan.Lifecycle) *LoanHandler { return &LoanHandler{uc: uc} }

type createLoanReq struct {
	BorrowerID      int64   `json:"borrower_id"      validate:"required,gt=0"`
	PrincipalAmount float64 `json:"principal_amount" validate:"required,gt=0,dec2"`
	Rate            float64 `json:"rate"             validate:"gte=0"`
	ROI             float64 `json:"roi"              validate:"gte=0"`
	AgreementLink   string  `json:"agreement_link"   validate:"required,url"`
}

type approveLoanReq struct {
	ApprovalProof string `json:"approval_proof" validate:"required"`
	ApprovedBy    int64  `json:"approved_by"    validate:"required,gt=0"`
	// Canonical date `YYYY-MM-DD`
	ApprovedDate string `json:"approved_date"  validate:"required,datetime=2006-01-02"`
}

type investLoanReq struct {
	InvestorID int64   `json:"investor_id" validate:"required,gt=0"`
	Amount     float64 `json:"amount"      validate:"required,gt=0,dec2"`
}

type disburseLoanReq struct {
	DisbursementProof string `json:"disbursement_proof" validate:"required"`
	DisbursedBy       int64  `json:"disbursed_by"       validate:"required,gt=0"`
}

func loanIDParam(c echo.Context) (uint64, bool) {
	raw := c.Param("loan_id")
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req createLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.uc.Create(c.Request().Context(), loan.CreateLoanInput{
		BorrowerID:      req.BorrowerID,
		PrincipalAmount: req.PrincipalAmount,
		Rate:            req.Rate,
		ROI:             req.ROI,
		AgreementLink:   req.AgreementLink,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	id, ok := loanIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid loan_id path param"})
	}
	dto, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) ApproveLoan(c echo.Context) error {
	id, ok := loanIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid loan_id path param"})
	}
	var req approveLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	// already format-checked by the datetime tag
	approvedAt, _ := time.Parse("2006-01-02", req.ApprovedDate)

	dto, err := h.uc.Approve(c.Request().Context(), loan.ApproveInput{
		LoanID:        id,
		ApprovalProof: req.ApprovalProof,
		ApprovedBy:    req.ApprovedBy,
		ApprovedAt:    approvedAt,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) InvestInLoan(c echo.Context) error {
	id, ok := loanIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid loan_id path param"})
	}
	var req investLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.uc.Invest(c.Request().Context(), loan.InvestInput{
		LoanID:     id,
		InvestorID: req.InvestorID,
		Amount:     req.Amount,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) DisburseLoan(c echo.Context) error {
	id, ok := loanIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid loan_id path param"})
	}
	var req disburseLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.uc.Disburse(c.Request().Context(), loan.DisburseInput{
		LoanID:            id,
		DisbursementProof: req.DisbursementProof,
		DisbursedBy:       req.DisbursedBy,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) ListInvestments(c echo.Context) error {
	id, ok := loanIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid loan_id path param"})
	}
	out, err := h.uc.Investments(c.Request().Context(), id)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
