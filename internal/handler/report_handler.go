package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/dafibh/fortuna/wealth-backend/internal/middleware"
	"github.com/dafibh/fortuna/wealth-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// ReportHandler serves net worth and monthly series reports
type ReportHandler struct {
	balanceService     *service.BalanceService
	aggregationService *service.AggregationService
	loc                *time.Location
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(balanceService *service.BalanceService, aggregationService *service.AggregationService, loc *time.Location) *ReportHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportHandler{
		balanceService:     balanceService,
		aggregationService: aggregationService,
		loc:                loc,
	}
}

// NetWorthResponse is the converted total at a point in time
type NetWorthResponse struct {
	Date     string `json:"date"`
	Currency string `json:"currency"`
	Total    string `json:"total"`
}

// TypeBalanceResponse is the converted total of one account type
type TypeBalanceResponse struct {
	Type         string `json:"type"`
	Label        string `json:"label"`
	Balance      string `json:"balance"`
	AccountCount int    `json:"accountCount"`
}

// NetWorthByTypeResponse groups net worth by account type
type NetWorthByTypeResponse struct {
	Date     string                `json:"date"`
	Currency string                `json:"currency"`
	Types    []TypeBalanceResponse `json:"types"`
}

// MonthPointResponse is one bucket of a monthly series
type MonthPointResponse struct {
	Month string `json:"month"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// MonthlySeriesResponse is a trailing monthly series, oldest first
type MonthlySeriesResponse struct {
	Metric string               `json:"metric"`
	Points []MonthPointResponse `json:"points"`
}

// GetNetWorth godoc
// @Summary Net worth as of a date
// @Description Sum of every account balance at the date, converted to the reporting currency
// @Tags reports
// @Produce json
// @Security UserID
// @Param date query string false "YYYY-MM-DD or RFC 3339, defaults to now"
// @Success 200 {object} NetWorthResponse
// @Failure 400 {object} ProblemDetails
// @Router /reports/net-worth [get]
func (h *ReportHandler) GetNetWorth(c echo.Context) error {
	userID := middleware.GetUserID(c)
	asOf, err := parseAsOf(c.QueryParam("date"), h.loc, time.Now())
	if err != nil {
		return NewValidationError(c, "Invalid date", []ValidationError{{Field: "date", Message: err.Error()}})
	}

	nw, err := h.balanceService.NetWorthAsOf(c.Request().Context(), userID, asOf)
	if err != nil {
		return respondError(c, err, "Failed to compute net worth")
	}
	return c.JSON(http.StatusOK, NetWorthResponse{
		Date:     nw.Date.Format(time.RFC3339),
		Currency: nw.Currency,
		Total:    nw.Total.StringFixed(2),
	})
}

// GetNetWorthByType godoc
// @Summary Net worth by account type
// @Tags reports
// @Produce json
// @Security UserID
// @Param date query string false "YYYY-MM-DD or RFC 3339, defaults to now"
// @Success 200 {object} NetWorthByTypeResponse
// @Failure 400 {object} ProblemDetails
// @Router /reports/net-worth/by-type [get]
func (h *ReportHandler) GetNetWorthByType(c echo.Context) error {
	userID := middleware.GetUserID(c)
	asOf, err := parseAsOf(c.QueryParam("date"), h.loc, time.Now())
	if err != nil {
		return NewValidationError(c, "Invalid date", []ValidationError{{Field: "date", Message: err.Error()}})
	}

	byType, err := h.balanceService.NetWorthByType(c.Request().Context(), userID, asOf)
	if err != nil {
		return respondError(c, err, "Failed to compute net worth by type")
	}

	return c.JSON(http.StatusOK, NetWorthByTypeResponse{
		Date:     asOf.Format(time.RFC3339),
		Currency: domain.ReportingCurrency,
		Types:    toTypeBalanceResponses(byType),
	})
}

// GetMonthlySeries godoc
// @Summary Monthly series
// @Description One point per trailing calendar month, oldest first
// @Tags reports
// @Produce json
// @Security UserID
// @Param metric query string false "net_worth or dividends" default(net_worth)
// @Param months query int false "Trailing months" default(6)
// @Success 200 {object} MonthlySeriesResponse
// @Failure 400 {object} ProblemDetails
// @Router /reports/monthly [get]
func (h *ReportHandler) GetMonthlySeries(c echo.Context) error {
	userID := middleware.GetUserID(c)

	metric := domain.SeriesMetric(c.QueryParam("metric"))
	if metric == "" {
		metric = domain.SeriesMetricNetWorth
	}
	months := 0
	if raw := c.QueryParam("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return NewValidationError(c, "Invalid months", []ValidationError{{Field: "months", Message: "must be a positive integer"}})
		}
		months = n
	}

	points, err := h.aggregationService.MonthlySeries(c.Request().Context(), userID, metric, months)
	if err != nil {
		return respondError(c, err, "Failed to compute monthly series")
	}

	response := MonthlySeriesResponse{Metric: string(metric), Points: make([]MonthPointResponse, len(points))}
	for i, p := range points {
		response.Points[i] = MonthPointResponse{Month: p.Month, Label: p.Label, Value: p.Value.StringFixed(2)}
	}
	return c.JSON(http.StatusOK, response)
}

// SummaryResponse is the year-to-date overview
type SummaryResponse struct {
	AsOf                string                `json:"asOf"`
	Currency            string                `json:"currency"`
	NetWorthByType      []TypeBalanceResponse `json:"netWorthByType"`
	LastYearEnd         string                `json:"lastYearEnd"`
	LastYearNetWorth    []TypeBalanceResponse `json:"lastYearNetWorth"`
	DividendsYearToDate string                `json:"dividendsYearToDate"`
}

// GetSummary godoc
// @Summary Year-to-date summary
// @Description Net worth by type now and at the end of last year, with dividends received this year
// @Tags reports
// @Produce json
// @Security UserID
// @Success 200 {object} SummaryResponse
// @Router /reports/summary [get]
func (h *ReportHandler) GetSummary(c echo.Context) error {
	userID := middleware.GetUserID(c)

	summary, err := h.aggregationService.Summary(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err, "Failed to compute summary")
	}
	return c.JSON(http.StatusOK, SummaryResponse{
		AsOf:                summary.AsOf.Format(time.RFC3339),
		Currency:            summary.Currency,
		NetWorthByType:      toTypeBalanceResponses(summary.NetWorthByType),
		LastYearEnd:         summary.LastYearEnd.Format(time.RFC3339),
		LastYearNetWorth:    toTypeBalanceResponses(summary.LastYearNetWorth),
		DividendsYearToDate: summary.DividendsYearToDate.StringFixed(2),
	})
}

func toTypeBalanceResponses(balances []domain.TypeBalance) []TypeBalanceResponse {
	out := make([]TypeBalanceResponse, len(balances))
	for i, t := range balances {
		out[i] = TypeBalanceResponse{
			Type:         string(t.Type),
			Label:        t.Type.Label(),
			Balance:      t.Balance.StringFixed(2),
			AccountCount: t.AccountCount,
		}
	}
	return out
}
