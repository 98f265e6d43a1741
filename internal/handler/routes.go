package handler

import (
	"github.com/dafibh/fortuna/wealth-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// Handlers groups every API handler
type Handlers struct {
	Account     *AccountHandler
	Transaction *TransactionHandler
	Category    *CategoryHandler
	Budget      *BudgetHandler
	Goal        *GoalHandler
	Investment  *InvestmentHandler
	Report      *ReportHandler
	WebSocket   *WebSocketHandler
}

// RegisterRoutes sets up all API routes. tradeLimiter throttles buy and sell
// per user; nil disables it.
func RegisterRoutes(e *echo.Echo, h Handlers, tradeLimiter *middleware.RateLimiter) {
	// API version 1
	api := e.Group("/api/v1")
	api.Use(middleware.UserIdentity())

	// Account routes
	accounts := api.Group("/accounts")
	accounts.POST("", h.Account.CreateAccount)
	accounts.GET("", h.Account.GetAccounts)
	accounts.GET("/:id", h.Account.GetAccount)
	accounts.PATCH("/:id/deactivate", h.Account.DeactivateAccount)
	accounts.GET("/:id/balance", h.Account.GetBalance)

	// Transaction routes
	transactions := api.Group("/transactions")
	transactions.POST("", h.Transaction.CreateTransaction)
	transactions.GET("", h.Transaction.GetTransactions)
	transactions.GET("/recent", h.Transaction.GetRecentTransactions)
	transactions.GET("/:id", h.Transaction.GetTransaction)
	transactions.POST("/transfers", h.Transaction.CreateTransfer)

	// Category routes
	categories := api.Group("/categories")
	categories.POST("", h.Category.CreateCategory)
	categories.GET("", h.Category.GetCategories)

	// Budget routes
	budgets := api.Group("/budgets")
	budgets.POST("", h.Budget.CreateBudget)
	budgets.GET("", h.Budget.GetBudgets)
	budgets.GET("/:id", h.Budget.GetBudget)

	// Goal routes
	goals := api.Group("/goals")
	goals.POST("", h.Goal.CreateGoal)
	goals.GET("", h.Goal.GetGoals)
	goals.DELETE("/:id", h.Goal.DeleteGoal)

	// Investment routes; trades are rate limited per user
	investments := api.Group("/investments")
	trade := []echo.MiddlewareFunc{}
	if tradeLimiter != nil {
		trade = append(trade, middleware.RateLimitMiddleware(tradeLimiter))
	}
	investments.POST("/:accountId/buy", h.Investment.Buy, trade...)
	investments.POST("/:accountId/sell", h.Investment.Sell, trade...)
	investments.GET("/markets", h.Investment.GetMarkets)
	investments.GET("/:accountId/portfolio", h.Investment.GetPortfolio)
	investments.GET("/:accountId/assets/:symbol/history", h.Investment.GetPriceHistory)

	// Report routes
	reports := api.Group("/reports")
	reports.GET("/net-worth", h.Report.GetNetWorth)
	reports.GET("/net-worth/by-type", h.Report.GetNetWorthByType)
	reports.GET("/monthly", h.Report.GetMonthlySeries)
	reports.GET("/summary", h.Report.GetSummary)

	// WebSocket resolves its own identity since browsers cannot set headers
	if h.WebSocket != nil {
		e.GET("/ws", h.WebSocket.HandleWS)
	}
}
