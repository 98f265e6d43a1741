package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type GoalCategory string

const (
	GoalCategoryEmergencyFund GoalCategory = "emergency_fund"
	GoalCategoryVacation      GoalCategory = "vacation"
	GoalCategoryHouse         GoalCategory = "house"
	GoalCategoryCar           GoalCategory = "car"
	GoalCategoryEducation     GoalCategory = "education"
	GoalCategoryRetirement    GoalCategory = "retirement"
	GoalCategoryOther         GoalCategory = "other"
)

// Valid reports whether c is a known goal category
func (c GoalCategory) Valid() bool {
	switch c {
	case GoalCategoryEmergencyFund, GoalCategoryVacation, GoalCategoryHouse, GoalCategoryCar,
		GoalCategoryEducation, GoalCategoryRetirement, GoalCategoryOther:
		return true
	}
	return false
}

// Goal is a savings target, optionally tracked by an account balance
type Goal struct {
	ID           int32           `json:"id"`
	UserID       uuid.UUID       `json:"userId"`
	Name         string          `json:"name"`
	Description  *string         `json:"description,omitempty"`
	TargetAmount decimal.Decimal `json:"targetAmount"`
	TargetDate   *time.Time      `json:"targetDate,omitempty"`
	Category     GoalCategory    `json:"category"`
	AccountID    *int32          `json:"accountId,omitempty"`
	IsActive     bool            `json:"isActive"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// GoalProgress is computed at query time from the linked account balance
type GoalProgress struct {
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	Percentage    decimal.Decimal `json:"percentage"`
	Remaining     decimal.Decimal `json:"remaining"`
	DaysLeft      *int            `json:"daysLeft,omitempty"`
}

// GoalWithProgress pairs a goal with its progress
type GoalWithProgress struct {
	*Goal
	GoalProgress
}

type GoalRepository interface {
	Create(ctx context.Context, goal *Goal) (*Goal, error)
	GetAllByUser(ctx context.Context, userID uuid.UUID) ([]*Goal, error)
	// Delete removes a goal of the user, ErrGoalNotFound if there is none
	Delete(ctx context.Context, userID uuid.UUID, id int32) error
}
