package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StartingCash is credited to every new account.
var StartingCash = decimal.RequireFromString("10000.00")

type Account struct {
	ID           string          `json:"id"`
	Username     string          `json:"username"`
	PasswordHash string          `json:"-"`
	Cash         decimal.Decimal `json:"cash"`
	CreatedAt    time.Time       `json:"created_at"`
}
