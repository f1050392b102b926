package admin

import "time"

// LoginRequest carries back-office credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=128"`
	Password string `json:"password" validate:"required,max=256"`
}

// Session is an issued back-office session. Token and Signature travel as
// two cookies.
type Session struct {
	Username  string    `json:"username"`
	Token     string    `json:"-"`
	Signature string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// PromoInput creates a processor promotion code.
type PromoInput struct {
	Code    string `json:"code" validate:"required,min=3,max=64"`
	Percent int    `json:"percent" validate:"required,min=1,max=100"`
}

// PromoDTO describes a created promotion code.
type PromoDTO struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Percent int    `json:"percent"`
}

// StatsDTO is the dashboard summary.
type StatsDTO struct {
	Orders      int64 `json:"orders"`
	PaidOrders  int64 `json:"paidOrders"`
	PaidRevenue int64 `json:"paidRevenue"`
	Users       int64 `json:"users"`
}
