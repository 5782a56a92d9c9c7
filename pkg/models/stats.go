package models

type DashboardStats struct {
	TotalPayments  float64               `json:"totalPayments"`
	TotalUsers     int64                 `json:"totalUsers"`
	OrdersByStatus map[OrderStatus]int64 `json:"ordersByStatus"`
}
