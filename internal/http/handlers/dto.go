package handlers

type StatusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type DepartmentMetricsResponse struct {
	Region            string  `json:"region"`
	DepartmentName    string  `json:"department_name"`
	TotalTransactions int64   `json:"total_transactions"`
	TotalRevenue      float64 `json:"total_revenue"`
	TotalMargin       float64 `json:"total_margin"`
}

type TimeSeriesMetricsResponse struct {
	Year    int     `json:"year"`
	Month   int     `json:"month"`
	Revenue float64 `json:"revenue"`
	Margin  float64 `json:"margin"`
}
