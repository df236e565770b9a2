package domain

// UserStats summarizes the user base.
type UserStats struct {
	Total    int64 `json:"total"`
	NewToday int64 `json:"new_today"`
}

// DomainStats summarizes registered domains.
type DomainStats struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
}

// AnalysisStats summarizes analysis runs.
type AnalysisStats struct {
	Total     int64 `json:"total"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	InFlight  int64 `json:"in_flight"`
}

// CreditStats summarizes the ledger.
type CreditStats struct {
	OutstandingBalance int64 `json:"outstanding_balance"`
	ConsumedToday      int64 `json:"consumed_today"`
}

// DashboardStats is the admin dashboard aggregate.
type DashboardStats struct {
	Users    UserStats     `json:"users"`
	Domains  DomainStats   `json:"domains"`
	Analyses AnalysisStats `json:"analyses"`
	Credits  CreditStats   `json:"credits"`
}
