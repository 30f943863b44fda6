package core

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category `json:"category"`
	Amount   Money    `json:"amount"`
}

// MonthAmount is the total spent in one calendar month.
type MonthAmount struct {
	Year   int    `json:"year"`
	Month  int    `json:"month"` // 1-12
	Label  string `json:"label"`
	Amount Money  `json:"amount"`
}
