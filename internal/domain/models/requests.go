package models

// PredictRequest is the inbound prediction request. No ticker selects the
// synthetic data path.
type PredictRequest struct {
	Ticker  string `json:"ticker" validate:"omitempty,max=32"`
	Keyword string `json:"keyword" validate:"omitempty,max=100"`
	Days    int    `json:"days" default:"180" validate:"gte=1,lte=3650"`
}

// RunsRequest lists recent training runs.
type RunsRequest struct {
	Limit int `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=100"`
}
