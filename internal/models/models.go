package models

import "time"

// Product is a static catalog entry shown on the showcase page
type Product struct {
	Name     string `json:"name"`
	ImageURL string `json:"image"`
	Price    string `json:"price"`
}

// LabelProbability is the classifier's probability for a single label
type LabelProbability struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// Prediction is the outcome of classifying one return reason.
// Probabilities follow the classifier's class ordering.
type Prediction struct {
	Label         string             `json:"label"`
	Probabilities []LabelProbability `json:"probabilities"`
}

// Confidence returns the probability assigned to the predicted label.
func (p *Prediction) Confidence() float64 {
	for _, lp := range p.Probabilities {
		if lp.Label == p.Label {
			return lp.Probability
		}
	}
	return 0
}

// Resolution is the recommended action for a return category
type Resolution struct {
	Action string `json:"action"`
	Color  string `json:"color"`
}

// Review is an optional second opinion from the language model assistant
type Review struct {
	Label   string `json:"label"`
	Summary string `json:"summary"`
}

// Analysis is a persisted return-reason analysis
type Analysis struct {
	ID         string     `json:"id"`
	UserID     int64      `json:"user_id"`
	Product    *Product   `json:"product,omitempty"`
	Reason     string     `json:"reason"`
	Normalized string     `json:"normalized"`
	Prediction Prediction `json:"prediction"`
	Resolution Resolution `json:"resolution"`
	Review     *Review    `json:"review,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
