package models

type Course struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Subject     string  `json:"subject"`
	Level       string  `json:"level"`
	Type        string  `json:"type"`
	Image       string  `json:"image"`
}
