package cart

import "time"

type Item struct {
	ID        string    `json:"itemId"`
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
}

type Cart struct {
	ID        string    `json:"cartId"`
	UserID    string    `json:"userId"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updatedAt"`
}
