package models

import "time"

// Purchase associates an account with a purchased product. The access service
// only ever reads these rows; the commerce system owns the write path.
type Purchase struct {
	ID          string     `json:"id" gorm:"primaryKey;size:255"`
	UserID      string     `json:"user_id" gorm:"index;not null;size:255"`
	ProductName string     `json:"product_name" gorm:"size:200"`
	Status      string     `json:"status" gorm:"size:50"`
	PurchasedAt time.Time  `json:"purchased_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

func (Purchase) TableName() string {
	return "user_purchases"
}

type SubscriptionStatus string

const (
	SubscriptionActive  SubscriptionStatus = "Active"
	SubscriptionExpired SubscriptionStatus = "Expired"
	SubscriptionNone    SubscriptionStatus = "None"
)

// DeriveSubscriptionStatus collapses an account's purchases into a coarse
// subscription status: Active if any purchase is active, else Expired if any
// is expired, else None.
func DeriveSubscriptionStatus(purchases []*Purchase) SubscriptionStatus {
	hasExpired := false
	for _, p := range purchases {
		switch p.Status {
		case "active":
			return SubscriptionActive
		case "expired":
			hasExpired = true
		}
	}
	if hasExpired {
		return SubscriptionExpired
	}
	return SubscriptionNone
}
