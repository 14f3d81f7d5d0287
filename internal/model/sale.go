package model

import (
	"fmt"
	"time"

	"github.com/erazemk/slms/internal/errs"
)

// PaymentMethod is how a student pays for a purchase.
type PaymentMethod string

// Payment methods.
const (
	PaymentCard PaymentMethod = "card"
	PaymentCash PaymentMethod = "cash"
)

// ParsePaymentMethod validates a payment method name.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PaymentCard, PaymentCash:
		return PaymentMethod(s), nil
	}
	return "", errs.Newf(errs.KindValidation, "invalid payment method %q", s)
}

// Sale is a permanent record of one copy leaving circulation.
type Sale struct {
	ID            string        `json:"sale_id"`
	StudentID     string        `json:"student_id"`
	ItemID        string        `json:"item_id"`
	ItemTitle     string        `json:"item_title"`
	Price         float64       `json:"price"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Faculty       string        `json:"faculty"`
	ScheduledTime string        `json:"scheduled_time,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}

// SaleID formats the n-th sale identifier.
func SaleID(n int) string {
	return fmt.Sprintf("SALE%04d", n)
}
