package payments

// PaymentMethod carries the raw card fields submitted by the checkout form.
type PaymentMethod struct {
	CardNumber     string          `json:"card_number" validate:"required"`
	ExpiryDate     string          `json:"expiry_date" validate:"required"` // MM/YY
	CVV            string          `json:"cvv" validate:"required"`
	CardholderName string          `json:"cardholder_name"`
	BillingAddress *BillingAddress `json:"billing_address,omitempty"`
}

// BillingAddress mirrors the optional address block on the checkout form.
type BillingAddress struct {
	Line1      string `json:"line1"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// PaymentRequest is the inbound payload for a single payment attempt.
// Amounts are minor currency units; FinalAmount, when present, is the
// post-discount amount and wins over Amount. IsRecurring defaults to true
// when omitted, matching the annual-subscription checkout this serves.
type PaymentRequest struct {
	Amount         int64          `json:"amount"`
	FinalAmount    *int64         `json:"final_amount,omitempty"`
	Currency       string         `json:"currency"`
	Description    string         `json:"description"`
	CustomerEmail  string         `json:"customer_email" validate:"omitempty,email"`
	PaymentMethod  *PaymentMethod `json:"payment_method,omitempty"`
	DiscountCodeID string         `json:"discount_code_id,omitempty"`
	PlanName       string         `json:"plan_name,omitempty"`
	IsRecurring    *bool          `json:"is_recurring,omitempty"`
}

// EffectiveAmount returns the minor-unit amount the gateway will be asked
// to charge.
func (r PaymentRequest) EffectiveAmount() int64 {
	if r.FinalAmount != nil {
		return *r.FinalAmount
	}
	return r.Amount
}

// Recurring reports the recurring flag with its default applied.
func (r PaymentRequest) Recurring() bool {
	if r.IsRecurring == nil {
		return true
	}
	return *r.IsRecurring
}

// PaymentMethodDetails is the masked card summary on the success response.
type PaymentMethodDetails struct {
	Type     string `json:"type"` // "card" or "free"
	LastFour string `json:"last_four,omitempty"`
	ExpMonth string `json:"exp_month,omitempty"`
	ExpYear  string `json:"exp_year,omitempty"`
}

// PaymentDetails is the success payload. Amount is major currency units.
type PaymentDetails struct {
	Success              bool                 `json:"success"`
	TransactionID        string               `json:"transaction_id"`
	SubscriptionID       string               `json:"subscription_id,omitempty"`
	CustomerVaultID      string               `json:"customer_vault_id,omitempty"`
	Amount               float64              `json:"amount"`
	Currency             string               `json:"currency"`
	Description          string               `json:"description,omitempty"`
	CustomerEmail        string               `json:"customer_email,omitempty"`
	PaymentDate          string               `json:"payment_date"`
	Status               string               `json:"status"`
	PaymentMethodDetails PaymentMethodDetails `json:"payment_method_details"`
	RawResponse          string               `json:"raw_response,omitempty"`
	Environment          string               `json:"environment"`
	Simulated            bool                 `json:"simulated,omitempty"`
}
