// internal/service/promotion/application/dto.go
package application

// CreatePromotionRequest 是结账请求
type CreatePromotionRequest struct {
	SupplierID    string `json:"supplierId"`
	ServiceType   string `json:"serviceType"`
	ServiceID     string `json:"serviceId"`
	PromotionPlan string `json:"promotionPlan"`
}

// PaymentRequest 是支付回调的请求体
type PaymentRequest struct {
	PaymentID string  `json:"paymentId"`
	Amount    float64 `json:"amount"`
	Method    string  `json:"method"`
}

// Caller 是发起操作的一方，Admin 可以代任意供给方操作
type Caller struct {
	ID    string
	Admin bool
}

func (c Caller) mayActFor(supplierID string) bool {
	return c.Admin || c.ID == supplierID
}
