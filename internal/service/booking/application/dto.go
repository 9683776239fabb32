// internal/service/booking/application/dto.go
package application

import "time"

// DefineSlotRequest 是供给方创建时段的请求体
type DefineSlotRequest struct {
	ParentType string    `json:"parentType"`
	ParentID   string    `json:"parentId"`
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
	Price      float64   `json:"price"`
}

// BookSlotRequest 是用户预约时段的请求体
type BookSlotRequest struct {
	Notes    string `json:"notes"`
	TeamSize int    `json:"teamSize"`
}

// RespondRequest 是供给方处理预约请求的请求体
type RespondRequest struct {
	Action string `json:"action"`
}

// CancelSlotRequest 是 POST /slots/{slotId}/cancel 的请求体
type CancelSlotRequest struct {
	RequestID string `json:"requestId"`
}

// PaymentRequest 是登记线下收款的请求体
type PaymentRequest struct {
	PaymentStatus string `json:"paymentStatus"`
}
