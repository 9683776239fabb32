// internal/service/notification/application/dto.go
package application

// RegisterPushTokenRequest 是设备注册推送令牌的请求体
type RegisterPushTokenRequest struct {
	RecipientType string `json:"recipientType"`
	RecipientID   string `json:"recipientId"`
	Token         string `json:"token"`
	Platform      string `json:"platform"`
}

// Page 是一页收件箱
type Page struct {
	Page       int
	Limit      int
	Total      int64
	TotalPages int
}
