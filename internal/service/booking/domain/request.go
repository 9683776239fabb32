// internal/service/booking/domain/request.go
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestStatus 定义了预约请求的生命周期状态
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestRejected  RequestStatus = "rejected"
	RequestCancelled RequestStatus = "cancelled"
)

// transitions 是预约请求的状态机，未列出的流转一律非法
var transitions = map[RequestStatus][]RequestStatus{
	RequestPending:  {RequestApproved, RequestRejected, RequestCancelled},
	RequestApproved: {RequestCancelled},
}

// CanTransition 判断 from -> to 是否合法
func CanTransition(from, to RequestStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal 终态不可再变更
func (s RequestStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Action 是供给方对请求的处理动作
type Action string

const (
	ActionAccept  Action = "accept"
	ActionDecline Action = "decline"
)

func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionAccept, ActionDecline:
		return a, nil
	}
	return "", ErrInvalidAction
}

// RequestDetails 是用户提交预约时附带的信息
type RequestDetails struct {
	Notes    string
	TeamSize int
}

// SlotRequest 是用户对某个时段的占用申请
type SlotRequest struct {
	ID          string
	SlotID      string
	UserID      string
	Status      RequestStatus
	RequestDate time.Time
	Notes       string
	TeamSize    int
	RespondedAt *time.Time
	RespondedBy string
	CancelledAt *time.Time
}

// NewSlotRequest 创建一个 pending 状态的请求
func NewSlotRequest(slotID, userID string, d RequestDetails) (*SlotRequest, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserRequired
	}
	if d.TeamSize < 0 {
		return nil, ErrInvalidTeamSize
	}
	return &SlotRequest{
		ID:          uuid.NewString(),
		SlotID:      slotID,
		UserID:      userID,
		Status:      RequestPending,
		RequestDate: time.Now().UTC(),
		Notes:       strings.TrimSpace(d.Notes),
		TeamSize:    d.TeamSize,
	}, nil
}

// Resolution 描述一次请求流转及其对时段的影响，仓储据此做条件更新
type Resolution struct {
	RequestID  string
	SlotID     string
	From       RequestStatus
	To         RequestStatus
	SlotFrom   SlotStatus
	SlotTo     SlotStatus
	At         time.Time
	ActorID    string
	IsResponse bool // true 记录到 responded_*，否则记录 cancelled_at
}

// Respond 计算供给方处理请求后的流转
func (r *SlotRequest) Respond(action Action, actorID string, now time.Time) (Resolution, error) {
	if r.Status != RequestPending {
		return Resolution{}, ErrRequestNotPending
	}
	res := Resolution{
		RequestID:  r.ID,
		SlotID:     r.SlotID,
		From:       RequestPending,
		SlotFrom:   SlotPending,
		At:         now,
		ActorID:    actorID,
		IsResponse: true,
	}
	if action == ActionAccept {
		res.To, res.SlotTo = RequestApproved, SlotBooked
	} else {
		res.To, res.SlotTo = RequestRejected, SlotAvailable
	}
	return res, nil
}

// Cancel 计算用户取消请求后的流转。已确认的预约只能在开场前取消。
func (r *SlotRequest) Cancel(slot *Slot, now time.Time) (Resolution, error) {
	res := Resolution{
		RequestID: r.ID,
		SlotID:    r.SlotID,
		From:      r.Status,
		To:        RequestCancelled,
		SlotTo:    SlotAvailable,
		At:        now,
		ActorID:   r.UserID,
	}
	switch r.Status {
	case RequestPending:
		res.SlotFrom = SlotPending
	case RequestApproved:
		if slot.Started(now) {
			return Resolution{}, ErrSessionStarted
		}
		res.SlotFrom = SlotBooked
	default:
		return Resolution{}, ErrRequestNotCancellable
	}
	return res, nil
}

// RequestFilter 用户或时段维度的请求列表查询
type RequestFilter struct {
	UserID string
	SlotID string
}

// StaleError 是请求状态条件更新未命中时应返回的错误
func (r Resolution) StaleError() error {
	if r.IsResponse || r.From == RequestPending {
		return ErrRequestNotPending
	}
	return ErrRequestNotCancellable
}
