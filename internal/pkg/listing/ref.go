// internal/pkg/listing/ref.go
package listing

import (
	"fmt"
	"strings"

	"sportshub/internal/pkg/apperr"
)

// Kind 标识一条供给侧资源的类型。
// serviceType + serviceId 这种多态引用统一用 Ref 表达，不允许裸 ID。
type Kind string

const (
	KindAcademy Kind = "academy"
	KindCoach   Kind = "coach"
	KindTurf    Kind = "turf"
	KindGround  Kind = "ground"
)

// KindSet 是某个场景下允许的类型集合
type KindSet map[Kind]struct{}

func NewKindSet(kinds ...Kind) KindSet {
	s := make(KindSet, len(kinds))
	for _, k := range kinds {
		s[k] = struct{}{}
	}
	return s
}

func (s KindSet) Has(k Kind) bool {
	_, ok := s[k]
	return ok
}

var (
	// ServiceKinds 可以被搜索和购买推广的服务类型
	ServiceKinds = NewKindSet(KindCoach, KindAcademy, KindTurf)
	// SlotParentKinds 可以挂时段的资源类型
	SlotParentKinds = NewKindSet(KindGround, KindTurf, KindCoach)
)

// tables 是类型到存储表的查找表。
var tables = map[Kind]string{
	KindAcademy: "academies",
	KindCoach:   "coaches",
	KindTurf:    "turfs",
	KindGround:  "grounds",
}

// Table 返回某个类型对应的表名
func Table(k Kind) (string, bool) {
	t, ok := tables[k]
	return t, ok
}

// ParseKind 解析类型字符串，大小写不敏感。
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := tables[k]; !ok {
		return "", apperr.Validation(fmt.Sprintf("unknown resource type %q", s))
	}
	return k, nil
}

// Ref 是带类型标签的资源引用
type Ref struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
}

func NewRef(kind, id string) (Ref, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return Ref{}, err
	}
	r := Ref{Kind: k, ID: strings.TrimSpace(id)}
	if r.ID == "" {
		return Ref{}, apperr.Validation("resource id is required")
	}
	return r, nil
}

// Validate 检查引用完整且类型属于 allowed。
func (r Ref) Validate(allowed KindSet) error {
	if r.ID == "" {
		return apperr.Validation("resource id is required")
	}
	if !allowed.Has(r.Kind) {
		return apperr.Validation(fmt.Sprintf("resource type %q is not allowed here", r.Kind))
	}
	return nil
}

func (r Ref) String() string {
	return string(r.Kind) + ":" + r.ID
}

func (r Ref) IsZero() bool {
	return r.Kind == "" && r.ID == ""
}
