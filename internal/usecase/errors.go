package usecase

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"     // 入力不正・空カート
	KindNotFound      ErrorKind = "not_found"      // 商品/取引が存在しない
	KindStateConflict ErrorKind = "state_conflict" // 販売停止・在庫不足
	KindPersistence   ErrorKind = "persistence"    // DB書き込み失敗
	KindUnauthorized  ErrorKind = "unauthorized"
	KindForbidden     ErrorKind = "forbidden"
)

// errors.Isで種類だけ判定するための番兵
var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrStateConflict = errors.New("state conflict")
	ErrPersistence   = errors.New("persistence error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
)

// 明細ごとの理由
const (
	ReasonProductNotFound   = "product not found"
	ReasonProductOffShelf   = "product not on shelf"
	ReasonInsufficientStock = "insufficient stock"
	ReasonCommitFailed      = "commit failed"
)

// どの明細がダメだったか
type LineError struct {
	ProductID int64     `json:"product_id"`
	Kind      ErrorKind `json:"code"`
	Reason    string    `json:"reason"`
}

// 業務エラー。handlerで種類ごとにHTTPステータスへ変換する。
type ShopError struct {
	Kind    ErrorKind
	Message string
	Lines   []LineError
	cause   error
}

func (e *ShopError) Error() string {
	if len(e.Lines) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	parts := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		parts = append(parts, fmt.Sprintf("product %d: %s", l.ProductID, l.Reason))
	}
	return fmt.Sprintf("%s: %s [%s]", e.Kind, e.Message, strings.Join(parts, "; "))
}

func (e *ShopError) Unwrap() []error {
	errs := []error{sentinelOf(e.Kind)}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

func sentinelOf(kind ErrorKind) error {
	switch kind {
	case KindValidation:
		return ErrValidation
	case KindNotFound:
		return ErrNotFound
	case KindStateConflict:
		return ErrStateConflict
	case KindUnauthorized:
		return ErrUnauthorized
	case KindForbidden:
		return ErrForbidden
	default:
		return ErrPersistence
	}
}

func newShopError(kind ErrorKind, message string) *ShopError {
	return &ShopError{Kind: kind, Message: message}
}

func NewValidationError(message string) error {
	return newShopError(KindValidation, message)
}

func NewNotFoundError(message string) error {
	return newShopError(KindNotFound, message)
}

func NewStateConflictError(message string) error {
	return newShopError(KindStateConflict, message)
}

// causeはログ用（レスポンスには出さない）
func NewPersistenceError(message string, cause error) error {
	e := newShopError(KindPersistence, message)
	e.cause = cause
	return e
}

// 明細単位の失敗をまとめる。種類は最初の明細に合わせる。
func newLineError(message string, lines []LineError, cause error) error {
	kind := KindValidation
	if len(lines) > 0 {
		kind = lines[0].Kind
	}
	return &ShopError{Kind: kind, Message: message, Lines: lines, cause: cause}
}

func AsShopError(err error) (*ShopError, bool) {
	var se *ShopError
	ok := errors.As(err, &se)
	return se, ok
}
