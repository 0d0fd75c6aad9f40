package errs

import (
	"errors"
	"strconv"
	"strings"
)

// CodeError carries a stable numeric code alongside the message so REST
// responses and real-time status frames can share one error vocabulary.
type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func New(code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg}
}

func (e *CodeError) Error() string {
	v := make([]string, 0, 3)
	v = append(v, strconv.Itoa(e.Code), e.Msg)
	if e.Detail != "" {
		v = append(v, e.Detail)
	}
	return strings.Join(v, " ")
}

// WithDetail returns a copy with the detail appended; the original
// predeclared error stays untouched.
func (e *CodeError) WithDetail(detail string) *CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return &CodeError{Code: e.Code, Msg: e.Msg, Detail: d}
}

func (e *CodeError) Is(err error) bool {
	var ce *CodeError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Code == e.Code
}

// Predeclared errors. Codes: 11xx auth, 20xx chat, 21xx notification.
var (
	ErrTokenInvalid            = New(1101, "token invalid")
	ErrTokenExpired            = New(1102, "token expired")
	ErrBadRequest              = New(1001, "bad request")
	ErrConversationNotFound    = New(2001, "conversation not found")
	ErrUserNotFound            = New(2002, "user not found")
	ErrUnknownNotificationType = New(2101, "unknown notification type")
)
