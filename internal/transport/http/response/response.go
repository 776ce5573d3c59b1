// Package response defines the envelope the facade returns: a code, a
// human-readable message, and a payload. Core errors never cross this
// boundary uncaught; their kinds map onto codes here.
package response

import (
	"errors"

	"academic-records-core/internal/domain"
)

type Resp struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}

// New keeps data non-null on the wire.
func New(code int, msg string, data interface{}) Resp {
	if data == nil {
		data = struct{}{}
	}
	return Resp{Code: code, Msg: msg, Data: data}
}

func OK(data interface{}) Resp {
	return New(CodeOK, CodeMsgMap[CodeOK], data)
}

func Error(code int, customMsg string) Resp {
	msg := CodeMsgMap[code]
	if customMsg != "" {
		msg = customMsg
	}
	return New(code, msg, struct{}{})
}

// FromError maps the domain error taxonomy onto envelope codes.
func FromError(err error) Resp {
	var de *domain.Error
	msg := err.Error()
	if errors.As(err, &de) {
		msg = de.Message
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return Error(CodeNotFound, msg)
	case errors.Is(err, domain.ErrValidation):
		return Error(CodeBadRequest, msg)
	case errors.Is(err, domain.ErrConflict):
		return Error(CodeConflict, msg)
	case errors.Is(err, domain.ErrTimeout):
		return Error(CodeUnavailable, msg)
	default:
		return Error(CodeServerError, "internal error")
	}
}
