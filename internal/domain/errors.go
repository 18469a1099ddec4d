package domain

import (
	"errors"
	"fmt"
	"strings"
)

// GenericFailureMessage is shown when neither the backend nor the caller
// supplied a human-readable reason.
const GenericFailureMessage = "Request failed, please try again."

// DomainError keeps backward compatibility for generic codes.
type DomainError struct {
	Code string
	Err  error
}

func (e DomainError) Error() string {
	if e.Err == nil {
		return e.Code
	}
	if e.Code == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e DomainError) Unwrap() error {
	return e.Err
}

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

// TransportError wraps network failures and non-2xx answers from the
// transactional backend. Its user-facing text is always generic.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e TransportError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s: http %d: %v", e.Op, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: http %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": transport failure"
	}
}

func (e TransportError) Unwrap() error { return e.Err }

// BusinessError is a rejection reported inside a well-formed response,
// either IsSuccess=false or an embedded error object.
type BusinessError struct {
	Code    string
	Message string
}

func (e BusinessError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = GenericFailureMessage
	}
	if e.Code == "" {
		return msg
	}
	return fmt.Sprintf("%s (%s)", msg, e.Code)
}

// FileTooLargeError rejects a single file before upload.
type FileTooLargeError struct {
	Name  string
	Size  int64
	Limit int64
}

func (e FileTooLargeError) Error() string {
	return fmt.Sprintf("%s exceeds the upload limit (%d > %d bytes)", e.Name, e.Size, e.Limit)
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}

func IsTransport(err error) bool {
	var target TransportError
	return errors.As(err, &target)
}

func IsBusiness(err error) bool {
	var target BusinessError
	return errors.As(err, &target)
}

func IsFileTooLarge(err error) bool {
	var target FileTooLargeError
	return errors.As(err, &target)
}

// UserMessage converts err into the text shown in the console notification.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var biz BusinessError
	if errors.As(err, &biz) {
		if msg := strings.TrimSpace(biz.Message); msg != "" {
			return msg
		}
		return GenericFailureMessage
	}
	var tooLarge FileTooLargeError
	if errors.As(err, &tooLarge) {
		return tooLarge.Error()
	}
	switch {
	case IsTransport(err), IsInternal(err):
		return GenericFailureMessage
	case IsValidation(err), IsNotFound(err), IsConflict(err):
		return err.Error()
	}
	return GenericFailureMessage
}
