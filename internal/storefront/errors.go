package storefront

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"majji-market/internal/authclient"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already taken")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNetwork            = errors.New("network error")
	// ErrRejected cubre respuestas 4xx que el servidor explica con un mensaje propio.
	ErrRejected = errors.New("request rejected")
)

// authError conserva el mensaje del servidor tal cual y clasifica con errors.Is.
type authError struct {
	kind error
	msg  string
}

func (e *authError) Error() string { return e.msg }

func (e *authError) Unwrap() error { return e.kind }

func newAuthError(kind error, msg string) error {
	if strings.TrimSpace(msg) == "" {
		msg = kind.Error()
	}
	return &authError{kind: kind, msg: msg}
}

// ValidationError es un error local de un campo de formulario.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors agrupa errores por campo.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return strings.Join(parts, "; ")
}

// Field devuelve el ValidationError de un campo, o nil.
func (v ValidationErrors) Field(name string) *ValidationError {
	msg, ok := v[name]
	if !ok {
		return nil
	}
	return &ValidationError{Field: name, Message: msg}
}

// classify traduce un error del cliente HTTP a la taxonomia de la tienda.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *authclient.APIError
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return newAuthError(ErrNetwork, err.Error())
	}
	switch {
	case apiErr.StatusCode == http.StatusUnauthorized && apiErr.Message == ErrInvalidCredentials.Error():
		return newAuthError(ErrInvalidCredentials, apiErr.Message)
	case apiErr.StatusCode == http.StatusUnauthorized:
		return newAuthError(ErrUnauthorized, apiErr.Message)
	case apiErr.StatusCode == http.StatusConflict && apiErr.Message == ErrEmailTaken.Error():
		return newAuthError(ErrEmailTaken, apiErr.Message)
	case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
		return newAuthError(ErrRejected, apiErr.Message)
	default:
		return newAuthError(ErrNetwork, apiErr.Error())
	}
}
