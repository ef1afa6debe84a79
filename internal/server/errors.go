package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	accountingdomain "github.com/weperezh01/isp-core/internal/accounting/domain"
	authdomain "github.com/weperezh01/isp-core/internal/auth/domain"
	"github.com/weperezh01/isp-core/internal/authorization"
	cycledomain "github.com/weperezh01/isp-core/internal/billingcycle/domain"
	clientdomain "github.com/weperezh01/isp-core/internal/client/domain"
	connectiondomain "github.com/weperezh01/isp-core/internal/connection/domain"
	invoicedomain "github.com/weperezh01/isp-core/internal/invoice/domain"
	ispdomain "github.com/weperezh01/isp-core/internal/isp/domain"
	permissiondomain "github.com/weperezh01/isp-core/internal/permission/domain"
	receiptdomain "github.com/weperezh01/isp-core/internal/receipt/domain"
	routerdomain "github.com/weperezh01/isp-core/internal/router/domain"
)

// Transport-level sentinels.
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not_found")
	ErrConflict           = errors.New("conflict")
	ErrTooManyRequests    = errors.New("too_many_requests")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

// ValidationError is returned as a 400 with the offending field.
type ValidationError struct {
	Field   string `json:"campo"`
	Code    string `json:"codigo"`
	Message string `json:"mensaje"`
}

func (e *ValidationError) Error() string { return e.Code }

func newValidationError(field, code, message string) error {
	return &ValidationError{Field: field, Code: code, Message: message}
}

func invalidRequestError() error {
	return newValidationError("body", "invalid_request", "malformed request body")
}

// AbortWithError maps domain errors onto HTTP statuses and writes the Spanish
// error envelope.
func AbortWithError(c *gin.Context, err error) {
	var validation *ValidationError
	if errors.As(err, &validation) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validation})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, authdomain.ErrUserDisabled):
		status = http.StatusForbidden
	case errors.Is(err, ErrNotFound), isNotFoundError(err):
		status = http.StatusNotFound
	case errors.Is(err, ErrConflict),
		errors.Is(err, authdomain.ErrUserExists),
		errors.Is(err, cycledomain.ErrAlreadyClosed),
		errors.Is(err, invoicedomain.ErrCycleClosed),
		errors.Is(err, invoicedomain.ErrInvoiceNotOpen):
		status = http.StatusConflict
	case errors.Is(err, ErrTooManyRequests):
		status = http.StatusTooManyRequests
	case errors.Is(err, ErrServiceUnavailable):
		status = http.StatusServiceUnavailable
	case isDomainValidationError(err):
		status = http.StatusBadRequest
	}

	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"codigo": err.Error()}})
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, ispdomain.ErrNotFound),
		errors.Is(err, clientdomain.ErrNotFound),
		errors.Is(err, routerdomain.ErrNotFound),
		errors.Is(err, connectiondomain.ErrNotFound),
		errors.Is(err, cycledomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrInvoiceNotFound),
		errors.Is(err, permissiondomain.ErrGrantNotFound):
		return true
	}
	return false
}

func isDomainValidationError(err error) bool {
	switch {
	case errors.Is(err, authdomain.ErrInvalidUsername),
		errors.Is(err, authdomain.ErrInvalidEmail),
		errors.Is(err, authdomain.ErrWeakPassword),
		errors.Is(err, authdomain.ErrInvalidViewMode),
		errors.Is(err, ispdomain.ErrInvalidName),
		errors.Is(err, ispdomain.ErrInvalidID),
		errors.Is(err, ispdomain.ErrInvalidUser),
		errors.Is(err, ispdomain.ErrInvalidRole),
		errors.Is(err, clientdomain.ErrInvalidName),
		errors.Is(err, clientdomain.ErrInvalidStatus),
		errors.Is(err, routerdomain.ErrInvalidName),
		errors.Is(err, routerdomain.ErrInvalidStatus),
		errors.Is(err, connectiondomain.ErrInvalidClient),
		errors.Is(err, connectiondomain.ErrInvalidFee),
		errors.Is(err, connectiondomain.ErrInvalidStatus),
		errors.Is(err, cycledomain.ErrInvalidPeriod),
		errors.Is(err, invoicedomain.ErrInvalidClient),
		errors.Is(err, invoicedomain.ErrInvalidCycle),
		errors.Is(err, invoicedomain.ErrNoArticles),
		errors.Is(err, invoicedomain.ErrInvalidArticle),
		errors.Is(err, invoicedomain.ErrInvalidDiscount),
		errors.Is(err, receiptdomain.ErrInvalidInvoice),
		errors.Is(err, receiptdomain.ErrInvalidAmount),
		errors.Is(err, receiptdomain.ErrInvalidMethod),
		errors.Is(err, receiptdomain.ErrOverpayment),
		errors.Is(err, permissiondomain.ErrInvalidUser),
		errors.Is(err, permissiondomain.ErrUnknownPermission),
		errors.Is(err, accountingdomain.ErrInvalidSourceType),
		errors.Is(err, accountingdomain.ErrNotSubscribed):
		return true
	}
	return false
}
