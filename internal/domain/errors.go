package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEstimateUnavailable: the income-estimate integration is an opaque,
	// low-reliability external capability and may simply not be there.
	ErrEstimateUnavailable = errors.New("income estimate unavailable")
)

// VendorErrorKind classifies a failed vendor call.
type VendorErrorKind string

const (
	VendorAuth        VendorErrorKind = "auth"        // credential exchange failed or 401
	VendorNotFound    VendorErrorKind = "not_found"   // 404
	VendorRateLimit   VendorErrorKind = "rate_limit"  // 429
	VendorUnavailable VendorErrorKind = "unavailable" // 5xx
	VendorTimeout     VendorErrorKind = "timeout"     // request exceeded the hard deadline
	VendorNetwork     VendorErrorKind = "network"     // connection could not be established
	VendorNoResponse  VendorErrorKind = "no_response" // request sent, nothing came back
	VendorProtocol    VendorErrorKind = "protocol"    // any other non-2xx
)

// VendorError is produced once per failed vendor attempt and never persisted.
type VendorError struct {
	Kind          VendorErrorKind
	Status        int    // HTTP status, 0 for transport failures
	VendorMessage string // message body from the vendor, if any
	Message       string // mapped, client-safe message
}

func (e *VendorError) Error() string { return e.Message }

// IsVendorKind reports whether err is a VendorError of the given kind.
func IsVendorKind(err error, kind VendorErrorKind) bool {
	var ve *VendorError
	return errors.As(err, &ve) && ve.Kind == kind
}

// AsVendorError unwraps err into a *VendorError, or nil.
func AsVendorError(err error) *VendorError {
	var ve *VendorError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}

// NewVendorError builds a classified vendor error with a formatted message.
func NewVendorError(kind VendorErrorKind, status int, vendorMsg, format string, args ...any) *VendorError {
	return &VendorError{
		Kind:          kind,
		Status:        status,
		VendorMessage: vendorMsg,
		Message:       fmt.Sprintf(format, args...),
	}
}
