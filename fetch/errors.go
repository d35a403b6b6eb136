package fetch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"syscall"
	"time"
)

// ErrInvalidArgument is returned by RunBatch when the batch cannot be
// dispatched at all. Per-target failures never produce an error.
var ErrInvalidArgument = errors.New("invalid argument")

// Failure categories recorded as the prefix of Outcome.Error.
const (
	CategoryInvalidURL         = "InvalidURL"
	CategoryDNS                = "DNSError"
	CategoryConnectionRefused  = "ConnectionRefused"
	CategoryConnectionReset    = "ConnectionReset"
	CategoryServerDisconnected = "ServerDisconnected"
	CategoryTLS                = "TLSError"
	CategoryCanceled           = "Canceled"
	CategoryPanic              = "Panic"
	CategoryRequest            = "RequestError"
)

// TimeoutMessage is the fixed error text of a request that exceeded timeout.
func TimeoutMessage(timeout time.Duration) string {
	return fmt.Sprintf("Request timed out after %s seconds", strconv.FormatFloat(timeout.Seconds(), 'f', -1, 64))
}

// isTimeout reports whether err stems from a deadline rather than a transport fault.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Categorize maps a transport error onto one of the Category constants.
func Categorize(err error) string {
	var (
		invalidURL *InvalidURLError
		dnsErr     *net.DNSError
		certErr    *tls.CertificateVerificationError
		recordErr  tls.RecordHeaderError
		authErr    x509.UnknownAuthorityError
		hostErr    x509.HostnameError
		panicErr   *panicError
	)

	switch {
	case errors.As(err, &panicErr):
		return CategoryPanic
	case errors.As(err, &invalidURL):
		return CategoryInvalidURL
	case errors.Is(err, context.Canceled):
		return CategoryCanceled
	case errors.As(err, &dnsErr):
		return CategoryDNS
	case errors.Is(err, syscall.ECONNREFUSED):
		return CategoryConnectionRefused
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
		return CategoryConnectionReset
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return CategoryServerDisconnected
	case errors.As(err, &certErr), errors.As(err, &recordErr), errors.As(err, &authErr), errors.As(err, &hostErr):
		return CategoryTLS
	default:
		return CategoryRequest
	}
}

// describeFailure renders the Outcome.Error text for err. A parent context
// that ended first is reported as Canceled with its own cause, so only the
// per-target deadline produces TimeoutMessage.
func describeFailure(parent context.Context, err error, timeout time.Duration) string {
	if cause := parent.Err(); cause != nil {
		return fmt.Sprintf("%s: %s", CategoryCanceled, cause.Error())
	}
	if isTimeout(err) {
		return TimeoutMessage(timeout)
	}

	return fmt.Sprintf("%s: %s", Categorize(err), err.Error())
}

// panicError converts a recovered panic value into an error.
type panicError struct{ val any }

func (p *panicError) Error() string { return fmt.Sprintf("%v", p.val) }
