package student

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when an operation is not legal for the current status.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrRecordNotFound is returned when the target student or sub-record does not exist.
	ErrRecordNotFound = errors.New("record not found")
	// ErrValidation is returned for missing or malformed input.
	ErrValidation = errors.New("validation error")
	// ErrDuplicateQRCode is returned when a generated token collides with an existing one.
	ErrDuplicateQRCode = errors.New("duplicate qr code")
	// ErrExternalService wraps store and photo sink failures.
	ErrExternalService = errors.New("external service error")
)

func invalidTransition(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidTransition}, args...)...)
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrRecordNotFound}, args...)...)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

// External marks err as an external service failure unless it already
// carries one of the package's sentinel errors.
func External(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrInvalidTransition, ErrRecordNotFound, ErrValidation, ErrDuplicateQRCode, ErrExternalService} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ErrExternalService, err)
}

// Message returns the human-readable Vietnamese message shown to kiosk staff.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidTransition):
		return "Thao tác không hợp lệ với trạng thái hiện tại"
	case errors.Is(err, ErrRecordNotFound):
		return "Không tìm thấy dữ liệu"
	case errors.Is(err, ErrDuplicateQRCode):
		return "Mã QR bị trùng, vui lòng thử lại"
	case errors.Is(err, ErrValidation):
		return "Dữ liệu không hợp lệ"
	case errors.Is(err, ErrExternalService):
		return "Lỗi kết nối dịch vụ, vui lòng thử lại"
	}
	return "Lỗi không xác định"
}
