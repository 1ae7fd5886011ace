package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates the caller supplied data that fails validation
	// before any write is attempted.
	ErrInvalidInput = errors.New("invalid input")
)

// UserSafeMessage maps internal errors to a message safe for API consumers.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "Data tidak ditemukan"
	case errors.Is(err, ErrInvalidInput):
		return "Input tidak valid"
	default:
		return "Terjadi kesalahan, silakan coba lagi"
	}
}
