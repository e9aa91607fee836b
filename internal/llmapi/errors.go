package llmapi

import "errors"

var (
	ErrCodeRequired    = errors.New("Code content required")
	ErrFilesRequired   = errors.New("Files array required")
	ErrMessageRequired = errors.New("Message required")
)

func isValidation(err error) bool {
	return errors.Is(err, ErrCodeRequired) || errors.Is(err, ErrFilesRequired) || errors.Is(err, ErrMessageRequired)
}
