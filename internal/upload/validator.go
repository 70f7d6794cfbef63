package upload

import (
	"fmt"
	"path/filepath"

	"homestead/server/internal/apperrors"
)

// MaxFileSize is the per-file upload cap.
const MaxFileSize = 5 * 1024 * 1024

// allowedExtensions is matched case-sensitively against the declared
// filename; no content sniffing is performed.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ValidateFile accepts a file iff its declared extension is one of the
// allowed image extensions and its size is within the cap. The check
// is pure and scoped to a single file.
func ValidateFile(filename string, size int64) error {
	if !allowedExtensions[filepath.Ext(filename)] {
		return apperrors.Validation(fmt.Sprintf("%s: Only image files are allowed!", filename))
	}
	if size > MaxFileSize {
		return apperrors.Validation(fmt.Sprintf("%s: File too large", filename))
	}
	return nil
}
