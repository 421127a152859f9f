// internal/app/system/sheet/limits.go
package sheet

// Upload size and row limits for spreadsheet processing.
const (
	MaxUploadSize = 10 << 20 // 10 MB
	MaxRows       = 20000
)
