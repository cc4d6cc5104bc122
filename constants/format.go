package constants

import "strings"

// FileFormat is the canonical tag for a supported document format.
type FileFormat string

const (
	FormatPDF  FileFormat = "pdf"
	FormatXLSX FileFormat = "xlsx"
	FormatCSV  FileFormat = "csv"
	FormatPNG  FileFormat = "png"
	FormatJPG  FileFormat = "jpg"
	FormatTXT  FileFormat = "txt"
)

var allFormats = []FileFormat{
	FormatPDF,
	FormatXLSX,
	FormatCSV,
	FormatPNG,
	FormatJPG,
	FormatTXT,
}

// SupportedFormats returns the recognized format tags as strings.
func SupportedFormats() []string {
	result := make([]string, len(allFormats))
	for i, f := range allFormats {
		result[i] = string(f)
	}
	return result
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat resolves a file extension to a FileFormat.
// Returns "" when the extension is not recognized.
func MapExtToFormat(ext string) FileFormat {
	switch NormalizeExt(ext) {
	case "pdf":
		return FormatPDF
	case "xlsx", "xlsm":
		return FormatXLSX
	case "csv":
		return FormatCSV
	case "png":
		return FormatPNG
	case "jpg", "jpeg":
		return FormatJPG
	case "txt", "text":
		return FormatTXT
	default:
		return ""
	}
}

// IsImage reports whether the format is a raster image.
func (f FileFormat) IsImage() bool {
	return f == FormatPNG || f == FormatJPG
}

// IsTabular reports whether the format is row/column structured.
func (f FileFormat) IsTabular() bool {
	return f == FormatCSV || f == FormatXLSX
}
