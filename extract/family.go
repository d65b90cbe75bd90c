package extract

import (
	"path/filepath"
	"strings"
)

// Family groups file formats that share an extractor.
type Family string

const (
	FamilyText     Family = "text"
	FamilyTabular  Family = "tabular"
	FamilyDocument Family = "document"
	FamilyAudio    Family = "audio"
	FamilyImage    Family = "image"
)

const (
	mib = 1 << 20

	// MaxTextSize limits plain text files.
	MaxTextSize = 10 * mib
	// MaxFileSize limits files of every other family.
	MaxFileSize = 50 * mib
)

var families = map[string]Family{
	"txt": FamilyText, "md": FamilyText, "log": FamilyText,

	"csv": FamilyTabular, "tsv": FamilyTabular, "json": FamilyTabular,
	"yml": FamilyTabular, "yaml": FamilyTabular,
	"xlsx": FamilyTabular, "xls": FamilyTabular, "ods": FamilyTabular,

	"pdf": FamilyDocument, "docx": FamilyDocument, "pptx": FamilyDocument,
	"odt": FamilyDocument, "doc": FamilyDocument, "rtf": FamilyDocument,
	"html": FamilyDocument, "htm": FamilyDocument,

	"mp3": FamilyAudio, "wav": FamilyAudio, "ogg": FamilyAudio, "flac": FamilyAudio,
	"m4a": FamilyAudio, "aac": FamilyAudio, "wma": FamilyAudio, "opus": FamilyAudio,

	"png": FamilyImage, "jpg": FamilyImage, "jpeg": FamilyImage, "gif": FamilyImage,
	"webp": FamilyImage, "bmp": FamilyImage, "tiff": FamilyImage, "tif": FamilyImage,
}

// Extension returns the lowercased extension of name without the dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// FamilyOf returns the family of a file name by its extension.
func FamilyOf(name string) (Family, bool) {
	f, ok := families[Extension(name)]
	return f, ok
}

// MaxSize returns the size limit of a family in bytes.
func (f Family) MaxSize() int64 {
	if f == FamilyText {
		return MaxTextSize
	}
	return MaxFileSize
}

func (f Family) String() string {
	return string(f)
}
