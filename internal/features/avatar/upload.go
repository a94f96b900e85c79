package avatar

import "bookclub/internal/platform/i18n"

// UploadError is the per-file status reported by the upload transport.
type UploadError int

const (
	UploadOK UploadError = iota
	UploadIniSize
	UploadFormSize
	UploadPartial
	UploadNoFile
	UploadNoTmpDir
	UploadCantWrite
	UploadExtension
)

var uploadErrorKeys = map[UploadError]string{
	UploadIniSize:   i18n.UploadErrIniSize,
	UploadFormSize:  i18n.UploadErrFormSize,
	UploadPartial:   i18n.UploadErrPartial,
	UploadNoFile:    i18n.UploadErrNoFile,
	UploadNoTmpDir:  i18n.UploadErrNoTmpDir,
	UploadCantWrite: i18n.UploadErrCantWrite,
	UploadExtension: i18n.UploadErrExtension,
}

func (e UploadError) messageKey() string {
	if key, ok := uploadErrorKeys[e]; ok {
		return key
	}
	return i18n.UploadErrUnknown
}

// File describes a received upload: a temporary path on disk, the reported
// size, and the transport status.
type File struct {
	TempPath string
	Size     int64
	Error    UploadError
}
