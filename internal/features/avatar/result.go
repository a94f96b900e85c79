package avatar

// Kind classifies a failed avatar operation.
type Kind int

const (
	KindNone Kind = iota
	KindUploadTransport
	KindUnsupportedMIME
	KindFileTooLarge
	KindDirectoryCreate
	KindUnsupportedImage
	KindProcessingFailed
	KindMissingSource
)

var kindNames = map[Kind]string{
	KindNone:             "",
	KindUploadTransport:  "upload_transport_error",
	KindUnsupportedMIME:  "unsupported_mime_type",
	KindFileTooLarge:     "file_too_large",
	KindDirectoryCreate:  "directory_create_failed",
	KindUnsupportedImage: "unsupported_image_type",
	KindProcessingFailed: "image_processing_failed",
	KindMissingSource:    "missing_source_file",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes the kind by name in JSON responses.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Result is returned by every Manager operation that produces a file.
// Filepath is an internal location and is never serialized.
type Result struct {
	Success   bool   `json:"success"`
	Filename  string `json:"filename,omitempty"`
	Filepath  string `json:"-"`
	PublicURL string `json:"url,omitempty"`
	Kind      Kind   `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
}

func failed(kind Kind, message string) Result {
	return Result{Kind: kind, Message: message}
}
