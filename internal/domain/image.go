package domain

// ImageSource tells where the active selfie came from.
type ImageSource string

const (
	SourceNone    ImageSource = "none"
	SourceFile    ImageSource = "file"
	SourceCapture ImageSource = "capture"
)

// Image is a binary image payload ready for upload or download.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CapturedImage is the active selfie plus the locally valid preview
// reference it is shown under.
type CapturedImage struct {
	Image
	Source    ImageSource
	PreviewID string
}
