package models

// Blob is an exported file ready to be streamed as a download.
type Blob struct {
	Data        []byte
	ContentType string
	Filename    string
}
