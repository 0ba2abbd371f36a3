package upstream

// Request is a single generation request after handler-side validation.
type Request struct {
	Prompt string
	// Optional reference image, base64 without any data-URI prefix.
	ImageBase64 string
	ImageMIME   string
}

// Image is a successfully extracted upstream image.
type Image struct {
	// Base64 holds the encoded image bytes exactly as the upstream sent them.
	Base64   string
	MimeType string
}

// DataURI renders the image as a browser-usable data URI.
func (i Image) DataURI() string {
	mime := i.MimeType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + i.Base64
}
