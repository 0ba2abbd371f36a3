package imageutil

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// StripDataURI removes a data-URI prefix ("data:image/png;base64,") from an
// encoded payload. Browsers hand over FileReader results with the prefix
// attached; the upstream API wants bare base64. Base64 itself never contains
// a comma, so everything up to and including the first comma is the prefix.
func StripDataURI(data string) string {
	if i := strings.Index(data, ","); i >= 0 {
		return data[i+1:]
	}
	return data
}

// Verify decodes the payload and detects its real media type using magic
// bytes, not the declared mimeType. It returns the detected type, or an
// error when the data is not decodable base64, is not an image, or
// contradicts a declared image type.
func Verify(declared, data string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("logo data is not valid base64: %w", err)
	}

	mtype := mimetype.Detect(raw)
	detected := mtype.String()
	log.Debug().Str("declared", declared).Str("detected", detected).Int("bytes", len(raw)).Msg("sniffed logo payload")

	// mimetype appends parameters for some text types; compare the bare type.
	if i := strings.Index(detected, ";"); i >= 0 {
		detected = detected[:i]
	}
	if !strings.HasPrefix(detected, "image/") {
		return "", fmt.Errorf("logo data is %s, not an image", detected)
	}
	if declared != "" && strings.HasPrefix(declared, "image/") && declared != detected {
		return "", fmt.Errorf("declared logo type %s does not match detected type %s", declared, detected)
	}
	return detected, nil
}
