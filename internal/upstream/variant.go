package upstream

import "fmt"

// Shape identifies which response layout a variant's endpoint produces.
type Shape string

const (
	// ShapePrediction is the predictions-list layout of :predict endpoints.
	ShapePrediction Shape = "prediction"
	// ShapeContent is the multi-part candidates layout of :generateContent.
	ShapeContent Shape = "content"
)

// Variant describes one upstream model endpoint: where to send the request,
// how to shape the payload, and how the handler should encode a success.
// The two variants exist so a single handler can serve both the prediction
// endpoint and the content-generation endpoint without duplicated logic.
type Variant struct {
	Name  string
	Model string
	Shape Shape
	// WrapDataURI selects the success response field: a data-URI imageUrl
	// when true, a raw base64Data field otherwise.
	WrapDataURI bool
}

// URL builds the endpoint URL for this variant's model under base.
func (v Variant) URL(base string) string {
	action := "predict"
	if v.Shape == ShapeContent {
		action = "generateContent"
	}
	return fmt.Sprintf("%s/models/%s:%s", base, v.Model, action)
}

// BuildPayload shapes the outbound request body for this variant.
// The prediction endpoint accepts a prompt only; a reference image on the
// request is ignored there, matching the endpoint's contract.
func (v Variant) BuildPayload(req Request) any {
	if v.Shape == ShapePrediction {
		return predictPayload{
			Instances:  []predictInstance{{Prompt: req.Prompt}},
			Parameters: predictParameters{SampleCount: 1},
		}
	}

	parts := []contentPart{{Text: req.Prompt}}
	if req.ImageBase64 != "" {
		parts = append(parts, contentPart{
			InlineData: &inlineData{
				MimeType: req.ImageMIME,
				Data:     req.ImageBase64,
			},
		})
	}
	return contentPayload{
		Contents: []content{{Parts: parts}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	}
}

type predictPayload struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

type predictInstance struct {
	Prompt string `json:"prompt"`
}

type predictParameters struct {
	SampleCount int `json:"sampleCount"`
}

type contentPayload struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []contentPart `json:"parts"`
}

type contentPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities"`
}
