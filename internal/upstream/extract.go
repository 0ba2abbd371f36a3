package upstream

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// apiResponse covers both response layouts the upstream is known to produce.
// Only the fields the extractor probes are declared; everything else in the
// body is ignored.
type apiResponse struct {
	Predictions    []prediction    `json:"predictions"`
	Candidates     []candidate     `json:"candidates"`
	PromptFeedback *promptFeedback `json:"promptFeedback,omitempty"`
}

type prediction struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type candidate struct {
	Content       candidateContent `json:"content"`
	FinishReason  string           `json:"finishReason"`
	SafetyRatings []SafetyRating   `json:"safetyRatings"`
}

type candidateContent struct {
	Parts []contentPart `json:"parts"`
}

type promptFeedback struct {
	BlockReason   string         `json:"blockReason,omitempty"`
	SafetyRatings []SafetyRating `json:"safetyRatings"`
}

// Extract locates the image payload inside a parsed upstream response.
// It probes the predictions-list layout first, then the multi-part candidates
// layout, and classifies the failure when neither yields image data:
// an empty candidates list on a content-shaped response is an input
// rejection, present safety ratings without inline data is a safety filter,
// anything else is an unrecognized shape.
func Extract(shape Shape, body json.RawMessage) (*Image, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ParseError{Cause: err}
	}

	if len(resp.Predictions) > 0 && resp.Predictions[0].BytesBase64Encoded != "" {
		return &Image{
			Base64:   resp.Predictions[0].BytesBase64Encoded,
			MimeType: resp.Predictions[0].MimeType,
		}, nil
	}

	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				return &Image{
					Base64:   part.InlineData.Data,
					MimeType: part.InlineData.MimeType,
				}, nil
			}
		}
	}

	if shape == ShapeContent && len(resp.Candidates) == 0 {
		rej := &InputRejectedError{}
		if resp.PromptFeedback != nil {
			rej.BlockReason = resp.PromptFeedback.BlockReason
		}
		return nil, rej
	}

	if len(resp.Candidates) > 0 {
		var ratings []SafetyRating
		for _, cand := range resp.Candidates {
			ratings = append(ratings, cand.SafetyRatings...)
		}
		if len(ratings) > 0 {
			return nil, &SafetyFilteredError{Ratings: ratings}
		}
	}

	log.Debug().RawJSON("body", body).Msg("unrecognized upstream response shape")
	return nil, &UnknownShapeError{Body: string(body)}
}
