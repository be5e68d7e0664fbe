package categorizer

import "context"

// Input holds the link fields a categorizer may inspect. Title and
// Description are optional; they are usually absent until the preview
// fetcher has run.
type Input struct {
	URL         string
	Title       string
	Description string
}

// CategoryMatch is a classification outcome. Confidence is always
// within [0,1]. Reasons are human-readable signal descriptions in the
// order the signals were found.
type CategoryMatch struct {
	Category   string   `json:"category"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

// LinkCategorizer assigns a catalog category to a link. A (nil, nil)
// return means the categorizer abstained: no category fits. Errors are
// reserved for transport or parsing failures in implementations that
// call out to external services.
type LinkCategorizer interface {
	Categorize(ctx context.Context, in Input) (*CategoryMatch, error)
	Name() string
}
