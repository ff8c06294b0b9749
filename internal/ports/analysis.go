package ports

import (
	"context"
	"io"
)

// Detection is one labelled object found in an image.
type Detection struct {
	Label      string
	Confidence float64
}

// Classifier detects waste materials in an uploaded image.
type Classifier interface {
	Classify(ctx context.Context, filename string, image io.Reader) ([]Detection, error)
}

// Advisor produces short disposal advice for a waste type.
type Advisor interface {
	Advise(ctx context.Context, wasteType string) (string, error)
}
