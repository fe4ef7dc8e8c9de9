// Package recognition defines the request/response contract exchanged with the
// remote celebrity recognition service.
package recognition

import "context"

// Request carries one fully buffered image.
type Request struct {
	Image []byte
}

// BoundingBox locates a face as ratios of the overall image size.
type BoundingBox struct {
	Left   float32
	Top    float32
	Width  float32
	Height float32
}

// CelebrityFace is one recognized celebrity as returned by the service.
type CelebrityFace struct {
	ID              string
	Name            string
	MatchConfidence float32
	FaceConfidence  float32
	KnownGender     string
	BoundingBox     BoundingBox
	URLs            []string
}

// Response holds the recognized faces in the order the service returned them.
type Response struct {
	CelebrityFaces    []CelebrityFace
	UnrecognizedFaces int
}

// Client exposes the subset of functionality used by the upload flow.
type Client interface {
	RecognizeCelebrities(ctx context.Context, req Request) (*Response, error)
}
