package receipt

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"
)

// Detection features, in the order they are tried.
const (
	FeatureDocumentText = "DOCUMENT_TEXT_DETECTION"
	FeatureText         = "TEXT_DETECTION"
)

// Engine runs text detection over an image.
type Engine interface {
	Detect(ctx context.Context, image []byte, feature string) (string, error)
}

// VisionEngine uses the Cloud Vision REST API.
type VisionEngine struct {
	svc *vision.Service
}

// NewVisionEngine creates an engine. Empty credentialsJSON uses application
// default credentials.
func NewVisionEngine(ctx context.Context, credentialsJSON string) (*VisionEngine, error) {
	var opts []option.ClientOption
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	return &VisionEngine{svc: svc}, nil
}

// Detect returns the full text Vision found, or "" when it found none.
func (e *VisionEngine) Detect(ctx context.Context, image []byte, feature string) (string, error) {
	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image:    &vision.Image{Content: base64.StdEncoding.EncodeToString(image)},
			Features: []*vision.Feature{{Type: feature}},
		}},
	}
	resp, err := e.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("vision %s failed: %w", feature, err)
	}
	if len(resp.Responses) == 0 {
		return "", nil
	}

	r := resp.Responses[0]
	if r.Error != nil {
		return "", fmt.Errorf("vision %s failed: %s", feature, r.Error.Message)
	}
	if r.FullTextAnnotation != nil && r.FullTextAnnotation.Text != "" {
		return r.FullTextAnnotation.Text, nil
	}
	if len(r.TextAnnotations) > 0 {
		return r.TextAnnotations[0].Description, nil
	}
	return "", nil
}
