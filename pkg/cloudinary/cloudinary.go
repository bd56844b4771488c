// Package cloudinary implements the pipeline's blob store against the
// Cloudinary API. Blobs are addressed by their secure delivery URL; the
// public ID needed for deletion is recovered from the URL path.
package cloudinary

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Service stores, retrieves and deletes submission blobs.
type Service struct {
	client *cloudinary.Cloudinary
	http   *http.Client
	folder string
	logger zerolog.Logger
}

// New constructs a Cloudinary service instance.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Service{
		client: cld,
		http:   &http.Client{Timeout: 30 * time.Second},
		folder: cfg.Folder,
		logger: logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// Put uploads the blob and returns its secure URL as the reference.
func (s *Service) Put(ctx context.Context, name string, reader io.Reader) (string, error) {
	folder := strings.Trim(s.folder, "/")
	publicID := buildPublicID(name)

	params := uploader.UploadParams{
		Folder:       folder,
		PublicID:     publicID,
		ResourceType: "auto",
	}

	result, err := s.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload blob: %w", err)
	}

	s.logger.Info().Str("public_id", result.PublicID).Msg("blob stored")

	return result.SecureURL, nil
}

// Fetch downloads the blob behind the reference.
func (s *Service) Fetch(ctx context.Context, ref string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("build blob request: %w", err)
	}

	response, err := s.http.Do(request)
	if err != nil {
		return nil, fmt.Errorf("fetch blob: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch blob: unexpected status %d", response.StatusCode)
	}

	return io.ReadAll(response.Body)
}

// Delete removes the blob behind the reference.
func (s *Service) Delete(ctx context.Context, ref string) error {
	publicID, resourceType, err := parseRef(ref)
	if err != nil {
		return err
	}

	result, err := s.client.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	if err != nil {
		return fmt.Errorf("destroy blob: %w", err)
	}
	if result.Result != "ok" && result.Result != "not found" {
		return fmt.Errorf("destroy blob: %s", result.Result)
	}

	s.logger.Info().Str("public_id", publicID).Msg("blob deleted")

	return nil
}

var versionSegment = regexp.MustCompile(`^v\d+$`)

// parseRef recovers the public ID and resource type from a delivery URL of
// the form https://res.cloudinary.com/<cloud>/<type>/upload/v<n>/<id>.<ext>.
func parseRef(ref string) (string, string, error) {
	_, after, found := strings.Cut(ref, "/upload/")
	if !found {
		return "", "", fmt.Errorf("unrecognized blob reference: %s", ref)
	}

	segments := strings.Split(after, "/")
	if len(segments) > 0 && versionSegment.MatchString(segments[0]) {
		segments = segments[1:]
	}
	if len(segments) == 0 {
		return "", "", fmt.Errorf("unrecognized blob reference: %s", ref)
	}

	publicID := strings.Join(segments, "/")
	publicID = strings.TrimSuffix(publicID, filepath.Ext(publicID))

	resourceType := "image"
	before := strings.TrimSuffix(ref[:len(ref)-len(after)], "/upload/")
	if idx := strings.LastIndex(before, "/"); idx >= 0 {
		resourceType = before[idx+1:]
	}

	return publicID, resourceType, nil
}

func buildPublicID(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, base)

	base = strings.Trim(base, "-")
	if base == "" {
		base = "upload"
	}

	return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8])
}
