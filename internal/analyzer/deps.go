package analyzer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JakeFAU/site-audit/internal/audit"
	"github.com/JakeFAU/site-audit/internal/fetch"
)

// PageFetcher returns usable HTML for a URL, escalating to a browser when needed.
type PageFetcher interface {
	Fetch(ctx context.Context, url string, opts audit.Options) (fetch.Result, error)
}

// SitemapProber reports robots.txt and sitemap status for a site.
type SitemapProber interface {
	Probe(ctx context.Context, pageURL string) (audit.SitemapInfo, error)
}

// PerformanceAuditor runs the external performance audit.
type PerformanceAuditor interface {
	Audit(ctx context.Context, pageURL string) (audit.Performance, error)
}

// Clock abstracts time for analysis timestamps.
type Clock interface {
	Now() time.Time
}

// IDGenerator issues analysis identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

// Hasher fingerprints the fetched HTML.
type Hasher interface {
	Hash(data []byte) string
}

// SystemClock reports wall-clock time in UTC.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// UUIDGenerator issues time-ordered UUIDv7 identifiers.
type UUIDGenerator struct{}

// NewID implements IDGenerator.
func (UUIDGenerator) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate analysis id: %w", err)
	}
	return id.String(), nil
}

// SHA256Hasher returns the hex-encoded SHA-256 digest.
type SHA256Hasher struct{}

// Hash implements Hasher.
func (SHA256Hasher) Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
