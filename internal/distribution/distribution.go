// Package distribution names and addresses finished workbooks in the shared
// document library.
package distribution

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"
)

const renderTimeLayout = "20060102_150405"

// Settings describes where published documents live.
type Settings struct {
	BaseURL       string
	Library       string
	UseOrgFolders bool
}

// Uploader stores published bytes under a key relative to the library root.
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) error
}

// Publisher builds document locations and, when an uploader is set, stores
// the bytes there too.
type Publisher struct {
	settings Settings
	uploader Uploader
}

// NewPublisher creates a Publisher. uploader may be nil, in which case
// Publish only computes the location.
func NewPublisher(settings Settings, uploader Uploader) *Publisher {
	return &Publisher{settings: settings, uploader: uploader}
}

// Location is where a published document is addressed.
type Location struct {
	URI string `json:"uri"`
	// Key is the path below the base URL, unescaped.
	Key      string `json:"key"`
	Filename string `json:"filename"`
	Uploaded bool   `json:"uploaded"`
}

// Locate computes the address of a document without touching any store.
func (p *Publisher) Locate(templateName, orgName string) Location {
	filename := PublishFilename(templateName, orgName)

	segments := splitPath(p.settings.Library)
	if p.settings.UseOrgFolders {
		segments = append(segments, SanitizeName(orgName))
	}
	segments = append(segments, filename)

	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}

	uri := strings.Join(escaped, "/")
	if base := strings.TrimRight(p.settings.BaseURL, "/"); base != "" {
		uri = base + "/" + uri
	}
	return Location{
		URI:      uri,
		Key:      strings.Join(segments, "/"),
		Filename: filename,
	}
}

// Publish addresses the document and hands the bytes to the uploader if one
// is configured.
func (p *Publisher) Publish(ctx context.Context, body []byte, templateName, orgName, contentType string) (Location, error) {
	loc := p.Locate(templateName, orgName)
	if p.uploader == nil {
		return loc, nil
	}
	if err := p.uploader.Upload(ctx, loc.Key, body, contentType); err != nil {
		return Location{}, fmt.Errorf("failed to upload %s: %w", loc.Key, err)
	}
	loc.Uploaded = true
	return loc, nil
}

// PublishFilename is the stable name of a template's document for one
// organization; republishing overwrites it.
func PublishFilename(templateName, orgName string) string {
	return fmt.Sprintf("%s_%s.xlsx", SanitizeName(templateName), SanitizeName(orgName))
}

// RenderFilename is the download name of a rendered submission.
func RenderFilename(templateName, orgName string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s.xlsx", SanitizeName(templateName), SanitizeName(orgName), at.Format(renderTimeLayout))
}

// SanitizeName makes s safe as a single path segment: whitespace runs become
// underscores and path separators or reserved characters are dropped.
func SanitizeName(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsSpace(r):
			if !space {
				b.WriteRune('_')
			}
			space = true
			continue
		case strings.ContainsRune(`/\:*?"<>|`, r), unicode.IsControl(r):
			space = false
			continue
		}
		space = false
		b.WriteRune(r)
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "report"
	}
	return out
}

func splitPath(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
