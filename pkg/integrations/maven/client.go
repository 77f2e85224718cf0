package maven

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/scijava/javadoc-wrangler/pkg/buildinfo"
	"github.com/scijava/javadoc-wrangler/pkg/gav"
	"github.com/scijava/javadoc-wrangler/pkg/httputil"
	"github.com/scijava/javadoc-wrangler/pkg/integrations"
	"github.com/scijava/javadoc-wrangler/pkg/xmldoc"
)

// CentralURL is the Maven Central repository.
const CentralURL = "https://repo1.maven.org/maven2"

// Client provides access to a Maven repository.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a client for the repository at baseURL. An empty
// baseURL selects [CentralURL]. cache may be nil to disable caching.
func NewClient(baseURL string, cache *httputil.Cache) *Client {
	if baseURL == "" {
		baseURL = CentralURL
	}
	if cache != nil {
		cache = cache.Namespace("maven:")
	}
	return &Client{
		Client:  integrations.NewClient(cache, map[string]string{"User-Agent": buildinfo.UserAgent()}),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// BaseURL returns the repository root.
func (c *Client) BaseURL() string { return c.baseURL }

// LatestRelease returns the release version advertised by the artifact's
// maven-metadata.xml, falling back to the latest version when no release
// is recorded.
//
// Returns [integrations.ErrNotFound] if the metadata does not exist or
// names no version.
func (c *Client) LatestRelease(ctx context.Context, groupID, artifactID string, refresh bool) (string, error) {
	key := "release:" + groupID + ":" + artifactID

	var version string
	err := c.Cached(ctx, key, refresh, &version, func() error {
		url := fmt.Sprintf("%s/%s/%s/maven-metadata.xml", c.baseURL, groupPath(groupID), artifactID)
		data, err := c.GetBytes(ctx, url)
		if err != nil {
			return err
		}
		v, err := parseRelease(data)
		if err != nil {
			return fmt.Errorf("%s:%s: %w", groupID, artifactID, err)
		}
		version = v
		return nil
	})
	if err != nil {
		return "", err
	}
	return version, nil
}

func parseRelease(data []byte) (string, error) {
	doc, err := xmldoc.ParseString(string(data))
	if err != nil {
		return "", err
	}
	// versioning/latest may name a snapshot, so only the release counts.
	if v, ok, _ := doc.Value("versioning/release"); ok && v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: no release in maven-metadata.xml", integrations.ErrNotFound)
}

// FetchPOM retrieves and parses the POM of c.
func (c *Client) FetchPOM(ctx context.Context, coord gav.Coordinate) (*POM, error) {
	var raw string
	err := c.Cached(ctx, "pom:"+coord.String(), false, &raw, func() error {
		data, err := c.GetBytes(ctx, c.URL(gav.POM(coord)))
		if err != nil {
			return err
		}
		raw = string(data)
		return nil
	})
	if err != nil {
		return nil, err
	}

	doc, err := xmldoc.ParseString(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", coord, err)
	}
	return ParsePOM(doc), nil
}

// URL returns the download URL of a.
func (c *Client) URL(a gav.Artifact) string {
	return c.baseURL + "/" + a.RepositoryPath()
}

// DownloadTo downloads a into the file at dest. The file appears only once
// the download is complete; on failure nothing is left behind.
//
// Returns [integrations.ErrNotFound] if the repository does not have a.
func (c *Client) DownloadTo(ctx context.Context, a gav.Artifact, dest string) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	err = c.Download(ctx, c.URL(a), func() (io.Writer, error) {
		if _, err := tmp.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		return tmp, tmp.Truncate(0)
	})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: %s", err, a)
		}
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

func groupPath(groupID string) string {
	return strings.ReplaceAll(groupID, ".", "/")
}
