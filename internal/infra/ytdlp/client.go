// Package ytdlp probes video links with yt-dlp.
package ytdlp

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	goytdlp "github.com/lrstanley/go-ytdlp"
	zlog "github.com/rs/zerolog/log"
)

// ErrNoInfo is returned when yt-dlp produced no usable metadata.
var ErrNoInfo = errors.New("yt-dlp returned no info")

// Info is the subset of yt-dlp metadata used for queueing.
type Info struct {
	ID         string
	Title      string
	WebpageURL string
	Duration   time.Duration
	IsLive     bool
}

// Config holds client configuration.
type Config struct {
	AutoInstall bool          // Download yt-dlp on first use when missing
	Timeout     time.Duration // Per-probe timeout (0 means none)
}

// Client runs yt-dlp in metadata-only mode.
type Client struct {
	config      Config
	installOnce sync.Once
}

// New creates a new yt-dlp client.
func New(config Config) *Client {
	return &Client{config: config}
}

// Probe resolves metadata for a link. Playlists resolve to their first entry.
func (c *Client) Probe(ctx context.Context, url string) (*Info, error) {
	if c.config.AutoInstall {
		c.installOnce.Do(func() {
			if _, err := goytdlp.Install(ctx, nil); err != nil {
				// cmd.Run surfaces availability issues later
				zlog.Warn().Err(err).Msg("ytdlp: install failed")
			}
		})
	}

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	cmd := goytdlp.New().
		Format("bestvideo*+bestaudio/best").
		NoCheckCertificates().
		DumpJSON()

	res, err := cmd.Run(ctx, url)
	if err != nil {
		return nil, errors.Wrap(err, "yt-dlp run")
	}

	infos, err := res.GetExtractedInfo()
	if err != nil {
		return nil, errors.Wrap(err, "parse yt-dlp json")
	}
	if len(infos) == 0 {
		return nil, ErrNoInfo
	}

	info := fromExtracted(infos[0])
	if info == nil {
		return nil, ErrNoInfo
	}
	return info, nil
}

// fromExtracted maps yt-dlp output, descending into the first entry of a playlist.
func fromExtracted(ext *goytdlp.ExtractedInfo) *Info {
	if ext == nil {
		return nil
	}
	for len(ext.Entries) > 0 {
		var first *goytdlp.ExtractedInfo
		for _, e := range ext.Entries {
			if e != nil {
				first = e
				break
			}
		}
		if first == nil {
			return nil
		}
		ext = first
	}

	return &Info{
		ID:         ext.ID,
		Title:      str(ext.Title),
		WebpageURL: str(ext.WebpageURL),
		Duration:   time.Duration(num(ext.Duration) * float64(time.Second)),
		IsLive:     flag(ext.IsLive),
	}
}

func str(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func num(ptr *float64) float64 {
	if ptr == nil {
		return 0
	}
	return *ptr
}

func flag(ptr *bool) bool {
	if ptr == nil {
		return false
	}
	return *ptr
}
