// Package resolver turns submitted chat text into playable videos.
package resolver

import (
	"context"
	"regexp"
	"strings"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19tube/internal/domain/video"
	"github.com/osa030/19tube/internal/infra/ytdlp"
)

// ReasonNotPlayable is the rejection reason for links that could not be resolved.
const ReasonNotPlayable = "not_playable"

var (
	// linkPattern finds link-looking tokens in free text.
	linkPattern = regexp.MustCompile(`(?i)(?:https?://|www\.|youtu\.be/|(?:m\.|music\.)?youtube\.com/)[^\s<>"]+`)
	// youtubeHost matches links pointing at YouTube.
	youtubeHost = regexp.MustCompile(`(?i)^(?:https?://)?(?:[a-z0-9-]+\.)*(?:youtube\.com|youtu\.be|youtube-nocookie\.com)(?:[/?#]|$)`)
	// youtubeID extracts the video ID from the supported YouTube URL shapes.
	youtubeID = regexp.MustCompile(`(?:\.be/|/watch\?(?:[^#\s]*&)?v=|/shorts/|/live/|/embed/)([\w-]{11})`)
)

// Prober fetches metadata for a link.
type Prober interface {
	Probe(ctx context.Context, url string) (*ytdlp.Info, error)
}

// Rejection describes a link that looked like a video but could not be resolved.
type Rejection struct {
	Link   string
	Reason string
	Err    error
}

// Result is the outcome of resolving one message.
type Result struct {
	Videos     []video.Video
	Rejections []Rejection
}

// Empty reports whether the text contained nothing to act on.
func (r Result) Empty() bool {
	return len(r.Videos) == 0 && len(r.Rejections) == 0
}

// Resolver extracts and validates video links.
type Resolver struct {
	prober Prober
}

// New creates a new resolver. prober may be nil, in which case only YouTube
// links are accepted and no metadata is fetched.
func New(prober Prober) *Resolver {
	return &Resolver{prober: prober}
}

// Resolve extracts every playable video from text, in order of appearance.
func (r *Resolver) Resolve(ctx context.Context, text string) Result {
	var result Result
	seen := make(map[string]bool)

	for _, link := range ExtractLinks(text) {
		v, ok := r.classify(link)
		if !ok {
			if r.prober == nil {
				// Not a video reference we can handle without probing
				continue
			}
			v = video.Video{ID: link, Handle: withScheme(link), Source: video.SourceGeneric}
		}

		if seen[v.Handle] {
			continue
		}
		seen[v.Handle] = true

		if r.prober != nil {
			probed, err := r.probe(ctx, v)
			if err != nil {
				zlog.Info().Msgf("resolver: rejecting %s: %v", link, err)
				result.Rejections = append(result.Rejections, Rejection{Link: link, Reason: ReasonNotPlayable, Err: err})
				continue
			}
			v = probed
		}

		result.Videos = append(result.Videos, v)
	}

	return result
}

// classify recognizes YouTube links and canonicalizes them.
func (r *Resolver) classify(link string) (video.Video, bool) {
	if !youtubeHost.MatchString(link) {
		return video.Video{}, false
	}
	m := youtubeID.FindStringSubmatch(link)
	if m == nil {
		return video.Video{}, false
	}
	return video.Video{
		ID:     m[1],
		Handle: YouTubeURL(m[1]),
		Source: video.SourceYouTube,
	}, true
}

func (r *Resolver) probe(ctx context.Context, v video.Video) (video.Video, error) {
	info, err := r.prober.Probe(ctx, v.Handle)
	if err != nil {
		return video.Video{}, err
	}

	v.Title = info.Title
	v.Duration = info.Duration
	if v.Source == video.SourceGeneric {
		if info.WebpageURL != "" {
			v.Handle = info.WebpageURL
		}
		if info.ID != "" {
			v.ID = info.ID
		}
	}
	return v, nil
}

// ExtractLinks returns the link-looking tokens of text with trailing punctuation removed.
func ExtractLinks(text string) []string {
	raw := linkPattern.FindAllString(text, -1)
	links := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimRight(l, ".,;:!?)]}'")
		if l != "" {
			links = append(links, l)
		}
	}
	return links
}

// YouTubeURL returns the canonical watch URL for a video ID.
func YouTubeURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

func withScheme(link string) string {
	lower := strings.ToLower(link)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return link
	}
	return "https://" + link
}
