package util

import (
	"net/url"
	"regexp"
	"strings"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

var videoURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com|youtube-nocookie\.com)/(?:embed|v|shorts|live)/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
}

// ExtractVideoID 从视频平台链接中提取 11 位视频 ID；裸 ID 原样返回
func ExtractVideoID(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if videoIDPattern.MatchString(raw) {
		return raw, true
	}

	if u, err := url.Parse(raw); err == nil && strings.Contains(u.Host, "youtube.") {
		if v := u.Query().Get("v"); videoIDPattern.MatchString(v) {
			return v, true
		}
	}
	for _, p := range videoURLPatterns {
		if m := p.FindStringSubmatch(raw); m != nil {
			return m[1], true
		}
	}
	return "", false
}
