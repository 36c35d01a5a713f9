package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hvidsten/skylight/internal/domain"
)

var noticeBlockRx = regexp.MustCompile(`(?s)<article[^>]*class="[^"]*notice[^"]*"[^>]*>(.*?)</article>`)
var anchorRx = regexp.MustCompile(`(?s)<a[^>]*href="([^"]+)"[^>]*>(.*?)</a>`)
var datetimeRx = regexp.MustCompile(`<time[^>]*datetime="([^"]+)"`)
var noticeTypeRx = regexp.MustCompile(`(?s)class="[^"]*notice-type[^"]*"[^>]*>([^<]*)<`)
var summaryRx = regexp.MustCompile(`(?s)<p[^>]*>(.*?)</p>`)

func normalizeNotices(payload []byte, params map[string]string) ([]domain.PublicNotice, error) {
	limit := 0
	if raw, ok := params["limit"]; ok && raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("invalid limit %q", raw)
		}
		limit = parsed
	}

	blocks := noticeBlockRx.FindAllSubmatch(payload, -1)
	if len(blocks) == 0 {
		return nil, fmt.Errorf("no notice entries found")
	}

	notices := make([]domain.PublicNotice, 0, len(blocks))
	for _, block := range blocks {
		notice, err := noticeFromBlock(block[1])
		if err != nil {
			return nil, err
		}
		notices = append(notices, notice)
	}

	if limit != 0 && len(notices) > limit {
		notices = notices[:limit]
	}
	return notices, nil
}

func noticeFromBlock(block []byte) (domain.PublicNotice, error) {
	anchors := anchorRx.FindAllSubmatch(block, -1)
	if len(anchors) == 0 {
		return domain.PublicNotice{}, fmt.Errorf("notice without a link")
	}

	title := stripTags(string(anchors[0][2]))
	if title == "" {
		return domain.PublicNotice{}, fmt.Errorf("notice without a title")
	}

	notice := domain.PublicNotice{
		Title:      title,
		ContentURL: absoluteURL(string(anchors[0][1])),
		NoticeType: "announcement",
	}

	if match := datetimeRx.FindSubmatch(block); match != nil {
		if parsed, err := time.Parse("2006-01-02", string(match[1])); err == nil {
			notice.DatePublished = &parsed
		}
	}

	if match := noticeTypeRx.FindSubmatch(block); match != nil {
		if noticeType := strings.TrimSpace(string(match[1])); noticeType != "" {
			notice.NoticeType = strings.ToLower(noticeType)
		}
	}

	if match := summaryRx.FindSubmatch(block); match != nil {
		notice.Summary = stripTags(string(match[1]))
	}

	// Remaining links to documents (pdf attachments etc)
	for _, anchor := range anchors[1:] {
		href := string(anchor[1])
		if strings.HasSuffix(strings.ToLower(href), ".pdf") {
			notice.Documents = append(notice.Documents, absoluteURL(href))
		}
	}

	return notice, nil
}

func absoluteURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return "https://www.smcgov.org" + href
}
