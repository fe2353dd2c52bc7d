package query

import (
	"strings"

	"github.com/adverant/nexus/flightquery-worker/internal/extract"
)

/**
 * Post-submission response classification.
 *
 * Every submission cycle is judged into exactly one outcome by inspecting
 * the page snapshot: server-side CAPTCHA rejection markers first (they
 * drive the re-solve loop), then result data, then authoritative no-data
 * markers, then everything else as transient. Classification lives with
 * the coordinator because it is what drives the retry decisions.
 */

// Outcome tags one submission cycle.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeCaptchaRejected
	OutcomeNoData
	OutcomeTransient
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeCaptchaRejected:
		return "captcha_rejected"
	case OutcomeNoData:
		return "no_data"
	default:
		return "transient"
	}
}

// Classification is an outcome plus the marker or reason that produced it.
type Classification struct {
	Outcome Outcome
	Reason  string
}

// Marker phrases the site renders for each failure mode.
var (
	captchaRejectedMarkers = []string{
		"验证码错误",
		"验证码不正确",
		"验证码输入错误",
		"captcha error",
	}
	noDataMarkers = []string{
		"没有找到相关信息",
		"暂无数据",
	}
	transientMarkers = []string{
		"系统繁忙",
		"查询失败",
	}
)

// ClassifyResponse inspects a post-submission page snapshot.
func ClassifyResponse(html string) Classification {
	lowered := strings.ToLower(html)

	for _, marker := range captchaRejectedMarkers {
		if strings.Contains(lowered, strings.ToLower(marker)) {
			return Classification{Outcome: OutcomeCaptchaRejected, Reason: marker}
		}
	}

	if n := extract.SegmentCountFromHTML(html); n > 0 {
		return Classification{Outcome: OutcomeSuccess, Reason: "result list populated"}
	}

	for _, marker := range noDataMarkers {
		if strings.Contains(lowered, strings.ToLower(marker)) {
			return Classification{Outcome: OutcomeNoData, Reason: marker}
		}
	}

	for _, marker := range transientMarkers {
		if strings.Contains(lowered, strings.ToLower(marker)) {
			return Classification{Outcome: OutcomeTransient, Reason: marker}
		}
	}

	return Classification{Outcome: OutcomeTransient, Reason: "no recognizable response state"}
}
