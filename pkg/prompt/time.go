package prompt

import (
	"fmt"
	"time"

	"github.com/aretw0/courier/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// TimeInfo is the structured answer of the time service.
type TimeInfo struct {
	Timezone string `mapstructure:"timezone"`
	Datetime string `mapstructure:"datetime"`
	IsDST    *bool  `mapstructure:"is_dst"`
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// ParseTimeInfo decodes an object or the first element of a list.
func ParseTimeInfo(payload any) (TimeInfo, bool) {
	if list, ok := payload.([]any); ok {
		if len(list) == 0 {
			return TimeInfo{}, false
		}
		payload = list[0]
	}
	m, ok := payload.(map[string]any)
	if !ok {
		return TimeInfo{}, false
	}

	var info TimeInfo
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{WeaklyTypedInput: true, Result: &info})
	if err != nil {
		return TimeInfo{}, false
	}
	if err := dec.Decode(m); err != nil {
		return TimeInfo{}, false
	}
	return info, info.Datetime != "" || info.Timezone != ""
}

// Readable reformats an ISO-8601 datetime; unparsable values pass through.
func Readable(datetime string) string {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, datetime); err == nil {
			return t.Format("2006-01-02 15:04:05")
		}
	}
	return datetime
}

// Time describes the current time for the model. A failed lookup is
// answered directly.
func (c *Composer) Time(res domain.ToolResult, msg string) Plan {
	if res.Err != nil {
		return Plan{Direct: true, Prompt: "Failed to get time information: " + detail(res.Err)}
	}

	info, ok := ParseTimeInfo(res.Payload)
	if !ok {
		return Plan{Prompt: fmt.Sprintf(
			"Current time information: %s\n\n"+
				"Answer the user's question based on this information.\n\n"+
				"The user's question is: %s",
			PageContent(res.Payload), msg)}
	}

	dst := "unknown"
	if info.IsDST != nil {
		dst = "no"
		if *info.IsDST {
			dst = "yes"
		}
	}
	tz := info.Timezone
	if tz == "" {
		tz = "unknown"
	}

	return Plan{Prompt: fmt.Sprintf(
		"Current time information:\n"+
			"- Timezone: %s\n"+
			"- Date and time: %s\n"+
			"- Daylight saving time: %s\n\n"+
			"Answer the user's question based on this information.\n\n"+
			"The user's question is: %s",
		tz, Readable(info.Datetime), dst, msg)}
}
