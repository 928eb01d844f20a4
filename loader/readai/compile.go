package readai

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Read.AI start/end times look like "2026-01-06T15:04:05.123456",
// no zone designator; they are taken as UTC.
var sessionTimeLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

func parseSessionTime(value string) (time.Time, bool) {
	for _, layout := range sessionTimeLayouts {
		if parsed, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// formatTimeDelta renders a millisecond offset as h:mm:ss, or m:ss for
// offsets under an hour
func formatTimeDelta(milliseconds float64) string {
	total := int(milliseconds / 1000)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// formatDate renders a session start time like "06. January 2026"
func formatDate(startTime string) string {
	parsed, ok := parseSessionTime(startTime)
	if !ok {
		return startTime
	}
	return parsed.Format("02. January 2006")
}

// compileTranscript renders the meeting transcript with per-turn
// speaker names and offsets relative to the first spoken word
func compileTranscript(transcript gjson.Result) string {
	turns := transcript.Get("data.sessionTranscript.turns").Array()
	if len(turns) == 0 {
		return ""
	}

	base := turns[0].Get("words.0.startTime").Float()

	var sb strings.Builder
	for _, turn := range turns {
		offset := turn.Get("words.0.startTime").Float() - base
		speaker := turn.Get("speaker.name").String()

		sb.WriteString(formatTimeDelta(offset))
		sb.WriteString(" - ")
		sb.WriteString(speaker)
		sb.WriteString(":\n")

		words := turn.Get("words").Array()
		parts := make([]string, 0, len(words))
		for _, word := range words {
			parts = append(parts, word.Get("value").String())
		}
		sb.WriteString(strings.Join(parts, " "))
		sb.WriteString("\n\n")
	}

	return sb.String()
}

// compileSummary returns the meeting summary text, empty when Read.AI
// produced none
func compileSummary(transcript gjson.Result) string {
	return transcript.Get("data.sessionTranscript.summary.text").String()
}

// compileItems turns actionItems/keyQuestions entries into a bulleted
// list
func compileItems(transcript gjson.Result, field string) string {
	items := transcript.Get("data.sessionTranscript." + field).Array()

	var sb strings.Builder
	for _, item := range items {
		sb.WriteString("- ")
		sb.WriteString(item.Get("text").String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// compileMetadata builds the metadata base all four records of a
// session share
func compileMetadata(session gjson.Result) map[string]any {
	startTime := session.Get("start_time").String()

	var unixTime any
	if parsed, ok := parseSessionTime(startTime); ok {
		unixTime = parsed.Unix()
	}

	id := session.Get("id").String()
	return map[string]any{
		"source":           "meetings",
		"id":               id,
		"title":            session.Get("title").String(),
		"date":             formatDate(startTime),
		"unix_time":        unixTime,
		"meeting_platform": session.Get("meeting_platform").String(),
		"meeting_id":       session.Get("meeting_id").String(),
		"start_time":       startTime,
		"end_time":         session.Get("end_time").String(),
		"url":              "https://app.read.ai/analytics/meetings/" + id,
	}
}

// compileParticipants extracts the participant list from the post-call
// metrics document
func compileParticipants(postCall gjson.Result) []any {
	participants, _ := postCall.Get("participants").Value().([]any)
	return participants
}
