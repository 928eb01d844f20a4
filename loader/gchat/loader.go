// Package gchat loads Google Chat history from a Google Takeout
// export. The Chat API cannot return full history, so the export
// downloaded from takeout.google.com is the source of truth: unpack the
// "Google Chat" folder and point the loader at the Groups directory and
// the user_info.json file. No Google credentials are needed.
//
// Each space or DM channel is walked with a sliding window of 21
// consecutive messages, adjacent windows overlapping by 2 messages, so
// one record roughly fits an embedding window without further chunking.
// The window's first message provides the record id and URL (the link
// opens at the top of the block), the middle message provides the
// timestamp. Attachments and media are not processed.
package gchat

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/acsdev/ragloader/internal/pkg/logger"
	"github.com/acsdev/ragloader/loader"
)

const loaderName = "gchat"

// Takeout timestamps look like "Tuesday, January 6, 2026 at 3:04:05 PM UTC".
// The zone abbreviation is stripped before parsing and the value is
// taken as UTC, matching what Takeout emits.
const takeoutDateLayout = "Monday, January 2, 2006 at 3:04:05 PM"

const (
	windowSize = 21 // messages per record
	windowStep = 19 // adjacent windows overlap by 2 messages
)

// Config describes one unpacked Takeout export
type Config struct {
	// GroupDir is the path to the export's "Groups" directory. Every
	// subdirectory with a messages.json is processed: names containing
	// "dm" as DM channels, names containing "space" as spaces, others
	// are ignored.
	GroupDir string `mapstructure:"group_dir"`

	// UserInfoPath is the path to the export's user_info.json, used to
	// resolve space names from group ids.
	UserInfoPath string `mapstructure:"user_info_path"`
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.GroupDir == "" {
		return loader.NewSourceError(loaderName, "", loader.ErrInvalidConfig)
	}
	if c.UserInfoPath == "" {
		return loader.NewSourceError(loaderName, "", loader.ErrInvalidConfig)
	}
	return nil
}

// Loader loads Google Chat Takeout exports. A channel directory whose
// messages.json is unreadable or malformed is skipped with a warning;
// a missing GroupDir or user_info.json aborts the load.
type Loader struct {
	cfg Config
	log *logger.Logger
}

// New creates a Takeout chat loader
func New(cfg Config, log *logger.Logger) (*Loader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Loader{cfg: cfg, log: log.Named(loaderName)}, nil
}

// Name returns the source type identifier
func (l *Loader) Name() string {
	return loaderName
}

// Load walks the Groups directory and returns one record per message
// window across all spaces and DM channels, in directory walk order.
func (l *Loader) Load(ctx context.Context) ([]loader.Record, error) {
	if _, err := os.Stat(l.cfg.GroupDir); err != nil {
		if os.IsNotExist(err) {
			return nil, loader.NewSourceError(loaderName, l.cfg.GroupDir, loader.ErrSourceNotFound)
		}
		return nil, loader.NewSourceError(loaderName, l.cfg.GroupDir, err)
	}

	memberships, err := l.readUserInfo()
	if err != nil {
		return nil, err
	}

	records := make([]loader.Record, 0)
	channels := 0

	walkErr := filepath.WalkDir(l.cfg.GroupDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !d.IsDir() || path == l.cfg.GroupDir {
			return nil
		}

		messagesPath := filepath.Join(path, "messages.json")
		if _, statErr := os.Stat(messagesPath); statErr != nil {
			return nil
		}

		dirName := strings.ToLower(d.Name())
		var (
			channelRecords []loader.Record
			loadErr        error
		)
		switch {
		case strings.Contains(dirName, "dm"):
			channelRecords, loadErr = l.processDMs(messagesPath)
		case strings.Contains(dirName, "space"):
			channelRecords, loadErr = l.processSpace(messagesPath, memberships)
		default:
			return nil
		}

		if loadErr != nil {
			// Malformed channel export, skip it and keep going
			l.log.Warn("skipping chat channel",
				zap.String("path", messagesPath),
				zap.Error(loadErr))
			return nil
		}

		records = append(records, channelRecords...)
		channels++
		return nil
	})
	if walkErr != nil {
		if ctx.Err() != nil {
			return nil, walkErr
		}
		return nil, loader.NewSourceError(loaderName, l.cfg.GroupDir, walkErr)
	}

	l.log.Info("chat export processed",
		zap.Int("channels", channels),
		zap.Int("records", len(records)))

	return records, nil
}

// readUserInfo parses user_info.json once per load
func (l *Loader) readUserInfo() ([]membershipInfo, error) {
	data, err := os.ReadFile(l.cfg.UserInfoPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, loader.NewSourceError(loaderName, l.cfg.UserInfoPath, loader.ErrSourceNotFound)
		}
		return nil, loader.NewSourceError(loaderName, l.cfg.UserInfoPath, err)
	}

	var info userInfoFile
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, loader.NewSourceError(loaderName, l.cfg.UserInfoPath, err)
	}
	return info.MembershipInfo, nil
}

// processSpace turns one space's messages.json into windowed records
func (l *Loader) processSpace(path string, memberships []membershipInfo) ([]loader.Record, error) {
	messages, err := readMessages(path)
	if err != nil {
		return nil, err
	}

	spaceName := unknownSpace
	if len(messages) > 0 {
		spaceName = resolveSpaceName(memberships, messages[0].messageID())
	}

	return windowRecords(messages, func(start, middle chatMessage) map[string]any {
		return map[string]any{
			"source":     "chats",
			"type":       "space",
			"name":       spaceName,
			"message_id": start.messageID(),
			"date":       middle.createdDate(),
			"unix_time":  datetimeToEpoch(middle.createdDate()),
			"url":        "https://chat.google.com/room/" + start.urlMessageID(),
		}
	}), nil
}

// processDMs turns one DM channel's messages.json into windowed records
func (l *Loader) processDMs(path string) ([]loader.Record, error) {
	messages, err := readMessages(path)
	if err != nil {
		return nil, err
	}

	// Ordered list of distinct participants
	var participants []string
	seen := make(map[string]bool)
	for _, msg := range messages {
		name := msg.creatorName()
		if !seen[name] {
			seen[name] = true
			participants = append(participants, name)
		}
	}

	return windowRecords(messages, func(start, middle chatMessage) map[string]any {
		return map[string]any{
			"source":     "chats",
			"type":       "dm",
			"name":       participants,
			"message_id": start.messageID(),
			"date":       middle.createdDate(),
			"unix_time":  datetimeToEpoch(middle.createdDate()),
			"url":        "https://chat.google.com/dm/" + start.urlMessageID(),
		}
	}), nil
}

func readMessages(path string) ([]chatMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var export chatExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, loader.NewContentError(loaderName, path, err)
	}
	return export.Messages, nil
}

// windowRecords slides a window of windowSize messages over the channel
// and builds one record per window. The metadata callback receives the
// window's first and middle message.
func windowRecords(messages []chatMessage, metadata func(start, middle chatMessage) map[string]any) []loader.Record {
	records := make([]loader.Record, 0)

	for i := windowSize / 2; i < len(messages); i += windowStep {
		start := i - windowSize/2
		end := i + windowSize/2 + 1
		if end > len(messages) {
			end = len(messages)
		}

		var text strings.Builder
		for _, msg := range messages[start:end] {
			text.WriteString(msg.creatorName())
			text.WriteString("\n")
			text.WriteString(msg.text())
			text.WriteString("\n\n")
		}

		records = append(records, loader.Record{
			Text:     text.String(),
			Metadata: metadata(messages[start], messages[i]),
		})
	}

	return records
}

// resolveSpaceName matches the group-id prefix of a message id against
// the membership list from user_info.json
func resolveSpaceName(memberships []membershipInfo, messageID string) string {
	groupIDPart := strings.SplitN(messageID, "/", 2)[0]
	for _, m := range memberships {
		if strings.Contains(m.GroupID, groupIDPart) && m.GroupName != nil && *m.GroupName != "" {
			return *m.GroupName
		}
	}
	return unknownSpace
}

// datetimeToEpoch converts a Takeout timestamp to epoch seconds,
// returning nil when the value is absent or unparseable
func datetimeToEpoch(value string) any {
	if value == unknownDate {
		return nil
	}

	cleaned := strings.TrimSpace(strings.ReplaceAll(value, "UTC", ""))
	parsed, err := time.ParseInLocation(takeoutDateLayout, cleaned, time.UTC)
	if err != nil {
		return nil
	}
	return parsed.Unix()
}
