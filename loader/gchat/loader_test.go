package gchat

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acsdev/ragloader/loader"
)

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

// makeMessages builds n export messages with ids "<group>/message-<i>"
func makeMessages(n int, group string, creators ...string) []map[string]any {
	msgs := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		creator := creators[i%len(creators)]
		msgs = append(msgs, map[string]any{
			"creator":      map[string]any{"name": creator},
			"created_date": "Tuesday, January 6, 2026 at 3:04:05 PM UTC",
			"text":         fmt.Sprintf("message %d", i),
			"message_id":   fmt.Sprintf("%s/message-%d", group, i),
		})
	}
	return msgs
}

func setupExport(t *testing.T) (groupDir, userInfoPath string) {
	t.Helper()
	root := t.TempDir()
	groupDir = filepath.Join(root, "Groups")
	require.NoError(t, os.MkdirAll(groupDir, 0755))

	userInfoPath = filepath.Join(root, "user_info.json")
	writeJSON(t, userInfoPath, map[string]any{
		"membership_info": []map[string]any{
			{"group_id": "spaces/groupABC", "group_name": "Engineering"},
			{"group_id": "spaces/groupXYZ", "group_name": nil},
		},
	})
	return groupDir, userInfoPath
}

func TestLoad_SpaceWindows(t *testing.T) {
	groupDir, userInfoPath := setupExport(t)
	writeJSON(t, filepath.Join(groupDir, "Space Engineering", "messages.json"),
		map[string]any{"messages": makeMessages(30, "groupABC", "alice", "bob")})

	l, err := New(Config{GroupDir: groupDir, UserInfoPath: userInfoPath}, nil)
	require.NoError(t, err)

	records, err := l.Load(context.Background())
	require.NoError(t, err)

	// 30 messages: windows anchored at message 10 and 29
	require.Len(t, records, 2)

	first := records[0]
	assert.Contains(t, first.Text, "alice\nmessage 0\n\n")
	assert.Contains(t, first.Text, "message 20")
	assert.NotContains(t, first.Text, "message 21")

	assert.Equal(t, "chats", first.Metadata["source"])
	assert.Equal(t, "space", first.Metadata["type"])
	assert.Equal(t, "Engineering", first.Metadata["name"])
	assert.Equal(t, "groupABC/message-0", first.Metadata["message_id"])
	assert.Equal(t, "https://chat.google.com/room/groupABC/message-0", first.Metadata["url"])

	wantEpoch := time.Date(2026, 1, 6, 15, 4, 5, 0, time.UTC).Unix()
	assert.Equal(t, wantEpoch, first.Metadata["unix_time"])

	// Windows overlap by 2: the second starts at message 19
	second := records[1]
	assert.Equal(t, "groupABC/message-19", second.Metadata["message_id"])
	assert.Contains(t, second.Text, "message 19")
	assert.Contains(t, second.Text, "message 20")
}

func TestLoad_DMParticipants(t *testing.T) {
	groupDir, userInfoPath := setupExport(t)
	writeJSON(t, filepath.Join(groupDir, "DM 4242", "messages.json"),
		map[string]any{"messages": makeMessages(21, "dm4242", "carol", "dave")})

	l, err := New(Config{GroupDir: groupDir, UserInfoPath: userInfoPath}, nil)
	require.NoError(t, err)

	records, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "dm", rec.Metadata["type"])
	assert.Equal(t, []string{"carol", "dave"}, rec.Metadata["name"])
	assert.Equal(t, "https://chat.google.com/dm/dm4242/message-0", rec.Metadata["url"])
}

func TestLoad_SkipsMalformedChannel(t *testing.T) {
	groupDir, userInfoPath := setupExport(t)

	badPath := filepath.Join(groupDir, "Space Broken", "messages.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(badPath), 0755))
	require.NoError(t, os.WriteFile(badPath, []byte("{not json"), 0644))

	writeJSON(t, filepath.Join(groupDir, "DM 1", "messages.json"),
		map[string]any{"messages": makeMessages(21, "dm1", "erin")})

	l, err := New(Config{GroupDir: groupDir, UserInfoPath: userInfoPath}, nil)
	require.NoError(t, err)

	records, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, "dm", records[0].Metadata["type"])
}

func TestLoad_MissingMessageID(t *testing.T) {
	groupDir, userInfoPath := setupExport(t)

	// 21 messages without message_id or creator keys
	msgs := make([]map[string]any, 21)
	for i := range msgs {
		msgs[i] = map[string]any{"text": fmt.Sprintf("message %d", i)}
	}
	writeJSON(t, filepath.Join(groupDir, "DM 7", "messages.json"),
		map[string]any{"messages": msgs})

	l, err := New(Config{GroupDir: groupDir, UserInfoPath: userInfoPath}, nil)
	require.NoError(t, err)

	records, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, unknownID, rec.Metadata["message_id"])
	// The URL falls back to the bare channel link, not "Unknown ID"
	assert.Equal(t, "https://chat.google.com/dm/", rec.Metadata["url"])
	assert.Equal(t, []string{unknownName}, rec.Metadata["name"])
}

func TestLoad_IgnoresUnrelatedDirs(t *testing.T) {
	groupDir, userInfoPath := setupExport(t)
	writeJSON(t, filepath.Join(groupDir, "Attachments", "messages.json"),
		map[string]any{"messages": makeMessages(21, "x", "frank")})

	l, err := New(Config{GroupDir: groupDir, UserInfoPath: userInfoPath}, nil)
	require.NoError(t, err)

	records, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLoad_MissingGroupDir(t *testing.T) {
	_, userInfoPath := setupExport(t)

	l, err := New(Config{GroupDir: filepath.Join(t.TempDir(), "nope"), UserInfoPath: userInfoPath}, nil)
	require.NoError(t, err)

	records, err := l.Load(context.Background())
	assert.Nil(t, records)
	assert.True(t, loader.IsSourceError(err))
	assert.ErrorIs(t, err, loader.ErrSourceNotFound)
}

func TestLoad_EmptyExport(t *testing.T) {
	groupDir, userInfoPath := setupExport(t)

	l, err := New(Config{GroupDir: groupDir, UserInfoPath: userInfoPath}, nil)
	require.NoError(t, err)

	records, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestLoad_Idempotent(t *testing.T) {
	groupDir, userInfoPath := setupExport(t)
	writeJSON(t, filepath.Join(groupDir, "Space Engineering", "messages.json"),
		map[string]any{"messages": makeMessages(30, "groupABC", "alice")})

	l, err := New(Config{GroupDir: groupDir, UserInfoPath: userInfoPath}, nil)
	require.NoError(t, err)

	first, err := l.Load(context.Background())
	require.NoError(t, err)
	second, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.ErrorIs(t, err, loader.ErrInvalidConfig)

	_, err = New(Config{GroupDir: "some/dir"}, nil)
	assert.ErrorIs(t, err, loader.ErrInvalidConfig)
}

func TestDatetimeToEpoch(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  any
	}{
		{
			name:  "takeout format",
			input: "Tuesday, January 6, 2026 at 3:04:05 PM UTC",
			want:  time.Date(2026, 1, 6, 15, 4, 5, 0, time.UTC).Unix(),
		},
		{
			name:  "unknown date",
			input: "Unknown Date",
			want:  nil,
		},
		{
			name:  "garbage",
			input: "last tuesday",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, datetimeToEpoch(tt.input))
		})
	}
}

func TestResolveSpaceName(t *testing.T) {
	memberships := []membershipInfo{
		{GroupID: "spaces/groupABC", GroupName: strPtr("Engineering")},
		{GroupID: "spaces/groupDEF", GroupName: nil},
	}

	assert.Equal(t, "Engineering", resolveSpaceName(memberships, "groupABC/message-0"))
	assert.Equal(t, unknownSpace, resolveSpaceName(memberships, "groupDEF/message-0"))
	assert.Equal(t, unknownSpace, resolveSpaceName(memberships, "groupZZZ/message-0"))
}

func strPtr(s string) *string { return &s }
