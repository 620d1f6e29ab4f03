package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"shotqueue/internal/logging"
)

// Setting keys persisted in the config table.
const (
	SettingYouTubeAPIKey    = "youtube_api_key"
	SettingTelegramBotToken = "telegram_bot_token"
	SettingTelegramChatID   = "telegram_chat_id"
	SettingOllamaEndpoint   = "ollama_endpoint"
	SettingPollIntervalSecs = "poll_interval_secs"
)

const (
	DefaultOllamaEndpoint   = "http://localhost:11434"
	DefaultPollIntervalSecs = 300
)

var settingKeys = []string{
	SettingYouTubeAPIKey,
	SettingTelegramBotToken,
	SettingTelegramChatID,
	SettingOllamaEndpoint,
	SettingPollIntervalSecs,
}

// Settings is the runtime configuration collaborators read and edit. Empty
// optional fields mean "not configured".
type Settings struct {
	YouTubeAPIKey    string `json:"youtube_api_key,omitempty"`
	TelegramBotToken string `json:"telegram_bot_token,omitempty"`
	TelegramChatID   string `json:"telegram_chat_id,omitempty"`
	OllamaEndpoint   string `json:"ollama_endpoint"`
	PollIntervalSecs uint64 `json:"poll_interval_secs"`
}

// DefaultSettings returns the values a fresh store loads.
func DefaultSettings() Settings {
	return Settings{
		OllamaEndpoint:   DefaultOllamaEndpoint,
		PollIntervalSecs: DefaultPollIntervalSecs,
	}
}

// SettingKeys returns every recognized setting key.
func SettingKeys() []string {
	cp := make([]string, len(settingKeys))
	copy(cp, settingKeys)
	return cp
}

// IsSettingKey reports whether key is a recognized setting.
func IsSettingKey(key string) bool {
	for _, known := range settingKeys {
		if known == key {
			return true
		}
	}
	return false
}

// GetSetting returns the stored value for key. A missing key is not an error.
func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	ctx = ensureContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	return getSetting(ctx, s.db, key)
}

// SetSetting stores value under key, replacing any previous value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	ctx = ensureContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	return setSetting(ctx, s.db, key, value)
}

// LoadSettings reads every recognized key and fills defaults for missing or
// malformed values.
func (s *Store) LoadSettings(ctx context.Context) (Settings, error) {
	ctx = ensureContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	values := make(map[string]string, len(settingKeys))
	for _, key := range settingKeys {
		value, ok, err := getSetting(ctx, s.db, key)
		if err != nil {
			return Settings{}, err
		}
		if ok {
			values[key] = value
		}
	}

	settings := DefaultSettings()
	settings.YouTubeAPIKey = values[SettingYouTubeAPIKey]
	settings.TelegramBotToken = values[SettingTelegramBotToken]
	settings.TelegramChatID = values[SettingTelegramChatID]
	if endpoint := strings.TrimSpace(values[SettingOllamaEndpoint]); endpoint != "" {
		settings.OllamaEndpoint = endpoint
	}
	if raw, ok := values[SettingPollIntervalSecs]; ok {
		secs, defaulted := DecodePollInterval(raw)
		if defaulted {
			s.logger.Warn("stored poll interval is not a positive integer; using default",
				logging.String("value", raw),
				logging.Int64("default", DefaultPollIntervalSecs),
			)
		}
		settings.PollIntervalSecs = secs
	}
	return settings, nil
}

// SaveSettings writes the non-empty fields of settings in one transaction.
// Empty optional fields are skipped so previously saved values survive.
func (s *Store) SaveSettings(ctx context.Context, settings Settings) error {
	ctx = ensureContext(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	pairs := [][2]string{
		{SettingYouTubeAPIKey, settings.YouTubeAPIKey},
		{SettingTelegramBotToken, settings.TelegramBotToken},
		{SettingTelegramChatID, settings.TelegramChatID},
		{SettingOllamaEndpoint, strings.TrimSpace(settings.OllamaEndpoint)},
	}
	if settings.PollIntervalSecs > 0 {
		pairs = append(pairs, [2]string{SettingPollIntervalSecs, strconv.FormatUint(settings.PollIntervalSecs, 10)})
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, pair := range pairs {
			if pair[1] == "" {
				continue
			}
			if err := setSetting(ctx, tx, pair[0], pair[1]); err != nil {
				return err
			}
		}
		return nil
	})
}

func getSetting(ctx context.Context, q querier, key string) (string, bool, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, true, nil
}

func setSetting(ctx context.Context, q querier, key, value string) error {
	if _, err := q.ExecContext(ctx, `INSERT OR REPLACE INTO config (key, value) VALUES (?, ?)`, key, value); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}
