package queue_test

import (
	"context"
	"testing"

	"shotqueue/internal/queue"
	"shotqueue/internal/testsupport"
)

func TestLoadSettingsDefaultsOnFreshStore(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	settings, err := store.LoadSettings(context.Background())
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if settings != queue.DefaultSettings() {
		t.Fatalf("expected defaults, got %#v", settings)
	}
	if settings.OllamaEndpoint != "http://localhost:11434" || settings.PollIntervalSecs != 300 {
		t.Fatalf("unexpected default values: %#v", settings)
	}
}

func TestSaveSettingsRoundTrip(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	want := queue.Settings{
		YouTubeAPIKey:    "yt-key",
		TelegramBotToken: "bot-token",
		TelegramChatID:   "-100200",
		OllamaEndpoint:   "http://gpu-box:11434",
		PollIntervalSecs: 45,
	}
	if err := store.SaveSettings(ctx, want); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}
	got, err := store.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if got != want {
		t.Fatalf("expected %#v, got %#v", want, got)
	}

	if err := store.SaveSettings(ctx, got); err != nil {
		t.Fatalf("SaveSettings (second) failed: %v", err)
	}
	again, err := store.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings (second) failed: %v", err)
	}
	if again != got {
		t.Fatalf("load/save not idempotent: %#v vs %#v", got, again)
	}
}

func TestSaveLoadedDefaultsIsIdempotent(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	loaded, err := store.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if err := store.SaveSettings(ctx, loaded); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}
	reloaded, err := store.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if reloaded != loaded {
		t.Fatalf("expected %#v, got %#v", loaded, reloaded)
	}
	if _, ok, err := store.GetSetting(ctx, queue.SettingYouTubeAPIKey); err != nil || ok {
		t.Fatalf("expected empty api key to stay unset, ok=%v err=%v", ok, err)
	}
}

func TestSaveSettingsSkipsEmptyOptionals(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := store.SaveSettings(ctx, queue.Settings{YouTubeAPIKey: "keep-me", PollIntervalSecs: 60}); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}
	if err := store.SaveSettings(ctx, queue.Settings{TelegramChatID: "42", PollIntervalSecs: 90}); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}

	settings, err := store.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if settings.YouTubeAPIKey != "keep-me" {
		t.Fatalf("expected prior api key to survive, got %q", settings.YouTubeAPIKey)
	}
	if settings.TelegramChatID != "42" || settings.PollIntervalSecs != 90 {
		t.Fatalf("unexpected settings: %#v", settings)
	}
	if settings.OllamaEndpoint != queue.DefaultOllamaEndpoint {
		t.Fatalf("expected default endpoint, got %q", settings.OllamaEndpoint)
	}
}

func TestLoadSettingsLenientPollInterval(t *testing.T) {
	cases := []struct {
		raw  string
		want uint64
	}{
		{"60", 60},
		{"abc", queue.DefaultPollIntervalSecs},
		{"-5", queue.DefaultPollIntervalSecs},
		{"0", queue.DefaultPollIntervalSecs},
		{"", queue.DefaultPollIntervalSecs},
	}
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	for _, tc := range cases {
		if err := store.SetSetting(ctx, queue.SettingPollIntervalSecs, tc.raw); err != nil {
			t.Fatalf("SetSetting(%q) failed: %v", tc.raw, err)
		}
		settings, err := store.LoadSettings(ctx)
		if err != nil {
			t.Fatalf("LoadSettings(%q) failed: %v", tc.raw, err)
		}
		if settings.PollIntervalSecs != tc.want {
			t.Fatalf("raw %q: expected %d, got %d", tc.raw, tc.want, settings.PollIntervalSecs)
		}
	}
}

func TestGetSetSetting(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	value, ok, err := store.GetSetting(ctx, "missing")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if ok || value != "" {
		t.Fatalf("expected missing key, got %q ok=%v", value, ok)
	}

	if err := store.SetSetting(ctx, queue.SettingOllamaEndpoint, "http://a"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	if err := store.SetSetting(ctx, queue.SettingOllamaEndpoint, "http://b"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	value, ok, err = store.GetSetting(ctx, queue.SettingOllamaEndpoint)
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if !ok || value != "http://b" {
		t.Fatalf("expected replaced value, got %q ok=%v", value, ok)
	}
}

func TestSettingKeys(t *testing.T) {
	keys := queue.SettingKeys()
	if len(keys) != 5 {
		t.Fatalf("expected 5 keys, got %v", keys)
	}
	for _, key := range keys {
		if !queue.IsSettingKey(key) {
			t.Fatalf("expected %q to be recognized", key)
		}
	}
	if queue.IsSettingKey("api_bind") {
		t.Fatal("unexpected key recognized")
	}
	keys[0] = "mutated"
	if queue.SettingKeys()[0] == "mutated" {
		t.Fatal("SettingKeys returned shared slice")
	}
}
