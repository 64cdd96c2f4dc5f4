// Package config provides configuration for the kaiwa server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the server configuration.
type Config struct {
	// Server settings
	HTTPPort       int
	AllowedOrigins []string

	// Voice provider
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	ConversationModel  string
	TranscriptionModel string
	SpeechModel        string
	ReplyVoice         string
	ReplyFormat        string
	ProviderTimeout    time.Duration

	// Upload limits
	MaxAudioBytes int64
}

// Load reads configuration from an optional kaiwa.yaml in the working
// directory, overridden by environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("http_port", 8000)
	v.SetDefault("frontend_origins", "*")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.conversation_model", "gpt-4o-mini")
	v.SetDefault("openai.transcription_model", "whisper-1")
	v.SetDefault("openai.speech_model", "tts-1")
	v.SetDefault("openai.reply_voice", "alloy")
	v.SetDefault("openai.reply_format", "wav")
	v.SetDefault("provider_timeout", "60s")
	v.SetDefault("max_audio_bytes", 10<<20)

	bindings := map[string]string{
		"http_port":                  "HTTP_PORT",
		"frontend_origins":           "FRONTEND_ORIGINS",
		"openai.api_key":             "OPENAI_API_KEY",
		"openai.base_url":            "OPENAI_BASE_URL",
		"openai.conversation_model":  "OPENAI_CONVERSATION_MODEL",
		"openai.transcription_model": "OPENAI_TRANSCRIPTION_MODEL",
		"openai.speech_model":        "OPENAI_SPEECH_MODEL",
		"openai.reply_voice":         "OPENAI_REPLY_VOICE",
		"openai.reply_format":        "OPENAI_REPLY_FORMAT",
		"provider_timeout":           "PROVIDER_TIMEOUT",
		"max_audio_bytes":            "MAX_AUDIO_BYTES",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	v.SetConfigName("kaiwa")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		HTTPPort:           v.GetInt("http_port"),
		AllowedOrigins:     splitOrigins(v.GetString("frontend_origins")),
		OpenAIAPIKey:       v.GetString("openai.api_key"),
		OpenAIBaseURL:      v.GetString("openai.base_url"),
		ConversationModel:  v.GetString("openai.conversation_model"),
		TranscriptionModel: v.GetString("openai.transcription_model"),
		SpeechModel:        v.GetString("openai.speech_model"),
		ReplyVoice:         v.GetString("openai.reply_voice"),
		ReplyFormat:        v.GetString("openai.reply_format"),
		ProviderTimeout:    v.GetDuration("provider_timeout"),
		MaxAudioBytes:      v.GetInt64("max_audio_bytes"),
	}
	return cfg, nil
}

// splitOrigins parses a comma-separated origin list; "*" allows everyone.
func splitOrigins(raw string) []string {
	if raw == "" || raw == "*" {
		return []string{"*"}
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
