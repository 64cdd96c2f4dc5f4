package voice

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/kaiwa-app/kaiwa/internal/domain"
)

// OpenAIConfig holds the configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey             string
	BaseURL            string // optional, for compatible endpoints and tests
	ConversationModel  string
	TranscriptionModel string
	SpeechModel        string
	ReplyVoice         string
	ReplyFormat        string // wav, mp3, opus, ...
}

// OpenAIProvider answers voice turns with three OpenAI calls: transcribe
// the learner's audio, continue the conversation over the text history,
// then synthesize the reply as speech.
type OpenAIProvider struct {
	client *openai.Client
	cfg    OpenAIConfig
}

// NewOpenAIProvider creates a provider, filling unset config fields with
// the defaults used in production.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	if cfg.ConversationModel == "" {
		cfg.ConversationModel = openai.GPT4oMini
	}
	if cfg.TranscriptionModel == "" {
		cfg.TranscriptionModel = openai.Whisper1
	}
	if cfg.SpeechModel == "" {
		cfg.SpeechModel = string(openai.TTSModel1)
	}
	if cfg.ReplyVoice == "" {
		cfg.ReplyVoice = string(openai.VoiceAlloy)
	}
	if cfg.ReplyFormat == "" {
		cfg.ReplyFormat = string(openai.SpeechResponseFormatWav)
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
	}
}

// Converse implements Provider.
func (p *OpenAIProvider) Converse(ctx context.Context, req Request) (Result, error) {
	audio, err := base64.StdEncoding.DecodeString(req.Audio.Data)
	if err != nil {
		return Result{}, fmt.Errorf("decode audio payload: %w", err)
	}

	transcript, err := p.transcribe(ctx, audio, req.Audio.MimeType)
	if err != nil {
		return Result{}, fmt.Errorf("transcription request: %w", err)
	}

	replyText, err := p.complete(ctx, req.Context, transcript)
	if err != nil {
		return Result{}, fmt.Errorf("conversation request: %w", err)
	}

	replyAudio, err := p.synthesize(ctx, replyText)
	if err != nil {
		return Result{}, fmt.Errorf("speech request: %w", err)
	}

	return Result{
		Transcript: transcript,
		ReplyText:  replyText,
		ReplyAudio: replyAudio,
	}, nil
}

func (p *OpenAIProvider) transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    p.cfg.TranscriptionModel,
		Reader:   bytes.NewReader(audio),
		FilePath: "speech." + audioExtension(mimeType),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

func (p *OpenAIProvider) complete(ctx context.Context, turns []Turn, transcript string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	for _, t := range turns {
		if t.Text == "" {
			continue
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    t.Role,
			Content: t.Text,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: transcript,
	})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    p.cfg.ConversationModel,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion response has no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (p *OpenAIProvider) synthesize(ctx context.Context, text string) (*domain.AudioPayload, error) {
	if text == "" {
		return nil, nil
	}
	resp, err := p.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(p.cfg.SpeechModel),
		Input:          text,
		Voice:          openai.SpeechVoice(p.cfg.ReplyVoice),
		ResponseFormat: openai.SpeechResponseFormat(p.cfg.ReplyFormat),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech response: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &domain.AudioPayload{
		MimeType: "audio/" + p.cfg.ReplyFormat,
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}

// audioExtension derives a file extension from a MIME type. Browsers report
// mp3 uploads as audio/mpeg.
func audioExtension(mimeType string) string {
	ext := mimeType
	if i := strings.Index(ext, "/"); i >= 0 {
		ext = ext[i+1:]
	}
	if i := strings.Index(ext, ";"); i >= 0 {
		ext = ext[:i]
	}
	if ext == "mpeg" {
		ext = "mp3"
	}
	if ext == "" {
		ext = "webm"
	}
	return ext
}
