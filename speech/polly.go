package speech

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/polly"
	"github.com/aws/aws-sdk-go/service/polly/pollyiface"
)

type PollyConfig struct {
	Region       string
	AccessKey    string
	SecretKey    string
	Engine       string
	OutputFormat string
	SampleRate   string
}

type PollyProvider struct {
	logger *slog.Logger
	client pollyiface.PollyAPI
	config PollyConfig
}

func NewPollyProvider(logger *slog.Logger, config PollyConfig) (*PollyProvider, error) {
	if config.Region == "" {
		config.Region = "eu-west-1"
	}
	awsConfig := &aws.Config{Region: aws.String(config.Region)}
	if config.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(config.AccessKey, config.SecretKey, "")
	}
	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return NewPollyProviderWithClient(logger, polly.New(sess), config), nil
}

// NewPollyProviderWithClient uses an existing Polly client.
func NewPollyProviderWithClient(logger *slog.Logger, client pollyiface.PollyAPI, config PollyConfig) *PollyProvider {
	if config.Engine == "" {
		config.Engine = polly.EngineStandard
	}
	if config.OutputFormat == "" {
		config.OutputFormat = polly.OutputFormatMp3
	}
	if config.SampleRate == "" {
		config.SampleRate = "22050"
	}
	return &PollyProvider{logger: logger, client: client, config: config}
}

func (p *PollyProvider) Name() string { return "polly" }

func (p *PollyProvider) Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error) {
	if voice.PollyVoice == "" {
		return nil, &Error{Kind: KindFatal, Provider: p.Name(), Message: fmt.Sprintf("voice %s has no Polly mapping", voice.ID)}
	}

	input := &polly.SynthesizeSpeechInput{
		Text:         aws.String(text),
		OutputFormat: aws.String(p.config.OutputFormat),
		VoiceId:      aws.String(voice.PollyVoice),
		Engine:       aws.String(p.config.Engine),
		SampleRate:   aws.String(p.config.SampleRate),
		LanguageCode: aws.String(voice.LanguageCode),
	}

	output, err := p.client.SynthesizeSpeechWithContext(ctx, input)
	if err != nil {
		return nil, p.classify(err)
	}
	defer output.AudioStream.Close()

	audio, err := io.ReadAll(output.AudioStream)
	if err != nil {
		return nil, &Error{Kind: KindFatal, Provider: p.Name(), Err: fmt.Errorf("failed to read audio stream: %w", err)}
	}
	return audio, nil
}

func (p *PollyProvider) classify(err error) error {
	se := &Error{Kind: KindFatal, Provider: p.Name(), Err: err}
	if reqErr, ok := err.(awserr.RequestFailure); ok {
		se.StatusCode = reqErr.StatusCode()
		if reqErr.StatusCode() == http.StatusTooManyRequests {
			se.Kind = KindRateLimited
		}
	}
	if aerr, ok := err.(awserr.Error); ok {
		switch aerr.Code() {
		case "ThrottlingException", "TooManyRequestsException":
			se.Kind = KindRateLimited
		}
	}
	return se
}
