package speech

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/serisow/narrador/tempfiles"
)

// DurationProber decodes the length of an audio file.
type DurationProber interface {
	GetDuration(ctx context.Context, filePath string) (float64, error)
}

// RetryPolicy bounds retries of rate-limited calls.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy matches the provider quotas we run against.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second}

// Delay is the wait before the given retry (attempt starts at 1).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return p.BaseDelay << (attempt - 1)
}

// Audio is a synthesized segment on disk.
type Audio struct {
	Path     string
	Duration float64
	Size     int
}

// Adapter wraps a Provider with the pipeline's retry policy and writes the
// result into a scope-owned temporary file.
type Adapter struct {
	logger   *slog.Logger
	provider Provider
	prober   DurationProber
	policy   RetryPolicy
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewAdapter(logger *slog.Logger, provider Provider, prober DurationProber, policy RetryPolicy) *Adapter {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Adapter{
		logger:   logger,
		provider: provider,
		prober:   prober,
		policy:   policy,
		sleep:    sleepContext,
	}
}

// Synthesize calls the provider, retrying rate-limited failures with
// exponential backoff. Other failures return immediately.
func (a *Adapter) Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= a.policy.MaxAttempts; attempt++ {
		audio, err := a.provider.Synthesize(ctx, text, voice)
		if err == nil {
			return audio, nil
		}
		lastErr = err

		if KindOf(err) != KindRateLimited {
			a.logger.Error("Speech synthesis failed",
				slog.String("provider", a.provider.Name()),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			return nil, err
		}
		if attempt == a.policy.MaxAttempts {
			break
		}

		delay := a.policy.Delay(attempt)
		a.logger.Warn("Speech synthesis rate limited, retrying",
			slog.String("provider", a.provider.Name()),
			slog.Int("attempt", attempt),
			slog.Duration("retry_delay", delay))
		if err := a.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	a.logger.Error("Speech synthesis rate limited after multiple attempts",
		slog.String("provider", a.provider.Name()),
		slog.Int("attempts", a.policy.MaxAttempts))
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, a.policy.MaxAttempts, lastErr)
}

// SynthesizeToFile synthesizes text, stores the bytes in a new file owned by
// scope and probes its duration.
func (a *Adapter) SynthesizeToFile(ctx context.Context, scope *tempfiles.Scope, text string, voice Voice) (Audio, error) {
	data, err := a.Synthesize(ctx, text, voice)
	if err != nil {
		return Audio{}, err
	}
	if len(data) == 0 {
		return Audio{}, &Error{Kind: KindFatal, Provider: a.provider.Name(), Message: "empty audio response"}
	}

	path, err := scope.WriteTemp("speech_*.mp3", data)
	if err != nil {
		return Audio{}, err
	}
	duration, err := a.prober.GetDuration(ctx, path)
	if err != nil {
		return Audio{}, fmt.Errorf("failed to decode audio duration: %w", err)
	}
	return Audio{Path: path, Duration: duration, Size: len(data)}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
