package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/serisow/narrador/pipeline"
)

// MessageCreator is the part of the Twilio API used here.
type MessageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type TwilioCredentials struct {
	AccountSid string
	AuthToken  string
	FromNumber string
	ToNumber   string
}

// SMSNotifier texts the operator when a run finishes.
type SMSNotifier struct {
	logger      *slog.Logger
	api         MessageCreator
	credentials TwilioCredentials
	baseURL     string
}

func NewSMSNotifier(logger *slog.Logger, credentials TwilioCredentials, baseURL string) *SMSNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: credentials.AccountSid,
		Password: credentials.AuthToken,
	})
	return NewSMSNotifierWithAPI(logger, client.Api, credentials, baseURL)
}

func NewSMSNotifierWithAPI(logger *slog.Logger, api MessageCreator, credentials TwilioCredentials, baseURL string) *SMSNotifier {
	return &SMSNotifier{logger: logger, api: api, credentials: credentials, baseURL: baseURL}
}

func (n *SMSNotifier) NotifyRunFinished(ctx context.Context, record pipeline.RunRecord) error {
	body := Message(record, n.baseURL)
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(n.credentials.ToNumber)
	params.SetFrom(n.credentials.FromNumber)
	params.SetBody(body)

	message, err := n.api.CreateMessage(params)
	if err != nil {
		n.logger.Error("Failed to send SMS",
			slog.String("error", err.Error()),
			slog.String("to", n.credentials.ToNumber))
		return fmt.Errorf("failed to send SMS: %w", err)
	}

	sid := ""
	if message != nil && message.Sid != nil {
		sid = *message.Sid
	}
	n.logger.Info("Run notification sent",
		slog.String("run_id", record.RunID),
		slog.String("message_sid", sid))
	return nil
}

// Message is the SMS text for a finished run.
func Message(record pipeline.RunRecord, baseURL string) string {
	if record.Status == pipeline.StatusCompleted {
		return fmt.Sprintf("Narración %s lista (%d segmentos, %.1fs): %s/videos/%s",
			record.RunID[:8], record.Segments, record.Duration, baseURL, record.OutputFile)
	}
	return fmt.Sprintf("Narración %s falló: %s", record.RunID[:8], record.Message)
}
