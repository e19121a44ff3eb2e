package services

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/MINHYEOKJEON99/mat-we/internal/logger"
)

type Mailer interface {
	SendConfirmation(ctx context.Context, to, link string) error
}

type sesSender interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESMailer struct {
	client sesSender
	sender string
}

func NewSESMailer(ctx context.Context, region, sender string) (*SESMailer, error) {
	if sender == "" {
		return nil, fmt.Errorf("SES_SENDER is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config for ses: %w", err)
	}
	return &SESMailer{client: ses.NewFromConfig(cfg), sender: sender}, nil
}

func (m *SESMailer) SendConfirmation(ctx context.Context, to, link string) error {
	subject := "Mat We 이메일 인증"
	body := fmt.Sprintf("아래 링크를 눌러 이메일 인증을 완료해주세요.\n\n%s\n\n링크는 24시간 동안 유효합니다.", link)

	_, err := m.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data:    aws.String(body),
					Charset: aws.String("UTF-8"),
				},
			},
		},
		Source: aws.String(m.sender),
	})
	if err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}
	return nil
}

// LogMailer writes the confirmation link to the log instead of sending it.
// Used in development when no SES sender is configured.
type LogMailer struct {
	log *logger.Logger
}

func NewLogMailer(log *logger.Logger) *LogMailer {
	if log == nil {
		log = logger.Nop()
	}
	return &LogMailer{log: log}
}

func (m *LogMailer) SendConfirmation(_ context.Context, to, link string) error {
	m.log.Info("confirmation email (not sent)", "to", to, "link", link)
	return nil
}
