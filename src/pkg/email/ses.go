package email

import (
	"bytes"
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

type SESSender struct {
	client *sesv2.Client
}

// NewSESSender loads credentials from the default AWS chain.
func NewSESSender(ctx context.Context, region string) (sender *SESSender, e *xerr.Error) {
	awsConfig, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, xerr.NewError(err, "Unable to load AWS config", region)
	}
	return &SESSender{client: sesv2.NewFromConfig(awsConfig)}, nil
}

/*
BuildSESInput sends simple content when there are no attachments. With
attachments the MIME message is built by BuildMessage and sent raw.
*/
func BuildSESInput(request Request) (input *sesv2.SendEmailInput, e *xerr.Error) {
	input = &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(request.From),
		Destination:      &types.Destination{ToAddresses: []string{request.To}},
	}
	if request.ReplyTo != "" {
		input.ReplyToAddresses = []string{request.ReplyTo}
	}

	if len(request.Attachments) > 0 {
		var raw bytes.Buffer
		_, err := BuildMessage(request, time.Now()).WriteTo(&raw)
		if err != nil {
			return nil, xerr.NewError(err, "Unable to build raw MIME message", request.To)
		}
		input.Content = &types.EmailContent{Raw: &types.RawMessage{Data: raw.Bytes()}}
		return input, nil
	}

	body := &types.Body{}
	if request.BodyText != "" {
		body.Text = &types.Content{Data: aws.String(request.BodyText), Charset: aws.String("UTF-8")}
	}
	if request.BodyHTML != "" {
		body.Html = &types.Content{Data: aws.String(request.BodyHTML), Charset: aws.String("UTF-8")}
	}
	input.Content = &types.EmailContent{
		Simple: &types.Message{
			Subject: &types.Content{Data: aws.String(request.Subject), Charset: aws.String("UTF-8")},
			Body:    body,
		},
	}
	return input, nil
}

func (sender *SESSender) Send(ctx context.Context, request Request) (id string, e *xerr.Error) {
	e = request.Validate()
	if e != nil {
		return "", e
	}

	input, e := BuildSESInput(request)
	if e != nil {
		return "", e
	}

	output, err := sender.client.SendEmail(ctx, input)
	if err != nil {
		return "", xerr.NewError(err, "Unable to send email via amazon ses", request.To)
	}
	id = aws.ToString(output.MessageId)
	tl.Log(tl.Verbose, palette.GreenDim, "Amazon SES accepted email to '%s', id '%s'", request.To, id)
	return id, nil
}
