package notify

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMNotifier sends notifications through Firebase Cloud Messaging.
type FCMNotifier struct {
	client *messaging.Client
}

// NewFCM initializes a Firebase app from a service account file.
// projectID may be empty when the credentials carry it.
func NewFCM(ctx context.Context, credentialsFile, projectID string) (*FCMNotifier, error) {
	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, conf, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging client: %w", err)
	}

	return &FCMNotifier{client: client}, nil
}

// Send implements Notifier.
func (n *FCMNotifier) Send(ctx context.Context, token, title, body string) error {
	_, err := n.client.Send(ctx, &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
	})
	if err == nil {
		return nil
	}
	if messaging.IsUnregistered(err) || errorutils.IsInvalidArgument(err) {
		return fmt.Errorf("%w: %v", ErrUndeliverable, err)
	}
	return fmt.Errorf("failed to send notification: %w", err)
}
