// Package email sends account notifications. There is no mail provider yet;
// messages are written to the structured log.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// SendEmail is the placeholder transport.
func SendEmail(ctx context.Context, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("email: empty recipient")
	}
	slog.InfoContext(ctx, "email (placeholder)", "to", to, "subject", subject, "body", body)
	return nil
}

// SendInvite tells a new user where to sign in. The account has no password
// yet; the login page asks them to choose one.
func SendInvite(ctx context.Context, to, baseURL string) error {
	loginURL := strings.TrimRight(baseURL, "/") + "/login"
	body := fmt.Sprintf(
		"An inventory account was created for %s.\n\nSign in at %s with this email address and choose a password (at least 6 characters).",
		to, loginURL,
	)
	return SendEmail(ctx, to, "Your Stockroom account", body)
}
