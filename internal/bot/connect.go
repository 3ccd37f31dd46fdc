package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Connect authorizes against the Bot API, retrying transient failures.
// A rejected token stops the retries immediately.
func Connect(ctx context.Context, token string, debug bool, maxElapsed time.Duration, logger *zap.Logger) (*tgbotapi.BotAPI, error) {
	const operation = "bot.Connect"

	var botAPI *tgbotapi.BotAPI

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = maxElapsed
	retryPolicy.MaxInterval = 15 * time.Second

	err := backoff.RetryNotify(
		func() error {
			api, err := tgbotapi.NewBotAPI(token)
			if err != nil {
				var apiErr *tgbotapi.Error
				if errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized {
					return backoff.Permanent(err)
				}
				return err
			}
			botAPI = api
			return nil
		},
		backoff.WithContext(retryPolicy, ctx),
		func(err error, next time.Duration) {
			logger.Warn("Telegram authorization failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", next))
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create bot API: %w", operation, err)
	}

	botAPI.Debug = debug

	logger.Info("Bot authorized",
		zap.String("username", botAPI.Self.UserName),
		zap.Int64("id", botAPI.Self.ID))

	return botAPI, nil
}
