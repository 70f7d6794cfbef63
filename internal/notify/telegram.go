package notify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"homestead/server/internal/models"
)

// Config holds the Telegram notification settings.
type Config struct {
	BotToken  string
	ChatID    string
	IsEnabled bool
}

// Service posts listing notifications to a Telegram chat. Failures are
// reported to the caller, who logs them; a notification never blocks or
// fails a client request.
type Service struct {
	logger *logrus.Logger
	client *http.Client
	config Config
}

func NewService(config Config, logger *logrus.Logger) *Service {
	return &Service{
		logger: logger,
		config: config,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendMessage sends a message to the configured Telegram chat
func (s *Service) SendMessage(message string) error {
	if !s.config.IsEnabled {
		return nil
	}

	if s.config.BotToken == "" {
		return errors.New("Telegram bot token is not configured")
	}

	if s.config.ChatID == "" {
		return errors.New("Telegram chat ID is not configured")
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.config.BotToken)
	payload := map[string]interface{}{
		"chat_id":    s.config.ChatID,
		"text":       message,
		"parse_mode": "HTML",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %v", err)
	}

	resp, err := s.client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send message to Telegram API: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return errors.New("invalid bot token - please check your token from @BotFather")
		case http.StatusBadRequest:
			return fmt.Errorf("invalid chat ID or message format: %s", string(body))
		case http.StatusForbidden:
			return errors.New("bot was blocked by the user or chat")
		default:
			return fmt.Errorf("Telegram API error (status %d): %s", resp.StatusCode, string(body))
		}
	}

	return nil
}

// NotifyNewListing sends a notification about a newly created listing.
func (s *Service) NotifyNewListing(listing *models.Listing) error {
	if !s.config.IsEnabled {
		return nil
	}

	s.logger.WithField("listing_id", listing.ID).Debug("Sending new listing notification")

	price := listing.RegularPrice
	if listing.Offer {
		price = listing.DiscountPrice
	}

	typeLabel := "For sale"
	if listing.Type == models.ListingTypeRent {
		typeLabel = "For rent"
	}

	message := fmt.Sprintf(
		"<b>New Listing!</b>\n\n"+
			"🏠 %s\n"+
			"📍 %s\n"+
			"🏷️ %s\n"+
			"💰 %.0f\n"+
			"🛏️ %d bed / 🛁 %d bath\n"+
			"📐 %.0f m²",
		listing.Name,
		listing.Address,
		typeLabel,
		price,
		listing.Bedrooms,
		listing.Bathrooms,
		listing.Area,
	)

	return s.SendMessage(message)
}
