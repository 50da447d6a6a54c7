package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/verdant-research/canopy-cli/internal/properties"
)

type DiscordMessage struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

type DiscordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

const (
	colorRed   = 16711680
	colorGreen = 65280
)

// SendDiscordErrorNotification reports a failed batch run to the error
// webhook, if one is configured.
func SendDiscordErrorNotification(errorMessage string) error {
	return postEmbed(properties.DiscordErrorNotificationUrl(), DiscordEmbed{
		Title:       "🚨 Canopy CLI error",
		Description: errorMessage,
		Color:       colorRed,
	})
}

// SendDiscordSuccessNotification reports a finished batch run to the
// success webhook, if one is configured.
func SendDiscordSuccessNotification(successMessage string) error {
	return postEmbed(properties.DiscordSuccessNotificationUrl(), DiscordEmbed{
		Title:       "✅ Canopy CLI finished",
		Description: successMessage,
		Color:       colorGreen,
	})
}

func postEmbed(webhookURL string, embed DiscordEmbed) error {
	if webhookURL == "" {
		return nil
	}

	payload, err := json.Marshal(DiscordMessage{Embeds: []DiscordEmbed{embed}})
	if err != nil {
		return err
	}

	resp, err := http.Post(webhookURL, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to send Discord notification, status code: %d", resp.StatusCode)
	}

	return nil
}
