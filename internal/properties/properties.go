package properties

import "os"

// DataPath is the root folder for downloaded frames, caches and exports.
func DataPath() string {
	if path := os.Getenv("CANOPY_DATA_PATH"); path != "" {
		return path
	}
	return "data"
}

func EarthEngineBaseURL() string {
	if url := os.Getenv("EARTHENGINE_BASE_URL"); url != "" {
		return url
	}
	return "https://earthengine.googleapis.com/v1"
}

func EarthEngineProject() string {
	return os.Getenv("EARTHENGINE_PROJECT")
}

func EarthEngineClientID() string {
	return os.Getenv("EARTHENGINE_CLIENT_ID")
}

func EarthEngineClientSecret() string {
	return os.Getenv("EARTHENGINE_CLIENT_SECRET")
}

func EarthEngineTokenURL() string {
	return os.Getenv("EARTHENGINE_TOKEN_URL")
}

func DiscordErrorNotificationUrl() string {
	return os.Getenv("DISCORD_ERROR_NOTIFICATION_URL")
}

func DiscordSuccessNotificationUrl() string {
	return os.Getenv("DISCORD_SUCCESS_NOTIFICATION_URL")
}
