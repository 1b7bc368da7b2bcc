package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"benficabot/lib/configutil"
)

const configFile = "benficabot.json5"

type Config struct {
	// DiscordToken is the bot token from the Discord developer portal.
	DiscordToken string `json:"discord_token"`
	// ChannelId is the channel that receives the daily covers post.
	ChannelId string `json:"channel_id"`
	// ScheduleHour is the Lisbon hour of the daily post, 0 through 23.
	ScheduleHour int `json:"schedule_hour"`
	// DataDir holds the match cache, last-run guard and heartbeat files.
	// Defaults to the working directory.
	DataDir string `json:"data_dir"`
	// Verbose enables debug logging and on-disk HTTP dumps.
	Verbose bool `json:"verbose"`
}

// Validate returns every problem with the config, empty when usable.
func (c Config) Validate() []string {
	var problems []string

	// Real tokens are base64 blobs well past 50 chars, anything shorter
	// or starting with placeholder text is a template value.
	if len(c.DiscordToken) <= 50 ||
		strings.HasPrefix(c.DiscordToken, "your_") ||
		strings.HasPrefix(c.DiscordToken, "YOUR_") {
		problems = append(problems,
			"discord_token must be a real bot token (>50 chars, not a placeholder)")
	}

	if !isSnowflake(c.ChannelId) {
		problems = append(problems,
			"channel_id must be a numeric Discord channel id (>= 17 digits)")
	}

	if c.ScheduleHour < 0 || c.ScheduleHour > 23 {
		problems = append(problems, "schedule_hour must be between 0 and 23")
	}

	return problems
}

// Discord snowflakes are 64-bit ids rendered as 17 to 20 digits.
func isSnowflake(id string) bool {
	if len(id) < 17 {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// loadConfig reads the config file, falling back to an interactive
// setup wizard on first run.
func loadConfig() (Config, error) {
	config, err := configutil.ReadConfig[Config](configFile)
	if err == nil {
		return config, nil
	}
	if !os.IsNotExist(err) {
		return Config{}, err
	}

	fmt.Println("No configuration found, running first-time setup.")
	config, err = setupWizard(os.Stdin)
	if err != nil {
		return Config{}, err
	}
	err = configutil.WriteConfig(configFile, config)
	if err != nil {
		return Config{}, fmt.Errorf("write %s: %w", configFile, err)
	}
	fmt.Printf("Configuration saved to %s\n", configFile)
	return config, nil
}

func setupWizard(in *os.File) (Config, error) {
	reader := bufio.NewReader(in)
	config := Config{ScheduleHour: 8}

	fmt.Print("Discord bot token: ")
	token, err := reader.ReadString('\n')
	if err != nil {
		return Config{}, err
	}
	config.DiscordToken = strings.TrimSpace(token)

	fmt.Print("Daily covers channel id: ")
	channel, err := reader.ReadString('\n')
	if err != nil {
		return Config{}, err
	}
	config.ChannelId = strings.TrimSpace(channel)

	fmt.Print("Daily post hour (0-23, default 8): ")
	hourText, err := reader.ReadString('\n')
	if err != nil {
		return Config{}, err
	}
	hourText = strings.TrimSpace(hourText)
	if hourText != "" {
		hour, err := strconv.Atoi(hourText)
		if err != nil {
			return Config{}, fmt.Errorf("invalid hour %q", hourText)
		}
		config.ScheduleHour = hour
	}

	return config, nil
}
