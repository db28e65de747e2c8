package config

const (
	defaultConfigPath         = "~/.config/mpd2mp4/config.toml"
	projectConfigFile         = "mpd2mp4.toml"
	dotEnvFile                = ".env"
	defaultOutputName         = "output.mp4"
	defaultContainer          = "mp4"
	defaultFormat             = "bestvideo+bestaudio/best"
	defaultProgressIntervalMS = 500
	defaultLogFormat          = "console"
	defaultLogLevel           = "warn"
	defaultNtfyTimeoutSeconds = 10

	envFFmpegBinary = "MPD2MP4_FFMPEG"
	envYtdlpBinary  = "MPD2MP4_YTDLP"
	envLogLevel     = "MPD2MP4_LOG_LEVEL"
	envNtfyTopic    = "MPD2MP4_NTFY_TOPIC"
)

// SupportedContainers lists the output containers both FFmpeg remuxing and
// yt-dlp merging can produce.
var SupportedContainers = []string{"mp4", "mkv", "mov", "webm"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Output: Output{
			DefaultName:      defaultOutputName,
			DefaultContainer: defaultContainer,
		},
		Downloader: Downloader{
			AutoInstall:        true,
			Format:             defaultFormat,
			ProgressIntervalMS: defaultProgressIntervalMS,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
	}
}
