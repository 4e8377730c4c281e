package config

const (
	defaultConfigPath            = "~/.config/orderbell/config.toml"
	defaultLogDir                = "~/.local/share/orderbell/logs"
	defaultLogRetentionDays      = 60
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultAPIBind               = "127.0.0.1:7489"
	defaultBackendRequestTimeout = 10
	defaultPollIntervalSeconds   = 20
	defaultFetchTimeoutSeconds   = 15
	defaultSoundPath             = "~/.local/share/orderbell/sounds/notification-bell.mp3"
	defaultAudioRepeatCount      = 3
	defaultAudioGapMillis        = 200
	defaultToastDurationSeconds  = 10
	defaultToastActionLabel      = "View Order"
	defaultToastSeverity         = "success"
	defaultNtfyRequestTimeout    = 10
	defaultHistoryDriver         = "sqlite"
	defaultHistoryRetentionDays  = 30
	defaultBrokerExchange        = "orderbell.alerts"
	defaultBrokerSubject         = "orderbell.alerts"
	defaultBrokerClientID        = "orderbell"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Backend: Backend{
			RequestTimeout: defaultBackendRequestTimeout,
		},
		Polling: Polling{
			IntervalSeconds:     defaultPollIntervalSeconds,
			FetchTimeoutSeconds: defaultFetchTimeoutSeconds,
		},
		Audio: Audio{
			SoundPath:   defaultSoundPath,
			RepeatCount: defaultAudioRepeatCount,
			GapMillis:   defaultAudioGapMillis,
		},
		Toast: Toast{
			DurationSeconds: defaultToastDurationSeconds,
			ActionLabel:     defaultToastActionLabel,
			Severity:        defaultToastSeverity,
			RequestTimeout:  defaultNtfyRequestTimeout,
		},
		History: History{
			Driver:        defaultHistoryDriver,
			RetentionDays: defaultHistoryRetentionDays,
		},
		Broker: Broker{
			Exchange: defaultBrokerExchange,
			Subject:  defaultBrokerSubject,
			ClientID: defaultBrokerClientID,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
