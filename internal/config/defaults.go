package config

const (
	defaultDataDir   = "~/.local/share/quizreel"
	defaultOutputDir = "~/.local/share/quizreel/output"
	defaultLogDir    = "~/.local/share/quizreel/logs"

	defaultShortBatchSize           = 5
	defaultLongformBatchSize        = 50
	defaultUsageCap                 = 1
	defaultReservationMaxAgeMinutes = 120

	defaultRendererBinary  = "quizrender"
	defaultRendererTimeout = 1800
	defaultRendererWidth   = 1920
	defaultRendererHeight  = 1080

	defaultYouTubeCategoryID     = "27" // Education
	defaultYouTubePrivacyStatus  = "public"
	defaultYouTubeUploadTimeout  = 900
	defaultYouTubeRequestTimeout = 30

	defaultGeneratorBaseURL = "http://127.0.0.1:8000/v1"
	defaultGeneratorModel   = "mistral-7b-instruct"
	defaultGeneratorTimeout = 120

	defaultWorkflowMaxAttempts    = 3
	defaultWorkflowRetryBaseDelay = 30
	defaultWorkflowPauseBetween   = 5

	defaultNotifyRequestTimeout = 10

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Selection: Selection{
			ShortBatchSize:           defaultShortBatchSize,
			LongformBatchSize:        defaultLongformBatchSize,
			UsageCap:                 defaultUsageCap,
			ReservationMaxAgeMinutes: defaultReservationMaxAgeMinutes,
			TopicRotation:            []string{"Science", "History", "Entertainment", "Sports", "Nature", "Geography", ""},
		},
		Renderer: Renderer{
			Binary:         defaultRendererBinary,
			TimeoutSeconds: defaultRendererTimeout,
			Width:          defaultRendererWidth,
			Height:         defaultRendererHeight,
		},
		YouTube: YouTube{
			CategoryID:     defaultYouTubeCategoryID,
			PrivacyStatus:  defaultYouTubePrivacyStatus,
			Tags:           []string{"quiz", "trivia", "brain teaser", "general knowledge"},
			UploadTimeout:  defaultYouTubeUploadTimeout,
			RequestTimeout: defaultYouTubeRequestTimeout,
		},
		Generator: Generator{
			BaseURL:        defaultGeneratorBaseURL,
			Model:          defaultGeneratorModel,
			TimeoutSeconds: defaultGeneratorTimeout,
		},
		Workflow: Workflow{
			MaxAttempts:             defaultWorkflowMaxAttempts,
			RetryBaseDelaySeconds:   defaultWorkflowRetryBaseDelay,
			PauseBetweenJobsSeconds: defaultWorkflowPauseBetween,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
