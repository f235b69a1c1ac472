package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	Port         string
	SourcesFile  string
	APIAccessKey string

	// Pipeline configuration
	FetchIntervalHours int
	FetchWorkerCount   int
	ArticleWorkerCount int
	PerSourceLimit     int
	FetchTimeout       int
	MinContentLength   int

	// LLM configuration
	LLMEndpoint    string
	LLMAPIKey      string
	LLMModel       string
	EmbeddingModel string
	LLMTimeout     int
	LLMConcurrency int

	// Ranking configuration
	SimilarityWeight float64
	QualityWeight    float64
	ScoreThreshold   float64
	LearningRate     float64

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
