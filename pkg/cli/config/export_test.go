package config

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, channelID string) *Slack {
	return &Slack{
		botToken:  botToken,
		channelID: channelID,
	}
}

// NewGeminiForTest creates a Gemini config for testing purposes
func NewGeminiForTest(projectID, location, apiKey string) *Gemini {
	return &Gemini{
		projectID: projectID,
		location:  location,
		apiKey:    apiKey,
	}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, filePath string) *Repository {
	return &Repository{
		backend:  backend,
		filePath: filePath,
	}
}

// NewNotionForTest creates a Notion config for testing purposes
func NewNotionForTest(token, databaseID string) *Notion {
	return &Notion{
		token:      token,
		databaseID: databaseID,
	}
}

// NewAuthForTest creates an Auth config for testing purposes
func NewAuthForTest(secret string) *Auth {
	return &Auth{secret: secret}
}

// NewAppForTest creates an App config for testing purposes
func NewAppForTest(path string, enrich bool) *App {
	return &App{path: path, enrich: enrich}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

// LLMOptions is exported for testing
var LLMOptions = llmOptions
