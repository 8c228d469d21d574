package configuration

import (
	"encoding/json"
	"os"
)

type MongoConfig struct {
	Uri                string `json:"uri"`
	Database           string `json:"database"`
	MessagesCollection string `json:"messagesCollection"`
	UsersCollection    string `json:"usersCollection"`
}

type ServerConfig struct {
	AppPort        int      `json:"app_port"`
	SocketPort     int      `json:"socket_port"`
	SocketRoute    string   `json:"socket_route"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type AuthConfig struct {
	// JwtSecret comes from the environment, never from the config file.
	JwtSecret string `json:"-"`
}

type CloudinaryConfig struct {
	CloudName string `json:"cloud_name"`
	ApiKey    string `json:"-"`
	ApiSecret string `json:"-"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second"`
	Burst             int     `json:"burst"`
}

type Config struct {
	Mongo      MongoConfig      `json:"mongo"`
	Server     ServerConfig     `json:"server"`
	Auth       AuthConfig       `json:"auth"`
	Cloudinary CloudinaryConfig `json:"cloudinary"`
	RateLimit  RateLimitConfig  `json:"rate_limit"`
}

func LoadConfig(configPath string) (*Config, error) {
	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config Config
	err = json.Unmarshal(file, &config)
	if err != nil {
		return nil, err
	}

	config.applyEnv()

	return &config, nil
}

// applyEnv layers secrets and deployment overrides from the
// environment on top of the file config. A .env file, if present, is
// loaded by main before this runs.
func (c *Config) applyEnv() {
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		c.Mongo.Uri = uri
	}
	c.Auth.JwtSecret = os.Getenv("JWT_SECRET")
	if name := os.Getenv("CLOUDINARY_CLOUD_NAME"); name != "" {
		c.Cloudinary.CloudName = name
	}
	c.Cloudinary.ApiKey = os.Getenv("CLOUDINARY_API_KEY")
	c.Cloudinary.ApiSecret = os.Getenv("CLOUDINARY_API_SECRET")
}
