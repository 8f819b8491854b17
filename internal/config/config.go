package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL"`
	DatabaseURL string `env:"DATABASE_URL"`

	Polar Polar `envPrefix:"POLAR_"`
	Auth  Auth  `envPrefix:"AUTH_"`
}

type Polar struct {
	BaseApiURL  string `env:"BASE_API_URL" envDefault:"https://api.polar.sh"`
	AccessToken string `env:"ACCESS_TOKEN"`
	SuccessURL  string `env:"SUCCESS_URL"`
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
