package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	CORS struct {
		AllowedOrigins   []string `env:"ALLOWED_ORIGINS" envSeparator:","`
		AllowCredentials bool     `env:"ALLOW_CREDENTIALS" envDefault:"false"`
	} `envPrefix:"CORS_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	InitialAdmin struct {
		Name     string `env:"NAME" envDefault:"管理员"`
		Email    string `env:"EMAIL,required"`
		Password string `env:"PASSWORD,required"`
	} `envPrefix:"INITIAL_ADMIN_"`
	JWT struct {
		Secret string `env:"SECRET,required"`
		// 会话令牌的有效期，以小时为单位
		SessionExpiration int `env:"SESSION_EXPIRATION" envDefault:"168"` // 7 天
		// 单一用途令牌（邮箱验证 / 重置密码）的有效期，以小时为单位
		VerifyEmailExpiration   int `env:"VERIFY_EMAIL_EXPIRATION" envDefault:"24"`
		ResetPasswordExpiration int `env:"RESET_PASSWORD_EXPIRATION" envDefault:"1"`
	} `envPrefix:"JWT_"`
	Frontend struct {
		// 用于拼接邮件中的验证 / 重置链接
		BaseURL string `env:"BASE_URL" envDefault:"http://localhost:5173"`
	} `envPrefix:"FRONTEND_"`
	Pagination struct {
		DefaultLimit int `env:"DEFAULT_LIMIT" envDefault:"10"`
		MaxLimit     int `env:"MAX_LIMIT" envDefault:"100"`
	} `envPrefix:"PAGINATION_"`
	Email struct {
		SMTP struct {
			Username    string `env:"USERNAME,required"`
			Password    string `env:"PASSWORD,required"`
			Host        string `env:"HOST,required"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
		// 生成随机用户时使用的邮箱域名
		UserDomain string `env:"USER_DOMAIN" envDefault:"example.com"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host                string `env:"HOST" envDefault:"localhost"`
		Port                int    `env:"PORT" envDefault:"6379"`
		Password            string `env:"PASSWORD,required"`
		ConnectTimeout      int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationExpiration int    `env:"OPERATION_EXPIRATION" envDefault:"10"`
	} `envPrefix:"REDIS_"`
	Seed struct {
		User struct {
			Password string `env:"PASSWORD" envDefault:"test1234"`
		} `envPrefix:"USER_"`
	} `envPrefix:"SEED_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
	}

	return cfg, nil
}
