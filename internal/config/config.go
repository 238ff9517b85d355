package config

import (
	"LeadIntake/internal/lib/validate"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env    string `yaml:"env" env:"ENV" env-default:"local"`
	Listen struct {
		BindIP  string `yaml:"bind_ip" env:"BIND_IP" env-default:"0.0.0.0"`
		Port    string `yaml:"port" env:"PORT" env-default:"3000"`
		Timeout int    `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"60"`
	} `yaml:"listen"`
	Mongo struct {
		Uri      string `yaml:"uri" env:"MONGO_URI" env-required:"true" validate:"required"`
		Database string `yaml:"database" env:"MONGO_DATABASE" env-default:""`
		Timeout  int    `yaml:"timeout" env:"MONGO_TIMEOUT" env-default:"10"`
	} `yaml:"mongo"`
	Campaigns struct {
		Multi   bool              `yaml:"multi" env:"MULTI_CAMPAIGN" env-default:"false"`
		Default string            `yaml:"default" env:"DEFAULT_CAMPAIGN" env-default:"default"`
		Stores  map[string]string `yaml:"stores" env:"CAMPAIGNS" env-separator:","`
	} `yaml:"campaigns"`
	Mail struct {
		Provider    string `yaml:"provider" env:"MAIL_PROVIDER" env-default:"sendgrid" validate:"oneof=sendgrid smtp"`
		ApiKey      string `yaml:"api_key" env:"SENDGRID_API_KEY" env-default:""`
		BaseUrl     string `yaml:"base_url" env:"SENDGRID_BASE_URL" env-default:"https://api.sendgrid.com"`
		From        string `yaml:"from" env:"MAIL_FROM" env-default:""`
		FromName    string `yaml:"from_name" env:"MAIL_FROM_NAME" env-default:""`
		Concurrency int    `yaml:"concurrency" env:"MAIL_CONCURRENCY" env-default:"10" validate:"min=1"`
		Smtp        struct {
			Host     string `yaml:"host" env:"SMTP_HOST" env-default:""`
			Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
			User     string `yaml:"user" env:"SMTP_USER" env-default:""`
			Password string `yaml:"password" env:"SMTP_PASSWORD" env-default:""`
		} `yaml:"smtp"`
	} `yaml:"mail"`
}

var instance *Config
var once sync.Once

// MustLoad reads the configuration once per process and exits when it is
// incomplete. A missing file is not an error: the environment alone is
// enough to run the service.
func MustLoad(path string) *Config {
	once.Do(func() {
		conf, err := Load(path)
		if err != nil {
			log.Fatal(err)
		}
		instance = conf
	})
	return instance
}

func Load(path string) (*Config, error) {
	// .env is optional, real environment variables win
	_ = godotenv.Load()

	conf := &Config{}
	var err error
	if _, statErr := os.Stat(path); path != "" && statErr == nil {
		err = cleanenv.ReadConfig(path, conf)
	} else {
		err = cleanenv.ReadEnv(conf)
	}
	if err != nil {
		desc, _ := cleanenv.GetDescription(conf, nil)
		return nil, fmt.Errorf("%s; %s", err, desc)
	}

	if err = conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Campaigns.Multi && len(c.Campaigns.Stores) == 0 {
		return errors.New("config: multi-campaign mode needs at least one campaign store")
	}
	if !c.Campaigns.Multi && c.Mongo.Database == "" {
		return errors.New("config: single database mode needs mongo database")
	}
	if c.Mail.Provider == "smtp" && c.Mail.Smtp.Host == "" {
		return errors.New("config: smtp provider needs smtp host")
	}
	return nil
}

// CampaignStores returns the campaign id to database name table the
// registry is built from.
func (c *Config) CampaignStores() map[string]string {
	if !c.Campaigns.Multi {
		return map[string]string{c.Campaigns.Default: c.Mongo.Database}
	}
	stores := make(map[string]string, len(c.Campaigns.Stores))
	for id, db := range c.Campaigns.Stores {
		stores[id] = db
	}
	return stores
}
