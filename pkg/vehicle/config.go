package vehicle

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"

	"github.com/robotalks/robocar/pkg/vc"
)

// Config defines the configurations of the vehicle daemon.
type Config struct {
	// ID names the vehicle on MQTT. Defaults to the machine ID.
	ID string `yaml:"id"`
	// Variant selects the protocol variant: lf or cr.
	Variant string `yaml:"variant"`
	// Link is the URL of the command link.
	// e.g. serial:///dev/ttyACM0?baud=115200, tcp://:7070, ws://:8080/vc
	Link string `yaml:"link"`
	// Actuator is the URL of the actuator backend.
	// e.g. log:, maestro:///dev/ttyACM1?motor=0&steering=1
	Actuator string `yaml:"actuator"`
	// Interval is the control loop period.
	Interval time.Duration `yaml:"interval"`
	// MetricsAddr enables the Prometheus endpoint when set.
	MetricsAddr string `yaml:"metrics_addr"`
	// MQTTBrokerURL enables event publishing when set.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string `yaml:"mqtt"`
}

var defaultConfig = Config{
	Variant:  vc.VariantLF.Name,
	Link:     "tcp://:7070",
	Actuator: "log:",
	Interval: 10 * time.Millisecond,
}

var configFile string

func init() {
	applyEnv(&defaultConfig, os.Getenv)
	if defaultConfig.ID == "" {
		defaultConfig.ID = MachineID()
	}
}

func applyEnv(conf *Config, getenv func(string) string) {
	for name, field := range map[string]*string{
		"ROBO_ID":           &conf.ID,
		"ROBO_VARIANT":      &conf.Variant,
		"ROBO_LINK":         &conf.Link,
		"ROBO_ACTUATOR":     &conf.Actuator,
		"ROBO_METRICS_ADDR": &conf.MetricsAddr,
		"ROBO_MQTT_URL":     &conf.MQTTBrokerURL,
	} {
		if val := getenv(name); val != "" {
			*field = val
		}
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&configFile, "config", configFile, "YAML config file")
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Vehicle ID")
	flag.StringVar(&defaultConfig.Variant, "variant", defaultConfig.Variant, "Protocol variant: lf or cr")
	flag.StringVar(&defaultConfig.Link, "link", defaultConfig.Link, "Command link URL")
	flag.StringVar(&defaultConfig.Actuator, "actuator", defaultConfig.Actuator, "Actuator backend URL")
	flag.DurationVar(&defaultConfig.Interval, "interval", defaultConfig.Interval, "Control loop interval")
	flag.StringVar(&defaultConfig.MetricsAddr, "metrics", defaultConfig.MetricsAddr, "Prometheus listen address, empty to disable")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty to disable")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// ReadConfig overlays the YAML file at path onto conf. Unknown keys are
// rejected.
func ReadConfig(path string, conf *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.UnmarshalStrict(data, conf); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

// LoadConfig builds the effective config after flag.Parse. Values come
// from defaults, then environment, then the -config file, then flags
// given explicitly on the command line.
func LoadConfig() (*Config, error) {
	if configFile != "" {
		explicit := make(map[string]string)
		flag.Visit(func(f *flag.Flag) {
			explicit[f.Name] = f.Value.String()
		})
		if err := ReadConfig(configFile, &defaultConfig); err != nil {
			return nil, err
		}
		for name, val := range explicit {
			if err := flag.Set(name, val); err != nil {
				return nil, err
			}
		}
	}
	conf := NewConfig()
	return conf, conf.Validate()
}

// Validate makes sure the config is usable.
func (c *Config) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("bad config: 'id' must be specified")
	}
	if _, err := vc.VariantByName(c.Variant); err != nil {
		return fmt.Errorf("bad config: %w", err)
	}
	if err := checkScheme("link", c.Link, "serial", "tcp", "ws"); err != nil {
		return err
	}
	if err := checkScheme("actuator", c.Actuator, "log", "maestro"); err != nil {
		return err
	}
	if c.Interval <= 0 || c.Interval > time.Second {
		return fmt.Errorf("bad config: 'interval' must be within (0, 1s]")
	}
	if c.MQTTBrokerURL != "" {
		if _, err := url.Parse(c.MQTTBrokerURL); err != nil {
			return fmt.Errorf("bad config: 'mqtt': %w", err)
		}
	}
	return nil
}

func checkScheme(key, val string, schemes ...string) error {
	u, err := url.Parse(val)
	if err != nil {
		return fmt.Errorf("bad config: '%s': %w", key, err)
	}
	for _, scheme := range schemes {
		if u.Scheme == scheme {
			return nil
		}
	}
	return fmt.Errorf("bad config: '%s' scheme must be one of %v", key, schemes)
}
