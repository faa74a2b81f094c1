package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del agente bancario.
type Config struct {
	Bank       BankConfig       `yaml:"bank"`
	Identity   IdentityConfig   `yaml:"identity"`
	Simulation SimulationConfig `yaml:"simulation"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`
}

// BankConfig controla el ciclo de vida de los préstamos reales.
type BankConfig struct {
	BorrowerAddress string `yaml:"borrower_address"` // dirección de la wallet (la gestión de claves queda fuera)
	LoanTermDays    int    `yaml:"loan_term_days"`
}

// IdentityConfig es la identidad registrada on-chain, si existe.
// Un agent_id no vacío significa "identidad registrada".
type IdentityConfig struct {
	AgentID string `yaml:"agent_id"`
}

// SimulationConfig son los defaults de la simulación multi-agente.
type SimulationConfig struct {
	Agents     int    `yaml:"agents"`
	Epochs     int    `yaml:"epochs"`
	Seed       int64  `yaml:"seed"`
	ReportPath string `yaml:"report_path"`
}

// StorageConfig controla dónde se persisten modelo y libro.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si
// existe. Un archivo de config ausente no es error: se sintetizan defaults,
// igual que con el resto del estado persistido.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// sin archivo → defaults
	case err != nil:
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// LoanTerm devuelve el plazo de préstamo como time.Duration.
func (c *Config) LoanTerm() time.Duration {
	return time.Duration(c.Bank.LoanTermDays) * 24 * time.Hour
}

// IdentityRegistered responde si la configuración declara una identidad.
func (c *Config) IdentityRegistered() bool {
	return c.Identity.AgentID != ""
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están
// presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BORROWER_ADDRESS"); v != "" {
		cfg.Bank.BorrowerAddress = v
	}
	if v := os.Getenv("AGENT_ID"); v != "" {
		cfg.Identity.AgentID = v
	}
	if v := os.Getenv("BANK_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Bank.LoanTermDays <= 0 {
		cfg.Bank.LoanTermDays = 30
	}
	if cfg.Simulation.Agents <= 0 {
		cfg.Simulation.Agents = 100
	}
	if cfg.Simulation.Epochs <= 0 {
		cfg.Simulation.Epochs = 24
	}
	if cfg.Simulation.Seed == 0 {
		cfg.Simulation.Seed = 42
	}
	if cfg.Simulation.ReportPath == "" {
		cfg.Simulation.ReportPath = "simulation-report.json"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "universebank.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
