// Package config loads the service configuration.
//
// The configuration comes from a single YAML file named by the --config flag
// or the SLMS_CONFIG environment variable. Without a file the built-in
// defaults are used, which recreate the stock catalog on every start.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/erazemk/slms/internal/directory"
	"github.com/erazemk/slms/internal/identity"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "SLMS_CONFIG"

// Config is the full service configuration.
type Config struct {
	Listen      string          `yaml:"listen"`
	LogFile     string          `yaml:"log_file"`
	Journal     string          `yaml:"journal"`
	JWTSecret   string          `yaml:"jwt_secret"`
	TokenExpiry time.Duration   `yaml:"token_expiry"`
	BcryptCost  int             `yaml:"bcrypt_cost"`
	StudentID   identity.Scheme `yaml:"student_id"`
	Admins      []Admin         `yaml:"admins"`
	Seed        Seed            `yaml:"seed"`
}

// Admin is an admin account. Exactly one of Credential or CredentialHash
// must be set; a plain Credential is hashed at startup.
type Admin struct {
	ID             string `yaml:"id"`
	Credential     string `yaml:"credential,omitempty"`
	CredentialHash string `yaml:"credential_hash,omitempty"`
}

// Seed is the catalog and sale history recreated on every start.
type Seed struct {
	Items []Item `yaml:"items"`
	Sales []Sale `yaml:"sales"`
}

// Item is a seeded catalog item.
type Item struct {
	ID      string  `yaml:"id"`
	Title   string  `yaml:"title"`
	Author  string  `yaml:"author"`
	ISBN    string  `yaml:"isbn"`
	Copies  int     `yaml:"copies"`
	ForSale bool    `yaml:"for_sale"`
	Price   float64 `yaml:"price"`
}

// Sale is a seeded purchase.
type Sale struct {
	Student       string `yaml:"student"`
	Item          string `yaml:"item"`
	PaymentMethod string `yaml:"payment_method"`
	Faculty       string `yaml:"faculty"`
	ScheduledTime string `yaml:"scheduled_time"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen:      ":8080",
		Journal:     ":memory:",
		TokenExpiry: 24 * time.Hour,
		BcryptCost:  bcrypt.DefaultCost,
		StudentID:   identity.DefaultScheme(),
		Admins:      []Admin{{ID: "admin", Credential: "admin"}},
		Seed: Seed{
			Items: []Item{
				{ID: "B001", Title: "Introduction to Python", Author: "John Smith", ISBN: "978-0123456789", Copies: 3},
				{ID: "B002", Title: "Data Structures and Algorithms", Author: "Jane Doe", ISBN: "978-0987654321", Copies: 2},
				{ID: "B003", Title: "Object-Oriented Programming", Author: "Bob Johnson", ISBN: "978-1122334455", Copies: 1},
				{ID: "S001", Title: "Campus Survival Guide", Author: "Student Union", ISBN: "978-5566778899", Copies: 3, ForSale: true, Price: 15.00},
			},
		},
	}
}

// Load reads path over the defaults. An empty path falls back to SLMS_CONFIG,
// and when that is empty too the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}

	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var problems []error

	if c.Listen == "" {
		problems = append(problems, errors.New("listen address required"))
	}
	if c.Journal == "" {
		problems = append(problems, errors.New("journal dsn required"))
	}
	if c.TokenExpiry <= 0 {
		problems = append(problems, fmt.Errorf("token_expiry must be positive, got %s", c.TokenExpiry))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		problems = append(problems, fmt.Errorf("bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if err := c.StudentID.Validate(); err != nil {
		problems = append(problems, err)
	}
	if len(c.Admins) == 0 {
		problems = append(problems, errors.New("at least one admin required"))
	}
	for _, a := range c.Admins {
		if a.ID == "" {
			problems = append(problems, errors.New("admin id required"))
		}
		if (a.Credential == "") == (a.CredentialHash == "") {
			problems = append(problems, fmt.Errorf("admin %q needs exactly one of credential or credential_hash", a.ID))
		}
	}

	return errors.Join(problems...)
}

// DirectorySeed converts the configured admins and seed data, hashing plain
// admin credentials with the configured cost.
func (c *Config) DirectorySeed() (directory.Seed, error) {
	var seed directory.Seed

	for _, a := range c.Admins {
		hash := []byte(a.CredentialHash)
		if a.Credential != "" {
			h, err := identity.HashCredential(a.Credential, c.BcryptCost)
			if err != nil {
				return directory.Seed{}, fmt.Errorf("admin %s: %w", a.ID, err)
			}
			hash = h
		}
		seed.Admins = append(seed.Admins, directory.SeedAdmin{ID: a.ID, CredentialHash: hash})
	}

	for _, it := range c.Seed.Items {
		seed.Items = append(seed.Items, directory.NewItem{
			ID:      it.ID,
			Title:   it.Title,
			Author:  it.Author,
			ISBN:    it.ISBN,
			Copies:  it.Copies,
			ForSale: it.ForSale,
			Price:   it.Price,
		})
	}

	for _, s := range c.Seed.Sales {
		seed.Sales = append(seed.Sales, directory.PurchaseRequest{
			StudentID:     s.Student,
			ItemID:        s.Item,
			PaymentMethod: s.PaymentMethod,
			Faculty:       s.Faculty,
			ScheduledTime: s.ScheduledTime,
		})
	}

	return seed, nil
}
