package services

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/rpupo63/rpgm-blog/content"
	"github.com/rpupo63/rpgm-blog/database"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// PasswordReplacement is shown in place of a stored secret. A submitted value
// containing it means "keep the stored secret".
const PasswordReplacement = "****************"

// SettingsStore is a write-through cache over one settings node. Writes are
// persisted first and only merged into the cache once storage accepted them.
type SettingsStore struct {
	logger   zerolog.Logger
	repo     *database.SettingRepo
	location content.Location
	defaults map[string]string
	secrets  map[string]bool

	writeMu sync.Mutex
	mu      sync.RWMutex
	values  map[string]string
}

func NewSettingsStore(repo *database.SettingRepo, location content.Location, defaults map[string]string, secrets ...string) *SettingsStore {
	secretSet := make(map[string]bool, len(secrets))
	for _, key := range secrets {
		secretSet[key] = true
	}

	return &SettingsStore{
		logger:   log.With().Str("service", "settings").Str("path", location.String()).Logger(),
		repo:     repo,
		location: location,
		defaults: defaults,
		secrets:  secretSet,
		values:   map[string]string{},
	}
}

func (s *SettingsStore) Location() content.Location {
	return s.location
}

// Load replaces the cache with what is stored.
func (s *SettingsStore) Load(ctx context.Context) error {
	values, err := s.repo.FindByPath(ctx, s.location.String())
	if err != nil {
		return fmt.Errorf("load settings %s: %w", s.location, err)
	}

	s.mu.Lock()
	s.values = values
	s.mu.Unlock()
	return nil
}

// Get returns the cached value of key, or its default.
func (s *SettingsStore) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v, ok := s.values[key]; ok {
		return v
	}
	return s.defaults[key]
}

func (s *SettingsStore) GetBool(key string) bool {
	b, err := strconv.ParseBool(s.Get(key))
	return err == nil && b
}

// GetInt returns the value of key as an int and whether it parsed.
func (s *SettingsStore) GetInt(key string) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(s.Get(key)))
	if err != nil {
		return 0, false
	}
	return i, true
}

// Masked returns the placeholder for a set secret and "" for an unset one.
func (s *SettingsStore) Masked(key string) string {
	if s.Get(key) == "" {
		return ""
	}
	return PasswordReplacement
}

// Values returns every known key with secrets masked.
func (s *SettingsStore) Values() map[string]string {
	s.mu.RLock()
	out := make(map[string]string, len(s.defaults)+len(s.values))
	for k, v := range s.defaults {
		out[k] = v
	}
	for k, v := range s.values {
		out[k] = v
	}
	s.mu.RUnlock()

	for k := range s.secrets {
		out[k] = s.Masked(k)
	}
	return out
}

// SetProperties stores all properties in one transaction, then updates the
// cache. On failure the cache is untouched.
func (s *SettingsStore) SetProperties(ctx context.Context, props map[string]string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.repo.Upsert(ctx, s.location.String(), props); err != nil {
		s.logger.Error().Err(err).Msg("could not persist settings")
		return fmt.Errorf("save settings %s: %w", s.location, err)
	}

	s.mu.Lock()
	for k, v := range props {
		s.values[k] = v
	}
	s.mu.Unlock()
	return nil
}

// Set stores one property.
func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	return s.SetProperties(ctx, map[string]string{key: value})
}

// SetSecret stores a secret unless value still carries the placeholder.
func (s *SettingsStore) SetSecret(ctx context.Context, key, value string) error {
	props := map[string]string{}
	ApplySecret(props, key, value)
	if len(props) == 0 {
		return nil
	}
	return s.SetProperties(ctx, props)
}

// ApplySecret adds submitted to props unless it contains the placeholder.
// An empty submission is kept so the secret can be cleared.
func ApplySecret(props map[string]string, key, submitted string) {
	if strings.Contains(submitted, PasswordReplacement) {
		return
	}
	props[key] = submitted
}

const (
	SystemBlogName           = "system.blogName"
	SystemExtensionlessURLs  = "system.extentionlessUrls"
	SystemTemporaryDirectory = "system.temporaryDirectory"

	DefaultBlogName = "RPGM"
)

// SystemSettings are the site wide options.
type SystemSettings struct {
	*SettingsStore
}

func NewSystemSettings(repo *database.SettingRepo) SystemSettings {
	return SystemSettings{NewSettingsStore(repo, content.SettingsLocation("system"), map[string]string{
		SystemBlogName:           DefaultBlogName,
		SystemExtensionlessURLs:  "false",
		SystemTemporaryDirectory: os.TempDir(),
	})}
}

func (s SystemSettings) BlogName() string {
	return s.Get(SystemBlogName)
}

func (s SystemSettings) ExtensionlessURLs() bool {
	return s.GetBool(SystemExtensionlessURLs)
}

func (s SystemSettings) TemporaryDirectory() string {
	return s.Get(SystemTemporaryDirectory)
}

func (s SystemSettings) SetBlogName(ctx context.Context, name string) error {
	return s.Set(ctx, SystemBlogName, name)
}

func (s SystemSettings) SetExtensionlessURLs(ctx context.Context, enabled bool) error {
	return s.Set(ctx, SystemExtensionlessURLs, strconv.FormatBool(enabled))
}

func (s SystemSettings) SetTemporaryDirectory(ctx context.Context, dir string) error {
	return s.Set(ctx, SystemTemporaryDirectory, dir)
}

type SystemConfig struct {
	BlogName           string
	ExtensionlessURLs  bool
	TemporaryDirectory string
}

func (s SystemSettings) Update(ctx context.Context, c SystemConfig) error {
	return s.SetProperties(ctx, map[string]string{
		SystemBlogName:           c.BlogName,
		SystemExtensionlessURLs:  strconv.FormatBool(c.ExtensionlessURLs),
		SystemTemporaryDirectory: c.TemporaryDirectory,
	})
}

const (
	EmailSMTPHost     = "email.smtp.host"
	EmailSMTPPort     = "email.smtp.port"
	EmailSMTPUsername = "email.smtp.username"
	EmailSMTPPassword = "email.smtp.password"
	EmailSender       = "email.sender"
	EmailRecipient    = "email.recipient"
)

type EmailSettings struct {
	*SettingsStore
}

func NewEmailSettings(repo *database.SettingRepo) EmailSettings {
	return EmailSettings{NewSettingsStore(repo, content.SettingsLocation("email"), map[string]string{
		EmailSMTPPort: "587",
	}, EmailSMTPPassword)}
}

func (s EmailSettings) SMTPHost() string     { return s.Get(EmailSMTPHost) }
func (s EmailSettings) SMTPUsername() string { return s.Get(EmailSMTPUsername) }
func (s EmailSettings) Sender() string       { return s.Get(EmailSender) }
func (s EmailSettings) Recipient() string    { return s.Get(EmailRecipient) }

// SMTPPort returns the port and whether one is set.
func (s EmailSettings) SMTPPort() (int, bool) { return s.GetInt(EmailSMTPPort) }

func (s EmailSettings) SetSMTPHost(ctx context.Context, host string) error {
	return s.Set(ctx, EmailSMTPHost, host)
}

func (s EmailSettings) SetSMTPPort(ctx context.Context, port int) error {
	return s.Set(ctx, EmailSMTPPort, strconv.Itoa(port))
}

func (s EmailSettings) SetSMTPUsername(ctx context.Context, username string) error {
	return s.Set(ctx, EmailSMTPUsername, username)
}

func (s EmailSettings) SetSMTPPassword(ctx context.Context, password string) error {
	return s.SetSecret(ctx, EmailSMTPPassword, password)
}

func (s EmailSettings) SetSender(ctx context.Context, sender string) error {
	return s.Set(ctx, EmailSender, sender)
}

func (s EmailSettings) SetRecipient(ctx context.Context, recipient string) error {
	return s.Set(ctx, EmailRecipient, recipient)
}

type EmailConfig struct {
	Host      string
	Port      *int
	Username  string
	Password  string
	Sender    string
	Recipient string
}

// Update stores the SMTP options. A nil Port clears the port and the password
// is skipped when it still carries the placeholder.
func (s EmailSettings) Update(ctx context.Context, c EmailConfig) error {
	port := ""
	if c.Port != nil {
		port = strconv.Itoa(*c.Port)
	}

	props := map[string]string{
		EmailSMTPHost:     c.Host,
		EmailSMTPPort:     port,
		EmailSMTPUsername: c.Username,
		EmailSender:       c.Sender,
		EmailRecipient:    c.Recipient,
	}
	ApplySecret(props, EmailSMTPPassword, c.Password)
	return s.SetProperties(ctx, props)
}

// SMTP returns the current options with the real password.
func (s EmailSettings) SMTP() SMTPConfig {
	return SMTPConfig{
		Host:      s.Get(EmailSMTPHost),
		Port:      s.Get(EmailSMTPPort),
		Username:  s.Get(EmailSMTPUsername),
		Password:  s.Get(EmailSMTPPassword),
		From:      s.Get(EmailSender),
		Recipient: s.Get(EmailRecipient),
	}
}

const (
	RecaptchaSiteKey   = "recaptcha.siteKey"
	RecaptchaSecretKey = "recaptcha.secretKey"
	RecaptchaEnabled   = "recaptcha.enabled"
)

type RecaptchaSettings struct {
	*SettingsStore
}

func NewRecaptchaSettings(repo *database.SettingRepo) RecaptchaSettings {
	return RecaptchaSettings{NewSettingsStore(repo, content.SettingsLocation("recaptcha"), map[string]string{
		RecaptchaEnabled: "false",
	}, RecaptchaSecretKey)}
}

func (s RecaptchaSettings) SiteKey() string   { return s.Get(RecaptchaSiteKey) }
func (s RecaptchaSettings) SecretKey() string { return s.Get(RecaptchaSecretKey) }
func (s RecaptchaSettings) Enabled() bool     { return s.GetBool(RecaptchaEnabled) }

func (s RecaptchaSettings) SetSiteKey(ctx context.Context, key string) error {
	return s.Set(ctx, RecaptchaSiteKey, key)
}

func (s RecaptchaSettings) SetSecretKey(ctx context.Context, key string) error {
	return s.SetSecret(ctx, RecaptchaSecretKey, key)
}

func (s RecaptchaSettings) SetEnabled(ctx context.Context, enabled bool) error {
	return s.Set(ctx, RecaptchaEnabled, strconv.FormatBool(enabled))
}

func (s RecaptchaSettings) Update(ctx context.Context, siteKey, secretKey string, enabled bool) error {
	props := map[string]string{
		RecaptchaSiteKey: siteKey,
		RecaptchaEnabled: strconv.FormatBool(enabled),
	}
	ApplySecret(props, RecaptchaSecretKey, secretKey)
	return s.SetProperties(ctx, props)
}

const (
	AkismetAPIKey     = "akismet.apiKey"
	AkismetDomainName = "akismet.domainName"
	AkismetEnabled    = "akismet.enabled"
)

type AkismetSettings struct {
	*SettingsStore
}

func NewAkismetSettings(repo *database.SettingRepo) AkismetSettings {
	return AkismetSettings{NewSettingsStore(repo, content.SettingsLocation("akismet"), map[string]string{
		AkismetEnabled: "false",
	}, AkismetAPIKey)}
}

func (s AkismetSettings) APIKey() string     { return s.Get(AkismetAPIKey) }
func (s AkismetSettings) DomainName() string { return s.Get(AkismetDomainName) }
func (s AkismetSettings) Enabled() bool      { return s.GetBool(AkismetEnabled) }

func (s AkismetSettings) SetAPIKey(ctx context.Context, key string) error {
	return s.SetSecret(ctx, AkismetAPIKey, key)
}

func (s AkismetSettings) SetDomainName(ctx context.Context, domain string) error {
	return s.Set(ctx, AkismetDomainName, domain)
}

func (s AkismetSettings) SetEnabled(ctx context.Context, enabled bool) error {
	return s.Set(ctx, AkismetEnabled, strconv.FormatBool(enabled))
}

func (s AkismetSettings) Update(ctx context.Context, apiKey, domainName string, enabled bool) error {
	props := map[string]string{
		AkismetDomainName: domainName,
		AkismetEnabled:    strconv.FormatBool(enabled),
	}
	ApplySecret(props, AkismetAPIKey, apiKey)
	return s.SetProperties(ctx, props)
}

// Settings bundles every settings node the service uses.
type Settings struct {
	System    SystemSettings
	Email     EmailSettings
	Recaptcha RecaptchaSettings
	Akismet   AkismetSettings
}

func NewSettings(repo *database.SettingRepo) Settings {
	return Settings{
		System:    NewSystemSettings(repo),
		Email:     NewEmailSettings(repo),
		Recaptcha: NewRecaptchaSettings(repo),
		Akismet:   NewAkismetSettings(repo),
	}
}

// Load fills every cache from storage. The nodes are read concurrently and
// the first failure is returned.
func (s Settings) Load(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, store := range []*SettingsStore{s.System.SettingsStore, s.Email.SettingsStore, s.Recaptcha.SettingsStore, s.Akismet.SettingsStore} {
		store := store
		g.Go(func() error {
			return store.Load(ctx)
		})
	}
	return g.Wait()
}
