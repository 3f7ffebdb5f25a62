package dwd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a configuration document.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

type LogFormat string

const (
	LogFormatDefault LogFormat = ""
	LogFormatConsole LogFormat = "console"
	LogFormatJSON    LogFormat = "json"
)

type LogLevel string

const (
	LogLevelDefault LogLevel = ""
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarn    LogLevel = "warn"
	LogLevelError   LogLevel = "error"
)

const defaultRecordTTL = 300

// Config is the whole configuration document. It is read once at startup.
type Config struct {
	DNSProvider []string `json:"dns_provider" yaml:"dns_provider" toml:"dns_provider"`
	IPProvider  []string `json:"ip_provider" yaml:"ip_provider" toml:"ip_provider"`

	// Interval between two cycles, in seconds.
	Interval uint32 `json:"interval" yaml:"interval" toml:"interval"`
	// RepublishAfter, in seconds, re-asserts an unchanged address. Zero
	// disables it.
	RepublishAfter     uint32   `json:"republish_after,omitempty" yaml:"republish_after,omitempty" toml:"republish_after,omitempty"`
	UpdateOn           UpdateOn `json:"update_on,omitempty" yaml:"update_on,omitempty" toml:"update_on,omitempty"`
	PublishConcurrency int      `json:"publish_concurrency,omitempty" yaml:"publish_concurrency,omitempty" toml:"publish_concurrency,omitempty"`

	Log  LogConfig  `json:"log,omitempty" yaml:"log,omitempty" toml:"log,omitempty"`
	HTTP HTTPConfig `json:"http,omitempty" yaml:"http,omitempty" toml:"http,omitempty"`

	NameCom    *NameComConfig    `json:"name_com,omitempty" yaml:"name_com,omitempty" toml:"name_com,omitempty"`
	Dynv6Com   *Dynv6ComConfig   `json:"dynv6_com,omitempty" yaml:"dynv6_com,omitempty" toml:"dynv6_com,omitempty"`
	Cloudflare *CloudflareConfig `json:"cloudflare,omitempty" yaml:"cloudflare,omitempty" toml:"cloudflare,omitempty"`
	Route53    *Route53Config    `json:"route53,omitempty" yaml:"route53,omitempty" toml:"route53,omitempty"`
	Aliyun     *AliyunConfig     `json:"aliyun,omitempty" yaml:"aliyun,omitempty" toml:"aliyun,omitempty"`
	DNSPod     *DNSPodConfig     `json:"dnspod,omitempty" yaml:"dnspod,omitempty" toml:"dnspod,omitempty"`

	Static    *StaticConfig    `json:"static,omitempty" yaml:"static,omitempty" toml:"static,omitempty"`
	RouterOS  *RouterOSConfig  `json:"routeros,omitempty" yaml:"routeros,omitempty" toml:"routeros,omitempty"`
	Interface *InterfaceConfig `json:"interface,omitempty" yaml:"interface,omitempty" toml:"interface,omitempty"`
	OpenDNS   *OpenDNSConfig   `json:"opendns,omitempty" yaml:"opendns,omitempty" toml:"opendns,omitempty"`
}

type LogConfig struct {
	Level  LogLevel  `json:"level,omitempty" yaml:"level,omitempty" toml:"level,omitempty"`
	Format LogFormat `json:"format,omitempty" yaml:"format,omitempty" toml:"format,omitempty"`
}

type HTTPConfig struct {
	// Timeout per request in seconds. Zero means no timeout.
	Timeout uint32 `json:"timeout,omitempty" yaml:"timeout,omitempty" toml:"timeout,omitempty"`
	// Retries on connection errors and 5xx responses.
	Retries int `json:"retries,omitempty" yaml:"retries,omitempty" toml:"retries,omitempty"`
}

// NameComConfig configures the name.com v4 API. Username and Token fall
// back to NAME_COM_USERNAME and NAME_COM_TOKEN.
type NameComConfig struct {
	Username   string `json:"username,omitempty" yaml:"username,omitempty" toml:"username,omitempty"`
	Token      string `json:"token,omitempty" yaml:"token,omitempty" toml:"token,omitempty"`
	Domain     string `json:"domain" yaml:"domain" toml:"domain"`
	RecordHost string `json:"record_host,omitempty" yaml:"record_host,omitempty" toml:"record_host,omitempty"`
	RecordType string `json:"record_type,omitempty" yaml:"record_type,omitempty" toml:"record_type,omitempty"`
	RecordTTL  uint32 `json:"record_ttl,omitempty" yaml:"record_ttl,omitempty" toml:"record_ttl,omitempty"`
	// APIURL overrides the API base, e.g. the name.com sandbox.
	APIURL string `json:"api_url,omitempty" yaml:"api_url,omitempty" toml:"api_url,omitempty"`
}

// Dynv6ComConfig configures dynv6.com. Token falls back to DYNV6_COM_TOKEN.
type Dynv6ComConfig struct {
	Zone   string `json:"zone" yaml:"zone" toml:"zone"`
	Token  string `json:"token,omitempty" yaml:"token,omitempty" toml:"token,omitempty"`
	APIURL string `json:"api_url,omitempty" yaml:"api_url,omitempty" toml:"api_url,omitempty"`
}

// CloudflareConfig configures Cloudflare. The token is taken from Token,
// then TokenFile, then CLOUDFLARE_API_TOKEN.
type CloudflareConfig struct {
	Token     string `json:"token,omitempty" yaml:"token,omitempty" toml:"token,omitempty"`
	TokenFile string `json:"token_file,omitempty" yaml:"token_file,omitempty" toml:"token_file,omitempty"`
	// Domain is the full record name, e.g. home.example.com.
	Domain    string `json:"domain" yaml:"domain" toml:"domain"`
	RecordTTL uint32 `json:"record_ttl,omitempty" yaml:"record_ttl,omitempty" toml:"record_ttl,omitempty"`
	Comment   string `json:"comment,omitempty" yaml:"comment,omitempty" toml:"comment,omitempty"`
	APIURL    string `json:"api_url,omitempty" yaml:"api_url,omitempty" toml:"api_url,omitempty"`
}

// Route53Config configures AWS Route 53. Credentials come from the AWS
// default chain.
type Route53Config struct {
	HostedZoneID string `json:"hosted_zone_id" yaml:"hosted_zone_id" toml:"hosted_zone_id"`
	RecordName   string `json:"record_name" yaml:"record_name" toml:"record_name"`
	RecordType   string `json:"record_type,omitempty" yaml:"record_type,omitempty" toml:"record_type,omitempty"`
	RecordTTL    uint32 `json:"record_ttl,omitempty" yaml:"record_ttl,omitempty" toml:"record_ttl,omitempty"`
	Region       string `json:"region,omitempty" yaml:"region,omitempty" toml:"region,omitempty"`
	// Endpoint overrides the Route 53 API base URL.
	Endpoint     string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" toml:"endpoint,omitempty"`
}

// AliyunConfig configures Alibaba Cloud DNS. Keys fall back to ALIYUN_AK
// and ALIYUN_SK.
type AliyunConfig struct {
	AccessKeyID     string `json:"access_key_id,omitempty" yaml:"access_key_id,omitempty" toml:"access_key_id,omitempty"`
	AccessKeySecret string `json:"access_key_secret,omitempty" yaml:"access_key_secret,omitempty" toml:"access_key_secret,omitempty"`
	Domain          string `json:"domain" yaml:"domain" toml:"domain"`
	RecordHost      string `json:"record_host,omitempty" yaml:"record_host,omitempty" toml:"record_host,omitempty"`
	RecordType      string `json:"record_type,omitempty" yaml:"record_type,omitempty" toml:"record_type,omitempty"`
	RecordTTL       uint32 `json:"record_ttl,omitempty" yaml:"record_ttl,omitempty" toml:"record_ttl,omitempty"`
	Endpoint        string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" toml:"endpoint,omitempty"`
}

// DNSPodConfig configures Tencent Cloud DNSPod. Keys fall back to
// TENCENTCLOUD_SECRET_ID and TENCENTCLOUD_SECRET_KEY.
type DNSPodConfig struct {
	SecretID   string `json:"secret_id,omitempty" yaml:"secret_id,omitempty" toml:"secret_id,omitempty"`
	SecretKey  string `json:"secret_key,omitempty" yaml:"secret_key,omitempty" toml:"secret_key,omitempty"`
	Domain     string `json:"domain" yaml:"domain" toml:"domain"`
	RecordHost string `json:"record_host,omitempty" yaml:"record_host,omitempty" toml:"record_host,omitempty"`
	RecordType string `json:"record_type,omitempty" yaml:"record_type,omitempty" toml:"record_type,omitempty"`
	RecordTTL  uint32 `json:"record_ttl,omitempty" yaml:"record_ttl,omitempty" toml:"record_ttl,omitempty"`
	Region     string `json:"region,omitempty" yaml:"region,omitempty" toml:"region,omitempty"`
}

// StaticConfig pins the public address instead of looking it up.
type StaticConfig struct {
	Address string `json:"address" yaml:"address" toml:"address"`
}

// RouterOSConfig reads the WAN address from a MikroTik router. Password
// falls back to ROUTEROS_PASSWORD.
type RouterOSConfig struct {
	Address   string `json:"address" yaml:"address" toml:"address"`
	Username  string `json:"username" yaml:"username" toml:"username"`
	Password  string `json:"password,omitempty" yaml:"password,omitempty" toml:"password,omitempty"`
	Interface string `json:"interface" yaml:"interface" toml:"interface"`
	IPv6      bool   `json:"ipv6,omitempty" yaml:"ipv6,omitempty" toml:"ipv6,omitempty"`
}

// InterfaceConfig reads the address of a local network interface.
type InterfaceConfig struct {
	Name string `json:"name" yaml:"name" toml:"name"`
	IPv6 bool   `json:"ipv6,omitempty" yaml:"ipv6,omitempty" toml:"ipv6,omitempty"`
}

// OpenDNSConfig overrides the resolver asked for myip.opendns.com.
type OpenDNSConfig struct {
	Server string `json:"server,omitempty" yaml:"server,omitempty" toml:"server,omitempty"`
	IPv6   bool   `json:"ipv6,omitempty" yaml:"ipv6,omitempty" toml:"ipv6,omitempty"`
}

// FormatFromPath picks the document format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported config extension %q: only .json, .toml and .yaml are supported", filepath.Ext(path))
}

// LoadConfig reads, decodes and validates the document at path.
func LoadConfig(path string) (*Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	byt, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	conf, err := ParseConfig(byt, format)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return conf, nil
}

// ParseConfig decodes byt and fills in defaults. It does not validate.
func ParseConfig(byt []byte, format Format) (*Config, error) {
	var conf Config
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(byt))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&conf); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(byt), &conf)
		if err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("decode toml: unknown keys %v", undecoded)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(byt))
		dec.KnownFields(true)
		if err := dec.Decode(&conf); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
	conf.setDefaults()
	return &conf, nil
}

func (c *Config) setDefaults() {
	if c.Interval == 0 {
		c.Interval = uint32(DefaultInterval.Seconds())
	}
	if c.UpdateOn == "" {
		c.UpdateOn = UpdateOnAttempted
	}
	if c.PublishConcurrency < 1 {
		c.PublishConcurrency = 1
	}
}

// Validate reports every configuration error at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Interval == 0 {
		errs = append(errs, errors.New("interval must be positive"))
	}
	if !c.UpdateOn.valid() {
		errs = append(errs, fmt.Errorf("update_on must be %q or %q, got %q",
			UpdateOnAttempted, UpdateOnAllSucceeded, c.UpdateOn))
	}
	switch c.Log.Level {
	case LogLevelDefault, LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case LogFormatDefault, LogFormatConsole, LogFormatJSON:
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q", c.Log.Format))
	}

	if len(c.IPProvider) == 0 {
		errs = append(errs, errors.New("at least one ip_provider is required"))
	}
	if len(c.DNSProvider) == 0 {
		errs = append(errs, errors.New("at least one dns_provider is required"))
	}
	seen := make(map[ProviderName]bool)
	for _, name := range c.IPProvider {
		p, err := ParseIPProvider(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[p] {
			errs = append(errs, fmt.Errorf("ip provider %s listed more than once", p))
			continue
		}
		seen[p] = true
		if !c.hasBlock(p) {
			errs = append(errs, fmt.Errorf("ip provider %s: %w", p, ErrNotConfigured))
		}
	}
	clear(seen)
	for _, name := range c.DNSProvider {
		p, err := ParseDNSProvider(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[p] {
			errs = append(errs, fmt.Errorf("dns provider %s listed more than once", p))
			continue
		}
		seen[p] = true
		if !c.hasBlock(p) {
			errs = append(errs, fmt.Errorf("dns provider %s: %w", p, ErrNotConfigured))
		}
	}
	return errors.Join(errs...)
}

// hasBlock reports whether the sub-configuration p needs is present.
func (c *Config) hasBlock(p ProviderName) bool {
	switch p {
	case NameCom:
		return c.NameCom != nil
	case Dynv6Com:
		return c.Dynv6Com != nil
	case Cloudflare:
		return c.Cloudflare != nil
	case Route53:
		return c.Route53 != nil
	case Aliyun:
		return c.Aliyun != nil
	case DNSPod:
		return c.DNSPod != nil
	case Static:
		return c.Static != nil
	case RouterOS:
		return c.RouterOS != nil
	case Interface:
		return c.Interface != nil
	}
	return true
}

func (c *Config) ipProviderNames() ([]ProviderName, error) {
	return parseNames(c.IPProvider, ParseIPProvider)
}

func (c *Config) dnsProviderNames() ([]ProviderName, error) {
	return parseNames(c.DNSProvider, ParseDNSProvider)
}

func parseNames(names []string, parse func(string) (ProviderName, error)) ([]ProviderName, error) {
	out := make([]ProviderName, 0, len(names))
	var errs []error
	for _, n := range names {
		p, err := parse(n)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, p)
	}
	return uniqueNames(out), errors.Join(errs...)
}

// uniqueNames drops repeated names, keeping the first occurrence.
func uniqueNames(names []ProviderName) []ProviderName {
	seen := make(map[ProviderName]bool, len(names))
	out := make([]ProviderName, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// credential returns value, or the environment variable envvar when value
// is empty.
func credential(value, envvar string) string {
	if value != "" {
		return value
	}
	return os.Getenv(envvar)
}

func ttlOr(ttl uint32) uint32 {
	if ttl == 0 {
		return defaultRecordTTL
	}
	return ttl
}
