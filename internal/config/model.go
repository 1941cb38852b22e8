package config

import (
	"encoding/json"
	"strings"

	"go-multisig/internal/codec"
)

const (
	defaultConfigFilePath = "config.json"
	envPrefix             = "MULTISIG_"
	redacted              = "<redacted>"
)

var (
	CONFIG_STARTED_LOADING  = "Loading config from %s"
	CONFIG_FINISHED_LOADING = "Config loaded"
	CONFIG_FAILED_TO_LOAD   = "Failed to load config from %s"
	CONFIG_INVALID          = "Invalid config"
)

type PostgresConfig struct {
	User     string `json:"postgres_user" env:"POSTGRES_USER"`
	Password string `json:"postgres_password" env:"POSTGRES_PASSWORD"`
	Host     string `json:"postgres_host" env:"POSTGRES_HOST"`
	Port     string `json:"postgres_port" env:"POSTGRES_PORT"`
	Db       string `json:"postgres_db" env:"POSTGRES_DB"`
	Schema   string `json:"postgres_schema" env:"POSTGRES_SCHEMA"`
	ConnPool int    `json:"postgres_conn_pool" env:"POSTGRES_CONN_POOL"`
}

type SpecVersionConfig struct {
	SpecName string `json:"spec_name"`
	First    int    `json:"first"`
	Last     int    `json:"last"`
}

type ChainConfig struct {
	WsRpcEndpoint         string              `json:"ws_rpc_endpoint" env:"WS_RPC_ENDPOINT"`
	HttpRpcEndpoint       string              `json:"http_rpc_endpoint" env:"HTTP_RPC_ENDPOINT"`
	WsSockets             int                 `json:"ws_sockets" env:"WS_SOCKETS"`
	RequestTimeoutSeconds int                 `json:"request_timeout_seconds" env:"REQUEST_TIMEOUT_SECONDS"`
	DecoderTypesFile      string              `json:"decoder_types_file" env:"DECODER_TYPES_FILE"`
	MetadataFile          string              `json:"metadata_file" env:"METADATA_FILE"`
	SupportedSpecVersions []SpecVersionConfig `json:"supported_spec_versions"`
	SS58Format            uint16              `json:"ss58_format" env:"SS58_FORMAT"`
	TokenDecimals         int32               `json:"token_decimals" env:"TOKEN_DECIMALS"`
}

type SignerConfig struct {
	Scheme  string `json:"scheme" env:"SCHEME"`
	SeedHex string `json:"seed_hex" env:"SEED"`
}

type SubmitterConfig struct {
	WaitFor           string `json:"wait_for" env:"WAIT_FOR"`
	TimeoutSeconds    int    `json:"timeout_seconds" env:"TIMEOUT_SECONDS"`
	Retries           uint   `json:"retries" env:"RETRIES"`
	RetryDelaySeconds int    `json:"retry_delay_seconds" env:"RETRY_DELAY_SECONDS"`
	EraPeriod         uint64 `json:"era_period" env:"ERA_PERIOD"`
	Tip               uint64 `json:"tip" env:"TIP"`
}

type MultisigConfig struct {
	Signatories AccountList `json:"signatories" env:"SIGNATORIES"`
	Threshold   uint16      `json:"threshold" env:"THRESHOLD"`
	StoreCall   bool        `json:"store_call" env:"STORE_CALL"`
	MaxWeight   uint64      `json:"max_weight" env:"MAX_WEIGHT"`
	Parallelism int         `json:"parallelism" env:"PARALLELISM"`
}

type JournalConfig struct {
	Enabled        bool           `json:"enabled" env:"ENABLED"`
	BufferSize     int            `json:"buffer_size" env:"BUFFER_SIZE"`
	PostgresConfig PostgresConfig `json:"postgres_config"`
}

type Config struct {
	LogLevel        string          `json:"log_level" env:"LOG_LEVEL"`
	MetricsAddr     string          `json:"metrics_addr" env:"METRICS_ADDR"`
	ChainConfig     ChainConfig     `json:"chain_config" envPrefix:"CHAIN_"`
	SignerConfig    SignerConfig    `json:"signer_config" envPrefix:"SIGNER_"`
	SubmitterConfig SubmitterConfig `json:"submitter_config" envPrefix:"SUBMITTER_"`
	MultisigConfig  MultisigConfig  `json:"multisig_config" envPrefix:"SET_"`
	JournalConfig   JournalConfig   `json:"journal_config" envPrefix:"JOURNAL_"`
}

// AccountList is a list of signatories given as SS58 addresses or hex.
type AccountList []codec.AccountID

func (l *AccountList) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	accounts, err := parseAccounts(raw)
	if err != nil {
		return err
	}
	*l = accounts
	return nil
}

func parseAccounts(raw []string) (AccountList, error) {
	accounts := make(AccountList, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := codec.ParseAccountID(s)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, id)
	}
	return accounts, nil
}
