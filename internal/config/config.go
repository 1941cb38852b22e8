package config

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"go-multisig/internal/clients/extrinsic"
	"go-multisig/internal/keys"
	"go-multisig/internal/messages"

	"github.com/caarlos0/env/v6"
	"github.com/go-faster/errors"
	"github.com/qdm12/gotree"
	"go.uber.org/zap"
)

// LoadConfig tries to load the service config from a config file given as a parameter. If the filename is a nil
// string pointer, it defaults to a constant file path "config.json". Environment variables prefixed with
// MULTISIG_ override the file.
func LoadConfig(configFilePath *string, logger *zap.Logger) (Config, error) {
	var (
		configPath     string
		multisigConfig Config
	)

	configPath = defaultConfigFilePath
	if configFilePath != nil && *configFilePath != "" {
		configPath = *configFilePath
	}
	messages.NewMultisigMessage(messages.LOG_LEVEL_INFO, "", nil, CONFIG_STARTED_LOADING, configPath).Log(logger)

	configFile, err := os.Open(configPath)
	if err != nil {
		return multisigConfig, messages.NewMultisigMessage(messages.LOG_LEVEL_ERROR, messages.GetComponent(LoadConfig), err, CONFIG_FAILED_TO_LOAD, configPath).Err()
	}
	defer configFile.Close()

	jsonParser := json.NewDecoder(configFile)
	err = jsonParser.Decode(&multisigConfig)
	if err != nil {
		return multisigConfig, messages.NewMultisigMessage(messages.LOG_LEVEL_ERROR, messages.GetComponent(LoadConfig), err, CONFIG_FAILED_TO_LOAD, configPath).Err()
	}

	if err := applyEnv(&multisigConfig); err != nil {
		return multisigConfig, err
	}
	if err := multisigConfig.Validate(); err != nil {
		return multisigConfig, messages.NewMultisigMessage(messages.LOG_LEVEL_ERROR, messages.GetComponent(LoadConfig), err, CONFIG_INVALID).Err()
	}

	messages.NewMultisigMessage(messages.LOG_LEVEL_SUCCESS, "", nil, CONFIG_FINISHED_LOADING).Log(logger)
	return multisigConfig, nil
}

func applyEnv(c *Config) error {
	err := env.ParseWithFuncs(c, map[reflect.Type]env.ParserFunc{
		reflect.TypeOf(AccountList{}): func(v string) (interface{}, error) {
			return parseAccounts(strings.Split(v, ","))
		}}, env.Options{Prefix: envPrefix})
	if err != nil {
		return errors.Wrap(err, "environment overrides")
	}
	return nil
}

// Validate checks the settings every action needs.
func (c Config) Validate() error {
	if c.ChainConfig.WsRpcEndpoint == "" {
		return errors.New("chain_config.ws_rpc_endpoint is required")
	}
	if c.SignerConfig.SeedHex == "" {
		return errors.New("signer_config.seed_hex is required")
	}
	if _, err := keys.ParseScheme(c.SignerConfig.Scheme); err != nil {
		return err
	}
	if _, ok := extrinsic.ParseWaitFor(c.SubmitterConfig.WaitFor); !ok {
		return errors.Errorf("submitter_config.wait_for %q must be in_block or finalized", c.SubmitterConfig.WaitFor)
	}

	n := len(c.MultisigConfig.Signatories)
	if n < 2 {
		return errors.Errorf("multisig_config.signatories needs at least 2 accounts, got %d", n)
	}
	if c.MultisigConfig.Threshold < 1 || int(c.MultisigConfig.Threshold) > n {
		return errors.Errorf("multisig_config.threshold %d must be between 1 and %d", c.MultisigConfig.Threshold, n)
	}

	if c.JournalConfig.Enabled && c.JournalConfig.PostgresConfig.Host == "" {
		return errors.New("journal_config.postgres_config.postgres_host is required when the journal is enabled")
	}
	return nil
}

// SubmitterSettings converts the submitter section.
func (c Config) SubmitterSettings() extrinsic.Config {
	waitFor, _ := extrinsic.ParseWaitFor(c.SubmitterConfig.WaitFor)
	return extrinsic.Config{
		WaitFor:    waitFor,
		Timeout:    time.Duration(c.SubmitterConfig.TimeoutSeconds) * time.Second,
		Retries:    c.SubmitterConfig.Retries,
		RetryDelay: time.Duration(c.SubmitterConfig.RetryDelaySeconds) * time.Second,
		EraPeriod:  c.SubmitterConfig.EraPeriod,
		Tip:        c.SubmitterConfig.Tip,
		SS58Format: c.ChainConfig.SS58Format,
	}
}

func (c Config) String() string {
	return c.toLinesNode().String()
}

func (c Config) toLinesNode() *gotree.Node {
	node := gotree.New("Settings summary:")

	chainNode := node.Appendf("Chain:")
	chainNode.Appendf("Websocket endpoint: %s", c.ChainConfig.WsRpcEndpoint)
	if c.ChainConfig.HttpRpcEndpoint != "" {
		chainNode.Appendf("HTTP endpoint: %s", c.ChainConfig.HttpRpcEndpoint)
	}
	chainNode.Appendf("SS58 format: %d", c.ChainConfig.SS58Format)
	if len(c.ChainConfig.SupportedSpecVersions) == 0 {
		chainNode.Appendf("Supported spec versions: any")
	}
	for _, spec := range c.ChainConfig.SupportedSpecVersions {
		last := "latest"
		if spec.Last != 0 {
			last = fmt.Sprint(spec.Last)
		}
		chainNode.Appendf("Supported spec versions: %s %d..%s", spec.SpecName, spec.First, last)
	}

	signerNode := node.Appendf("Signer:")
	scheme, _ := keys.ParseScheme(c.SignerConfig.Scheme)
	signerNode.Appendf("Scheme: %s", scheme)
	signerNode.Appendf("Seed: %s", redact(c.SignerConfig.SeedHex))

	submitterNode := node.Appendf("Submitter:")
	settings := c.SubmitterSettings()
	submitterNode.Appendf("Wait for: %s", c.waitFor())
	submitterNode.Appendf("Timeout: %s", settings.Timeout)
	submitterNode.Appendf("Retries: %d", settings.Retries)
	if settings.EraPeriod == 0 {
		submitterNode.Appendf("Era: immortal")
	} else {
		submitterNode.Appendf("Era: %d blocks", settings.EraPeriod)
	}

	multisigNode := node.Appendf("Multisig:")
	multisigNode.Appendf("Threshold: %d of %d", c.MultisigConfig.Threshold, len(c.MultisigConfig.Signatories))
	signatoriesNode := multisigNode.Appendf("Signatories:")
	for _, id := range c.MultisigConfig.Signatories {
		signatoriesNode.Appendf("%s", id.SS58(c.ChainConfig.SS58Format))
	}
	multisigNode.Appendf("Store call: %t", c.MultisigConfig.StoreCall)

	if c.JournalConfig.Enabled {
		pg := c.JournalConfig.PostgresConfig
		journalNode := node.Appendf("Journal:")
		journalNode.Appendf("Postgres: %s@%s:%s/%s", pg.User, pg.Host, pg.Port, pg.Db)
		journalNode.Appendf("Password: %s", redact(pg.Password))
	} else {
		node.Appendf("Journal: disabled")
	}
	return node
}

func (c Config) waitFor() string {
	if c.SubmitterConfig.WaitFor == "" {
		return "in_block"
	}
	return c.SubmitterConfig.WaitFor
}

func redact(secret string) string {
	if secret == "" {
		return "[not set]"
	}
	return redacted
}
