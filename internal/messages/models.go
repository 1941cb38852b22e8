package messages

type MultisigLogLevel string

var (
	// generics
	FAILED_TYPE_ASSERTION = "Failed type assertion"
	FAILED_HEX_DECODE     = "Failed to decode hex string %s"

	// configuration info messages
	CONFIG_NO_CUSTOM_PATH_SPECIFIED = "No config file path specified with -c, --config. Using default path."
	CONFIG_STARTED_LOADING          = "The multisig configuration is loaded from %s"
	CONFIG_FINISHED_LOADING         = "The multisig configuration successfully loaded"
	CONFIG_FAILED_TO_OPEN           = "Failed to open config file %s"
	CONFIG_FAILED_TO_PARSE          = "Failed to parse config file %s"
	CONFIG_FAILED_ENV_OVERRIDES     = "Failed to apply environment overrides"

	// postgres
	POSTGRES_CONNECTING                        = "Connecting to postgres database using '%s'"
	POSTGRES_CONNECTED                         = "Successfully connected to postgres instance"
	POSTGRES_FAILED_TO_PARSE_CONNECTION_STRING = "Failed to parse postgres connection string"
	POSTGRES_FAILED_TO_CONNECT                 = "Failed to connect to postgres database"
	POSTGRES_FAILED_TO_PING                    = "Failed to ping postgres database instance"
	POSTGRES_FAILED_TO_START_TRANSACTION       = "Failed to start postgres transaction"
	POSTGRES_FAILED_TO_INSERT                  = "Failed to insert rows"
	POSTGRES_FAILED_TO_COPY_FROM               = "Postgres failed to copy from rows"
	POSTGRES_WRONG_NUMBER_OF_COPIED_ROWS       = "Postgres copied %d rows out of %d"
	POSTGRES_FAILED_TO_COMMIT_TX               = "Failed to commit postgres transaction"
	POSTGRES_FAILED_TO_QUERY                   = "Failed to query postgres"
)

const (
	// log levels used by the multisig client
	LOG_LEVEL_DEBUG   MultisigLogLevel = "DEBUG"
	LOG_LEVEL_INFO    MultisigLogLevel = "INFO"
	LOG_LEVEL_ERROR   MultisigLogLevel = "ERROR"
	LOG_LEVEL_WARNING MultisigLogLevel = "WARNING"
	LOG_LEVEL_SUCCESS MultisigLogLevel = "SUCCESS"
)

type MultisigMessage struct {
	LogLevel       MultisigLogLevel
	Component      string
	Error          error
	FormatString   string
	AdditionalInfo []interface{}
}
