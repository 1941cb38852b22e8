package postgres

import (
	"context"
	"fmt"

	"go-multisig/internal/config"
	"go-multisig/internal/messages"

	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"
)

const (
	connStringFormat = "postgresql://%s:%s@%s:%s/%s?sslmode=disable&pool_max_conns=%d"
	defaultConnPool  = 4
)

var (
	POSTGRES_CONNECTING                        = "Connecting to postgres at %s"
	POSTGRES_CONNECTED                         = "Connected to postgres"
	POSTGRES_FAILED_TO_PARSE_CONNECTION_STRING = "Failed to parse postgres connection string"
	POSTGRES_FAILED_TO_CONNECT                 = "Failed to connect to postgres"
	POSTGRES_FAILED_TO_PING                    = "Failed to ping postgres"
)

type (
	PostgresClient struct {
		Pool *pgxpool.Pool
	}
)

// Connect creates a new Postgres connection pool client instance
func Connect(ctx context.Context, dbConfiguration config.PostgresConfig, logger *zap.Logger) (*PostgresClient, error) {
	messages.NewMultisigMessage(
		messages.LOG_LEVEL_INFO,
		"",
		nil,
		POSTGRES_CONNECTING,
		fmt.Sprintf("%s:%s/%s",
			dbConfiguration.Host,
			dbConfiguration.Port,
			dbConfiguration.Db,
		),
	).Log(logger)

	poolConfig, err := pgxpool.ParseConfig(ConnString(dbConfiguration))
	if err != nil {
		return nil, messages.NewMultisigMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(Connect),
			err,
			POSTGRES_FAILED_TO_PARSE_CONNECTION_STRING,
		).Err()
	}

	poolConnection, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, messages.NewMultisigMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(Connect),
			err,
			POSTGRES_FAILED_TO_CONNECT,
		).Err()
	}

	err = poolConnection.Ping(ctx)
	if err != nil {
		poolConnection.Close()
		return nil, messages.NewMultisigMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(Connect),
			err,
			POSTGRES_FAILED_TO_PING,
		).Err()
	}

	messages.NewMultisigMessage(
		messages.LOG_LEVEL_SUCCESS,
		"",
		nil,
		POSTGRES_CONNECTED,
	).Log(logger)
	return &PostgresClient{Pool: poolConnection}, nil
}

// ConnString renders the pgx connection string of dbConfiguration.
func ConnString(dbConfiguration config.PostgresConfig) string {
	connPool := dbConfiguration.ConnPool
	if connPool <= 0 {
		connPool = defaultConnPool
	}
	return fmt.Sprintf(
		connStringFormat,
		dbConfiguration.User,
		dbConfiguration.Password,
		dbConfiguration.Host,
		dbConfiguration.Port,
		dbConfiguration.Db,
		connPool,
	)
}

func (pc *PostgresClient) Close() {
	pc.Pool.Close()
}
