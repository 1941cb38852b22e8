package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go-multisig/internal/callhash"
	"go-multisig/internal/clients"
	"go-multisig/internal/config"
	"go-multisig/internal/messages"
	"go-multisig/internal/multisig"

	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	actionAdvance = "advance"
	actionCancel  = "cancel"
	actionStatus  = "status"
	actionHistory = "history"
)

func main() {
	var (
		configFilePath string
		action         string
		callsHex       string
		callHash       string
	)

	flag.StringVar(&configFilePath, "config", "", "path to config file")
	flag.StringVar(&configFilePath, "c", "", "path to config file")
	flag.StringVar(&action, "action", actionStatus, "advance, cancel, status or history")
	flag.StringVar(&callsHex, "call", "", "hex encoded call; several comma separated calls are advanced in parallel")
	flag.StringVar(&callHash, "call-hash", "", "hex call hash, for operations whose call is stored on chain")
	flag.Parse()

	bootstrap, err := messages.NewLogger("info")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var path *string
	if configFilePath == "" {
		messages.NewMultisigMessage(messages.LOG_LEVEL_INFO, "", nil, messages.CONFIG_NO_CUSTOM_PATH_SPECIFIED).Log(bootstrap)
	} else {
		path = &configFilePath
	}
	multisigConfiguration, err := config.LoadConfig(path, bootstrap)
	if err != nil {
		bootstrap.Fatal("load config", zap.Error(err))
	}

	logger, err := messages.NewLogger(multisigConfiguration.LogLevel)
	if err != nil {
		bootstrap.Fatal("logger", zap.Error(err))
	}
	defer logger.Sync()
	logger.Info(multisigConfiguration.String())

	if multisigConfiguration.MetricsAddr != "" {
		go serveMetrics(multisigConfiguration.MetricsAddr, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orchestrator, err := clients.NewOrchestrator(ctx, multisigConfiguration, logger)
	if err != nil {
		logger.Fatal("init orchestrator", zap.Error(err))
	}
	defer orchestrator.Close()

	if err := run(ctx, orchestrator, action, callsHex, callHash); err != nil {
		if multisig.IsTerminal(err) {
			logger.Info(action, zap.String("outcome", err.Error()))
			return
		}
		logger.Error(action, zap.Error(err))
		orchestrator.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, orchestrator *clients.Orchestrator, action, callsHex, callHash string) error {
	ops, err := operations(orchestrator, callsHex, callHash)
	if err != nil {
		return err
	}

	switch action {
	case actionStatus:
		for _, op := range ops {
			status, err := orchestrator.Status(ctx, op)
			if err != nil {
				return err
			}
			fmt.Println(status)
		}
	case actionHistory:
		for _, op := range ops {
			history, err := orchestrator.History(ctx, op)
			if err != nil {
				return err
			}
			for _, submission := range history {
				fmt.Printf("%s %s %s by %s: %s %s (%s) extrinsic %s\n",
					submission.SubmittedAt.Format(time.RFC3339), submission.Fingerprint, submission.Action,
					submission.Signer, submission.Outcome, submission.Verdict, submission.Reason, submission.ExtrinsicHash)
			}
		}
	case actionCancel:
		for _, op := range ops {
			result, err := orchestrator.Cancel(ctx, op)
			printResult(op, result)
			if err != nil {
				return err
			}
		}
	case actionAdvance:
		if len(ops) == 1 {
			result, err := orchestrator.Advance(ctx, ops[0])
			printResult(ops[0], result)
			return err
		}
		results, err := orchestrator.AdvanceAll(ctx, ops)
		if err != nil {
			return err
		}
		var failed int
		for _, res := range results {
			printResult(res.Operation, res.Result)
			if res.Err != nil {
				fmt.Printf("%s: %v\n", res.Operation.Fingerprint(), res.Err)
			}
			if res.Failed() {
				failed++
			}
		}
		if failed > 0 {
			return errors.Errorf("%d of %d operations failed", failed, len(results))
		}
	default:
		return errors.Errorf("unknown action %q", action)
	}
	return nil
}

func operations(orchestrator *clients.Orchestrator, callsHex, callHash string) ([]*multisig.Operation, error) {
	if callHash != "" {
		fp, err := callhash.Parse(callHash)
		if err != nil {
			return nil, err
		}
		return []*multisig.Operation{orchestrator.OperationByHash(fp)}, nil
	}
	if callsHex == "" {
		return nil, errors.New("either -call or -call-hash is required")
	}

	var ops []*multisig.Operation
	for _, raw := range strings.Split(callsHex, ",") {
		encoded, err := common.HexToBytes(strings.TrimSpace(raw))
		if err != nil {
			return nil, errors.Wrapf(err, "call %q", raw)
		}
		op, err := orchestrator.Operation(encoded)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func printResult(op *multisig.Operation, result *clients.ActionResult) {
	if result == nil {
		return
	}
	line := fmt.Sprintf("%s: %s %s", op.Fingerprint(), result.Action, result.Verdict)
	if result.Timepoint != nil {
		line += " at " + result.Timepoint.String()
	}
	if result.Reason != "" {
		line += " (" + result.Reason + ")"
	}
	if result.Outcome != nil && result.Outcome.ExtrinsicHash != "" {
		line += " extrinsic " + result.Outcome.ExtrinsicHash
	}
	fmt.Println(line)
}

func serveMetrics(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	httpServer := http.Server{Addr: addr, Handler: mux}
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics listen and serve", zap.Error(err))
	}
}
