package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/danmuck/sv2setup/internal/config"
	"github.com/danmuck/sv2setup/internal/logging"
	"github.com/danmuck/sv2setup/internal/protocol/negotiate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

type options struct {
	mode    string
	config  string
	hexBody string
	msgType uint
	metrics bool
}

func parseOptions(args []string) (options, error) {
	fs := flag.NewFlagSet("setupctl", flag.ContinueOnError)
	var opts options
	fs.StringVar(&opts.mode, "mode", "encode", "mode: encode|respond|decode")
	fs.StringVar(&opts.config, "config", "", "upstream (respond) or downstream (encode, decode) config path")
	fs.StringVar(&opts.hexBody, "hex", "", "hex-encoded message body")
	fs.UintVar(&opts.msgType, "type", 0, "message type of -hex in decode mode")
	fs.BoolVar(&opts.metrics, "metrics", false, "print handshake metrics after the run")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.config == "" {
		return options{}, errors.New("-config is required")
	}
	if opts.msgType > 0xff {
		return options{}, fmt.Errorf("-type out of range: %d", opts.msgType)
	}
	return opts, nil
}

func run(args []string, out io.Writer) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	switch opts.mode {
	case "encode":
		err = runEncode(opts, out)
	case "respond":
		err = runRespond(opts, out)
	case "decode":
		err = runDecode(opts, out)
	default:
		return fmt.Errorf("unknown mode: %s", opts.mode)
	}
	if err != nil || !opts.metrics {
		return err
	}
	return writeMetrics(out)
}

func writeMetrics(out io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "sv2setup_") {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
			return err
		}
	}
	return nil
}

func loadInitiator(path string) (*negotiate.Initiator, error) {
	cfg, err := config.LoadDownstreamConfig(path)
	if err != nil {
		return nil, err
	}
	req, err := cfg.Request()
	if err != nil {
		return nil, err
	}
	return negotiate.NewInitiator(req)
}

func runEncode(opts options, out io.Writer) error {
	initiator, err := loadInitiator(opts.config)
	if err != nil {
		return err
	}
	msgType, body := initiator.EncodeRequest()
	_, err = fmt.Fprintf(out, "%d %s\n", msgType, hex.EncodeToString(body))
	return err
}

func runRespond(opts options, out io.Writer) error {
	cfg, err := config.LoadUpstreamConfig(opts.config)
	if err != nil {
		return err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return err
	}
	responder, err := negotiate.NewResponder(policy)
	if err != nil {
		return err
	}
	body, err := decodeHex(opts.hexBody)
	if err != nil {
		return err
	}
	resp, err := responder.RespondBody(body)
	if err != nil {
		return err
	}
	msgType, reply := resp.Encode()
	_, err = fmt.Fprintf(out, "%d %s\n", msgType, hex.EncodeToString(reply))
	return err
}

func runDecode(opts options, out io.Writer) error {
	initiator, err := loadInitiator(opts.config)
	if err != nil {
		return err
	}
	body, err := decodeHex(opts.hexBody)
	if err != nil {
		return err
	}
	session, err := initiator.HandleResponse(uint8(opts.msgType), body)
	var rejected *negotiate.RejectedError
	if errors.As(err, &rejected) {
		_, err = fmt.Fprintf(out, "rejected code=%s flags=%#x\n", rejected.Code, rejected.Flags)
		return err
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "accepted protocol=%s version=%d flags=%#x\n", session.Protocol, session.Version, session.Flags)
	return err
}

func decodeHex(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("-hex is required")
	}
	body, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("-hex: %w", err)
	}
	return body, nil
}

func main() {
	logging.ConfigureRuntime()
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "setupctl: %v\n", err)
		os.Exit(1)
	}
}
