package negotiate

import (
	"errors"
	"fmt"
	"maps"

	"github.com/danmuck/sv2setup/internal/observability"
	"github.com/danmuck/sv2setup/internal/protocol/codec"
	"github.com/danmuck/sv2setup/internal/protocol/setup"
	"github.com/rs/zerolog/log"
)

// Support is what an upstream offers for one protocol. Flags holds the
// feature bits the upstream requires of its peers.
type Support struct {
	MinVersion uint16
	MaxVersion uint16
	Flags      uint32
}

// Policy maps each served protocol to its support.
type Policy map[setup.Protocol]Support

func (p Policy) Validate() error {
	if len(p) == 0 {
		return errors.New("negotiate: policy serves no protocol")
	}
	for proto, s := range p {
		if _, err := setup.DecodeProtocol(proto.Code()); err != nil {
			return err
		}
		if s.MinVersion > s.MaxVersion {
			return fmt.Errorf("negotiate: %s: min_version %d > max_version %d", proto, s.MinVersion, s.MaxVersion)
		}
	}
	return nil
}

// Response holds exactly one of Success or Error.
type Response struct {
	Success *setup.SetupConnectionSuccess
	Error   *setup.SetupConnectionError
}

func (r Response) Accepted() bool { return r.Success != nil }

// Encode returns the message type and body to send back.
func (r Response) Encode() (uint8, []byte) {
	if r.Success != nil {
		return setup.MsgTypeSetupConnectionSuccess, setup.EncodeSetupConnectionSuccess(*r.Success)
	}
	return setup.MsgTypeSetupConnectionError, setup.EncodeSetupConnectionError(*r.Error)
}

// Responder answers SetupConnection requests for an upstream.
type Responder struct {
	policy Policy
}

func NewResponder(policy Policy) (*Responder, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Responder{policy: maps.Clone(policy)}, nil
}

// Respond decides a request. A rejection is always answered with a
// SetupConnectionError rather than silence.
func (r *Responder) Respond(req setup.SetupConnection) Response {
	support, ok := r.policy[req.Protocol]
	if !ok {
		return r.reject(req, 0, setup.ErrorCodeUnsupportedProtocol)
	}

	version, ok := setup.SelectVersion(support.MinVersion, support.MaxVersion, req.MinVersion, req.MaxVersion)
	if !ok {
		return r.reject(req, 0, setup.ErrorCodeProtocolVersionMismatch)
	}

	if req.Flags != 0 || support.Flags != 0 {
		missing, err := setup.UnsupportedFlags(req.Protocol, support.Flags, req.Flags)
		if err != nil {
			log.Warn().Err(err).Str("protocol", req.Protocol.String()).Msg("negotiate.Respond no flag policy")
			return r.reject(req, req.Flags, setup.ErrorCodeUnsupportedFeatureFlags)
		}
		if missing != 0 {
			return r.reject(req, missing, setup.ErrorCodeUnsupportedFeatureFlags)
		}
	}

	log.Info().
		Str("protocol", req.Protocol.String()).
		Uint16("version", version).
		Uint32("flags", support.Flags).
		Str("vendor", req.Vendor.String()).
		Msg("negotiate.Respond accepted")
	observability.RecordHandshake(observability.RoleUpstream, req.Protocol.String(), observability.OutcomeAccepted, "")
	observability.RecordNegotiatedVersion(observability.RoleUpstream, req.Protocol.String(), version)
	return Response{Success: &setup.SetupConnectionSuccess{UsedVersion: version, Flags: support.Flags}}
}

// RespondBody decodes a request body and answers it. Bodies that do not
// decode are answered with an error message when the protocol byte is
// unknown; other decode failures are returned to the caller.
func (r *Responder) RespondBody(body []byte) (Response, error) {
	req, err := setup.DecodeSetupConnection(body)
	if errors.Is(err, setup.ErrInvalidProtocolCode) {
		log.Warn().Err(err).Msg("negotiate.RespondBody unknown protocol")
		observability.RecordHandshake(observability.RoleUpstream, "unknown", observability.OutcomeRejected, setup.ErrorCodeUnsupportedProtocol)
		return errorResponse(0, setup.ErrorCodeUnsupportedProtocol), nil
	}
	if err != nil {
		observability.RecordHandshake(observability.RoleUpstream, "unknown", observability.OutcomeInvalid, "")
		return Response{}, err
	}
	return r.Respond(req), nil
}

func (r *Responder) reject(req setup.SetupConnection, flags uint32, code string) Response {
	log.Warn().
		Str("protocol", req.Protocol.String()).
		Uint16("min_version", req.MinVersion).
		Uint16("max_version", req.MaxVersion).
		Uint32("flags", flags).
		Str("code", code).
		Msg("negotiate.Respond rejected")
	observability.RecordHandshake(observability.RoleUpstream, req.Protocol.String(), observability.OutcomeRejected, code)
	return errorResponse(flags, code)
}

func errorResponse(flags uint32, code string) Response {
	msg := setup.SetupConnectionError{Flags: flags, ErrorCode: codec.MustStr0255(code)}
	return Response{Error: &msg}
}
