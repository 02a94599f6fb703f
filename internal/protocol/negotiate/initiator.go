package negotiate

import (
	"errors"
	"fmt"

	"github.com/danmuck/sv2setup/internal/observability"
	"github.com/danmuck/sv2setup/internal/protocol/setup"
	"github.com/rs/zerolog/log"
)

var ErrVersionOutOfRange = errors.New("negotiate: used version outside offered range")

// RejectedError is returned when the upstream answers with
// SetupConnection.Error.
type RejectedError struct {
	Flags uint32
	Code  string
}

func (e *RejectedError) Error() string {
	if e.Flags == 0 {
		return fmt.Sprintf("negotiate: setup rejected: %s", e.Code)
	}
	return fmt.Sprintf("negotiate: setup rejected: %s (flags=%#x)", e.Code, e.Flags)
}

// Session is the outcome of an accepted setup.
type Session struct {
	Protocol setup.Protocol
	Version  uint16
	Flags    uint32
}

// Initiator drives the downstream side of one setup.
type Initiator struct {
	request setup.SetupConnection
}

// NewInitiator validates req. The request's strings are copied so the
// initiator does not depend on the caller's buffers.
func NewInitiator(req setup.SetupConnection) (*Initiator, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	owned, err := setup.DecodeSetupConnection(setup.EncodeSetupConnection(req))
	if err != nil {
		return nil, err
	}
	return &Initiator{request: owned}, nil
}

func (i *Initiator) Request() setup.SetupConnection { return i.request }

func (i *Initiator) EncodeRequest() (uint8, []byte) {
	return setup.MsgTypeSetupConnection, setup.EncodeSetupConnection(i.request)
}

// HandleResponse interprets the upstream's answer.
func (i *Initiator) HandleResponse(msgType uint8, body []byte) (Session, error) {
	proto := i.request.Protocol.String()
	switch msgType {
	case setup.MsgTypeSetupConnectionSuccess:
		success, err := setup.DecodeSetupConnectionSuccess(body)
		if err != nil {
			observability.RecordHandshake(observability.RoleDownstream, proto, observability.OutcomeInvalid, "")
			return Session{}, err
		}
		if success.UsedVersion < i.request.MinVersion || success.UsedVersion > i.request.MaxVersion {
			observability.RecordHandshake(observability.RoleDownstream, proto, observability.OutcomeInvalid, "")
			return Session{}, fmt.Errorf("%w: %d not in [%d,%d]",
				ErrVersionOutOfRange, success.UsedVersion, i.request.MinVersion, i.request.MaxVersion)
		}
		log.Info().
			Str("protocol", proto).
			Uint16("version", success.UsedVersion).
			Uint32("flags", success.Flags).
			Msg("negotiate.HandleResponse accepted")
		observability.RecordHandshake(observability.RoleDownstream, proto, observability.OutcomeAccepted, "")
		observability.RecordNegotiatedVersion(observability.RoleDownstream, proto, success.UsedVersion)
		return Session{Protocol: i.request.Protocol, Version: success.UsedVersion, Flags: success.Flags}, nil

	case setup.MsgTypeSetupConnectionError:
		rejection, err := setup.DecodeSetupConnectionError(body)
		if err != nil {
			observability.RecordHandshake(observability.RoleDownstream, proto, observability.OutcomeInvalid, "")
			return Session{}, err
		}
		code := rejection.ErrorCode.String()
		log.Warn().Str("protocol", proto).Str("code", code).Uint32("flags", rejection.Flags).Msg("negotiate.HandleResponse rejected")
		observability.RecordHandshake(observability.RoleDownstream, proto, observability.OutcomeRejected, code)
		return Session{}, &RejectedError{Flags: rejection.Flags, Code: code}

	default:
		return Session{}, fmt.Errorf("%w: %s", setup.ErrUnknownMessageType, setup.MessageName(msgType))
	}
}
