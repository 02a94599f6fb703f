package setup

import (
	"fmt"

	"github.com/danmuck/sv2setup/internal/protocol/codec"
	"github.com/rs/zerolog/log"
)

// Message type IDs for the setup family.
const (
	MsgTypeSetupConnection        uint8 = 0x00
	MsgTypeSetupConnectionSuccess uint8 = 0x01
	MsgTypeSetupConnectionError   uint8 = 0x02
)

type messageSpec struct {
	name   string
	decode func([]byte) (any, error)
}

var messages = map[uint8]messageSpec{
	MsgTypeSetupConnection: {
		name:   "SetupConnection",
		decode: func(b []byte) (any, error) { return DecodeSetupConnection(b) },
	},
	MsgTypeSetupConnectionSuccess: {
		name:   "SetupConnection.Success",
		decode: func(b []byte) (any, error) { return DecodeSetupConnectionSuccess(b) },
	},
	MsgTypeSetupConnectionError: {
		name:   "SetupConnection.Error",
		decode: func(b []byte) (any, error) { return DecodeSetupConnectionError(b) },
	},
}

// MessageName returns a display name for a message type.
func MessageName(msgType uint8) string {
	if spec, ok := messages[msgType]; ok {
		return spec.name
	}
	return fmt.Sprintf("unknown(0x%02x)", msgType)
}

// DecodeMessage decodes a body by message type. The result is one of
// SetupConnection, SetupConnectionSuccess or SetupConnectionError.
func DecodeMessage(msgType uint8, body []byte) (any, error) {
	spec, ok := messages[msgType]
	if !ok {
		log.Error().Uint8("msg_type", msgType).Msg("setup.DecodeMessage unknown message type")
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownMessageType, msgType)
	}
	log.Debug().Str("msg", spec.name).Int("len", len(body)).Msg("setup.DecodeMessage")
	return spec.decode(body)
}

// Size is the encoded body size.
func (m SetupConnection) Size() int {
	return 1 + 2 + 2 + 4 + m.EndpointHost.Size() + 2 +
		m.Vendor.Size() + m.HardwareVersion.Size() + m.Firmware.Size() + m.DeviceID.Size()
}

func (m SetupConnectionSuccess) Size() int { return 2 + 4 }

func (m SetupConnectionError) Size() int { return 4 + m.ErrorCode.Size() }

func EncodeSetupConnection(m SetupConnection) []byte {
	enc := codec.NewEncoder(m.Size())
	enc.U8(m.Protocol.Code())
	enc.U16(m.MinVersion)
	enc.U16(m.MaxVersion)
	enc.U32(m.Flags)
	enc.Str0255(m.EndpointHost)
	enc.U16(m.EndpointPort)
	enc.Str0255(m.Vendor)
	enc.Str0255(m.HardwareVersion)
	enc.Str0255(m.Firmware)
	enc.Str0255(m.DeviceID)
	return enc.Bytes()
}

func EncodeSetupConnectionSuccess(m SetupConnectionSuccess) []byte {
	enc := codec.NewEncoder(m.Size())
	enc.U16(m.UsedVersion)
	enc.U32(m.Flags)
	return enc.Bytes()
}

func EncodeSetupConnectionError(m SetupConnectionError) []byte {
	enc := codec.NewEncoder(m.Size())
	enc.U32(m.Flags)
	enc.Str0255(m.ErrorCode)
	return enc.Bytes()
}

// DecodeSetupConnection parses a request body. String fields alias body.
func DecodeSetupConnection(body []byte) (SetupConnection, error) {
	dec := codec.NewDecoder(body)
	var (
		m   SetupConnection
		err error
	)
	code, err := dec.U8()
	if err != nil {
		return SetupConnection{}, err
	}
	if m.Protocol, err = DecodeProtocol(code); err != nil {
		return SetupConnection{}, err
	}
	if m.MinVersion, err = dec.U16(); err != nil {
		return SetupConnection{}, err
	}
	if m.MaxVersion, err = dec.U16(); err != nil {
		return SetupConnection{}, err
	}
	if m.Flags, err = dec.U32(); err != nil {
		return SetupConnection{}, err
	}
	if m.EndpointHost, err = decodeField(dec, "endpoint_host"); err != nil {
		return SetupConnection{}, err
	}
	if m.EndpointPort, err = dec.U16(); err != nil {
		return SetupConnection{}, err
	}
	if m.Vendor, err = decodeField(dec, "vendor"); err != nil {
		return SetupConnection{}, err
	}
	if m.HardwareVersion, err = decodeField(dec, "hardware_version"); err != nil {
		return SetupConnection{}, err
	}
	if m.Firmware, err = decodeField(dec, "firmware"); err != nil {
		return SetupConnection{}, err
	}
	if m.DeviceID, err = decodeField(dec, "device_id"); err != nil {
		return SetupConnection{}, err
	}
	if err := dec.Finish(); err != nil {
		return SetupConnection{}, err
	}
	return m, nil
}

func DecodeSetupConnectionSuccess(body []byte) (SetupConnectionSuccess, error) {
	dec := codec.NewDecoder(body)
	var (
		m   SetupConnectionSuccess
		err error
	)
	if m.UsedVersion, err = dec.U16(); err != nil {
		return SetupConnectionSuccess{}, err
	}
	if m.Flags, err = dec.U32(); err != nil {
		return SetupConnectionSuccess{}, err
	}
	if err := dec.Finish(); err != nil {
		return SetupConnectionSuccess{}, err
	}
	return m, nil
}

// DecodeSetupConnectionError parses an error body. ErrorCode aliases body.
func DecodeSetupConnectionError(body []byte) (SetupConnectionError, error) {
	dec := codec.NewDecoder(body)
	var (
		m   SetupConnectionError
		err error
	)
	if m.Flags, err = dec.U32(); err != nil {
		return SetupConnectionError{}, err
	}
	if m.ErrorCode, err = decodeField(dec, "error_code"); err != nil {
		return SetupConnectionError{}, err
	}
	if err := dec.Finish(); err != nil {
		return SetupConnectionError{}, err
	}
	return m, nil
}

func decodeField(dec *codec.Decoder, name string) (codec.Str0255, error) {
	v, err := dec.Str0255()
	if err != nil {
		return codec.Str0255{}, fmt.Errorf("setup: %s: %w", name, err)
	}
	return v, nil
}
