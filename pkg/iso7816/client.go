package iso7816

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// The Client drives the T=0 transport behaviours that reach the application layer:
//
//   - 61XX, 9FXX and 9EXX: the card holds XX bytes. A GET RESPONSE with Le = XX
//     is sent with the class of the original command.
//   - 6CXX: the original command is sent again with Le = XX.
//
// Send returns the whole Trace of the exchange.

// maxExchanges bounds the transactions of a single Send.
const maxExchanges = 16

// ErrTooManyExchanges is returned when the card keeps asking for more exchanges.
var ErrTooManyExchanges = errors.New("too many chained exchanges")

// Transmitter abstracts the physical card connection.
type Transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

// Client manages the communication with the card.
type Client struct {
	Card   Transmitter
	Logger *zap.Logger
}

// NewClient creates a Client. A nil logger is replaced by a no-op one.
func NewClient(card Transmitter, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{Card: card, Logger: logger}
}

// Send transmits a command and follows the protocol statuses.
func (c *Client) Send(cmd *CommandAPDU) (Trace, error) {
	var trace Trace

	for len(trace) < maxExchanges {
		resp, err := c.transmit(cmd)
		if err != nil {
			return trace, err
		}
		trace = append(trace, Transaction{Command: cmd, Response: resp})

		if n, ok := resp.Status.ResponseAvailable(); ok {
			cmd = NewCommandAPDU(cmd.CLA, mustInstruction(INS_GET_RESPONSE), 0x00, 0x00, nil, n)
			continue
		}

		if resp.Status.SW1() == 0x6C {
			retry := *cmd
			retry.Ne = int(resp.Status.SW2())
			if retry.Ne == 0 {
				retry.Ne = MaxShortLe
			}
			cmd = &retry
			continue
		}

		return trace, nil
	}

	return trace, fmt.Errorf("%w after %d transactions", ErrTooManyExchanges, len(trace))
}

func (c *Client) transmit(cmd *CommandAPDU) (*ResponseAPDU, error) {
	raw, err := cmd.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding error: %w", err)
	}

	c.Logger.Debug("apdu sent", zap.String("command", cmd.String()), zap.Binary("raw", raw))

	rawResp, err := c.Card.Transmit(raw)
	if err != nil {
		return nil, fmt.Errorf("transmission error: %w", err)
	}

	resp, err := ParseResponseAPDU(rawResp)
	if err != nil {
		return nil, err
	}

	c.Logger.Debug("apdu received",
		zap.String("status", resp.Status.Verbose()),
		zap.Int("data_length", len(resp.Data)))
	return resp, nil
}
