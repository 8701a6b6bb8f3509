package iso7816

import (
	"fmt"
	"strings"
)

// A Transaction is one command APDU and the response it got.
// A Trace is the whole exchange behind one logical request, GET RESPONSE and
// 6CXX retries included. The outcome is the one of the last transaction.

// Transaction is a completed command-response pair.
type Transaction struct {
	Command  *CommandAPDU
	Response *ResponseAPDU
}

// IsSuccess is false when the response is missing.
func (t *Transaction) IsSuccess() bool {
	if t.Response == nil {
		return false
	}
	return t.Response.Status.IsSuccess()
}

// Trace is a sequence of transactions.
type Trace []Transaction

// Last returns the final transaction, or nil for an empty trace.
func (t Trace) Last() *Transaction {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// IsSuccess checks the final transaction only.
func (t Trace) IsSuccess() bool {
	last := t.Last()
	if last == nil {
		return false
	}
	return last.IsSuccess()
}

// Status returns the status word of the final transaction.
func (t Trace) Status() (StatusWord, bool) {
	last := t.Last()
	if last == nil || last.Response == nil {
		return 0, false
	}
	return last.Response.Status, true
}

// Data returns the response data of the final transaction.
func (t Trace) Data() []byte {
	last := t.Last()
	if last == nil || last.Response == nil {
		return nil
	}
	return last.Response.Data
}

// Describe prints every transaction with its raw bytes.
func (t Trace) Describe() string {
	var sb strings.Builder
	for i, tx := range t {
		fmt.Fprintf(&sb, "--- Transaction %d ---\n", i+1)
		if tx.Command != nil {
			raw, err := tx.Command.Bytes()
			if err != nil {
				fmt.Fprintf(&sb, ">> %s (encoding error: %v)\n", tx.Command, err)
			} else {
				fmt.Fprintf(&sb, ">> %s\n   % X\n", tx.Command, raw)
			}
		}
		if tx.Response != nil {
			fmt.Fprintf(&sb, "<< %s\n", tx.Response)
			if len(tx.Response.Data) > 0 {
				fmt.Fprintf(&sb, "   % X\n", tx.Response.Data)
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
