// Package restyutil dumps raw resty transactions to pluggable outputs,
// for replaying parser changes against real portal responses.
package restyutil

import (
	"strconv"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

type DumpOutput interface {
	Write(id string, contents string)
}

// DumpTransactions registers hooks that write every completed http
// transaction on the client to output. Tracing is left to the caller's
// own instrumentation; this only captures wire payloads.
func DumpTransactions(client *resty.Client, output DumpOutput) {
	if output == nil {
		return
	}

	var idcounter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id := strconv.FormatUint(atomic.AddUint64(&idcounter, 1), 10)
		output.Write(id, formatHttpMessage(res))
		return nil
	})
}
