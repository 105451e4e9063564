package restyutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

type InstrumentOutput interface {
	Write(id string, contents string)
}

// FilesystemOutput dumps one file per request/response exchange into a
// directory, wiping whatever a previous run left there.
type FilesystemOutput struct {
	directory string
}

func NewFilesystemOutput(dir string) FilesystemOutput {
	os.RemoveAll(dir)
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		panic(err)
	}
	return FilesystemOutput{directory: dir}
}

func (o FilesystemOutput) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, id), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write request dump", "id", id, "err", err)
	}
}

// InstrumentDebug records every exchange the client performs to output.
// A nil output makes this a no-op.
func InstrumentDebug(client *resty.Client, output InstrumentOutput) {
	if output == nil {
		return
	}
	var idcounter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id := strconv.FormatUint(atomic.AddUint64(&idcounter, 1), 10)
		output.Write(id, formatExchange(res))
		return nil
	})
}

func formatExchange(res *resty.Response) string {
	req := res.Request
	return fmt.Sprintf(
		"%s %s\nstatus: %s\nduration: %s\n\n%s\n",
		req.Method, req.URL, res.Status(), res.Time(), res.String(),
	)
}
