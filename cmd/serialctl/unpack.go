package main

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/danmu-serial/application"
	"github.com/lk2023060901/danmu-serial/pkg/handler"
	"github.com/lk2023060901/danmu-serial/pkg/serial"
)

func runUnpack(app *application.Application, args []string, stdout io.Writer) error {
	fs := newFlagSet("unpack")
	outDir := fs.StringP("out", "o", "", "output directory, defaults to the stream's directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	files := fs.Args()
	if len(files) == 0 {
		return errors.New("unpack: no input files")
	}

	names, handlers, release, err := blobHandlers()
	if err != nil {
		return err
	}
	defer release()
	c, err := serial.New(names, handlers, serial.WithLogger(app.Logger("serialctl")))
	if err != nil {
		return err
	}

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		v, err := c.Unmarshal(data)
		if err != nil {
			return errors.Wrapf(err, "unpack %s", file)
		}
		blob, ok := v.(*handler.Blob)
		if !ok {
			return errors.Newf("unpack %s: stream holds %T, not a file", file, v)
		}
		dst := restoredPath(file, *outDir)
		if err := os.WriteFile(dst, blob.Data, 0o644); err != nil {
			return err
		}
		fmt.Fprintln(stdout, dst)
	}
	return nil
}
