package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-serial/application"
	"github.com/lk2023060901/danmu-serial/pkg/handler"
	"github.com/lk2023060901/danmu-serial/pkg/serial"
)

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "config file path")
	return fs
}

func runPack(app *application.Application, args []string, stdout io.Writer) error {
	codec := app.Codec()
	fs := newFlagSet("pack")
	outDir := fs.StringP("out", "o", "", "output directory, defaults to the input file's directory")
	format := fs.StringP("format", "f", codec.Format, "stream format: binary or xdr")
	compression := fs.StringP("compression", "c", codec.Compression, "payload compression: none, zstd or lz4")
	if err := fs.Parse(args); err != nil {
		return err
	}
	files := fs.Args()
	if len(files) == 0 {
		return errors.New("pack: no input files")
	}

	codec.Format = *format
	opts, err := packOptions(codec)
	if err != nil {
		return err
	}
	class, err := blobClassFor(*compression)
	if err != nil {
		return err
	}
	names, handlers, release, err := blobHandlers()
	if err != nil {
		return err
	}
	defer release()

	values := make([]any, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		values = append(values, &handler.Blob{Class: class, Data: data})
	}

	opts = append(opts, serial.WithLogger(app.Logger("serialctl")))
	streams, err := serial.SerializeAll(values, names, handlers, opts...)
	if err != nil {
		return err
	}

	for i, file := range files {
		dst := streamPath(file, *outDir)
		if err := os.WriteFile(dst, streams[i], 0o644); err != nil {
			return err
		}
		app.Logger("serialctl").RatedInfo(1, "packed", zap.String("src", file), zap.String("dst", dst),
			zap.Int("size", len(values[i].(*handler.Blob).Data)), zap.Int("streamSize", len(streams[i])))
		fmt.Fprintln(stdout, dst)
	}
	return nil
}

// packOptions 总是开启严格模式：处理器失败时文件会被写成 NULL 流，这里改为直接报错。
func packOptions(codec serial.Config) ([]serial.Option, error) {
	codec.Strict = true
	return codec.Options()
}

func streamPath(file, outDir string) string {
	dir := lo.Ternary(outDir == "", filepath.Dir(file), outDir)
	return filepath.Join(dir, filepath.Base(file)+streamExt)
}

func restoredPath(file, outDir string) string {
	dir := lo.Ternary(outDir == "", filepath.Dir(file), outDir)
	base := filepath.Base(file)
	return filepath.Join(dir, lo.Ternary(strings.HasSuffix(base, streamExt), strings.TrimSuffix(base, streamExt), base+".out"))
}
