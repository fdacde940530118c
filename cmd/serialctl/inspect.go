package main

import (
	"encoding/hex"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/zeebo/blake3"

	"github.com/lk2023060901/danmu-serial/application"
	"github.com/lk2023060901/danmu-serial/internal/pstream"
	"github.com/lk2023060901/danmu-serial/pkg/serial"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type recordInfo struct {
	Class  string `json:"class"`
	Size   int    `json:"size"`
	BLAKE3 string `json:"blake3"`
}

type streamInfo struct {
	File          string       `json:"file"`
	Format        string       `json:"format"`
	WriterVersion string       `json:"writer_version"`
	Encoding      string       `json:"encoding"`
	Records       []recordInfo `json:"records"`
}

func runInspect(app *application.Application, args []string, stdout io.Writer) error {
	fs := newFlagSet("inspect")
	if err := fs.Parse(args); err != nil {
		return err
	}
	files := fs.Args()
	if len(files) == 0 {
		return errors.New("inspect: no input files")
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		info, err := inspect(app, file, data)
		if err != nil {
			return errors.Wrapf(err, "inspect %s", file)
		}
		if err := enc.Encode(info); err != nil {
			return err
		}
	}
	return nil
}

// inspect 不注册任何处理器，所有记录都经由兜底处理汇总，负载不会被解码。
func inspect(app *application.Application, file string, data []byte) (*streamInfo, error) {
	header, err := pstream.NewInStream(data).ReadHeader()
	if err != nil {
		return nil, err
	}
	info := &streamInfo{
		File:          file,
		Format:        header.Format.String(),
		WriterVersion: header.WriterVersion.String(),
		Encoding:      header.NativeEncoding,
		Records:       []recordInfo{},
	}
	collect := func(class string, payload []byte) (any, error) {
		sum := blake3.Sum256(payload)
		info.Records = append(info.Records, recordInfo{
			Class:  class,
			Size:   len(payload),
			BLAKE3: hex.EncodeToString(sum[:]),
		})
		return nil, nil
	}
	if _, err := serial.Deserialize(data, nil, nil,
		serial.WithFallback(collect), serial.WithLogger(app.Logger("serialctl"))); err != nil {
		return nil, err
	}
	return info, nil
}
