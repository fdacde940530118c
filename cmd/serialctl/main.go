// serialctl 把文件打包为序列化流、解包并检查流中的钩子记录。
//
//	serialctl pack    [--out DIR] [--format binary|xdr] [--compression none|zstd|lz4] FILE...
//	serialctl unpack  [--out DIR] FILE.srl...
//	serialctl inspect FILE.srl...
package main

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"github.com/lk2023060901/danmu-serial/application"
	"github.com/lk2023060901/danmu-serial/pkg/log"
)

const usage = `usage: serialctl <command> [flags] FILE...

commands:
  pack      serialize each file into FILE.srl
  unpack    restore files from .srl streams
  inspect   list the hook records of .srl streams as JSON
`

func main() {
	if _, err := maxprocs.Set(maxprocs.Logger(log.S().Debugf)); err != nil {
		log.Warn("failed to set GOMAXPROCS", zap.Error(err))
	}
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	app := application.New()
	if err := app.RunWithArgs(args[1:]); err != nil {
		fmt.Fprintln(stderr, "serialctl:", err)
		return 1
	}
	defer log.Cleanup()

	var err error
	switch cmd := args[0]; cmd {
	case "pack":
		err = runPack(app, args[1:], stdout)
	case "unpack":
		err = runUnpack(app, args[1:], stdout)
	case "inspect":
		err = runInspect(app, args[1:], stdout)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "serialctl: unknown command %q\n\n%s", cmd, usage)
		return 2
	}
	if err != nil {
		app.Logger("serialctl").Error("command failed", zap.String("command", args[0]), zap.Error(err))
		fmt.Fprintln(stderr, "serialctl:", err)
		return 1
	}
	return 0
}
