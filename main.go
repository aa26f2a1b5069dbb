//go:build !(js && wasm)

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"
	"github.com/voxelsplace/quadstack/utils"
)

func usage() {
	fmt.Println("Usage: qstool <command> [args]")
	fmt.Println("Commands:")
	fmt.Println("  sbr2qs input.sbr output.qstk            (compress a text SBR into a quadstack pack)")
	fmt.Println("  vox2qs input.raw output.qstk            (compress a raw voxel volume)")
	fmt.Println("  vtk2qs input.vtk output.qstk            (compress a VTK structured points volume)")
	fmt.Println("  qs2sbr input.qstk output.sbr            (expand a pack back into a text SBR)")
	fmt.Println("  qs2glb input.qstk output.glb            (mesh the layer boundaries into a .glb)")
	fmt.Println("  sample input.qstk x y h                 (print the material at height h of cell x,y)")
	fmt.Println("  verify input.sbr input.qstk             (check that a pack reproduces its SBR)")
	fmt.Println("  stats input.sbr                         (print a JSON size report)")
	fmt.Println("  genterrain cols rows layers seed output.sbr   (generate a layered terrain)")
	fmt.Println("Environment:")
	fmt.Println("  QSTOOL_CONFIG     path of a YAML config file")
	fmt.Println("  QSTOOL_LOG_LEVEL  debug, info, warn or error")
}

func args(n int) []string {
	if len(os.Args) != n+2 {
		usage()
		os.Exit(1)
	}
	return os.Args[2:]
}

func ints(s ...string) []int {
	out := make([]int, len(s))
	for i, v := range s {
		n, err := strconv.Atoi(v)
		if err != nil {
			logs.Fatal(errors.New("invalid integer argument").
				WithTag("value", v).
				Wrap(err))
		}
		out[i] = n
	}
	return out
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	conf, err := utils.LoadConfig()
	if err != nil {
		logs.Fatal(err)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}
	errors.Encoder = json.Marshal

	switch os.Args[1] {
	case "sbr2qs":
		a := args(2)
		err = utils.RunSBR2QS(a[0], a[1], conf)
	case "vox2qs":
		a := args(2)
		err = utils.RunVox2QS(a[0], a[1], conf)
	case "vtk2qs":
		a := args(2)
		err = utils.RunVTK2QS(a[0], a[1], conf)
	case "qs2sbr":
		a := args(2)
		err = utils.RunQS2SBR(a[0], a[1], conf)
	case "qs2glb":
		a := args(2)
		err = utils.RunQS2GLB(a[0], a[1], conf)
	case "sample":
		a := args(4)
		xy := ints(a[1], a[2])
		h, perr := strconv.ParseFloat(a[3], 32)
		if perr != nil {
			logs.Fatal(errors.New("invalid height").
				WithTag("value", a[3]).
				Wrap(perr))
		}
		err = utils.RunSample(os.Stdout, a[0], xy[0], xy[1], float32(h), conf)
	case "verify":
		a := args(2)
		err = utils.RunVerify(context.Background(), a[0], a[1], conf)
	case "stats":
		a := args(1)
		err = utils.RunStats(os.Stdout, a[0], conf)
	case "genterrain":
		a := args(5)
		n := ints(a[0], a[1], a[2], a[3])
		err = utils.RunGenTerrain(n[0], n[1], n[2], int64(n[3]), a[4])
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		logs.Fatal(err)
	}
}
